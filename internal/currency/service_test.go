package currency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/silvanatrade/distributor-portal/internal/apperr"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"gorm.io/gorm"
)

// fakeClient serves canned mid-rates and counts upstream calls.
type fakeClient struct {
	midRates    map[string]decimal.Decimal
	latestRates map[string]decimal.Decimal
	midCalls    int
	latestCalls int
	failAll     bool
}

func (f *fakeClient) FetchMidRate(_ context.Context, code string, _ time.Time) (decimal.Decimal, error) {
	f.midCalls++
	if f.failAll {
		return decimal.Zero, errors.New("upstream down")
	}
	rate, ok := f.midRates[code]
	if !ok {
		return decimal.Zero, ErrNoRateForDate
	}
	return rate, nil
}

func (f *fakeClient) FetchLatestMidRate(_ context.Context, code string) (decimal.Decimal, error) {
	f.latestCalls++
	if f.failAll {
		return decimal.Zero, errors.New("upstream down")
	}
	rate, ok := f.latestRates[code]
	if !ok {
		return decimal.Zero, errors.New("no latest rate")
	}
	return rate, nil
}

func newTestService(t *testing.T, client Client) (*Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := conn.AutoMigrate(&models.CurrencyRate{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewService(conn, client), conn
}

func TestGetRate_EURNeverCallsUpstream(t *testing.T) {
	client := &fakeClient{}
	svc, _ := newTestService(t, client)

	rate, err := svc.GetRate(context.Background(), "eur", time.Date(2024, 1, 15, 13, 45, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if !rate.RateToEUR.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected rate 1, got %s", rate.RateToEUR)
	}
	if rate.Source != models.RateSourceStatic {
		t.Fatalf("expected static source, got %s", rate.Source)
	}
	if client.midCalls+client.latestCalls != 0 {
		t.Fatalf("expected no upstream calls, got %d", client.midCalls+client.latestCalls)
	}
}

func TestGetRate_PLNIsAnchorNeverFetched(t *testing.T) {
	client := &fakeClient{}
	svc, _ := newTestService(t, client)

	rate, err := svc.GetRate(context.Background(), "PLN", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if !rate.RateToEUR.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected rate 1, got %s", rate.RateToEUR)
	}
	if client.midCalls+client.latestCalls != 0 {
		t.Fatalf("expected no upstream calls, got %d", client.midCalls+client.latestCalls)
	}
}

func TestGetRate_ComputesThroughAnchor(t *testing.T) {
	client := &fakeClient{midRates: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("3.9850"),
		"EUR": decimal.RequireFromString("4.3215"),
	}}
	svc, _ := newTestService(t, client)

	rate, err := svc.GetRate(context.Background(), "USD", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	expected := decimal.RequireFromString("3.9850").
		DivRound(decimal.RequireFromString("4.3215"), 6)
	if !rate.RateToEUR.Equal(expected) {
		t.Fatalf("expected %s, got %s", expected, rate.RateToEUR)
	}
	if rate.Source != models.RateSourceNBP {
		t.Fatalf("expected NBP source, got %s", rate.Source)
	}
}

func TestGetRate_MemoizesPerDay(t *testing.T) {
	client := &fakeClient{midRates: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("4.0000"),
		"EUR": decimal.RequireFromString("4.0000"),
	}}
	svc, conn := newTestService(t, client)

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	first, err := svc.GetRate(context.Background(), "USD", day)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	callsAfterFirst := client.midCalls

	second, err := svc.GetRate(context.Background(), "USD", day.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if client.midCalls != callsAfterFirst {
		t.Fatalf("expected no extra upstream calls, got %d more", client.midCalls-callsAfterFirst)
	}
	if !first.RateToEUR.Equal(second.RateToEUR) {
		t.Fatalf("expected cached value %s, got %s", first.RateToEUR, second.RateToEUR)
	}

	var count int64
	if errCount := conn.Model(&models.CurrencyRate{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected one cached row, got %d", count)
	}
}

func TestGetRate_FallsBackToLatest(t *testing.T) {
	client := &fakeClient{
		midRates: map[string]decimal.Decimal{"EUR": decimal.RequireFromString("4.3000")},
		latestRates: map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("3.8700"),
		},
	}
	svc, _ := newTestService(t, client)

	rate, err := svc.GetRate(context.Background(), "USD", time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	expected := decimal.RequireFromString("3.8700").
		DivRound(decimal.RequireFromString("4.3000"), 6)
	if !rate.RateToEUR.Equal(expected) {
		t.Fatalf("expected %s, got %s", expected, rate.RateToEUR)
	}
	if client.latestCalls == 0 {
		t.Fatalf("expected latest-rate fallback call")
	}
}

func TestGetRate_UpstreamUnavailable(t *testing.T) {
	client := &fakeClient{failAll: true}
	svc, conn := newTestService(t, client)

	_, err := svc.GetRate(context.Background(), "USD", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatalf("expected upstream error")
	}
	if !apperr.IsKind(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream kind, got %v", err)
	}

	var count int64
	if errCount := conn.Model(&models.CurrencyRate{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected no cached row on failure, got %d", count)
	}
}

func TestQuarterAverageRate(t *testing.T) {
	client := &fakeClient{midRates: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("4.2000"),
		"EUR": decimal.RequireFromString("4.2000"),
	}}
	svc, conn := newTestService(t, client)

	// Pre-seed distinct rates for the three sample days.
	seeded := []string{"0.900000", "0.920000", "0.940000"}
	for i, value := range seeded {
		row := models.CurrencyRate{
			ID:           "00000000-0000-0000-0000-00000000000" + string(rune('1'+i)),
			CurrencyCode: "USD",
			RateDate:     time.Date(2024, time.Month(i+1), 15, 0, 0, 0, 0, time.UTC),
			RateToEUR:    decimal.RequireFromString(value),
			Source:       models.RateSourceNBP,
		}
		if errCreate := conn.Create(&row).Error; errCreate != nil {
			t.Fatalf("seed rate: %v", errCreate)
		}
	}

	avg, err := svc.QuarterAverageRate(context.Background(), "USD", 2024, 1)
	if err != nil {
		t.Fatalf("quarter average: %v", err)
	}
	if !avg.Equal(decimal.RequireFromString("0.92")) {
		t.Fatalf("expected average 0.92, got %s", avg)
	}
	if client.midCalls != 0 {
		t.Fatalf("expected cached rates only, got %d upstream calls", client.midCalls)
	}
}

func TestQuarterAverageRate_RejectsBadQuarter(t *testing.T) {
	svc, _ := newTestService(t, &fakeClient{})
	if _, err := svc.QuarterAverageRate(context.Background(), "USD", 2024, 5); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestConvertToEUR(t *testing.T) {
	total := ConvertToEUR(decimal.RequireFromString("1000.00"), decimal.RequireFromString("0.231567"))
	if !total.Equal(decimal.RequireFromString("231.57")) {
		t.Fatalf("expected 231.57, got %s", total)
	}
}
