package currency

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/silvanatrade/distributor-portal/internal/models"
)

func TestRefreshOnceWarmsDistributorCurrencies(t *testing.T) {
	client := &fakeClient{
		midRates: map[string]decimal.Decimal{
			"SEK": decimal.RequireFromString("0.3921"),
			"EUR": decimal.RequireFromString("4.3215"),
		},
	}
	svc, conn := newTestService(t, client)
	if errMigrate := conn.AutoMigrate(&models.Distributor{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	distributors := []models.Distributor{
		{ID: uuid.NewString(), Name: "Nordic Trade AB", CurrencyCode: "SEK", Active: true},
		{ID: uuid.NewString(), Name: "Berlin Handel GmbH", CurrencyCode: "EUR", Active: true},
		{ID: uuid.NewString(), Name: "Closed Co", CurrencyCode: "NOK", Active: false},
	}
	for i := range distributors {
		if errCreate := conn.Create(&distributors[i]).Error; errCreate != nil {
			t.Fatalf("create distributor: %v", errCreate)
		}
	}

	refresher := NewRefresher(conn, svc)
	if errRefresh := refresher.RefreshOnce(context.Background()); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}

	var count int64
	if errCount := conn.Model(&models.CurrencyRate{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count rates: %v", errCount)
	}
	// SEK through the anchor plus the static EUR row. The inactive
	// distributor's currency is skipped.
	if count != 2 {
		t.Fatalf("expected 2 cached rates, got %d", count)
	}

	var nokCount int64
	if errCount := conn.Model(&models.CurrencyRate{}).
		Where("currency_code = ?", "NOK").Count(&nokCount).Error; errCount != nil {
		t.Fatalf("count nok: %v", errCount)
	}
	if nokCount != 0 {
		t.Fatalf("inactive distributor currency must not be fetched, got %d rows", nokCount)
	}
}

func TestNewRefresherNilInputs(t *testing.T) {
	if NewRefresher(nil, nil) != nil {
		t.Fatal("expected nil refresher for nil inputs")
	}
}
