package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/silvanatrade/distributor-portal/internal/apperr"
	"github.com/silvanatrade/distributor-portal/internal/db"
	"github.com/silvanatrade/distributor-portal/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Currency codes with fixed behavior. EUR is the conversion base; PLN
// is the anchor of the upstream quote system and is never fetched.
const (
	codeEUR = "EUR"
	codePLN = "PLN"
)

// rateScale is the number of decimal places kept on computed rates.
const rateScale = 6

// Service resolves per-day EUR conversion rates, memoized in the
// currency_rates table so the upstream is queried at most once per
// currency per day.
type Service struct {
	db     *gorm.DB
	client Client
}

// NewService constructs a currency Service.
func NewService(conn *gorm.DB, client Client) *Service {
	return &Service{db: conn, client: client}
}

// truncateToDay drops the time-of-day component.
func truncateToDay(date time.Time) time.Time {
	date = date.UTC()
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}

// GetRate returns the rate-to-EUR for a currency on a calendar day.
// Cached rows are returned unchanged; otherwise the rate is resolved
// through the anchor currency, persisted, and returned.
func (s *Service) GetRate(ctx context.Context, code string, date time.Time) (*models.CurrencyRate, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return nil, apperr.Validation("currency code must be 3 letters")
	}
	day := truncateToDay(date)

	var cached models.CurrencyRate
	errFind := s.db.WithContext(ctx).
		Where("currency_code = ? AND rate_date = ?", code, day).
		First(&cached).Error
	if errFind == nil {
		return &cached, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("currency: lookup cached rate: %w", errFind)
	}

	// EUR is its own base; PLN is the quote anchor. Neither goes upstream.
	if code == codeEUR || code == codePLN {
		return s.persist(ctx, models.CurrencyRate{
			CurrencyCode: code,
			RateDate:     day,
			RateToEUR:    decimal.NewFromInt(1),
			Source:       models.RateSourceStatic,
		})
	}

	targetToPLN, errTarget := s.fetchWithFallback(ctx, code, day)
	if errTarget != nil {
		return nil, errTarget
	}
	eurToPLN, errEUR := s.fetchWithFallback(ctx, codeEUR, day)
	if errEUR != nil {
		return nil, errEUR
	}
	if eurToPLN.IsZero() {
		return nil, apperr.Upstream("currency rate unavailable for %s", code)
	}

	rate := targetToPLN.DivRound(eurToPLN, rateScale)
	return s.persist(ctx, models.CurrencyRate{
		CurrencyCode: code,
		RateDate:     day,
		RateToEUR:    rate,
		Source:       models.RateSourceNBP,
	})
}

// fetchWithFallback tries the exact day first and falls back once to
// the latest published rate. There is no retry beyond that.
func (s *Service) fetchWithFallback(ctx context.Context, code string, day time.Time) (decimal.Decimal, error) {
	rate, errExact := s.client.FetchMidRate(ctx, code, day)
	if errExact == nil {
		return rate, nil
	}
	if !errors.Is(errExact, ErrNoRateForDate) {
		log.WithError(errExact).WithField("currency", code).Warn("exact-date rate fetch failed")
	}

	rate, errLatest := s.client.FetchLatestMidRate(ctx, code)
	if errLatest != nil {
		return decimal.Zero, apperr.Wrap(apperr.KindUpstream, errLatest,
			"currency rate unavailable for %s", code)
	}
	return rate, nil
}

// persist inserts the resolved rate row. A unique-constraint conflict
// means a concurrent request won the insert; the winning row is read
// back and returned.
func (s *Service) persist(ctx context.Context, row models.CurrencyRate) (*models.CurrencyRate, error) {
	row.ID = uuid.NewString()
	errCreate := s.db.WithContext(ctx).Create(&row).Error
	if errCreate == nil {
		return &row, nil
	}
	if !db.IsUniqueViolation(errCreate) {
		return nil, fmt.Errorf("currency: persist rate: %w", errCreate)
	}

	var winner models.CurrencyRate
	if errFind := s.db.WithContext(ctx).
		Where("currency_code = ? AND rate_date = ?", row.CurrencyCode, row.RateDate).
		First(&winner).Error; errFind != nil {
		return nil, fmt.Errorf("currency: reread rate after conflict: %w", errFind)
	}
	return &winner, nil
}

// QuarterAverageRate returns the arithmetic mean of the rates sampled
// at the 15th day of each month in the quarter.
func (s *Service) QuarterAverageRate(ctx context.Context, code string, year, quarter int) (decimal.Decimal, error) {
	if quarter < 1 || quarter > 4 {
		return decimal.Zero, apperr.Validation("quarter must be between 1 and 4")
	}

	sum := decimal.Zero
	firstMonth := (quarter-1)*3 + 1
	for i := 0; i < 3; i++ {
		sampleDay := time.Date(year, time.Month(firstMonth+i), 15, 0, 0, 0, 0, time.UTC)
		rate, errRate := s.GetRate(ctx, code, sampleDay)
		if errRate != nil {
			return decimal.Zero, errRate
		}
		sum = sum.Add(rate.RateToEUR)
	}
	return sum.DivRound(decimal.NewFromInt(3), rateScale), nil
}

// ConvertToEUR converts a local-currency total using the average rate,
// rounded to 2 decimals.
func ConvertToEUR(localTotal, avgRate decimal.Decimal) decimal.Decimal {
	return localTotal.Mul(avgRate).Round(2)
}
