package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSource tags where a cached currency rate came from.
type RateSource string

// RateSource constants identify rate origins.
const (
	// RateSourceNBP marks rates fetched from the national bank API.
	RateSourceNBP RateSource = "NBP"
	// RateSourceStatic marks fixed rates that never hit the upstream (EUR, PLN).
	RateSourceStatic RateSource = "STATIC"
)

// CurrencyRate memoizes a resolved rate-to-EUR for one currency and day.
// The (currency_code, rate_date) pair is unique, so the upstream provider
// is consulted at most once per currency per day.
type CurrencyRate struct {
	ID string `gorm:"type:uuid;primaryKey"` // UUID primary key.

	CurrencyCode string    `gorm:"type:varchar(3);not null;uniqueIndex:idx_currency_rates_code_date"` // Uppercase ISO code.
	RateDate     time.Time `gorm:"not null;uniqueIndex:idx_currency_rates_code_date"`                 // Day-truncated rate date (UTC).

	RateToEUR decimal.Decimal `gorm:"type:decimal(12,4);not null"` // Multiplicative factor to euros.

	Source RateSource `gorm:"type:text;not null"` // Rate origin tag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
