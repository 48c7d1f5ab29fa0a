package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SalesChannelsReport records a distributor's quarterly sales split by
// channel, with the local total converted into euros at save time.
type SalesChannelsReport struct {
	ID string `gorm:"type:uuid;primaryKey"` // UUID primary key.

	DistributorID string      `gorm:"type:uuid;not null;uniqueIndex:idx_sales_reports_period"` // Reporting distributor.
	Distributor   Distributor `gorm:"foreignKey:DistributorID"`                                // Reporting distributor record.

	Year    int `gorm:"not null;uniqueIndex:idx_sales_reports_period"` // Reporting year.
	Quarter int `gorm:"not null;uniqueIndex:idx_sales_reports_period"` // Reporting quarter (1-4).

	CurrencyCode string `gorm:"type:varchar(3);not null"` // Local currency of the totals.

	Channels datatypes.JSON `gorm:"type:json"` // Per-channel sales breakdown.

	LocalTotal decimal.Decimal `gorm:"type:decimal(14,2);not null"` // Total in local currency.
	EURTotal   decimal.Decimal `gorm:"type:decimal(14,2);not null"` // Total converted to euros.
	AvgRate    decimal.Decimal `gorm:"type:decimal(12,6);not null"` // Quarter-average rate used for conversion.

	CreatedByID string `gorm:"type:uuid;not null"`     // Author account ID.
	CreatedBy   User   `gorm:"foreignKey:CreatedByID"` // Author account record.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PurchaseReport records a distributor's quarterly purchases from the
// company, converted into euros the same way as sales reports.
type PurchaseReport struct {
	ID string `gorm:"type:uuid;primaryKey"` // UUID primary key.

	DistributorID string      `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_reports_period"` // Reporting distributor.
	Distributor   Distributor `gorm:"foreignKey:DistributorID"`                                   // Reporting distributor record.

	Year    int `gorm:"not null;uniqueIndex:idx_purchase_reports_period"` // Reporting year.
	Quarter int `gorm:"not null;uniqueIndex:idx_purchase_reports_period"` // Reporting quarter (1-4).

	CurrencyCode string `gorm:"type:varchar(3);not null"` // Local currency of the totals.

	LocalTotal decimal.Decimal `gorm:"type:decimal(14,2);not null"` // Total in local currency.
	EURTotal   decimal.Decimal `gorm:"type:decimal(14,2);not null"` // Total converted to euros.
	AvgRate    decimal.Decimal `gorm:"type:decimal(12,6);not null"` // Quarter-average rate used for conversion.

	CreatedByID string `gorm:"type:uuid;not null"`     // Author account ID.
	CreatedBy   User   `gorm:"foreignKey:CreatedByID"` // Author account record.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
