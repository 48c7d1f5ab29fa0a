package models

import "time"

// Distributor represents a partner company served by the portal.
type Distributor struct {
	ID string `gorm:"type:uuid;primaryKey"` // UUID primary key.

	Name    string `gorm:"type:text;not null;uniqueIndex"` // Company name.
	Country string `gorm:"type:text;not null"`             // ISO country name or code.

	CurrencyCode string `gorm:"type:varchar(3);not null"` // Local reporting currency (ISO 4217).

	ContactEmail string `gorm:"type:text"` // Optional contact address.

	Active bool `gorm:"not null;default:true"` // Whether the distributor is active.

	Users []User `gorm:"foreignKey:DistributorID"` // Accounts assigned to this distributor.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
