package models

import "time"

// User represents a portal account stored in the database.
type User struct {
	ID string `gorm:"type:uuid;primaryKey"` // UUID primary key.

	Email     string `gorm:"type:text;not null;uniqueIndex"` // Lowercase login email.
	Password  string `gorm:"type:text;not null"`             // Argon2id password hash.
	FirstName string `gorm:"type:text;not null"`             // Given name.
	LastName  string `gorm:"type:text;not null"`             // Family name.

	Role Role `gorm:"type:text;not null;index"` // Assigned role.

	Active              bool `gorm:"not null;default:true"`  // Whether the account can sign in.
	Locked              bool `gorm:"not null;default:false"` // Lockout flag set after repeated failures.
	FailedLoginAttempts int  `gorm:"not null;default:0"`     // Consecutive failed password checks.

	PasswordChangedAt  *time.Time `gorm:""`                       // When the password was last set by the user.
	MustChangePassword bool       `gorm:"not null;default:false"` // Forces a password change before other requests.

	DistributorID *string      `gorm:"type:uuid;index"`          // Assigned distributor ID.
	Distributor   *Distributor `gorm:"foreignKey:DistributorID"` // Assigned distributor.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// SanitizedUser is the user view returned to API clients. It never
// carries the password hash.
type SanitizedUser struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Role               Role       `json:"role"`
	Active             bool       `json:"active"`
	Locked             bool       `json:"locked"`
	MustChangePassword bool       `json:"must_change_password"`
	DistributorID      *string    `json:"distributor_id,omitempty"`
	PasswordChangedAt  *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Sanitize returns the API-safe view of the user.
func (u User) Sanitize() SanitizedUser {
	return SanitizedUser{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Role:               u.Role,
		Active:             u.Active,
		Locked:             u.Locked,
		MustChangePassword: u.MustChangePassword,
		DistributorID:      u.DistributorID,
		PasswordChangedAt:  u.PasswordChangedAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}
