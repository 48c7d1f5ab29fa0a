package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityAction enumerates auditable actions.
type ActivityAction string

// ActivityAction constants cover security and domain events.
const (
	ActionLogin           ActivityAction = "LOGIN"
	ActionLoginFailed     ActivityAction = "LOGIN_FAILED"
	ActionLogout          ActivityAction = "LOGOUT"
	ActionTokenRefreshed  ActivityAction = "TOKEN_REFRESHED"
	ActionAccountLocked   ActivityAction = "ACCOUNT_LOCKED"
	ActionAccountUnlocked ActivityAction = "ACCOUNT_UNLOCKED"
	ActionUserCreated     ActivityAction = "USER_CREATED"
	ActionUserUpdated     ActivityAction = "USER_UPDATED"
	ActionUserDeleted     ActivityAction = "USER_DELETED"
	ActionPasswordChanged ActivityAction = "PASSWORD_CHANGED"
	ActionReportCreated   ActivityAction = "REPORT_CREATED"
	ActionReportDeleted   ActivityAction = "REPORT_DELETED"
	ActionMediaUploaded   ActivityAction = "MEDIA_UPLOADED"
	ActionMediaDeleted    ActivityAction = "MEDIA_DELETED"
	ActionRateFetched     ActivityAction = "RATE_FETCHED"
)

// ActivityLog is an append-only audit record. Rows are never updated
// or deleted by application code.
type ActivityLog struct {
	ID string `gorm:"type:uuid;primaryKey"` // UUID primary key.

	UserID *string `gorm:"type:uuid;index"`   // Acting user, nil for anonymous events.
	User   *User   `gorm:"foreignKey:UserID"` // Acting user record.

	Action ActivityAction `gorm:"type:text;not null;index"` // Audited action kind.

	ResourceType string `gorm:"type:text"` // Optional resource type.
	ResourceID   string `gorm:"type:text"` // Optional resource identifier.

	IP        string `gorm:"type:text"` // Optional client address.
	UserAgent string `gorm:"type:text"` // Optional client user agent.

	Detail datatypes.JSON `gorm:"type:json"` // Free-form JSON payload.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}
