// Package activity writes the append-only account activity log.
package activity

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/silvanatrade/distributor-portal/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry describes one auditable event.
type Entry struct {
	UserID       *string
	Action       models.ActivityAction
	ResourceType string
	ResourceID   string
	IP           string
	UserAgent    string
	Detail       map[string]any
}

// Recorder persists activity log rows.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one activity log row. Audit failures are logged and
// swallowed so they never abort the operation being audited.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.db == nil {
		return
	}

	var detail datatypes.JSON
	if len(entry.Detail) > 0 {
		payload, errMarshal := json.Marshal(entry.Detail)
		if errMarshal != nil {
			log.WithError(errMarshal).Warn("activity: marshal detail failed")
		} else {
			detail = datatypes.JSON(payload)
		}
	}

	row := models.ActivityLog{
		ID:           uuid.NewString(),
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IP:           entry.IP,
		UserAgent:    entry.UserAgent,
		Detail:       detail,
	}
	if errCreate := r.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).WithField("action", entry.Action).Warn("activity: write failed")
	}
}
