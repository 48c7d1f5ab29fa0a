package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/silvanatrade/distributor-portal/internal/http/api/response"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"gorm.io/gorm"
)

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	db *gorm.DB
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(db *gorm.DB) *ActivityHandler {
	return &ActivityHandler{db: db}
}

// List returns audit entries, newest first, with optional filters.
func (h *ActivityHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.ActivityLog{})

	if actionQ := strings.TrimSpace(c.Query("action")); actionQ != "" {
		q = q.Where("action = ?", strings.ToUpper(actionQ))
	}
	if userQ := strings.TrimSpace(c.Query("user_id")); userQ != "" {
		q = q.Where("user_id = ?", userQ)
	}
	if resourceQ := strings.TrimSpace(c.Query("resource_type")); resourceQ != "" {
		q = q.Where("resource_type = ?", resourceQ)
	}

	limit := 100
	if limitQ := strings.TrimSpace(c.Query("limit")); limitQ != "" {
		if parsed, errParse := strconv.Atoi(limitQ); errParse == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	offset := 0
	if offsetQ := strings.TrimSpace(c.Query("offset")); offsetQ != "" {
		if parsed, errParse := strconv.Atoi(offsetQ); errParse == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var rows []models.ActivityLog
	if errFind := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; errFind != nil {
		response.Fail(c, errFind)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"entries": rows})
}
