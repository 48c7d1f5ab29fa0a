package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/silvanatrade/distributor-portal/internal/activity"
	"github.com/silvanatrade/distributor-portal/internal/currency"
	dbutil "github.com/silvanatrade/distributor-portal/internal/db"
	"github.com/silvanatrade/distributor-portal/internal/http/api/response"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportHandler manages quarterly sales and purchase reports.
type ReportHandler struct {
	db       *gorm.DB
	currency *currency.Service
	recorder *activity.Recorder
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(db *gorm.DB, svc *currency.Service, recorder *activity.Recorder) *ReportHandler {
	return &ReportHandler{db: db, currency: svc, recorder: recorder}
}

// reportRequest defines the shared request body for report creation.
type reportRequest struct {
	DistributorID string             `json:"distributorId"`
	Year          int                `json:"year"`
	Quarter       int                `json:"quarter"`
	LocalTotal    decimal.Decimal    `json:"localTotal"`
	Channels      map[string]float64 `json:"channels"`
}

// CreateSales creates a quarterly sales report. The local total is
// converted to euros with the quarter-average rate at save time, so an
// unavailable rate fails the whole request.
func (h *ReportHandler) CreateSales(c *gin.Context) {
	body, distributor, ok := h.bindReport(c)
	if !ok {
		return
	}

	avgRate, eurTotal, ok := h.convert(c, distributor.CurrencyCode, body)
	if !ok {
		return
	}

	channelsJSON, errMarshal := json.Marshal(body.Channels)
	if errMarshal != nil {
		response.Abort(c, http.StatusBadRequest, "invalid channels")
		return
	}

	actor := currentUser(c)
	report := models.SalesChannelsReport{
		ID:            uuid.NewString(),
		DistributorID: distributor.ID,
		Year:          body.Year,
		Quarter:       body.Quarter,
		CurrencyCode:  distributor.CurrencyCode,
		Channels:      datatypes.JSON(channelsJSON),
		LocalTotal:    body.LocalTotal,
		EURTotal:      eurTotal,
		AvgRate:       avgRate,
		CreatedByID:   actor.ID,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&report).Error; errCreate != nil {
		if dbutil.IsUniqueViolation(errCreate) {
			response.Abort(c, http.StatusConflict, "a sales report already exists for this period")
			return
		}
		response.Fail(c, errCreate)
		return
	}
	h.record(c, models.ActionReportCreated, "sales_report", report.ID, body)
	response.OK(c, http.StatusCreated, gin.H{"report": report})
}

// CreatePurchase creates a quarterly purchase report.
func (h *ReportHandler) CreatePurchase(c *gin.Context) {
	body, distributor, ok := h.bindReport(c)
	if !ok {
		return
	}

	avgRate, eurTotal, ok := h.convert(c, distributor.CurrencyCode, body)
	if !ok {
		return
	}

	actor := currentUser(c)
	report := models.PurchaseReport{
		ID:            uuid.NewString(),
		DistributorID: distributor.ID,
		Year:          body.Year,
		Quarter:       body.Quarter,
		CurrencyCode:  distributor.CurrencyCode,
		LocalTotal:    body.LocalTotal,
		EURTotal:      eurTotal,
		AvgRate:       avgRate,
		CreatedByID:   actor.ID,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&report).Error; errCreate != nil {
		if dbutil.IsUniqueViolation(errCreate) {
			response.Abort(c, http.StatusConflict, "a purchase report already exists for this period")
			return
		}
		response.Fail(c, errCreate)
		return
	}
	h.record(c, models.ActionReportCreated, "purchase_report", report.ID, body)
	response.OK(c, http.StatusCreated, gin.H{"report": report})
}

// ListSales returns sales reports visible to the caller.
func (h *ReportHandler) ListSales(c *gin.Context) {
	var rows []models.SalesChannelsReport
	q, ok := h.scopedListQuery(c)
	if !ok {
		return
	}
	if errFind := q.Order("year DESC, quarter DESC").Find(&rows).Error; errFind != nil {
		response.Fail(c, errFind)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"reports": rows})
}

// ListPurchases returns purchase reports visible to the caller.
func (h *ReportHandler) ListPurchases(c *gin.Context) {
	var rows []models.PurchaseReport
	q, ok := h.scopedListQuery(c)
	if !ok {
		return
	}
	if errFind := q.Order("year DESC, quarter DESC").Find(&rows).Error; errFind != nil {
		response.Fail(c, errFind)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"reports": rows})
}

// GetSales returns a sales report by ID.
func (h *ReportHandler) GetSales(c *gin.Context) {
	var report models.SalesChannelsReport
	if !h.loadReport(c, &report, func() string { return report.DistributorID }) {
		return
	}
	response.OK(c, http.StatusOK, gin.H{"report": report})
}

// GetPurchase returns a purchase report by ID.
func (h *ReportHandler) GetPurchase(c *gin.Context) {
	var report models.PurchaseReport
	if !h.loadReport(c, &report, func() string { return report.DistributorID }) {
		return
	}
	response.OK(c, http.StatusOK, gin.H{"report": report})
}

// DeleteSales removes a sales report.
func (h *ReportHandler) DeleteSales(c *gin.Context) {
	h.deleteReport(c, &models.SalesChannelsReport{}, "sales_report")
}

// DeletePurchase removes a purchase report.
func (h *ReportHandler) DeletePurchase(c *gin.Context) {
	h.deleteReport(c, &models.PurchaseReport{}, "purchase_report")
}

// bindReport parses the request body and resolves the target
// distributor. Distributor accounts can only report for themselves.
func (h *ReportHandler) bindReport(c *gin.Context) (*reportRequest, *models.Distributor, bool) {
	var body reportRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		response.Abort(c, http.StatusBadRequest, "invalid json")
		return nil, nil, false
	}
	if body.Year < 2000 || body.Year > 2200 {
		response.Abort(c, http.StatusBadRequest, "invalid year")
		return nil, nil, false
	}
	if body.Quarter < 1 || body.Quarter > 4 {
		response.Abort(c, http.StatusBadRequest, "quarter must be between 1 and 4")
		return nil, nil, false
	}
	if body.LocalTotal.IsNegative() {
		response.Abort(c, http.StatusBadRequest, "local total cannot be negative")
		return nil, nil, false
	}

	actor := currentUser(c)
	distributorID := strings.TrimSpace(body.DistributorID)
	if actor.Role.Rank() < models.RoleExportManager.Rank() {
		if actor.DistributorID == nil {
			response.Abort(c, http.StatusForbidden, "account has no distributor")
			return nil, nil, false
		}
		if distributorID != "" && distributorID != *actor.DistributorID {
			response.Abort(c, http.StatusForbidden, "cannot report for another distributor")
			return nil, nil, false
		}
		distributorID = *actor.DistributorID
	}
	if distributorID == "" {
		response.Abort(c, http.StatusBadRequest, "missing distributor id")
		return nil, nil, false
	}

	var distributor models.Distributor
	if errFind := h.db.WithContext(c.Request.Context()).First(&distributor, "id = ?", distributorID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			response.Abort(c, http.StatusNotFound, "distributor not found")
			return nil, nil, false
		}
		response.Fail(c, errFind)
		return nil, nil, false
	}
	return &body, &distributor, true
}

// convert resolves the quarter-average rate and converts the total.
func (h *ReportHandler) convert(c *gin.Context, currencyCode string, body *reportRequest) (decimal.Decimal, decimal.Decimal, bool) {
	avgRate, errAvg := h.currency.QuarterAverageRate(c.Request.Context(), currencyCode, body.Year, body.Quarter)
	if errAvg != nil {
		response.Fail(c, errAvg)
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	return avgRate, currency.ConvertToEUR(body.LocalTotal, avgRate), true
}

// scopedListQuery limits report listings to the caller's distributor
// unless the caller ranks export manager or above.
func (h *ReportHandler) scopedListQuery(c *gin.Context) (*gorm.DB, bool) {
	q := h.db.WithContext(c.Request.Context())

	actor := currentUser(c)
	if actor.Role.Rank() < models.RoleExportManager.Rank() {
		if actor.DistributorID == nil {
			response.Abort(c, http.StatusForbidden, "account has no distributor")
			return nil, false
		}
		q = q.Where("distributor_id = ?", *actor.DistributorID)
	} else if distributorQ := strings.TrimSpace(c.Query("distributor_id")); distributorQ != "" {
		q = q.Where("distributor_id = ?", distributorQ)
	}
	if yearQ := strings.TrimSpace(c.Query("year")); yearQ != "" {
		if year, errParse := strconv.Atoi(yearQ); errParse == nil {
			q = q.Where("year = ?", year)
		}
	}
	return q, true
}

// loadReport fetches a report by path ID and enforces visibility.
func (h *ReportHandler) loadReport(c *gin.Context, dest any, distributorID func() string) bool {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Abort(c, http.StatusBadRequest, "invalid id")
		return false
	}
	if errFind := h.db.WithContext(c.Request.Context()).First(dest, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			response.Abort(c, http.StatusNotFound, "report not found")
			return false
		}
		response.Fail(c, errFind)
		return false
	}

	actor := currentUser(c)
	if actor.Role.Rank() < models.RoleExportManager.Rank() {
		if actor.DistributorID == nil || *actor.DistributorID != distributorID() {
			response.Abort(c, http.StatusForbidden, "not your report")
			return false
		}
	}
	return true
}

func (h *ReportHandler) deleteReport(c *gin.Context, model any, resourceType string) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Abort(c, http.StatusBadRequest, "invalid id")
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(model, "id = ?", id)
	if res.Error != nil {
		response.Fail(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		response.Abort(c, http.StatusNotFound, "report not found")
		return
	}
	h.record(c, models.ActionReportDeleted, resourceType, id, nil)
	response.NoContent(c)
}

func (h *ReportHandler) record(c *gin.Context, action models.ActivityAction, resourceType, resourceID string, body *reportRequest) {
	actor := currentUser(c)
	entry := activity.Entry{
		UserID:       &actor.ID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	}
	if body != nil {
		entry.Detail = map[string]any{"year": body.Year, "quarter": body.Quarter}
	}
	h.recorder.Record(c.Request.Context(), entry)
}
