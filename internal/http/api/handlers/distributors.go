package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	dbutil "github.com/silvanatrade/distributor-portal/internal/db"
	"github.com/silvanatrade/distributor-portal/internal/http/api/response"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"gorm.io/gorm"
)

// DistributorHandler manages distributor company endpoints.
type DistributorHandler struct {
	db *gorm.DB
}

// NewDistributorHandler constructs a DistributorHandler.
func NewDistributorHandler(db *gorm.DB) *DistributorHandler {
	return &DistributorHandler{db: db}
}

// createDistributorRequest defines the request body for distributor creation.
type createDistributorRequest struct {
	Name         string `json:"name"`
	Country      string `json:"country"`
	CurrencyCode string `json:"currencyCode"`
	ContactEmail string `json:"contactEmail"`
}

// Create registers a distributor company.
func (h *DistributorHandler) Create(c *gin.Context) {
	var body createDistributorRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		response.Abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		response.Abort(c, http.StatusBadRequest, "missing name")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(body.CurrencyCode))
	if len(code) != 3 {
		response.Abort(c, http.StatusBadRequest, "currency code must be a three-letter ISO code")
		return
	}

	distributor := models.Distributor{
		ID:           uuid.NewString(),
		Name:         name,
		Country:      strings.TrimSpace(body.Country),
		CurrencyCode: code,
		ContactEmail: strings.ToLower(strings.TrimSpace(body.ContactEmail)),
		Active:       true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&distributor).Error; errCreate != nil {
		if dbutil.IsUniqueViolation(errCreate) {
			response.Abort(c, http.StatusConflict, "distributor name already exists")
			return
		}
		response.Fail(c, errCreate)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"distributor": distributor})
}

// List returns distributors with optional filters.
func (h *DistributorHandler) List(c *gin.Context) {
	var (
		nameQ    = strings.TrimSpace(c.Query("name"))
		countryQ = strings.TrimSpace(c.Query("country"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Distributor{})
	if nameQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+nameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}
	if countryQ != "" {
		q = q.Where("country = ?", countryQ)
	}

	var rows []models.Distributor
	if errFind := q.Order("name ASC").Find(&rows).Error; errFind != nil {
		response.Fail(c, errFind)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"distributors": rows})
}

// Get returns a distributor by ID. Distributor accounts may only view
// their own company.
func (h *DistributorHandler) Get(c *gin.Context) {
	actor := currentUser(c)
	distributor, ok := h.loadDistributor(c)
	if !ok {
		return
	}
	if actor.Role.Rank() < models.RoleExportManager.Rank() {
		if actor.DistributorID == nil || *actor.DistributorID != distributor.ID {
			response.Abort(c, http.StatusForbidden, "not your distributor")
			return
		}
	}
	response.OK(c, http.StatusOK, gin.H{"distributor": distributor})
}

// updateDistributorRequest defines the request body for distributor updates.
type updateDistributorRequest struct {
	Name         *string `json:"name"`
	Country      *string `json:"country"`
	CurrencyCode *string `json:"currencyCode"`
	ContactEmail *string `json:"contactEmail"`
	Active       *bool   `json:"active"`
}

// Update modifies a distributor company.
func (h *DistributorHandler) Update(c *gin.Context) {
	distributor, ok := h.loadDistributor(c)
	if !ok {
		return
	}
	var body updateDistributorRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		response.Abort(c, http.StatusBadRequest, "invalid json")
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil {
		if name := strings.TrimSpace(*body.Name); name != "" {
			updates["name"] = name
		}
	}
	if body.Country != nil {
		updates["country"] = strings.TrimSpace(*body.Country)
	}
	if body.CurrencyCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*body.CurrencyCode))
		if len(code) != 3 {
			response.Abort(c, http.StatusBadRequest, "currency code must be a three-letter ISO code")
			return
		}
		updates["currency_code"] = code
	}
	if body.ContactEmail != nil {
		updates["contact_email"] = strings.ToLower(strings.TrimSpace(*body.ContactEmail))
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Distributor{}).
		Where("id = ?", distributor.ID).Updates(updates).Error; errUpdate != nil {
		if dbutil.IsUniqueViolation(errUpdate) {
			response.Abort(c, http.StatusConflict, "distributor name already exists")
			return
		}
		response.Fail(c, errUpdate)
		return
	}

	updated, ok := h.loadDistributor(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, gin.H{"distributor": updated})
}

// Delete removes a distributor. Users stay but lose the association.
func (h *DistributorHandler) Delete(c *gin.Context) {
	distributor, ok := h.loadDistributor(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errDetach := tx.Model(&models.User{}).
			Where("distributor_id = ?", distributor.ID).
			Update("distributor_id", nil).Error; errDetach != nil {
			return errDetach
		}
		return tx.Delete(&models.Distributor{}, "id = ?", distributor.ID).Error
	})
	if errTx != nil {
		response.Fail(c, errTx)
		return
	}
	response.NoContent(c)
}

func (h *DistributorHandler) loadDistributor(c *gin.Context) (*models.Distributor, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Abort(c, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	var distributor models.Distributor
	if errFind := h.db.WithContext(c.Request.Context()).First(&distributor, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			response.Abort(c, http.StatusNotFound, "distributor not found")
			return nil, false
		}
		response.Fail(c, errFind)
		return nil, false
	}
	return &distributor, true
}
