package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/silvanatrade/distributor-portal/internal/activity"
	"github.com/silvanatrade/distributor-portal/internal/apperr"
	"github.com/silvanatrade/distributor-portal/internal/auth"
	dbutil "github.com/silvanatrade/distributor-portal/internal/db"
	"github.com/silvanatrade/distributor-portal/internal/http/api/response"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"gorm.io/gorm"
)

// UserHandler manages user account endpoints.
type UserHandler struct {
	db       *gorm.DB
	auth     *auth.Service
	recorder *activity.Recorder
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB, svc *auth.Service, recorder *activity.Recorder) *UserHandler {
	return &UserHandler{db: db, auth: svc, recorder: recorder}
}

// createUserRequest defines the request body for admin user creation.
type createUserRequest struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Role          string  `json:"role"`
	DistributorID *string `json:"distributorId"`
}

// Create creates a user account on behalf of an administrator. The new
// account must change its password on first login.
func (h *UserHandler) Create(c *gin.Context) {
	actor := currentUser(c)
	var body createUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		response.Abort(c, http.StatusBadRequest, "invalid json")
		return
	}

	role := models.RoleEmployee
	if strings.TrimSpace(body.Role) != "" {
		parsed, ok := models.ParseRole(body.Role)
		if !ok {
			response.Abort(c, http.StatusBadRequest, "invalid role")
			return
		}
		role = parsed
	}
	if !actor.Role.CanManage(role) {
		response.Abort(c, http.StatusForbidden, "cannot create a user at or above your own role")
		return
	}

	user, errRegister := h.auth.Register(c.Request.Context(), auth.RegisterParams{
		Email:          body.Email,
		Password:       body.Password,
		FirstName:      body.FirstName,
		LastName:       body.LastName,
		Role:           role,
		DistributorID:  body.DistributorID,
		CreatedByAdmin: true,
		CreatedByID:    &actor.ID,
		Meta:           requestMeta(c),
	})
	if errRegister != nil {
		response.Fail(c, errRegister)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"user": user.Sanitize()})
}

// List returns users with optional filters.
func (h *UserHandler) List(c *gin.Context) {
	var (
		emailQ       = strings.TrimSpace(c.Query("email"))
		roleQ        = strings.TrimSpace(c.Query("role"))
		distributorQ = strings.TrimSpace(c.Query("distributor_id"))
		lockedQ      = strings.TrimSpace(c.Query("locked"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if emailQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+emailQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "email"), pattern)
	}
	if roleQ != "" {
		q = q.Where("role = ?", strings.ToUpper(roleQ))
	}
	if distributorQ != "" {
		q = q.Where("distributor_id = ?", distributorQ)
	}
	if lockedQ != "" {
		q = q.Where("locked = ?", lockedQ == "true")
	}

	var rows []models.User
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		response.Fail(c, errFind)
		return
	}
	out := make([]models.SanitizedUser, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Sanitize())
	}
	response.OK(c, http.StatusOK, gin.H{"users": out})
}

// Get returns a user by ID.
func (h *UserHandler) Get(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, gin.H{"user": user.Sanitize()})
}

// updateUserRequest defines the request body for user updates.
type updateUserRequest struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Role          *string `json:"role"`
	DistributorID *string `json:"distributorId"`
	Active        *bool   `json:"active"`
}

// Update modifies a user account. Actors may only manage users ranked
// strictly below themselves; super admins may also manage each other,
// with the last-super-admin guard as the backstop.
func (h *UserHandler) Update(c *gin.Context) {
	actor := currentUser(c)
	target, ok := h.loadUser(c)
	if !ok {
		return
	}
	if !canAdminister(actor, target) {
		response.Abort(c, http.StatusForbidden, "cannot manage this user")
		return
	}

	var body updateUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		response.Abort(c, http.StatusBadRequest, "invalid json")
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.FirstName != nil {
		if name := strings.TrimSpace(*body.FirstName); name != "" {
			updates["first_name"] = name
		}
	}
	if body.LastName != nil {
		if name := strings.TrimSpace(*body.LastName); name != "" {
			updates["last_name"] = name
		}
	}
	if body.Role != nil {
		role, ok := models.ParseRole(*body.Role)
		if !ok {
			response.Abort(c, http.StatusBadRequest, "invalid role")
			return
		}
		if !actor.Role.CanManage(role) {
			response.Abort(c, http.StatusForbidden, "cannot assign a role at or above your own")
			return
		}
		updates["role"] = role
	}
	if body.DistributorID != nil {
		if *body.DistributorID == "" {
			updates["distributor_id"] = nil
		} else {
			updates["distributor_id"] = *body.DistributorID
		}
	}
	if body.Active != nil {
		if !*body.Active {
			if errGuard := h.guardLastSuperAdmin(c, target); errGuard != nil {
				response.Fail(c, errGuard)
				return
			}
		}
		updates["active"] = *body.Active
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", target.ID).Updates(updates).Error; errUpdate != nil {
		response.Fail(c, errUpdate)
		return
	}
	h.record(c, actor, models.ActionUserUpdated, target.ID, nil)

	updated, ok := h.loadUser(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, gin.H{"user": updated.Sanitize()})
}

// Delete removes a user account.
func (h *UserHandler) Delete(c *gin.Context) {
	actor := currentUser(c)
	target, ok := h.loadUser(c)
	if !ok {
		return
	}
	if !canAdminister(actor, target) {
		response.Abort(c, http.StatusForbidden, "cannot manage this user")
		return
	}
	if errGuard := h.guardLastSuperAdmin(c, target); errGuard != nil {
		response.Fail(c, errGuard)
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.User{}, "id = ?", target.ID).Error; errDelete != nil {
		response.Fail(c, errDelete)
		return
	}
	h.record(c, actor, models.ActionUserDeleted, target.ID, gin.H{"email": target.Email})
	response.NoContent(c)
}

// Unlock clears a lockout so the user can log in again.
func (h *UserHandler) Unlock(c *gin.Context) {
	actor := currentUser(c)
	target, errUnlock := h.auth.Unlock(c.Request.Context(), actor, strings.TrimSpace(c.Param("id")), requestMeta(c))
	if errUnlock != nil {
		response.Fail(c, errUnlock)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"user": target.Sanitize()})
}

// Activate re-enables a deactivated account.
func (h *UserHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate disables an account without deleting it.
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *UserHandler) setActive(c *gin.Context, active bool) {
	actor := currentUser(c)
	target, ok := h.loadUser(c)
	if !ok {
		return
	}
	if !canAdminister(actor, target) {
		response.Abort(c, http.StatusForbidden, "cannot manage this user")
		return
	}
	if !active {
		if errGuard := h.guardLastSuperAdmin(c, target); errGuard != nil {
			response.Fail(c, errGuard)
			return
		}
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", target.ID).
		Updates(map[string]any{"active": active, "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		response.Fail(c, errUpdate)
		return
	}
	h.record(c, actor, models.ActionUserUpdated, target.ID, gin.H{"active": active})

	target.Active = active
	response.OK(c, http.StatusOK, gin.H{"user": target.Sanitize()})
}

// canAdminister reports whether the actor may manage the target
// account: strict outranking, or both are super admins.
func canAdminister(actor, target *models.User) bool {
	if actor.Role.CanManage(target.Role) {
		return true
	}
	return actor.Role == models.RoleSuperAdmin && target.Role == models.RoleSuperAdmin
}

// guardLastSuperAdmin rejects deactivating or deleting the only
// remaining active super admin.
func (h *UserHandler) guardLastSuperAdmin(c *gin.Context, target *models.User) error {
	if target.Role != models.RoleSuperAdmin || !target.Active {
		return nil
	}
	var count int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("role = ? AND active = ? AND id <> ?", models.RoleSuperAdmin, true, target.ID).
		Count(&count).Error; errCount != nil {
		return errCount
	}
	if count == 0 {
		return errLastSuperAdmin
	}
	return nil
}

var errLastSuperAdmin = apperr.Conflict("cannot remove the last active super admin")

func (h *UserHandler) loadUser(c *gin.Context) (*models.User, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Abort(c, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			response.Abort(c, http.StatusNotFound, "user not found")
			return nil, false
		}
		response.Fail(c, errFind)
		return nil, false
	}
	return &user, true
}

func (h *UserHandler) record(c *gin.Context, actor *models.User, action models.ActivityAction, resourceID string, detail map[string]any) {
	h.recorder.Record(c.Request.Context(), activity.Entry{
		UserID:       &actor.ID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   resourceID,
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		Detail:       detail,
	})
}
