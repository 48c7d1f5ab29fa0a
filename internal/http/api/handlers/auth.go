package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/silvanatrade/distributor-portal/internal/auth"
	"github.com/silvanatrade/distributor-portal/internal/config"
	"github.com/silvanatrade/distributor-portal/internal/http/api/response"
)

// refreshCookieName is the HttpOnly cookie carrying the refresh token.
const refreshCookieName = "refresh_token"

// AuthHandler manages authentication endpoints.
type AuthHandler struct {
	auth *auth.Service
	cfg  *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *auth.Service, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: svc, cfg: cfg}
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates credentials and issues a token pair. The refresh
// token additionally travels in an HttpOnly cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		response.Abort(c, http.StatusBadRequest, "invalid json")
		return
	}

	result, errLogin := h.auth.Login(c.Request.Context(), body.Email, body.Password, requestMeta(c))
	if errLogin != nil {
		response.Fail(c, errLogin)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, int(h.cfg.JWT.RefreshExpiry.Seconds()))
	response.OK(c, http.StatusOK, gin.H{
		"user":        result.User,
		"accessToken": result.AccessToken,
	})
}

// registerRequest defines the request body for self-registration.
type registerRequest struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	DistributorID *string `json:"distributorId"`
}

// Register creates a self-service account with the default role.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		response.Abort(c, http.StatusBadRequest, "invalid json")
		return
	}

	user, errRegister := h.auth.Register(c.Request.Context(), auth.RegisterParams{
		Email:         body.Email,
		Password:      body.Password,
		FirstName:     body.FirstName,
		LastName:      body.LastName,
		DistributorID: body.DistributorID,
		Meta:          requestMeta(c),
	})
	if errRegister != nil {
		response.Fail(c, errRegister)
		return
	}
	response.OK(c, http.StatusCreated, gin.H{"user": user.Sanitize()})
}

// Refresh exchanges the refresh cookie for a new access token. The
// token never travels in a request or response body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, errCookie := c.Cookie(refreshCookieName)
	if errCookie != nil || strings.TrimSpace(token) == "" {
		response.Abort(c, http.StatusUnauthorized, "missing refresh token")
		return
	}

	accessToken, errRefresh := h.auth.Refresh(c.Request.Context(), strings.TrimSpace(token))
	if errRefresh != nil {
		response.Fail(c, errRefresh)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"accessToken": accessToken})
}

// Logout records the logout and clears the refresh cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Abort(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	h.auth.Logout(c.Request.Context(), user, requestMeta(c))
	h.setRefreshCookie(c, "", -1)
	response.OK(c, http.StatusOK, gin.H{"message": "logged out"})
}

// changePasswordBody defines the request body for password changes.
type changePasswordBody struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword verifies the current password and installs a new one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Abort(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	var body changePasswordBody
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		response.Abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	if errChange := h.auth.ChangePassword(c.Request.Context(), user, body.CurrentPassword, body.NewPassword, requestMeta(c)); errChange != nil {
		response.Fail(c, errChange)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "password changed"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		response.Abort(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	response.OK(c, http.StatusOK, gin.H{"user": user.Sanitize()})
}

// setRefreshCookie writes the refresh token cookie. Secure is set only
// in production so local development over plain HTTP still works.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, maxAge, "/", "", h.cfg.Server.Production, true)
}
