// Package auth implements account identity: registration, credential
// and lockout policy, token issuance and refresh, and password-change
// gating.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/silvanatrade/distributor-portal/internal/activity"
	"github.com/silvanatrade/distributor-portal/internal/apperr"
	"github.com/silvanatrade/distributor-portal/internal/config"
	"github.com/silvanatrade/distributor-portal/internal/db"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"github.com/silvanatrade/distributor-portal/internal/security"
	"gorm.io/gorm"
)

// maxFailedLogins is the lockout threshold. The account locks the
// moment the failed-attempt counter reaches this value.
const maxFailedLogins = 3

// CredentialsMailer delivers initial credentials to accounts created
// by an administrator.
type CredentialsMailer interface {
	SendInitialCredentials(ctx context.Context, email, password string)
}

// Service is the authentication core.
type Service struct {
	db       *gorm.DB
	jwt      config.JWTConfig
	recorder *activity.Recorder
	mailer   CredentialsMailer
}

// NewService constructs the auth Service. The mailer may be nil.
func NewService(conn *gorm.DB, jwtCfg config.JWTConfig, recorder *activity.Recorder, mailer CredentialsMailer) *Service {
	return &Service{db: conn, jwt: jwtCfg, recorder: recorder, mailer: mailer}
}

// RequestMeta carries client metadata recorded in the activity log.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// RegisterParams holds inputs for account creation.
type RegisterParams struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           models.Role
	DistributorID  *string
	CreatedByAdmin bool
	CreatedByID    *string
	Meta           RequestMeta
}

// Register creates a new account. Self-registered accounts own their
// password immediately; admin-created accounts must change it on
// first login and receive their credentials by mail when configured.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email address is required")
	}
	if strings.TrimSpace(params.FirstName) == "" || strings.TrimSpace(params.LastName) == "" {
		return nil, apperr.Validation("first name and last name are required")
	}
	if errPolicy := security.CheckPasswordPolicy(params.Password); errPolicy != nil {
		return nil, errPolicy
	}

	role := params.Role
	if role == "" {
		role = models.RoleEmployee
	}
	if !role.Valid() {
		return nil, apperr.Validation("unknown role %q", string(params.Role))
	}

	var existing models.User
	errFind := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if errFind == nil {
		return nil, apperr.Conflict("email %s is already registered", email)
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("auth: lookup email: %w", errFind)
	}

	hash, errHash := security.HashPassword(params.Password)
	if errHash != nil {
		return nil, fmt.Errorf("auth: hash password: %w", errHash)
	}

	user := models.User{
		ID:            uuid.NewString(),
		Email:         email,
		Password:      hash,
		FirstName:     strings.TrimSpace(params.FirstName),
		LastName:      strings.TrimSpace(params.LastName),
		Role:          role,
		Active:        true,
		DistributorID: params.DistributorID,
	}
	if params.CreatedByAdmin {
		user.MustChangePassword = true
	} else {
		now := time.Now().UTC()
		user.PasswordChangedAt = &now
	}

	if errCreate := s.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
		if db.IsUniqueViolation(errCreate) {
			return nil, apperr.Conflict("email %s is already registered", email)
		}
		return nil, fmt.Errorf("auth: create user: %w", errCreate)
	}

	s.recorder.Record(ctx, activity.Entry{
		UserID:       params.CreatedByID,
		Action:       models.ActionUserCreated,
		ResourceType: "user",
		ResourceID:   user.ID,
		IP:           params.Meta.IP,
		UserAgent:    params.Meta.UserAgent,
		Detail:       map[string]any{"email": user.Email, "role": user.Role},
	})

	if params.CreatedByAdmin && s.mailer != nil {
		s.mailer.SendInitialCredentials(ctx, user.Email, params.Password)
	}
	return &user, nil
}

// LoginResult carries the outcome of a successful login.
type LoginResult struct {
	User         models.SanitizedUser
	AccessToken  string
	RefreshToken string
}

// Login verifies credentials and issues both tokens. Deactivation and
// lockout are checked before the password so a locked account is
// rejected regardless of password correctness; once locked, the
// failed-attempt counter stops moving.
func (s *Service) Login(ctx context.Context, email, password string, meta RequestMeta) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	errFind := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("auth: lookup user: %w", errFind)
	}

	if !user.Active {
		return nil, apperr.Forbidden("account is deactivated")
	}
	if user.Locked {
		return nil, apperr.Forbidden("account is locked")
	}

	if !security.VerifyPassword(user.Password, password) {
		attempts, errRecord := s.recordFailedAttempt(ctx, &user, meta)
		if errRecord != nil {
			return nil, errRecord
		}
		if attempts >= maxFailedLogins {
			return nil, apperr.Forbidden("account is locked")
		}
		return nil, apperr.Unauthorized("invalid email or password")
	}

	if user.FailedLoginAttempts != 0 {
		if errReset := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("failed_login_attempts", 0).Error; errReset != nil {
			return nil, fmt.Errorf("auth: reset failed attempts: %w", errReset)
		}
		user.FailedLoginAttempts = 0
	}

	accessToken, errAccess := security.NewAccessToken(s.jwt.AccessSecret, &user, s.jwt.AccessExpiry)
	if errAccess != nil {
		return nil, errAccess
	}
	refreshToken, errRefresh := security.NewRefreshToken(s.jwt.RefreshSecret, &user, s.jwt.RefreshExpiry)
	if errRefresh != nil {
		return nil, errRefresh
	}

	s.recorder.Record(ctx, activity.Entry{
		UserID:    &user.ID,
		Action:    models.ActionLogin,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})

	return &LoginResult{
		User:         user.Sanitize(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// recordFailedAttempt increments the per-user counter atomically and
// locks the account when the threshold is reached. The increment runs
// in SQL so concurrent failures cannot under-count the threshold.
func (s *Service) recordFailedAttempt(ctx context.Context, user *models.User, meta RequestMeta) (int, error) {
	if errBump := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error; errBump != nil {
		return 0, fmt.Errorf("auth: increment failed attempts: %w", errBump)
	}

	var updated models.User
	if errReload := s.db.WithContext(ctx).First(&updated, "id = ?", user.ID).Error; errReload != nil {
		return 0, fmt.Errorf("auth: reload user: %w", errReload)
	}

	s.recorder.Record(ctx, activity.Entry{
		UserID:    &user.ID,
		Action:    models.ActionLoginFailed,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Detail:    map[string]any{"failed_attempts": updated.FailedLoginAttempts},
	})

	if updated.FailedLoginAttempts >= maxFailedLogins && !updated.Locked {
		if errLock := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("locked", true).Error; errLock != nil {
			return 0, fmt.Errorf("auth: lock account: %w", errLock)
		}
		s.recorder.Record(ctx, activity.Entry{
			UserID:    &user.ID,
			Action:    models.ActionAccountLocked,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Detail:    map[string]any{"failed_attempts": updated.FailedLoginAttempts},
		})
	}
	return updated.FailedLoginAttempts, nil
}

// Refresh validates a refresh token and issues a fresh access token.
// The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, errParse := security.ParseRefreshToken(s.jwt.RefreshSecret, refreshToken)
	if errParse != nil {
		return "", apperr.Unauthorized("invalid refresh token")
	}

	var user models.User
	errFind := s.db.WithContext(ctx).First(&user, "id = ?", claims.Subject).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return "", apperr.Unauthorized("invalid refresh token")
		}
		return "", fmt.Errorf("auth: lookup user: %w", errFind)
	}
	if !user.Active {
		return "", apperr.Unauthorized("account is no longer active")
	}

	return security.NewAccessToken(s.jwt.AccessSecret, &user, s.jwt.AccessExpiry)
}

// AuthenticateAccess validates a bearer access token and loads the
// account, rejecting inactive and locked users. Used by the request
// middleware.
func (s *Service) AuthenticateAccess(ctx context.Context, raw string) (*models.User, error) {
	claims, errParse := security.ParseAccessToken(s.jwt.AccessSecret, raw)
	if errParse != nil {
		return nil, apperr.Unauthorized("invalid token")
	}

	var user models.User
	errFind := s.db.WithContext(ctx).First(&user, "id = ?", claims.Subject).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid token")
		}
		return nil, fmt.Errorf("auth: lookup user: %w", errFind)
	}
	if !user.Active {
		return nil, apperr.Forbidden("account is deactivated")
	}
	if user.Locked {
		return nil, apperr.Forbidden("account is locked")
	}
	return &user, nil
}

// ChangePassword replaces the user's password after verifying the
// current one, and clears the must-change flag.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string, meta RequestMeta) error {
	if !security.VerifyPassword(user.Password, currentPassword) {
		return apperr.Unauthorized("current password is incorrect")
	}
	if errPolicy := security.CheckPasswordPolicy(newPassword); errPolicy != nil {
		return errPolicy
	}

	hash, errHash := security.HashPassword(newPassword)
	if errHash != nil {
		return fmt.Errorf("auth: hash password: %w", errHash)
	}

	now := time.Now().UTC()
	if errUpdate := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"password":             hash,
			"password_changed_at":  now,
			"must_change_password": false,
		}).Error; errUpdate != nil {
		return fmt.Errorf("auth: update password: %w", errUpdate)
	}

	s.recorder.Record(ctx, activity.Entry{
		UserID:    &user.ID,
		Action:    models.ActionPasswordChanged,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return nil
}

// Unlock clears a locked account. The actor must strictly outrank the
// target in the role hierarchy.
func (s *Service) Unlock(ctx context.Context, actor *models.User, targetID string, meta RequestMeta) (*models.User, error) {
	var target models.User
	errFind := s.db.WithContext(ctx).First(&target, "id = ?", targetID).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("auth: lookup user: %w", errFind)
	}

	if !target.Locked {
		return nil, apperr.Validation("user is not locked")
	}
	if !actor.Role.CanManage(target.Role) {
		return nil, apperr.Forbidden("insufficient role to unlock this user")
	}

	if errUpdate := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", target.ID).
		Updates(map[string]any{
			"locked":                false,
			"failed_login_attempts": 0,
		}).Error; errUpdate != nil {
		return nil, fmt.Errorf("auth: unlock user: %w", errUpdate)
	}
	target.Locked = false
	target.FailedLoginAttempts = 0

	s.recorder.Record(ctx, activity.Entry{
		UserID:       &actor.ID,
		Action:       models.ActionAccountUnlocked,
		ResourceType: "user",
		ResourceID:   target.ID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	})
	return &target, nil
}

// Logout records the sign-out. Tokens stay cryptographically valid
// until natural expiry; there is no server-side revocation list.
func (s *Service) Logout(ctx context.Context, user *models.User, meta RequestMeta) {
	s.recorder.Record(ctx, activity.Entry{
		UserID:    &user.ID,
		Action:    models.ActionLogout,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
}
