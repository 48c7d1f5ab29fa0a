package auth

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/silvanatrade/distributor-portal/internal/activity"
	"github.com/silvanatrade/distributor-portal/internal/apperr"
	"github.com/silvanatrade/distributor-portal/internal/config"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"gorm.io/gorm"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	}
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := conn.AutoMigrate(&models.User{}, &models.ActivityLog{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewService(conn, testJWTConfig(), activity.NewRecorder(conn), nil), conn
}

func register(t *testing.T, svc *Service, email, password string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterParams{
		Email:     email,
		Password:  password,
		FirstName: "Ada",
		LastName:  "Nowak",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "Admin@X.com", "Passw0rd!")

	result, err := svc.Login(context.Background(), "admin@x.com", "Passw0rd!", RequestMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.Email != "admin@x.com" {
		t.Fatalf("expected lowercased email, got %q", result.User.Email)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "admin@x.com", "Passw0rd!")

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:     "ADMIN@x.com",
		Password:  "Passw0rd!",
		FirstName: "Ada",
		LastName:  "Nowak",
	})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	svc, _ := newTestService(t)
	for _, password := range []string{"Sh0rt!", "NoDigits!", "NoSpecial1"} {
		_, err := svc.Register(context.Background(), RegisterParams{
			Email:     "weak@x.com",
			Password:  password,
			FirstName: "Ada",
			LastName:  "Nowak",
		})
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %q, got %v", password, err)
		}
	}
}

func TestRegister_AdminCreatedMustChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	adminID := "11111111-1111-1111-1111-111111111111"
	user, err := svc.Register(context.Background(), RegisterParams{
		Email:          "newhire@x.com",
		Password:       "Passw0rd!",
		FirstName:      "Jan",
		LastName:       "Kowalski",
		CreatedByAdmin: true,
		CreatedByID:    &adminID,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !user.MustChangePassword {
		t.Fatalf("expected must_change_password for admin-created user")
	}
	if user.PasswordChangedAt != nil {
		t.Fatalf("expected password_changed_at unset for admin-created user")
	}
}

func TestLogin_UnknownEmailUnauthorized(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Login(context.Background(), "ghost@x.com", "Passw0rd!", RequestMeta{})
	if !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogin_DeactivatedForbidden(t *testing.T) {
	svc, conn := newTestService(t)
	user := register(t, svc, "admin@x.com", "Passw0rd!")
	if err := conn.Model(&models.User{}).Where("id = ?", user.ID).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := svc.Login(context.Background(), "admin@x.com", "Passw0rd!", RequestMeta{})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestLockoutAfterThreeFailures(t *testing.T) {
	svc, conn := newTestService(t)
	user := register(t, svc, "admin@x.com", "Passw0rd!")

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(context.Background(), "admin@x.com", "wrong!", RequestMeta{}); err == nil {
			t.Fatalf("expected failure on attempt %d", i+1)
		}
	}

	var loaded models.User
	if err := conn.First(&loaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !loaded.Locked {
		t.Fatalf("expected account locked after three failures")
	}
	if loaded.FailedLoginAttempts != 3 {
		t.Fatalf("expected 3 failed attempts, got %d", loaded.FailedLoginAttempts)
	}

	// Correct password is rejected while locked and does not move the counter.
	_, err := svc.Login(context.Background(), "admin@x.com", "Passw0rd!", RequestMeta{})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for locked account, got %v", err)
	}
	if errReload := conn.First(&loaded, "id = ?", user.ID).Error; errReload != nil {
		t.Fatalf("reload: %v", errReload)
	}
	if loaded.FailedLoginAttempts != 3 {
		t.Fatalf("expected counter unchanged while locked, got %d", loaded.FailedLoginAttempts)
	}

	// Failed attempts were audited with a running count.
	var audits int64
	if errCount := conn.Model(&models.ActivityLog{}).
		Where("action = ?", models.ActionLoginFailed).
		Count(&audits).Error; errCount != nil {
		t.Fatalf("count audits: %v", errCount)
	}
	if audits != 3 {
		t.Fatalf("expected 3 failed-login audit rows, got %d", audits)
	}
}

func TestUnlock_RequiresHigherRole(t *testing.T) {
	svc, conn := newTestService(t)
	target := register(t, svc, "emp@x.com", "Passw0rd!")
	if err := conn.Model(&models.User{}).Where("id = ?", target.ID).
		Updates(map[string]any{"locked": true, "failed_login_attempts": 3}).Error; err != nil {
		t.Fatalf("lock target: %v", err)
	}

	peer := &models.User{ID: "22222222-2222-2222-2222-222222222222", Role: models.RoleEmployee}
	if _, err := svc.Unlock(context.Background(), peer, target.ID, RequestMeta{}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for equal rank, got %v", err)
	}

	admin := &models.User{ID: "33333333-3333-3333-3333-333333333333", Role: models.RoleSuperAdmin}
	unlocked, err := svc.Unlock(context.Background(), admin, target.ID, RequestMeta{})
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if unlocked.Locked || unlocked.FailedLoginAttempts != 0 {
		t.Fatalf("expected cleared lock state")
	}

	// Login works again after unlock.
	if _, errLogin := svc.Login(context.Background(), "emp@x.com", "Passw0rd!", RequestMeta{}); errLogin != nil {
		t.Fatalf("login after unlock: %v", errLogin)
	}
}

func TestUnlock_NotLockedIsValidationError(t *testing.T) {
	svc, _ := newTestService(t)
	target := register(t, svc, "emp@x.com", "Passw0rd!")

	admin := &models.User{ID: "33333333-3333-3333-3333-333333333333", Role: models.RoleAdmin}
	if _, err := svc.Unlock(context.Background(), admin, target.ID, RequestMeta{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRefresh_IssuesNewAccessToken(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "admin@x.com", "Passw0rd!")

	result, err := svc.Login(context.Background(), "admin@x.com", "Passw0rd!", RequestMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	access, errRefresh := svc.Refresh(context.Background(), result.RefreshToken)
	if errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	if access == "" {
		t.Fatalf("expected access token")
	}

	// An access token is not accepted on the refresh path.
	if _, errCross := svc.Refresh(context.Background(), result.AccessToken); !apperr.IsKind(errCross, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for access token, got %v", errCross)
	}
}

func TestRefresh_RejectsDeactivatedUser(t *testing.T) {
	svc, conn := newTestService(t)
	user := register(t, svc, "admin@x.com", "Passw0rd!")

	result, err := svc.Login(context.Background(), "admin@x.com", "Passw0rd!", RequestMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if errUpdate := conn.Model(&models.User{}).Where("id = ?", user.ID).Update("active", false).Error; errUpdate != nil {
		t.Fatalf("deactivate: %v", errUpdate)
	}

	if _, errRefresh := svc.Refresh(context.Background(), result.RefreshToken); !apperr.IsKind(errRefresh, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", errRefresh)
	}
}

func TestChangePassword(t *testing.T) {
	svc, conn := newTestService(t)
	user := register(t, svc, "admin@x.com", "Passw0rd!")
	if errFlag := conn.Model(&models.User{}).Where("id = ?", user.ID).
		Update("must_change_password", true).Error; errFlag != nil {
		t.Fatalf("set flag: %v", errFlag)
	}
	user.MustChangePassword = true

	if err := svc.ChangePassword(context.Background(), user, "nope", "N3wPassw0rd!", RequestMeta{}); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user, "Passw0rd!", "weak", RequestMeta{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for weak new password, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user, "Passw0rd!", "N3wPassw0rd!", RequestMeta{}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	var loaded models.User
	if err := conn.First(&loaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.MustChangePassword {
		t.Fatalf("expected must_change_password cleared")
	}
	if loaded.PasswordChangedAt == nil {
		t.Fatalf("expected password_changed_at set")
	}

	if _, err := svc.Login(context.Background(), "admin@x.com", "N3wPassw0rd!", RequestMeta{}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAuthenticateAccess_ChecksAccountState(t *testing.T) {
	svc, conn := newTestService(t)
	user := register(t, svc, "admin@x.com", "Passw0rd!")
	result, err := svc.Login(context.Background(), "admin@x.com", "Passw0rd!", RequestMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, errAuth := svc.AuthenticateAccess(context.Background(), result.AccessToken); errAuth != nil {
		t.Fatalf("authenticate: %v", errAuth)
	}

	if errLock := conn.Model(&models.User{}).Where("id = ?", user.ID).Update("locked", true).Error; errLock != nil {
		t.Fatalf("lock: %v", errLock)
	}
	if _, errAuth := svc.AuthenticateAccess(context.Background(), result.AccessToken); !apperr.IsKind(errAuth, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for locked account, got %v", errAuth)
	}
}
