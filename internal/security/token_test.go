package security

import (
	"testing"
	"time"

	"github.com/silvanatrade/distributor-portal/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    "8f0f2a41-0f5d-4c18-9c55-72a3a9f3b001",
		Email: "manager@example.com",
		Role:  models.RoleExportManager,
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	user := testUser()
	raw, err := NewAccessToken("access-secret", user, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, errParse := ParseAccessToken("access-secret", raw)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.Subject != user.ID {
		t.Fatalf("expected sub=%q, got %q", user.ID, claims.Subject)
	}
	if claims.Email != user.Email {
		t.Fatalf("expected email=%q, got %q", user.Email, claims.Email)
	}
	if claims.Role != models.RoleExportManager {
		t.Fatalf("expected role=%q, got %q", models.RoleExportManager, claims.Role)
	}
}

func TestAccessToken_WrongSecretRejected(t *testing.T) {
	raw, err := NewAccessToken("access-secret", testUser(), 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseAccessToken("other-secret", raw); errParse == nil {
		t.Fatalf("expected wrong-secret rejection")
	}
}

func TestRefreshToken_NotValidAsAccessToken(t *testing.T) {
	raw, err := NewRefreshToken("refresh-secret", testUser(), 7*24*time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseAccessToken("access-secret", raw); errParse == nil {
		t.Fatalf("expected refresh token to fail access validation")
	}
}

func TestAccessToken_ExpiredRejected(t *testing.T) {
	raw, err := NewAccessToken("access-secret", testUser(), -1*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseAccessToken("access-secret", raw); errParse == nil {
		t.Fatalf("expected expired token rejection")
	}
}
