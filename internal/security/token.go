package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/silvanatrade/distributor-portal/internal/models"
)

// Claims is the JWT payload shared by access and refresh tokens.
type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// newClaims builds the shared claim set for a user and lifetime.
func newClaims(userID, email string, role models.Role, ttl time.Duration) Claims {
	now := time.Now().UTC()
	return Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// signToken signs the claims with HS256.
func signToken(secret string, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// parseToken validates the signature and expiry and returns the claims.
func parseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	token, errParse := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil {
		return nil, fmt.Errorf("security: parse token: %w", errParse)
	}
	if !token.Valid {
		return nil, fmt.Errorf("security: invalid token")
	}
	return claims, nil
}

// NewAccessToken issues an access token signed with the primary secret.
func NewAccessToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	return signToken(secret, newClaims(user.ID, user.Email, user.Role, ttl))
}

// NewRefreshToken issues a refresh token signed with the refresh secret.
func NewRefreshToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	return signToken(secret, newClaims(user.ID, user.Email, user.Role, ttl))
}

// ParseAccessToken validates an access token and returns its claims.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	return parseToken(secret, raw)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func ParseRefreshToken(secret, raw string) (*Claims, error) {
	return parseToken(secret, raw)
}
