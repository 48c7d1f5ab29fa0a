package security

import (
	"strings"
	"unicode"

	"github.com/silvanatrade/distributor-portal/internal/apperr"
)

// passwordSpecialChars is the fixed set of accepted special characters.
const passwordSpecialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// passwordMinLength is the minimum accepted password length.
const passwordMinLength = 8

// CheckPasswordPolicy validates a plaintext password against the
// portal policy. The returned error names the first unmet rule.
func CheckPasswordPolicy(password string) error {
	if len(password) < passwordMinLength {
		return apperr.Validation("password must be at least %d characters long", passwordMinLength)
	}

	var hasDigit, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsDigit(char):
			hasDigit = true
		case strings.ContainsRune(passwordSpecialChars, char):
			hasSpecial = true
		}
	}

	if !hasDigit {
		return apperr.Validation("password must contain at least one digit")
	}
	if !hasSpecial {
		return apperr.Validation("password must contain at least one special character")
	}
	return nil
}
