// Package security provides password hashing, password policy checks,
// and JWT issuance/validation for the portal.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. The salt and key lengths follow the library
// recommendations; time/memory match the interactive profile.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonSaltLen = 16
	argonKeyLen  = 32
)

// HashPassword hashes a plaintext password with Argon2id and encodes
// it in the PHC string format.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("security: empty password")
	}

	salt := make([]byte, argonSaltLen)
	if _, errRead := rand.Read(salt); errRead != nil {
		return "", fmt.Errorf("security: generate salt: %w", errRead)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// VerifyPassword reports whether the plaintext matches the encoded
// Argon2id hash. The comparison is constant-time.
func VerifyPassword(encoded, password string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, errScan := fmt.Sscanf(parts[2], "v=%d", &version); errScan != nil || version != argon2.Version {
		return false
	}

	var memory uint32
	var iterations uint32
	var threads uint8
	if _, errScan := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); errScan != nil {
		return false
	}

	salt, errSalt := base64.RawStdEncoding.DecodeString(parts[4])
	if errSalt != nil {
		return false
	}
	expected, errKey := base64.RawStdEncoding.DecodeString(parts[5])
	if errKey != nil {
		return false
	}

	key := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1
}
