package security

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected argon2id encoding, got %q", hash)
	}
	if !VerifyPassword(hash, "Passw0rd!") {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword(hash, "wrong!") {
		t.Fatalf("expected mismatch to fail")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct hashes for the same password")
	}
}

func TestVerifyPassword_RejectsMalformed(t *testing.T) {
	for _, encoded := range []string{"", "plain", "$bcrypt$x$y", "$argon2id$v=19$m=1,t=1,p=1$!!$!!"} {
		if VerifyPassword(encoded, "Passw0rd!") {
			t.Fatalf("expected %q to fail verification", encoded)
		}
	}
}

func TestCheckPasswordPolicy(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantRule string
	}{
		{"ok", "Passw0rd!", ""},
		{"too short", "P0d!", "8 characters"},
		{"no digit", "Password!", "digit"},
		{"no special", "Passw0rdX", "special"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPasswordPolicy(tc.password)
			if tc.wantRule == "" {
				if err != nil {
					t.Fatalf("expected pass, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected policy violation")
			}
			if !strings.Contains(err.Error(), tc.wantRule) {
				t.Fatalf("expected error naming %q, got %q", tc.wantRule, err.Error())
			}
		})
	}
}
