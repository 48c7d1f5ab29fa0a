package ratelimit

import "testing"

func TestLoginLimiter_BurstThenDeny(t *testing.T) {
	limiter := NewLoginLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("expected attempt %d within burst to pass", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("expected attempt beyond burst to be denied")
	}

	// Other keys are unaffected.
	if !limiter.Allow("10.0.0.2") {
		t.Fatalf("expected separate key to pass")
	}
}

func TestLoginLimiter_EmptyKeyAlwaysAllowed(t *testing.T) {
	limiter := NewLoginLimiter(1, 1)
	for i := 0; i < 5; i++ {
		if !limiter.Allow("") {
			t.Fatalf("expected empty key to bypass limiting")
		}
	}
}
