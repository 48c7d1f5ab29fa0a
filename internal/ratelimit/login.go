// Package ratelimit throttles credential-guessing traffic on the
// login endpoint.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// staleAfter controls when idle per-key limiters are dropped.
const staleAfter = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter applies a token-bucket rate limit per client key
// (normally the remote IP).
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	rps      rate.Limit
	burst    int
}

// NewLoginLimiter constructs a LoginLimiter.
func NewLoginLimiter(rps float64, burst int) *LoginLimiter {
	return &LoginLimiter{
		limiters: make(map[string]*keyedLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a login attempt from the key may proceed.
func (l *LoginLimiter) Allow(key string) bool {
	if l == nil || key == "" {
		return true
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.limiters[key]
	if entry == nil {
		entry = &keyedLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	// Opportunistic cleanup keeps the map from growing unbounded.
	if len(l.limiters) > 1024 {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > staleAfter {
				delete(l.limiters, k)
			}
		}
	}
	return entry.limiter.Allow()
}
