package rate_limit

import (
	"sync"
	"time"
)

// TokenBucket tracks the admission budget for one provider using continuous
// fractional refill. Capacity accumulates at Limit/Window tokens per unit of
// time instead of snapping back to full on a window boundary, so admissions
// smooth out to the configured average rate.
//
// Safe for concurrent use. Every check-then-consume sequence happens under
// the bucket's own mutex so two callers can never spend the same token.
type TokenBucket struct {
	tokens     float64
	lastRefill time.Time
	limit      RateLimit

	mu sync.Mutex
}

// NewTokenBucket creates a bucket starting at full capacity.
func NewTokenBucket(limit RateLimit) *TokenBucket {
	return &TokenBucket{
		tokens:     float64(limit.Limit),
		lastRefill: time.Now(),
		limit:      limit,
	}
}

// HasTokens reports whether at least one whole token is available right now.
func (tb *TokenBucket) HasTokens() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	return tb.tokens >= 1
}

// TryConsume atomically checks for a whole token and spends it. Returns
// false without consuming anything when the bucket is below one token.
func (tb *TokenBucket) TryConsume() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	if tb.tokens < 1 {
		return false
	}

	tb.tokens--
	return true
}

// NextTokenDelay returns how long until a whole token will be available,
// or zero if one is available already.
func (tb *TokenBucket) NextTokenDelay() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	if tb.tokens >= 1 {
		return 0
	}

	missing := 1 - tb.tokens
	perToken := float64(tb.limit.Window) / float64(tb.limit.Limit)
	return time.Duration(missing * perToken)
}

// Snapshot returns the current token count and the configured limit.
// Reading refills first, so the count reflects elapsed time.
func (tb *TokenBucket) Snapshot() (tokens float64, limit int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	return tb.tokens, tb.limit.Limit
}

// refillLocked credits tokens for the time elapsed since the last refill,
// capped at the configured limit. Caller must hold the mutex.
func (tb *TokenBucket) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tb.lastRefill = now

	tb.tokens += elapsed.Seconds() / tb.limit.Window.Seconds() * float64(tb.limit.Limit)
	if tb.tokens > float64(tb.limit.Limit) {
		tb.tokens = float64(tb.limit.Limit)
	}
}
