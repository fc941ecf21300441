// file: internal/middleware/ratelimit.go
package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/dkoosis/mcpkit/internal/protoerr"
)

// Limiter decides whether a request identified by key may proceed.
// Wiring your own (e.g. backed by a shared store) lets rate limiting span
// multiple server processes; NewLocalRateLimiter covers the single-process
// case.
type Limiter interface {
	Allow(key string) bool
}

// localBucket is one key's token bucket.
type localBucket struct {
	tokens     float64
	lastRefill time.Time
}

// LocalRateLimiter is an in-process token-bucket Limiter: ratePerSec tokens
// are added per second, up to burst, and each Allow call consumes one.
type LocalRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*localBucket
	ratePerSec float64
	burst     float64
	now       func() time.Time
}

// NewLocalRateLimiter builds a LocalRateLimiter refilling at ratePerSec
// tokens/second up to a maximum of burst.
func NewLocalRateLimiter(ratePerSec float64, burst float64) *LocalRateLimiter {
	return &LocalRateLimiter{
		buckets:    make(map[string]*localBucket),
		ratePerSec: ratePerSec,
		burst:      burst,
		now:        time.Now,
	}
}

// Allow consumes one token for key, refilling first based on elapsed time.
func (l *LocalRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{tokens: l.burst, lastRefill: now}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(l.burst, b.tokens+elapsed*l.ratePerSec)
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// RateLimit builds a Func that rejects requests with the RateLimit kind
// (code -32004) once limiter denies the configured key. keyFor extracts the
// rate-limit key (e.g. a client id) from the request; a nil keyFor rate
// limits the whole server under one shared key.
func RateLimit(limiter Limiter, keyFor func(rc *RequestContext) string) Func {
	return func(next Handler) Handler {
		return func(ctx context.Context, rc *RequestContext) error {
			key := "global"
			if keyFor != nil {
				key = keyFor(rc)
			}
			if !limiter.Allow(key) {
				return protoerr.New(protoerr.KindRateLimit, "")
			}
			return next(ctx, rc)
		}
	}
}
