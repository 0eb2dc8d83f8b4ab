// Package ratelimit provides per-key token bucket rate limiting for MCP tools.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key, all with the same rate and
// burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	nowFunc func() time.Time // injectable clock for testing
}

// NewLimiter creates a limiter allowing perSecond tokens per second with the
// given burst. Each key starts with a full bucket.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter from a per-minute rate.
func PerMinute(n float64, burst int) *Limiter {
	return NewLimiter(n/60, burst)
}

// Allow reports whether a request for key may proceed, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	now := l.nowFunc()
	l.mu.Unlock()

	return b.AllowN(now, 1)
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// Tool names with dedicated limits. Mutating tools get tighter buckets than
// read-only ones.
var toolWeights = map[string]struct {
	share float64 // fraction of the configured per-minute rate
	burst float64 // fraction of the configured burst
}{
	"archsim_status":  {1, 1},
	"archsim_defects": {1, 1},
	"archsim_tick":    {1, 1},
	"archsim_spread":  {0.5, 0.5},
	"archsim_connect": {0.25, 0.25},
	"archsim_reset":   {0.05, 0.1},
}

// NewToolLimiters creates the per-tool limiters from a per-minute rate and
// burst. Every tool keeps a burst of at least 1.
func NewToolLimiters(perMinute float64, burst int) ToolLimiters {
	limiters := make(ToolLimiters, len(toolWeights))
	for tool, w := range toolWeights {
		b := int(float64(burst) * w.burst)
		if b < 1 {
			b = 1
		}
		limiters[tool] = PerMinute(perMinute*w.share, b)
	}
	return limiters
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error if rate limited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow(toolName) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}

	return nil
}
