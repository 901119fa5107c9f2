package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to the bucket it draws tokens from.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP buckets dashboard calls by operator, falling back to the
// client IP before SessionAuth has run.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(ctxKeyUserID); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// KeyByIP buckets by client IP. The workflow engine calls from a handful of
// hosts, so this is effectively one bucket per engine instance.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter is a process-local token bucket per key. Buckets idle for
// longer than the idle window are dropped on the next sweep, which runs at
// most once per window.
type RateLimiter struct {
	name  string
	every rate.Limit
	burst int
	key   KeyFunc
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter allows rps requests per second per key with the given
// burst. A burst below one is raised to one.
func NewRateLimiter(rps float64, burst int, key KeyFunc) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		name:    "default",
		every:   rate.Limit(rps),
		burst:   burst,
		key:     key,
		idle:    10 * time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Named sets the label rejections are counted under.
func (rl *RateLimiter) Named(name string) *RateLimiter {
	rl.name = name
	return rl
}

// limiter returns the bucket for key, sweeping idle buckets first so a
// stale one is replaced rather than refreshed.
func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.idle {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.idle {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.every, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// size reports the number of live buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// IsRateBypass reports whether IdempotencyValidator found a stored reply
// for this request. Replays do not consume tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler rejects requests over the limit with 429 and a Retry-After that
// says when the next token arrives, in whole seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		res := rl.limiter(rl.key(c), now).ReserveN(now, 1)
		wait := res.DelayFrom(now)
		if res.OK() && wait == 0 {
			c.Next()
			return
		}
		res.CancelAt(now)

		rateLimited.WithLabelValues(rl.name).Inc()
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		abort(c, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
	}
}

func retryAfterSeconds(d time.Duration) int {
	// A reservation that can never be met reports InfDuration.
	if d <= 0 || d == rate.InfDuration {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}
