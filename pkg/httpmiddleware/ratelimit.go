package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/jx"
)

// RateLimitConfig configures the per-client sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the sliding window duration.
	Window time.Duration
	// KeyFunc derives the limit key from a request. Defaults to the
	// client IP.
	KeyFunc func(*http.Request) string
}

// client tracks request counts in the current fixed window and the one
// before it. The sliding estimate weights the previous window by how much
// of it still overlaps the last Window of wall time.
type client struct {
	windowStart time.Time
	count       int
	prevCount   int
}

type rateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	clients map[string]*client
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	return &rateLimiter{cfg: cfg, clients: make(map[string]*client)}
}

// allow records one request for key and reports whether it is within the
// limit, along with the remaining budget and when the window resets.
func (rl *rateLimiter) allow(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := now.Truncate(rl.cfg.Window)

	c, found := rl.clients[key]
	if !found {
		c = &client{windowStart: windowStart}
		rl.clients[key] = c
	}

	switch {
	case c.windowStart.Equal(windowStart):
	case c.windowStart.Equal(windowStart.Add(-rl.cfg.Window)):
		c.prevCount = c.count
		c.count = 0
		c.windowStart = windowStart
	default:
		// Idle for at least a full window.
		c.prevCount = 0
		c.count = 0
		c.windowStart = windowStart
	}

	weight := 1 - float64(now.Sub(windowStart))/float64(rl.cfg.Window)
	estimated := float64(c.count) + float64(c.prevCount)*weight

	resetAt = windowStart.Add(rl.cfg.Window)
	if estimated >= float64(rl.cfg.Max) {
		return 0, resetAt, false
	}

	c.count++
	remaining = rl.cfg.Max - int(estimated) - 1
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

// prune drops clients that have been idle for two windows or more.
func (rl *rateLimiter) prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-2 * rl.cfg.Window)
	for key, c := range rl.clients {
		if c.windowStart.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// RateLimit returns a sliding window rate limiting middleware without
// background cleanup. Prefer RateLimitWithCleanup in servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newRateLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a goroutine that periodically
// evicts idle clients until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)

	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.prune(now)
			}
		}
	}()

	return rl.middleware()
}

func (rl *rateLimiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			remaining, resetAt, ok := rl.allow(rl.cfg.KeyFunc(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retryAfter := int(resetAt.Sub(now).Seconds()) + 1
				h.Set("Retry-After", strconv.Itoa(retryAfter))

				var e jx.Encoder
				e.ObjStart()
				e.FieldStart("code")
				e.Int(http.StatusTooManyRequests)
				e.FieldStart("message")
				e.Str("rate limit exceeded")
				e.ObjEnd()

				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write(e.Bytes())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
