// Package ratelimiter throttles repeated requests per client key.
package ratelimiter

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter decides whether one more call for key is allowed.
type Limiter interface {
	Allow(key string) (ok bool, retryAfter time.Duration)
}

type window struct {
	count int
	start time.Time
}

// RateLimiter allows limit calls per key in each fixed interval.
type RateLimiter struct {
	limit    int
	interval time.Duration

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter returns a RateLimiter allowing limit calls per interval.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		interval: interval,
		windows:  make(map[string]*window),
		now:      time.Now,
	}
}

// Allow counts a call for key. When the limit is reached it reports how long
// until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	// reset the window once the interval has passed
	if !ok || now.Sub(w.start) >= rl.interval {
		rl.windows[key] = &window{count: 1, start: now}
		return true, 0
	}
	if w.count >= rl.limit {
		return false, rl.interval - now.Sub(w.start)
	}
	w.count++
	return true, 0
}

// Wait blocks until a call for key is allowed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	for {
		ok, retry := rl.Allow(key)
		if ok {
			return nil
		}
		slog.Debug("rate limit reached, waiting", "key", key, "wait", retry)
		t := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Prune drops windows that have expired and returns how many it dropped.
func (rl *RateLimiter) Prune() int {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for k, w := range rl.windows {
		if now.Sub(w.start) >= rl.interval {
			delete(rl.windows, k)
			n++
		}
	}
	return n
}

// Middleware answers 429 once the client IP exceeds the limit.
func Middleware(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := l.Allow(c.ClientIP())
		if !ok {
			secs := int(retry.Round(time.Second) / time.Second)
			slog.Warn("rate limit hit", "path", c.FullPath(), "remote_addr", c.ClientIP(), "retry_after", retry)
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
			return
		}
		c.Next()
	}
}
