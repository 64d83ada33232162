package memory

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter for single-instance deployments
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int64
}

// NewRateLimiter creates a new in-process rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// CheckRateLimit counts one request for key.
// Returns (allowed, remaining, resetTime, error)
func (l *RateLimiter) CheckRateLimit(_ context.Context, key string, limit int64, period time.Duration) (bool, int64, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := now.Truncate(period)

	w, ok := l.windows[key]
	if !ok || !w.start.Equal(start) {
		w = &window{start: start}
		l.windows[key] = w
		l.evict(start)
	}
	w.count++

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}

	return w.count <= limit, remaining, start.Add(period), nil
}

// evict drops windows older than the current one
func (l *RateLimiter) evict(current time.Time) {
	for k, w := range l.windows {
		if w.start.Before(current) {
			delete(l.windows, k)
		}
	}
}
