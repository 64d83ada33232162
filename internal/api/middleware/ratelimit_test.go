package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guardian-shield/internal/config"
	"guardian-shield/pkg/logger"
)

type countingLimiter struct {
	counts map[string]int64
	err    error
}

func (l *countingLimiter) CheckRateLimit(_ context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	if l.err != nil {
		return false, 0, time.Time{}, l.err
	}
	l.counts[key]++
	n := l.counts[key]
	return n <= limit, max(limit-n, 0), time.Now().Add(window), nil
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	l := &countingLimiter{counts: map[string]int64{}}
	h := RateLimiter(l, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, logger.NewNop())(okHandler)

	do := func(clientID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/link", nil)
		if clientID != "" {
			req.Header.Set(ClientIDHeader, clientID)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := range 2 {
		if rec := do("ext-1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}

	rec := do("ext-1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	if rec := do("ext-2"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
	if _, ok := l.counts["client:ext-1"]; !ok {
		t.Errorf("client id key not used, counts = %v", l.counts)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "warn", Format: "json", Output: &buf})

	l := &countingLimiter{err: errors.New("redis down")}
	h := RateLimiter(l, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, log)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/extension/stats", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(buf.Bytes(), []byte("rate limit check failed")) {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestRateLimiterSkipsPreflight(t *testing.T) {
	l := &countingLimiter{counts: map[string]int64{}}
	h := RateLimiter(l, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, logger.NewNop())(okHandler)

	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/analyze/link", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("preflight status = %d", rec.Code)
		}
	}
	if len(l.counts) != 0 {
		t.Errorf("preflight requests were counted: %v", l.counts)
	}
}
