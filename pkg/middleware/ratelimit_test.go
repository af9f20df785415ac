package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// One token, refilled once a minute, so the second call is always rejected.
	r.Use(RateLimitMiddleware(rate.Every(time.Minute), 1))
	r.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
}

func TestRateLimitIsPerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Minute), 1)
	if !l.Allow("10.0.0.1") {
		t.Fatalf("first request from 10.0.0.1 should pass")
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("second request from 10.0.0.1 should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatalf("other ip should have its own bucket")
	}
}

func TestIdleLimitersAreSweptOncePerTTL(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Minute), 1)
	start := l.lastSweep

	l.allowAt("10.0.0.1", start.Add(time.Second))
	l.allowAt("10.0.0.2", start.Add(limiterIdleTTL/2))

	// First sweep: nothing is idle long enough yet.
	l.allowAt("10.0.0.3", start.Add(limiterIdleTTL+time.Millisecond))
	if len(l.ips) != 3 {
		t.Fatalf("expected 3 entries after first sweep, got %d", len(l.ips))
	}

	// 10.0.0.1 is now idle past the TTL, but the last sweep is too recent.
	l.allowAt("10.0.0.3", start.Add(limiterIdleTTL+2*time.Second))
	if _, ok := l.ips["10.0.0.1"]; !ok {
		t.Fatalf("expected no sweep before the interval elapsed")
	}

	l.allowAt("10.0.0.3", start.Add(2*limiterIdleTTL+2*time.Millisecond))
	if len(l.ips) != 1 {
		t.Fatalf("expected only 10.0.0.3 to remain, got %d entries", len(l.ips))
	}
	if _, ok := l.ips["10.0.0.3"]; !ok {
		t.Fatalf("active limiter for 10.0.0.3 was evicted")
	}
}
