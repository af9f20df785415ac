package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages rate limiters for each client IP.
type IPRateLimiter struct {
	mu        sync.Mutex
	ips       map[string]*ipLimiter
	lastSweep time.Time
	r         rate.Limit
	b         int
}

// NewIPRateLimiter creates a new rate limiter.
// r is the rate of events (requests per second).
// b is the burst size.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:       make(map[string]*ipLimiter),
		lastSweep: time.Now(),
		r:         r,
		b:         b,
	}
}

// Allow reports whether a request from ip may proceed now.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.allowAt(ip, time.Now())
}

// allowAt drops entries idle for longer than limiterIdleTTL, sweeping the
// map at most once per limiterIdleTTL.
func (i *IPRateLimiter) allowAt(ip string, now time.Time) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if now.Sub(i.lastSweep) > limiterIdleTTL {
		for key, entry := range i.ips {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(i.ips, key)
			}
		}
		i.lastSweep = now
	}

	entry, exists := i.ips[ip]
	if !exists {
		entry = &ipLimiter{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// RateLimitMiddleware creates a Gin middleware for rate limiting.
func RateLimitMiddleware(limit rate.Limit, burst int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(limit, burst)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}
