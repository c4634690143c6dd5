package middleware

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Sync clients refetch list snapshots after every websocket signal, so the
// per-client budget is deliberately generous. RATE_LIMIT overrides it.
const defaultRequestsPerMinute = 300

type ipLimiter struct {
	mu      sync.Mutex
	windows map[string]*ipWindow
	limit   int
	span    time.Duration
}

type ipWindow struct {
	hits    int
	resetAt time.Time
}

func newIPLimiter(limit int, span time.Duration) *ipLimiter {
	l := &ipLimiter{
		windows: make(map[string]*ipWindow),
		limit:   limit,
		span:    span,
	}
	go l.sweep()
	return l
}

// allow counts one request for ip and reports whether it is still within
// the window budget, along with the time left until the window resets.
func (l *ipLimiter) allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[ip]
	if !ok || now.After(w.resetAt) {
		l.windows[ip] = &ipWindow{hits: 1, resetAt: now.Add(l.span)}
		return true, 0
	}
	if w.hits >= l.limit {
		return false, w.resetAt.Sub(now)
	}
	w.hits++
	return true, 0
}

func (l *ipLimiter) sweep() {
	ticker := time.NewTicker(l.span)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for ip, w := range l.windows {
			if now.After(w.resetAt) {
				delete(l.windows, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimiter caps each client IP to RATE_LIMIT requests per minute.
func RateLimiter() gin.HandlerFunc {
	limit := defaultRequestsPerMinute
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT")); err == nil && v > 0 {
		limit = v
	}
	limiter := newIPLimiter(limit, time.Minute)

	return func(c *gin.Context) {
		ok, retryAfter := limiter.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
