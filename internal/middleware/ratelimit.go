package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/guttosm/neowatch/internal/domain/dto"
)

// client is the request count of one IP inside the current window.
type client struct {
	windowStart time.Time
	count       int
}

// RateLimiter is a fixed-window, per-IP, in-memory request limiter.
//
// It only protects a single instance: every replica keeps its own counters.
type RateLimiter struct {
	limit  int
	window time.Duration
	clock  clockwork.Clock

	mu      sync.Mutex
	clients map[string]*client
}

// NewRateLimiter allows limit requests per window per client IP. A nil clock
// uses the wall clock.
func NewRateLimiter(limit int, window time.Duration, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clock:   clock,
		clients: make(map[string]*client),
	}
}

// Allow records one request from ip and reports whether it fits the limit.
func (l *RateLimiter) Allow(ip string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[ip]
	if !ok || now.Sub(cl.windowStart) >= l.window {
		l.clients[ip] = &client{windowStart: now, count: 1}
		l.evict(now)
		return true
	}
	cl.count++
	return cl.count <= l.limit
}

// evict drops clients whose window has expired. Caller holds l.mu.
func (l *RateLimiter) evict(now time.Time) {
	for ip, cl := range l.clients {
		if now.Sub(cl.windowStart) >= l.window {
			delete(l.clients, ip)
		}
	}
}

// Handler returns the Gin middleware.
//
// Response when the limit is exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	{"message": "rate limit exceeded", "timestamp": "..."}
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit <= 0 || l.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate limit exceeded", nil))
	}
}
