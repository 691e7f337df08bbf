package webserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// voteLimiter is a sliding-window limiter keyed by voter identity. Vote spam
// mostly bounces off the dedup constraint anyway; this keeps the table queries
// off the floor.
type voteLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	rate     int
	window   time.Duration
}

func newVoteLimiter(rate int, window time.Duration) *voteLimiter {
	l := &voteLimiter{
		requests: make(map[string][]time.Time),
		rate:     rate,
		window:   window,
	}

	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for range ticker.C {
			l.cleanup()
		}
	}()

	return l
}

func (l *voteLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, times := range l.requests {
		valid := times[:0]
		for _, t := range times {
			if now.Sub(t) < l.window {
				valid = append(valid, t)
			}
		}
		if len(valid) == 0 {
			delete(l.requests, key)
		} else {
			l.requests[key] = valid
		}
	}
}

func (l *voteLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	valid := []time.Time{}
	for _, t := range l.requests[key] {
		if now.Sub(t) < l.window {
			valid = append(valid, t)
		}
	}
	if len(valid) >= l.rate {
		l.requests[key] = valid
		return false
	}
	l.requests[key] = append(valid, now)
	return true
}

func RateLimitMiddleware(l *voteLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("userID")
		if key == "" {
			if tok, err := c.Cookie(anonCookie); err == nil && tok != "" {
				key = tok
			} else {
				key = c.ClientIP()
			}
		}

		if !l.allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{"err": "too many requests, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
