// Package ratelimit throttles credential endpoints per client IP.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/abduss/clinstudy/internal/config"
	"github.com/abduss/clinstudy/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per client IP.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	ttl      time.Duration
	nowFunc  func() time.Time
}

// New builds a Limiter from cfg. Call Run to evict idle visitors.
func New(cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		ttl:      cfg.VisitorTTL,
		nowFunc:  time.Now,
	}
}

// Allow reports whether a request from ip may proceed now.
func (l *Limiter) Allow(ip string) bool {
	return l.visitor(ip).AllowN(l.nowFunc(), 1)
}

func (l *Limiter) visitor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Run evicts visitors idle for longer than the configured TTL until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	interval := l.ttl
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *Limiter) evictIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	evicted := 0
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, ip)
			evicted++
		}
	}
	return evicted
}

// Middleware rejects requests over the per-IP budget with 429.
func (l *Limiter) Middleware() gin.HandlerFunc {
	retryAfter := "1"
	if l.rps > 0 {
		if secs := int(1/float64(l.rps) + 0.999); secs > 1 {
			retryAfter = strconv.Itoa(secs)
		}
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			logger.FromContext(c).Warn("rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("path", c.FullPath()),
			)
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
