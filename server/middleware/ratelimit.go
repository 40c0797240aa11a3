package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/resilience"
)

// RateLimitConfig bounds how often one client may start research runs.
// Every run fans out into many model calls, so the limit is per client.
type RateLimitConfig struct {
	// RunsPerMinute is the sustained rate. Zero disables the limiter.
	RunsPerMinute int `yaml:"runs_per_minute" mapstructure:"runs_per_minute" validate:"gte=0"`
	// Burst is how many runs a client may start back to back.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
	// KeyFunc picks the client key. Defaults to the client IP.
	KeyFunc func(*gin.Context) string `yaml:"-" mapstructure:"-"`
}

// RateLimit keeps one token bucket per client key and rejects requests
// with 429 once a bucket is empty. Idle buckets are evicted.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RunsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	buckets := &bucketSet{
		cfg:     resilience.RateLimiterConfig{Rate: float64(cfg.RunsPerMinute) / 60, Burst: max(1, cfg.Burst)},
		limiter: make(map[string]*bucket),
		idle:    10 * time.Minute,
	}

	return func(c *gin.Context) {
		if !buckets.allow(cfg.KeyFunc(c), time.Now()) {
			err := apperrors.RateLimited().WithDetail("limit_per_minute", cfg.RunsPerMinute)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, err.ToResponse())
			return
		}
		c.Next()
	}
}

type bucket struct {
	rl       *resilience.RateLimiter
	lastSeen time.Time
}

type bucketSet struct {
	mu        sync.Mutex
	cfg       resilience.RateLimiterConfig
	limiter   map[string]*bucket
	idle      time.Duration
	lastSweep time.Time
}

func (s *bucketSet) allow(key string, now time.Time) bool {
	s.mu.Lock()
	if now.Sub(s.lastSweep) > s.idle {
		for k, b := range s.limiter {
			if now.Sub(b.lastSeen) > s.idle {
				delete(s.limiter, k)
			}
		}
		s.lastSweep = now
	}
	b, ok := s.limiter[key]
	if !ok {
		b = &bucket{rl: resilience.NewRateLimiter(s.cfg)}
		s.limiter[key] = b
	}
	b.lastSeen = now
	s.mu.Unlock()
	return b.rl.Allow()
}
