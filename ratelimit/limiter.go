package ratelimit

import (
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Config holds configuration for rate limiting
type Config struct {
	MessagesPerMinute int           // Sustained refill rate per key
	BurstSize         int           // Allow burst of N requests
	IdleTTL           time.Duration // Buckets untouched this long are dropped
}

// Limiter keeps one token bucket per key (a user id or a client address).
// Idle buckets expire out of the cache, so memory follows active users.
type Limiter struct {
	config  Config
	buckets *cache.Cache
	now     func() time.Time
	logger  *zap.Logger
}

// NewLimiter creates a limiter. A zero MessagesPerMinute disables limiting.
func NewLimiter(config Config, logger *zap.Logger) *Limiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 30 * time.Minute
	}
	if config.BurstSize <= 0 {
		config.BurstSize = max(config.MessagesPerMinute, 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		config:  config,
		buckets: cache.New(config.IdleTTL, config.IdleTTL/2),
		now:     time.Now,
		logger:  logger,
	}
}

// Enabled reports whether the limiter restricts anything.
func (l *Limiter) Enabled() bool {
	return l != nil && l.config.MessagesPerMinute > 0
}

func (l *Limiter) bucket(key string) *TokenBucket {
	if v, ok := l.buckets.Get(key); ok {
		b := v.(*TokenBucket)
		l.buckets.Set(key, b, cache.DefaultExpiration)
		return b
	}
	// Create new bucket: BurstSize tokens, refill at rate/60 per second
	refillRate := float64(l.config.MessagesPerMinute) / 60.0
	b := newTokenBucket(float64(l.config.BurstSize), refillRate, l.now)
	if err := l.buckets.Add(key, b, cache.DefaultExpiration); err != nil {
		// Another caller created it first.
		if v, ok := l.buckets.Get(key); ok {
			return v.(*TokenBucket)
		}
	}
	return b
}

// Allow consumes one token for key, reporting whether the request may proceed.
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	allowed := l.bucket(key).Allow()
	if !allowed {
		l.logger.Warn("Rate limit exceeded",
			zap.String("key", key),
			zap.Int("limit", l.config.BurstSize))
	}
	return allowed
}

// Remaining returns the tokens left for key and the burst size.
func (l *Limiter) Remaining(key string) (remaining int, limit int) {
	if !l.Enabled() {
		return 0, 0
	}
	if v, ok := l.buckets.Get(key); ok {
		return v.(*TokenBucket).Remaining(), l.config.BurstSize
	}
	return l.config.BurstSize, l.config.BurstSize
}

// Tracked returns the number of live buckets.
func (l *Limiter) Tracked() int {
	return l.buckets.ItemCount()
}
