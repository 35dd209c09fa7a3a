package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTokenBucketRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := newTokenBucket(2, 1, clock) // 1 token per second

	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
	assert.False(t, b.Allow())
	assert.Equal(t, 0, b.Remaining())

	now = now.Add(1500 * time.Millisecond)
	assert.Equal(t, 1, b.Remaining())
	assert.True(t, b.Allow())
	assert.False(t, b.Allow())
}

func TestLimiterPerKey(t *testing.T) {
	l := NewLimiter(Config{MessagesPerMinute: 1, BurstSize: 2}, zap.NewNop())

	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))

	assert.True(t, l.Allow("bob"))
	remaining, limit := l.Remaining("bob")
	assert.Equal(t, 1, remaining)
	assert.Equal(t, 2, limit)
	assert.Equal(t, 2, l.Tracked())
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(Config{}, nil)
	assert.False(t, l.Enabled())
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("anyone"))
	}

	var nilLimiter *Limiter
	assert.False(t, nilLimiter.Enabled())
}
