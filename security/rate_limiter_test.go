package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketLimiter_Allow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewTokenBucketLimiter(3)
	limiter.now = clock.now

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("a"), "request %d within burst", i+1)
	}
	assert.False(t, limiter.Allow("a"), "burst exhausted")
	assert.True(t, limiter.Allow("b"), "other keys have their own bucket")

	clock.advance(20 * time.Second)
	assert.True(t, limiter.Allow("a"), "one token refilled")
	assert.False(t, limiter.Allow("a"))

	clock.advance(time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("a"))
	}
}

func TestTokenBucketLimiter_CleanupDropsIdleKeys(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewTokenBucketLimiter(10)
	limiter.now = clock.now

	limiter.Allow("idle")
	clock.advance(11 * time.Minute)

	for i := 1; i < cleanupEvery; i++ {
		limiter.Allow("busy")
	}

	limiter.mu.Lock()
	_, idleKept := limiter.limiters["idle"]
	_, busyKept := limiter.limiters["busy"]
	limiter.mu.Unlock()

	assert.False(t, idleKept)
	assert.True(t, busyKept)
}
