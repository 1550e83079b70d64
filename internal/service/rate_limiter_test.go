package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowLimiter_Allow(t *testing.T) {
	t.Run("allows up to the limit then rejects", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(3, time.Hour)

		for i := 0; i < 3; i++ {
			allowed, _ := limiter.Allow("key")
			assert.True(t, allowed, "event %d should be allowed", i+1)
		}

		allowed, remaining := limiter.Allow("key")
		assert.False(t, allowed)
		assert.Zero(t, remaining)
	})

	t.Run("reports remaining quota", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(5, time.Hour)

		_, remaining := limiter.Allow("key")
		assert.Equal(t, 4, remaining)

		_, remaining = limiter.Allow("key")
		assert.Equal(t, 3, remaining)
	})

	t.Run("keys are independent", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(1, time.Hour)

		allowed, _ := limiter.Allow("a")
		assert.True(t, allowed)

		allowed, _ = limiter.Allow("a")
		assert.False(t, allowed)

		allowed, _ = limiter.Allow("b")
		assert.True(t, allowed)
	})

	t.Run("events fall out of the window", func(t *testing.T) {
		current := time.Now()
		limiter := NewSlidingWindowLimiter(1, time.Hour)
		limiter.now = func() time.Time { return current }

		allowed, _ := limiter.Allow("key")
		assert.True(t, allowed)

		allowed, _ = limiter.Allow("key")
		assert.False(t, allowed)

		current = current.Add(61 * time.Minute)

		allowed, _ = limiter.Allow("key")
		assert.True(t, allowed)
	})

	t.Run("stale keys are cleaned up", func(t *testing.T) {
		current := time.Now()
		limiter := NewSlidingWindowLimiter(1, time.Minute)
		limiter.now = func() time.Time { return current }

		limiter.Allow("stale")

		current = current.Add(2 * time.Hour)
		limiter.Allow("fresh")

		limiter.mu.Lock()
		_, staleExists := limiter.events["stale"]
		limiter.mu.Unlock()

		assert.False(t, staleExists)
	})
}
