package service

import (
	"sync"
	"time"
)

// SlidingWindowLimiter counts events per key over a trailing window. It backs
// the idea-submission quotas (per anon ID and per client IP) and holds state
// in memory, which is acceptable for a single-instance deployment.
type SlidingWindowLimiter struct {
	limit  int
	window time.Duration

	mu              sync.Mutex
	events          map[string][]time.Time
	cleanupInterval time.Duration
	lastCleanup     time.Time

	// now is swapped in tests.
	now func() time.Time
}

// NewSlidingWindowLimiter creates a limiter allowing limit events per key per window.
func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		limit:           limit,
		window:          window,
		events:          make(map[string][]time.Time),
		cleanupInterval: time.Hour,
		lastCleanup:     time.Now(),
		now:             time.Now,
	}
}

// Allow records one event for key and reports whether it fits the quota.
// remaining is the number of further events the key may submit this window.
func (rl *SlidingWindowLimiter) Allow(key string) (allowed bool, remaining int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	if now.Sub(rl.lastCleanup) > rl.cleanupInterval {
		rl.cleanupStaleKeys(now)
		rl.lastCleanup = now
	}

	cutoff := now.Add(-rl.window)
	recent := rl.events[key][:0]

	for _, ts := range rl.events[key] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= rl.limit {
		rl.events[key] = recent

		return false, 0
	}

	rl.events[key] = append(recent, now)

	return true, rl.limit - len(rl.events[key])
}

// cleanupStaleKeys drops keys whose events all fell out of the window.
// Caller holds the lock.
func (rl *SlidingWindowLimiter) cleanupStaleKeys(now time.Time) {
	cutoff := now.Add(-rl.window)

	for key, timestamps := range rl.events {
		active := false

		for _, ts := range timestamps {
			if ts.After(cutoff) {
				active = true

				break
			}
		}

		if !active {
			delete(rl.events, key)
		}
	}
}
