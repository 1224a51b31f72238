package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinBudget(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, wait := rl.Allow("user-1")
		assert.True(t, allowed)
		assert.Zero(t, wait)
	}

	allowed, wait := rl.Allow("user-1")
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))
}

func TestIdentitiesAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	allowed, _ := rl.Allow("user-1")
	assert.True(t, allowed)

	allowed, _ = rl.Allow("user-2")
	assert.True(t, allowed)

	allowed, _ = rl.Allow("user-1")
	assert.False(t, allowed)
}

func TestWindowSlides(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return current }

	allowed, _ := rl.Allow("user-1")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("user-1")
	assert.True(t, allowed)

	allowed, wait := rl.Allow("user-1")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, wait)

	// After the oldest stamp rolls off, one slot opens.
	current = current.Add(61 * time.Second)
	allowed, _ = rl.Allow("user-1")
	assert.True(t, allowed)
}

func TestRemaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	assert.Equal(t, 5, rl.Remaining("user-1"))

	rl.Allow("user-1")
	rl.Allow("user-1")
	assert.Equal(t, 3, rl.Remaining("user-1"))
}

func TestSweepDropsIdleIdentities(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return current }

	rl.Allow("idle-user")
	rl.Allow("active-user")

	current = current.Add(3 * time.Minute)
	rl.Allow("active-user")
	rl.Sweep()

	rl.mutex.RLock()
	_, idleKept := rl.windows["idle-user"]
	_, activeKept := rl.windows["active-user"]
	rl.mutex.RUnlock()

	assert.False(t, idleKept)
	assert.True(t, activeKept)
}
