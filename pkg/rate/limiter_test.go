package rate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNoLimiter(t *testing.T) {
	l := &NoLimiter{}
	for i := 0; i < 10000; i++ {
		allowed, err := l.Allow("")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestLocalRateLimiter(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(2))

	for i := 0; i < 2; i++ {
		allowed, err := l.Allow("donor-a")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := l.Allow("donor-a")
	assert.NoError(t, err)
	assert.False(t, allowed)

	// Ensure key partitioning is valid
	for i := 0; i < 2; i++ {
		allowed, err := l.Allow("donor-b")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err = l.Allow("donor-b")
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestLocalRateLimiter_FractionalLimit(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(0.5))

	allowed, err := l.Allow("donor")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = l.Allow("donor")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLocalRateLimiter_IdleKeysEvicted(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(1)).(*localRateLimiter)
	l.idleTTL = time.Millisecond

	_, err := l.Allow("donor-a")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = l.Allow("donor-b")
	require.NoError(t, err)

	l.Lock()
	defer l.Unlock()
	assert.NotContains(t, l.limiters, "donor-a")
	assert.Contains(t, l.limiters, "donor-b")
}
