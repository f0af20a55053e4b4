package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter limits operations based on a provided key.
type Limiter interface {
	Allow(key string) (bool, error)
}

// LimiterCtor allows the creation of a Limiter using a provided rate.
type LimiterCtor func(rate float64) Limiter

const defaultIdleTTL = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localRateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	sync.Mutex
	limiters  map[string]*keyedLimiter
	lastSweep time.Time
}

// NewLocalRateLimiter returns an in memory limiter. The burst is the limit
// rounded down, but never less than one.
func NewLocalRateLimiter(limit rate.Limit) Limiter {
	burst := int(limit)
	if burst < 1 {
		burst = 1
	}

	return &localRateLimiter{
		limit:     limit,
		burst:     burst,
		idleTTL:   defaultIdleTTL,
		limiters:  make(map[string]*keyedLimiter),
		lastSweep: time.Now(),
	}
}

// Allow implements limiter.Allow.
func (l *localRateLimiter) Allow(key string) (bool, error) {
	now := time.Now()

	l.Lock()
	l.sweep(now)

	entry, ok := l.limiters[key]
	if !ok {
		entry = &keyedLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	l.Unlock()

	return entry.limiter.AllowN(now, 1), nil
}

// sweep drops limiters for keys that have been idle long enough to have fully
// refilled. Must be called with the lock held.
func (l *localRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}

	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// NoLimiter never limits operations
type NoLimiter struct {
}

// Allow implements limiter.Allow.
func (n *NoLimiter) Allow(key string) (bool, error) {
	return true, nil
}
