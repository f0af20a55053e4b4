package sync

import (
	"sort"
	"sync"
)

// StripedLock bounds memory for per-key locking by consistently mapping keys
// onto a fixed set of stripes
type StripedLock struct {
	locks []sync.RWMutex
	ring  *ring
}

func NewStripedLock(stripes uint) *StripedLock {
	return &StripedLock{
		locks: make([]sync.RWMutex, stripes),
		ring:  newRing(stripes),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *sync.RWMutex {
	return &l.locks[l.ring.shard(key)]
}

// GetMany gets the distinct locks covering keys, ordered by stripe. Acquiring
// them in the returned order never deadlocks against another GetMany caller.
func (l *StripedLock) GetMany(keys ...[]byte) []*sync.RWMutex {
	seen := make(map[int]struct{}, len(keys))
	stripes := make([]int, 0, len(keys))
	for _, key := range keys {
		stripe := l.ring.shard(key)
		if _, ok := seen[stripe]; ok {
			continue
		}
		seen[stripe] = struct{}{}
		stripes = append(stripes, stripe)
	}
	sort.Ints(stripes)

	res := make([]*sync.RWMutex, len(stripes))
	for i, stripe := range stripes {
		res[i] = &l.locks[stripe]
	}
	return res
}
