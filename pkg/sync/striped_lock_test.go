package sync

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripedLock_HappyPath(t *testing.T) {
	workerCount := 64
	operationCount := 1000

	l := NewStripedLock(4)

	start := make(chan struct{})
	data := make([]int, workerCount)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		for j := 0; j < operationCount; j++ {
			wg.Add(1)
			go func(workerID int) {
				defer wg.Done()
				<-start

				mu := l.Get([]byte(fmt.Sprintf("worker%d", workerID)))
				mu.Lock()
				data[workerID]++
				mu.Unlock()
			}(i)
		}
	}

	close(start)
	wg.Wait()

	for _, val := range data {
		assert.Equal(t, operationCount, val)
	}
}

func TestStripedLock_GetMany(t *testing.T) {
	l := NewStripedLock(4)

	var keys [][]byte
	for i := 0; i < 64; i++ {
		keys = append(keys, []byte(fmt.Sprintf("account%d", i)))
	}

	locks := l.GetMany(keys...)
	assert.True(t, len(locks) > 1)
	assert.True(t, len(locks) <= 4)

	seen := make(map[*sync.RWMutex]struct{})
	for _, mu := range locks {
		_, ok := seen[mu]
		assert.False(t, ok)
		seen[mu] = struct{}{}
	}

	for _, key := range keys {
		_, ok := seen[l.Get(key)]
		assert.True(t, ok)
	}

	// Same stripe ordering regardless of key order
	reversed := make([][]byte, len(keys))
	for i := range keys {
		reversed[len(keys)-1-i] = keys[i]
	}
	assert.Equal(t, locks, l.GetMany(reversed...))

	// Acquiring every lock in order must not deadlock even when keys collide
	for _, mu := range l.GetMany(keys[0], keys[0], keys[1]) {
		mu.Lock()
	}
	for _, mu := range l.GetMany(keys[0], keys[1]) {
		mu.Unlock()
	}
}
