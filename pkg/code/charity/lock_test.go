package charity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/charity-server/pkg/lock"
)

func TestLocalAccountLocker_Exclusive(t *testing.T) {
	locker := NewLocalAccountLocker(16)

	_, unlock, err := locker.Lock(context.Background(), 0, "a", "b", "c")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		_, unlockOther, err := locker.Lock(context.Background(), 0, "c", "d")
		require.NoError(t, err)
		close(acquired)
		unlockOther()
	}()

	select {
	case <-acquired:
		t.Fatal("overlapping lock acquired while held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not acquired after release")
	}
}

func TestLocalAccountLocker_DuplicateKeys(t *testing.T) {
	locker := NewLocalAccountLocker(1)

	// Every key maps to the only stripe, which must only be locked once
	_, unlock, err := locker.Lock(context.Background(), 0, "a", "a", "b")
	require.NoError(t, err)
	unlock()

	_, unlock, err = locker.Lock(context.Background(), 0, "b")
	require.NoError(t, err)
	unlock()
}

func TestLocalAccountLocker_Wait(t *testing.T) {
	locker := NewLocalAccountLocker(16)

	_, unlock, err := locker.Lock(context.Background(), 0, "a")
	require.NoError(t, err)

	start := time.Now()
	_, _, err = locker.Lock(context.Background(), 20*time.Millisecond, "a", "b")
	assert.ErrorIs(t, err, ErrCouldNotAcquireAccountLocks)
	assert.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = locker.Lock(ctx, time.Minute, "a")
	assert.ErrorIs(t, err, ErrCouldNotAcquireAccountLocks)

	unlock()

	// Abandoned attempts give their stripes back once they get them
	require.Eventually(t, func() bool {
		_, unlock, err := locker.Lock(context.Background(), 10*time.Millisecond, "a", "b")
		if err != nil {
			return false
		}
		unlock()
		return true
	}, time.Second, 10*time.Millisecond)
}

func TestDistributedAccountLocker(t *testing.T) {
	manager := newFakeLockManager()
	locker := NewDistributedAccountLocker(manager, nil)

	heldCtx, unlock, err := locker.Lock(context.Background(), time.Second, "c", "a", "b", "a")
	require.NoError(t, err)

	assert.Equal(t, []string{"account/a", "account/b", "account/c"}, manager.acquiredOrder())
	assert.True(t, manager.isHeld("account/a"))
	assert.True(t, manager.isHeld("account/c"))

	unlock()

	assert.False(t, manager.isHeld("account/a"))
	assert.False(t, manager.isHeld("account/b"))
	assert.False(t, manager.isHeld("account/c"))
	assert.Error(t, heldCtx.Err())
}

func TestDistributedAccountLocker_HeldBeyondWait(t *testing.T) {
	manager := newFakeLockManager()
	locker := NewDistributedAccountLocker(manager, nil)

	heldCtx, unlock, err := locker.Lock(context.Background(), 20*time.Millisecond, "charity", "vault")
	require.NoError(t, err)
	defer unlock()

	time.Sleep(100 * time.Millisecond)

	assert.True(t, manager.isHeld("account/charity"))
	assert.True(t, manager.isHeld("account/vault"))
	assert.NoError(t, heldCtx.Err())
}

func TestDistributedAccountLocker_Lost(t *testing.T) {
	manager := newFakeLockManager()
	locker := NewDistributedAccountLocker(manager, nil)

	heldCtx, unlock, err := locker.Lock(context.Background(), time.Second, "charity", "vault")
	require.NoError(t, err)
	defer unlock()

	manager.lose("account/vault")

	select {
	case <-heldCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after losing a lock")
	}
	assert.ErrorIs(t, context.Cause(heldCtx), ErrAccountLocksLost)
}

func TestDistributedAccountLocker_Wait(t *testing.T) {
	manager := newFakeLockManager()
	manager.blockOn = "account/b"

	locker := NewDistributedAccountLocker(manager, nil)

	start := time.Now()
	_, _, err := locker.Lock(context.Background(), 50*time.Millisecond, "a", "b")
	assert.ErrorIs(t, err, ErrCouldNotAcquireAccountLocks)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, manager.isHeld("account/a"))
}

func TestDistributedAccountLocker_AcquireFailure(t *testing.T) {
	manager := newFakeLockManager()
	manager.failOn = "account/b"

	locker := NewDistributedAccountLocker(manager, NewLocalAccountLocker(4))

	_, _, err := locker.Lock(context.Background(), time.Second, "a", "b", "c")
	assert.ErrorIs(t, err, ErrCouldNotAcquireAccountLocks)

	// Everything acquired before the failure is released
	assert.False(t, manager.isHeld("account/a"))
	assert.False(t, manager.isHeld("account/c"))

	// Including the local locks
	manager.setFailOn("")
	_, unlock, err := locker.Lock(context.Background(), time.Second, "a", "b", "c")
	require.NoError(t, err)
	unlock()
}

type fakeLockManager struct {
	mu       sync.Mutex
	held     map[string]*fakeLock
	acquired []string
	failOn   string
	blockOn  string
}

func newFakeLockManager() *fakeLockManager {
	return &fakeLockManager{
		held: make(map[string]*fakeLock),
	}
}

func (m *fakeLockManager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	return &fakeLock{manager: m, name: name}, nil
}

func (m *fakeLockManager) acquiredOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acquired...)
}

func (m *fakeLockManager) isHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[name]
	return ok
}

func (m *fakeLockManager) setFailOn(name string) {
	m.mu.Lock()
	m.failOn = name
	m.mu.Unlock()
}

// lose takes a lock away from its holder, as an expired session would
func (m *fakeLockManager) lose(name string) {
	m.mu.Lock()
	l := m.held[name]
	m.mu.Unlock()

	if l != nil {
		l.release()
	}
}

// fakeLock is lost when its Acquire context is cancelled
type fakeLock struct {
	manager *fakeLockManager
	name    string
	lost    chan struct{}
}

func (l *fakeLock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	l.manager.mu.Lock()
	if l.name == l.manager.failOn {
		l.manager.mu.Unlock()
		return nil, errors.New("lock unavailable")
	}
	if l.name == l.manager.blockOn {
		l.manager.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}

	lost := make(chan struct{})
	l.lost = lost
	l.manager.held[l.name] = l
	l.manager.acquired = append(l.manager.acquired, l.name)
	l.manager.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			l.release()
		case <-lost:
		}
	}()

	return lost, nil
}

func (l *fakeLock) release() {
	l.manager.mu.Lock()
	defer l.manager.mu.Unlock()

	if l.manager.held[l.name] != l {
		return
	}
	delete(l.manager.held, l.name)
	close(l.lost)
}

func (l *fakeLock) Unlock(_ context.Context) error {
	l.release()
	return nil
}

func (l *fakeLock) IsLocked() bool {
	return l.manager.isHeld(l.name)
}
