package lock

import (
	"context"
)

// Manager creates named locks. Locks with the same name from the same Manager
// share ownership, so callers must coordinate local concurrency themselves.
type Manager interface {
	// Create returns an unlocked handle for name
	Create(ctx context.Context, name string) (DistributedLock, error)
}

// DistributedLock is a lock held across processes
type DistributedLock interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// channel is closed once the lock is lost, which happens on Unlock, when
	// ctx is cancelled, or when ownership can no longer be guaranteed.
	Acquire(ctx context.Context) (<-chan struct{}, error)

	// Unlock releases the lock if held. It's idempotent.
	Unlock(ctx context.Context) error

	IsLocked() bool
}
