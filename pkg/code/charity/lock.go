package charity

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/charity-server/pkg/lock"
	"github.com/code-payments/charity-server/pkg/sync"
)

const (
	defaultLockStripes = 1024

	distributedLockPrefix = "account/"
)

// AccountLocker grants exclusive access to a set of accounts. Transactions
// touching disjoint sets of accounts may hold their locks concurrently.
type AccountLocker interface {
	// Lock blocks until every account is held, ctx is done, or wait elapses. A
	// non-positive wait only bounds the attempt by ctx.
	//
	// The returned context is derived from ctx and is cancelled, with
	// ErrAccountLocksLost as its cause, once exclusive access to any account
	// can no longer be guaranteed. The returned function releases every
	// account.
	Lock(ctx context.Context, wait time.Duration, accounts ...string) (held context.Context, unlock func(), err error)
}

type localAccountLocker struct {
	locks *sync.StripedLock
}

// NewLocalAccountLocker returns an AccountLocker for a single process
func NewLocalAccountLocker(stripes uint) AccountLocker {
	if stripes == 0 {
		stripes = defaultLockStripes
	}

	return &localAccountLocker{
		locks: sync.NewStripedLock(stripes),
	}
}

// Lock implements AccountLocker.Lock
func (l *localAccountLocker) Lock(ctx context.Context, wait time.Duration, accounts ...string) (context.Context, func(), error) {
	keys := make([][]byte, len(accounts))
	for i, account := range accounts {
		keys[i] = []byte(account)
	}

	mus := l.locks.GetMany(keys...)
	unlock := func() {
		for i := len(mus) - 1; i >= 0; i-- {
			mus[i].Unlock()
		}
	}

	acquired := make(chan struct{})
	go func() {
		for _, mu := range mus {
			mu.Lock()
		}
		close(acquired)
	}()

	waitCtx, cancel := withWait(ctx, wait)
	defer cancel()

	select {
	case <-acquired:
		return ctx, unlock, nil
	case <-waitCtx.Done():
		// The stripes are still owed to the acquiring goroutine
		go func() {
			<-acquired
			unlock()
		}()
		return nil, nil, errors.Wrap(ErrCouldNotAcquireAccountLocks, waitCtx.Err().Error())
	}
}

type distributedAccountLocker struct {
	log     *logrus.Entry
	local   AccountLocker
	manager lock.Manager
}

// NewDistributedAccountLocker returns an AccountLocker that coordinates with
// other processes through the provided lock manager. Locks from a manager are
// re-entrant, so the local locker serializes goroutines within this process
// before any distributed lock is requested.
func NewDistributedAccountLocker(manager lock.Manager, local AccountLocker) AccountLocker {
	if local == nil {
		local = NewLocalAccountLocker(defaultLockStripes)
	}

	return &distributedAccountLocker{
		log:     logrus.StandardLogger().WithField("type", "charity/distributedAccountLocker"),
		local:   local,
		manager: manager,
	}
}

// Lock implements AccountLocker.Lock
func (l *distributedAccountLocker) Lock(ctx context.Context, wait time.Duration, accounts ...string) (context.Context, func(), error) {
	start := time.Now()

	localCtx, unlockLocal, err := l.local.Lock(ctx, wait, accounts...)
	if err != nil {
		return nil, nil, err
	}

	// Distributed locks are held for as long as heldCtx lives, so it is only
	// cancelled on release or once a lock is lost
	heldCtx, cancel := context.WithCancelCause(localCtx)

	var held []lock.DistributedLock
	release := func() {
		cancel(context.Canceled)
		for i := len(held) - 1; i >= 0; i-- {
			// The caller's context may already be done
			if err := held[i].Unlock(context.Background()); err != nil {
				l.log.WithError(err).Warn("failure releasing distributed account lock")
			}
		}
		unlockLocal()
	}

	var timer *time.Timer
	if wait > 0 {
		timer = time.AfterFunc(wait-time.Since(start), func() {
			cancel(ErrCouldNotAcquireAccountLocks)
		})
	}

	for _, name := range uniqueSorted(accounts) {
		distributedLock, err := l.manager.Create(heldCtx, distributedLockPrefix+name)
		if err != nil {
			if timer != nil {
				timer.Stop()
			}
			release()
			return nil, nil, errors.Wrapf(err, "error creating lock for account %s", name)
		}

		lost, err := distributedLock.Acquire(heldCtx)
		if err != nil {
			if timer != nil {
				timer.Stop()
			}
			release()
			return nil, nil, errors.Wrapf(ErrCouldNotAcquireAccountLocks, "account %s: %s", name, err.Error())
		}
		held = append(held, distributedLock)

		go func() {
			select {
			case <-lost:
				cancel(ErrAccountLocksLost)
			case <-heldCtx.Done():
			}
		}()
	}

	if timer != nil && !timer.Stop() {
		release()
		return nil, nil, ErrCouldNotAcquireAccountLocks
	}

	return heldCtx, release, nil
}

func withWait(ctx context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if wait <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, wait)
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	res := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		res = append(res, value)
	}
	sort.Strings(res)
	return res
}
