package etcd

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.etcd.io/etcd/api/v3/mvccpb"
	v3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/code-payments/charity-server/pkg/lock"
)

var (
	ErrManagerClosed     = errors.New("lock manager is closed")
	ErrConcurrentAcquire = errors.New("lock is already acquired or being acquired")
)

const sessionRetryDelay = time.Second

// LockManager hands out locks backed by etcd elections under a root key. All
// locks share a single lease, which is renewed for as long as the manager is
// open and recreated if it expires.
type LockManager struct {
	log     *logrus.Entry
	client  *v3.Client
	rootKey string
	ttl     int
	owner   string

	mu      sync.Mutex
	session *concurrency.Session
	closed  chan struct{}
}

// NewLockManager creates a manager whose locks are held with a lease of ttl,
// which must be within [1s, 60s]. owner is stored as the value of held locks.
func NewLockManager(client *v3.Client, rootKey string, ttl time.Duration, owner string) (*LockManager, error) {
	if ttl < time.Second || ttl > time.Minute {
		return nil, errors.Errorf("invalid lock ttl %v, must be within [1s, 60s]", ttl)
	}

	lm := &LockManager{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type": "lock/etcd/LockManager",
			"root": rootKey,
		}),
		client:  client,
		rootKey: rootKey,
		ttl:     int(ttl.Round(time.Second).Seconds()),
		owner:   owner,
		closed:  make(chan struct{}),
	}

	session, err := lm.newSession()
	if err != nil {
		return nil, errors.Wrap(err, "error creating etcd session")
	}
	lm.session = session

	go lm.keepSession()

	return lm, nil
}

// Create implements lock.Manager.Create
func (lm *LockManager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	if _, err := lm.currentSession(); err != nil {
		return nil, err
	}

	key := path.Join(lm.rootKey, name)
	return &Lock{
		log: lm.log.WithField("key", key),
		lm:  lm,
		key: key,
	}, nil
}

// Close revokes the shared lease, which releases every held lock
func (lm *LockManager) Close() {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.session == nil {
		return
	}

	close(lm.closed)
	if err := lm.session.Close(); err != nil {
		lm.log.WithError(err).Warn("failure closing etcd session")
	}
	lm.session = nil
}

func (lm *LockManager) newSession() (*concurrency.Session, error) {
	return concurrency.NewSession(
		lm.client,
		concurrency.WithTTL(lm.ttl),
		concurrency.WithContext(v3.WithRequireLeader(context.Background())),
	)
}

func (lm *LockManager) currentSession() (*concurrency.Session, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.session == nil {
		return nil, ErrManagerClosed
	}
	return lm.session, nil
}

// keepSession replaces the session whenever its lease is lost, such as after
// the cluster was leaderless for longer than the ttl
func (lm *LockManager) keepSession() {
	for {
		session, err := lm.currentSession()
		if err != nil {
			return
		}

		select {
		case <-lm.closed:
			return
		case <-session.Done():
		}

		lm.log.Info("etcd session expired, recreating")

		for {
			replacement, err := lm.newSession()
			if err == nil {
				lm.mu.Lock()
				if lm.session == nil {
					lm.mu.Unlock()
					_ = replacement.Close()
					return
				}
				lm.session = replacement
				lm.mu.Unlock()
				break
			}

			lm.log.WithError(err).Warn("failure recreating etcd session")
			select {
			case <-lm.closed:
				return
			case <-time.After(sessionRetryDelay):
			}
		}
	}
}

// Lock is a lock.DistributedLock implemented as a single candidate etcd
// election
type Lock struct {
	log *logrus.Entry
	lm  *LockManager
	key string

	mu        sync.Mutex
	acquiring bool
	election  *concurrency.Election
}

// Acquire implements lock.DistributedLock.Acquire
func (l *Lock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	l.mu.Lock()
	if l.acquiring || l.election != nil {
		l.mu.Unlock()
		return nil, ErrConcurrentAcquire
	}
	l.acquiring = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.acquiring = false
		l.mu.Unlock()
	}()

	session, err := l.lm.currentSession()
	if err != nil {
		return nil, err
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	election := concurrency.NewElection(session, l.key)
	if err := election.Campaign(watchCtx, l.lm.owner); err != nil {
		cancelWatch()
		return nil, errors.Wrap(err, "error campaigning for lock")
	}

	l.mu.Lock()
	l.election = election
	l.mu.Unlock()

	l.log.Debug("lock acquired")

	events := session.Client().Watch(
		v3.WithRequireLeader(watchCtx),
		election.Key(),
		v3.WithRev(election.Rev()),
	)

	lost := make(chan struct{})
	go func() {
		defer cancelWatch()
		defer l.release(election)

		// Signal before releasing, since resigning blocks while the cluster
		// has no leader
		defer close(lost)

		l.watch(session, election, events)
	}()

	return lost, nil
}

// watch returns once ownership of election's key can't be guaranteed
func (l *Lock) watch(session *concurrency.Session, election *concurrency.Election, events v3.WatchChan) {
	for {
		select {
		case <-session.Done():
			l.log.Warn("etcd session ended, lock lost")
			return
		case resp, ok := <-events:
			if !ok {
				return
			}
			if err := resp.Err(); err != nil {
				l.log.WithError(err).Warn("failure watching lock key")
				return
			}

			for _, event := range resp.Events {
				if event.Type == mvccpb.DELETE {
					return
				}
				if event.Kv.CreateRevision != election.Rev() {
					l.log.Warn("lock key was recreated, lock lost")
					return
				}
			}
		}
	}
}

// release resigns election if it's still the active one
func (l *Lock) release(election *concurrency.Election) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.election != election {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(l.lm.ttl)*time.Second)
	defer cancel()

	if err := election.Resign(ctx); err != nil {
		l.log.WithError(err).Warn("failure resigning lock")
	}
	l.election = nil
}

// Unlock implements lock.DistributedLock.Unlock
func (l *Lock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.election == nil {
		return nil
	}

	err := l.election.Resign(ctx)
	l.election = nil
	return err
}

// IsLocked implements lock.DistributedLock.IsLocked
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.election != nil && l.election.Key() != ""
}
