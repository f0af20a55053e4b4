package app

import (
	"os"
	"time"

	"github.com/pkg/errors"
	v3 "go.etcd.io/etcd/client/v3"

	"github.com/code-payments/charity-server/pkg/code/charity"
	etcd_lock "github.com/code-payments/charity-server/pkg/lock/etcd"
)

const (
	etcdLockRootKey  = "/charity/locks"
	etcdDialTimeout  = 5 * time.Second
	reconcileLockKey = "reconcile"
)

// newAccountLocker returns a process local locker, or an etcd backed one when
// endpoints are configured. The returned close func is never nil.
func newAccountLocker(config *BaseConfig) (charity.AccountLocker, *etcd_lock.LockManager, func(), error) {
	local := charity.NewLocalAccountLocker(config.LockStripes)
	if len(config.EtcdEndpoints) == 0 {
		return local, nil, func() {}, nil
	}

	client, err := v3.New(v3.Config{
		Endpoints:   config.EtcdEndpoints,
		DialTimeout: etcdDialTimeout,
	})
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "error creating etcd client")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = config.AppName
	}

	manager, err := etcd_lock.NewLockManager(client, etcdLockRootKey, config.EtcdLockTTL, hostname)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, errors.Wrap(err, "error creating etcd lock manager")
	}

	closeFn := func() {
		manager.Close()
		_ = client.Close()
	}
	return charity.NewDistributedAccountLocker(manager, local), manager, closeFn, nil
}
