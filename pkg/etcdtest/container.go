package etcdtest

import (
	"context"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	v3 "go.etcd.io/etcd/client/v3"
)

const (
	image        = "quay.io/coreos/etcd"
	imageTag     = "v3.5.13"
	containerTTL = 2 * time.Minute
)

// StartEtcd runs a single node etcd container and returns a client connected
// to it. The container expires on its own after containerTTL if teardown is
// never called.
func StartEtcd(pool *dockertest.Pool) (client *v3.Client, teardown func(), err error) {
	teardown = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        imageTag,
		Env: []string{
			"ETCD_LISTEN_CLIENT_URLS=http://0.0.0.0:2379",
			"ETCD_ADVERTISE_CLIENT_URLS=http://0.0.0.0:2379",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, teardown, errors.Wrap(err, "failed to start etcd container")
	}

	// Expire never returns an error
	_ = resource.Expire(uint(containerTTL.Seconds()))

	teardown = func() {
		if err := pool.Purge(resource); err != nil {
			logrus.StandardLogger().WithError(err).Warn("failure purging etcd container")
		}
	}

	client, err = v3.New(v3.Config{
		Endpoints:   []string{resource.GetHostPort("2379/tcp")},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		teardown()
		return nil, func() {}, errors.Wrap(err, "failed to create etcd client")
	}

	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := client.Get(ctx, "health")
		return err
	})
	if err != nil {
		_ = client.Close()
		teardown()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for etcd")
	}

	closeAndPurge := teardown
	teardown = func() {
		_ = client.Close()
		closeAndPurge()
	}
	return client, teardown, nil
}
