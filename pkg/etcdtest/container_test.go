//go:build integration

package etcdtest

import (
	"context"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"
	v3 "go.etcd.io/etcd/client/v3"
)

func TestStartEtcd(t *testing.T) {
	ctx := context.Background()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	client, teardown, err := StartEtcd(pool)
	require.NoError(t, err)
	defer teardown()

	resp, err := client.Get(ctx, "/charity/", v3.WithPrefix())
	require.NoError(t, err)
	require.Empty(t, resp.Kvs)

	for _, key := range []string{"/charity/a", "/charity/b", "/charity/c"} {
		_, err := client.Put(ctx, key, "value")
		require.NoError(t, err)
	}

	resp, err = client.Get(ctx, "/charity/", v3.WithPrefix())
	require.NoError(t, err)
	require.Len(t, resp.Kvs, 3)
	require.Equal(t, "/charity/a", string(resp.Kvs[0].Key))
}
