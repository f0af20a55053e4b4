package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, lifeWindow time.Duration) Cache {
	c, err := New(context.Background(), Config{LifeWindow: lifeWindow})
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
	})
	return c
}

func TestCache_SetGetDelete(t *testing.T) {
	c := newTestCache(t, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Set("key", []byte("value")))
	actual, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), actual)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Set("key", []byte("replaced")))
	actual, ok = c.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("replaced"), actual)

	require.NoError(t, c.Delete("key"))
	_, ok = c.Get("key")
	assert.False(t, ok)

	assert.NoError(t, c.Delete("key"))
}

func TestCache_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{LifeWindow: time.Minute, Shards: 3})
	assert.Error(t, err)
}

func TestUint64Cache(t *testing.T) {
	c := NewUint64Cache(newTestCache(t, time.Minute))

	_, ok := c.GetUint64("rent")
	assert.False(t, ok)

	require.NoError(t, c.SetUint64("rent", 890_880))
	actual, ok := c.GetUint64("rent")
	require.True(t, ok)
	assert.EqualValues(t, 890_880, actual)

	// Values that weren't written as a uint64 are ignored
	require.NoError(t, c.Set("other", []byte("abc")))
	_, ok = c.GetUint64("other")
	assert.False(t, ok)
}

func TestCache_Concurrent(t *testing.T) {
	c := NewUint64Cache(newTestCache(t, time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("%d-%d", i, j)
				assert.NoError(t, c.SetUint64(key, uint64(j)))
				actual, ok := c.GetUint64(key)
				assert.True(t, ok)
				assert.EqualValues(t, j, actual)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1600, c.Len())
}
