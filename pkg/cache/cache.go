package cache

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/pkg/errors"
)

const (
	defaultShards     = 16
	defaultMaxEntries = 1_024
)

// Cache is a bounded in memory cache whose entries expire after a fixed life
// window.
type Cache interface {
	// Get returns the value for key, if present and not expired
	Get(key string) ([]byte, bool)

	// Set inserts or replaces the value for key
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	Len() int

	Close() error
}

// Config configures a Cache
type Config struct {
	// LifeWindow is how long an entry lives after it was set
	LifeWindow time.Duration

	// CleanWindow is the interval at which expired entries are evicted. Zero
	// disables background cleanup and expired entries are evicted lazily.
	CleanWindow time.Duration

	// MaxEntries is the expected number of entries within a life window, used
	// for initial allocation
	MaxEntries int

	// Shards must be a power of two
	Shards int
}

type cache struct {
	bc *bigcache.BigCache
}

// New returns a Cache backed by bigcache
func New(ctx context.Context, cfg Config) (Cache, error) {
	if cfg.LifeWindow <= 0 {
		return nil, errors.New("life window must be positive")
	}
	if cfg.Shards == 0 {
		cfg.Shards = defaultShards
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = defaultMaxEntries
	}

	bcConfig := bigcache.DefaultConfig(cfg.LifeWindow)
	bcConfig.Shards = cfg.Shards
	bcConfig.CleanWindow = cfg.CleanWindow
	bcConfig.MaxEntriesInWindow = cfg.MaxEntries
	bcConfig.MaxEntrySize = 64
	bcConfig.Verbose = false

	bc, err := bigcache.New(ctx, bcConfig)
	if err != nil {
		return nil, errors.Wrap(err, "error creating bigcache")
	}

	return &cache{bc: bc}, nil
}

// Get implements Cache.Get
func (c *cache) Get(key string) ([]byte, bool) {
	value, err := c.bc.Get(key)
	if err != nil {
		return nil, false
	}
	return value, true
}

// Set implements Cache.Set
func (c *cache) Set(key string, value []byte) error {
	return c.bc.Set(key, value)
}

// Delete implements Cache.Delete
func (c *cache) Delete(key string) error {
	err := c.bc.Delete(key)
	if err == bigcache.ErrEntryNotFound {
		return nil
	}
	return err
}

// Len implements Cache.Len
func (c *cache) Len() int {
	return c.bc.Len()
}

// Close implements Cache.Close
func (c *cache) Close() error {
	return c.bc.Close()
}

// Uint64Cache stores uint64 values in a Cache
type Uint64Cache struct {
	Cache
}

func NewUint64Cache(c Cache) *Uint64Cache {
	return &Uint64Cache{Cache: c}
}

func (c *Uint64Cache) GetUint64(key string) (uint64, bool) {
	value, ok := c.Get(key)
	if !ok || len(value) != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(value), true
}

func (c *Uint64Cache) SetUint64(key string, value uint64) error {
	var encoded [8]byte
	binary.LittleEndian.PutUint64(encoded[:], value)
	return c.Set(key, encoded[:])
}
