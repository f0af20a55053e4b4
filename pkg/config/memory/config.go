package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/code-payments/charity-server/pkg/config"
)

var errInduced = errors.New("in memory config: induced error")

// Config is a mutable in memory config source for tests and manual overrides.
// A nil value means no value is set.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	failing  bool
	shutdown bool
}

func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.failing:
		return nil, errInduced
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()
}

func (c *Config) SetValue(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

func (c *Config) ClearValue() {
	c.SetValue(nil)
}

// InduceErrors makes Get fail until StopInducingErrors is called
func (c *Config) InduceErrors() {
	c.mu.Lock()
	c.failing = true
	c.mu.Unlock()
}

func (c *Config) StopInducingErrors() {
	c.mu.Lock()
	c.failing = false
	c.mu.Unlock()
}
