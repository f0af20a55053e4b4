package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/charity-server/pkg/config"
)

// ErrUnsupportedConversion indicates the source value can't be converted to
// the wrapper's type
var ErrUnsupportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// converter turns a raw source value into T. Env sources provide []byte.
type converter[T any] func(raw interface{}) (T, error)

type typedConfig[T any] struct {
	source       config.Config
	defaultValue T
	convert      converter[T]

	stateMu   sync.RWMutex
	lastValue T
}

func newTypedConfig[T any](source config.Config, defaultValue T, convert converter[T]) *typedConfig[T] {
	return &typedConfig[T]{
		source:       source,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe implements config.Typed.GetSafe
func (c *typedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.source.Get(ctx)
	if err == config.ErrNoValue {
		c.setLastValue(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return c.getLastValue(), err
	}

	value, err := c.convert(raw)
	if err != nil {
		return c.getLastValue(), err
	}

	c.setLastValue(value)
	return value, nil
}

// Get implements config.Typed.Get
func (c *typedConfig[T]) Get(ctx context.Context) T {
	value, _ := c.GetSafe(ctx)
	return value
}

// Shutdown implements config.Typed.Shutdown
func (c *typedConfig[T]) Shutdown() {
	c.source.Shutdown()
}

func (c *typedConfig[T]) getLastValue() T {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastValue
}

func (c *typedConfig[T]) setLastValue(value T) {
	c.stateMu.Lock()
	c.lastValue = value
	c.stateMu.Unlock()
}

// NewBoolConfig wraps source as a bool config
func NewBoolConfig(source config.Config, defaultValue bool) config.Bool {
	return newTypedConfig(source, defaultValue, func(raw interface{}) (bool, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseBool(string(v))
		case bool:
			return v, nil
		}
		return false, ErrUnsupportedConversion
	})
}

// NewUint64Config wraps source as a uint64 config
func NewUint64Config(source config.Config, defaultValue uint64) config.Uint64 {
	return newTypedConfig(source, defaultValue, func(raw interface{}) (uint64, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseUint(string(v), 10, 64)
		case uint64:
			return v, nil
		case uint:
			return uint64(v), nil
		}
		return 0, ErrUnsupportedConversion
	})
}

// NewFloat64Config wraps source as a float64 config
func NewFloat64Config(source config.Config, defaultValue float64) config.Float64 {
	return newTypedConfig(source, defaultValue, func(raw interface{}) (float64, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseFloat(string(v), 64)
		case float64:
			return v, nil
		}
		return 0, ErrUnsupportedConversion
	})
}

// NewStringConfig wraps source as a string config
func NewStringConfig(source config.Config, defaultValue string) config.String {
	return newTypedConfig(source, defaultValue, func(raw interface{}) (string, error) {
		switch v := raw.(type) {
		case []byte:
			return string(v), nil
		case string:
			return v, nil
		}
		return "", ErrUnsupportedConversion
	})
}

// NewDurationConfig wraps source as a duration config. Byte values use
// time.ParseDuration syntax.
func NewDurationConfig(source config.Config, defaultValue time.Duration) config.Duration {
	return newTypedConfig(source, defaultValue, func(raw interface{}) (time.Duration, error) {
		switch v := raw.(type) {
		case []byte:
			return time.ParseDuration(string(v))
		case time.Duration:
			return v, nil
		}
		return 0, ErrUnsupportedConversion
	})
}
