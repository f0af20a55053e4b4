// Package env provides configs backed by environment variables. Keys are
// upper-cased, and each variable is read once when its config is built.
package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/charity-server/pkg/config"
	"github.com/code-payments/charity-server/pkg/config/wrapper"
)

type snapshot string

// NewConfig returns a config holding the current value of the variable. An
// unset or empty variable yields config.ErrNoValue.
func NewConfig(key string) config.Config {
	return snapshot(os.Getenv(strings.ToUpper(key)))
}

func (s snapshot) Get(context.Context) (interface{}, error) {
	if s == "" {
		return nil, config.ErrNoValue
	}
	return []byte(s), nil
}

func (snapshot) Shutdown() {}

func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

func NewFloat64Config(key string, defaultValue float64) config.Float64 {
	return wrapper.NewFloat64Config(NewConfig(key), defaultValue)
}

func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
