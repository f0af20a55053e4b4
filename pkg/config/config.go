package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is a source of untyped configuration values
type Config interface {
	// Get returns the latest config value, or ErrNoValue when the source has
	// nothing set
	Get(ctx context.Context) (interface{}, error)

	// Shutdown releases any resources held by the source
	Shutdown()
}

// Typed is a Config whose values are converted to T
type Typed[T any] interface {
	// Get is GetSafe without the error
	Get(ctx context.Context) T

	// GetSafe returns the latest converted value. On failure, a best-effort
	// last known value is returned alongside the error.
	GetSafe(ctx context.Context) (T, error)

	Shutdown()
}

type (
	Bool     = Typed[bool]
	Duration = Typed[time.Duration]
	Float64  = Typed[float64]
	Uint64   = Typed[uint64]
	String   = Typed[string]
)
