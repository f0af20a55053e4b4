package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/charity-server/pkg/retry/backoff"
)

// Strategy decides whether another attempt is made after attempts failures,
// the latest being err. Strategies may sleep.
type Strategy func(attempts uint, err error) bool

// sleep is swapped out in tests
var sleep = time.Sleep

// Limit caps the total number of attempts, including the first
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriable
func RetriableErrors(retriable ...error) Strategy {
	return func(_ uint, err error) bool {
		return matchesAny(err, retriable)
	}
}

// NonRetriableErrors retries everything except errors matching one of
// nonRetriable
func NonRetriableErrors(nonRetriable ...error) Strategy {
	return func(_ uint, err error) bool {
		return !matchesAny(err, nonRetriable)
	}
}

// Context stops retrying once ctx is done
func Context(ctx context.Context) Strategy {
	return func(_ uint, _ error) bool {
		return ctx.Err() == nil
	}
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay randomly moved by up to
// jitter of itself in either direction. A jitter of 0.1 on 100ms sleeps between
// 90ms and 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := min(strategy(attempts), maxBackoff)
		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 + jitter*(2*rand.Float64()-1)))
		}
		sleep(delay)
		return true
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
