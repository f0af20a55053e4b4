package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStrategies(t *testing.T) {
	for _, tc := range []struct {
		name     string
		strategy Strategy
		expected []time.Duration
	}{
		{"constant", Constant(100 * time.Millisecond), []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}},
		{"linear", Linear(500 * time.Millisecond), []time.Duration{500 * time.Millisecond, time.Second, 1500 * time.Millisecond}},
		{"exponential", Exponential(2*time.Second, 3), []time.Duration{2 * time.Second, 6 * time.Second, 18 * time.Second}},
		{"binary exponential", BinaryExponential(50 * time.Millisecond), []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for i, expected := range tc.expected {
				assert.Equal(t, expected, tc.strategy(uint(i+1)))
			}
		})
	}
}

func TestSaturates(t *testing.T) {
	assert.EqualValues(t, math.MaxInt64, BinaryExponential(time.Second)(200))
	assert.EqualValues(t, math.MaxInt64, Linear(math.MaxInt64/2)(3))
}
