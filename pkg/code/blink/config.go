package blink

import (
	"github.com/code-payments/charity-server/pkg/config"
	"github.com/code-payments/charity-server/pkg/config/env"
	"github.com/code-payments/charity-server/pkg/config/memory"
	"github.com/code-payments/charity-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "BLINK_"

	DonorRateLimitConfigEnvName = envConfigPrefix + "DONOR_RATE_LIMIT"
	defaultDonorRateLimit       = 1.0

	MinDonationConfigEnvName = envConfigPrefix + "MIN_DONATION"
	defaultMinDonation       = "0.000001"
)

type conf struct {
	// Requests per second allowed for a single donor
	donorRateLimit config.Float64

	// Smallest amount, in SOL, a request may ask to donate
	minDonation config.String
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			donorRateLimit: env.NewFloat64Config(DonorRateLimitConfigEnvName, defaultDonorRateLimit),
			minDonation:    env.NewStringConfig(MinDonationConfigEnvName, defaultMinDonation),
		}
	}
}

type testOverrides struct {
	donorRateLimit float64
	minDonation    string
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			donorRateLimit: wrapper.NewFloat64Config(memory.NewConfig(overrides.donorRateLimit), defaultDonorRateLimit),
			minDonation:    wrapper.NewStringConfig(memory.NewConfig(overrides.minDonation), defaultMinDonation),
		}
	}
}
