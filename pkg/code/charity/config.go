package charity

import (
	"time"

	"github.com/code-payments/charity-server/pkg/config"
	"github.com/code-payments/charity-server/pkg/config/env"
	"github.com/code-payments/charity-server/pkg/config/memory"
	"github.com/code-payments/charity-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "CHARITY_PROGRAM_"

	LamportsPerSignatureConfigEnvName = envConfigPrefix + "LAMPORTS_PER_SIGNATURE"
	defaultLamportsPerSignature       = 5000

	MaxInstructionsConfigEnvName = envConfigPrefix + "MAX_INSTRUCTIONS"
	defaultMaxInstructions       = 16

	LockTimeoutConfigEnvName = envConfigPrefix + "LOCK_TIMEOUT"
	defaultLockTimeout       = 5 * time.Second

	MaxCommitAttemptsConfigEnvName = envConfigPrefix + "MAX_COMMIT_ATTEMPTS"
	defaultMaxCommitAttempts       = 3

	CommitRetryBackoffConfigEnvName = envConfigPrefix + "COMMIT_RETRY_BACKOFF"
	defaultCommitRetryBackoff       = 25 * time.Millisecond
)

type conf struct {
	lamportsPerSignature config.Uint64
	maxInstructions      config.Uint64
	lockTimeout          config.Duration
	maxCommitAttempts    config.Uint64
	commitRetryBackoff   config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			lamportsPerSignature: env.NewUint64Config(LamportsPerSignatureConfigEnvName, defaultLamportsPerSignature),
			maxInstructions:      env.NewUint64Config(MaxInstructionsConfigEnvName, defaultMaxInstructions),
			lockTimeout:          env.NewDurationConfig(LockTimeoutConfigEnvName, defaultLockTimeout),
			maxCommitAttempts:    env.NewUint64Config(MaxCommitAttemptsConfigEnvName, defaultMaxCommitAttempts),
			commitRetryBackoff:   env.NewDurationConfig(CommitRetryBackoffConfigEnvName, defaultCommitRetryBackoff),
		}
	}
}

type testOverrides struct {
	lamportsPerSignature uint64
	maxInstructions      uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			lamportsPerSignature: wrapper.NewUint64Config(memory.NewConfig(overrides.lamportsPerSignature), defaultLamportsPerSignature),
			maxInstructions:      wrapper.NewUint64Config(memory.NewConfig(overrides.maxInstructions), defaultMaxInstructions),
			lockTimeout:          wrapper.NewDurationConfig(memory.NewConfig(time.Second), defaultLockTimeout),
			maxCommitAttempts:    wrapper.NewUint64Config(memory.NewConfig(uint64(1)), defaultMaxCommitAttempts),
			commitRetryBackoff:   wrapper.NewDurationConfig(memory.NewConfig(time.Millisecond), defaultCommitRetryBackoff),
		}
	}
}
