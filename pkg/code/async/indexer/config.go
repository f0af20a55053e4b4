package async_indexer

import (
	"time"

	"github.com/code-payments/charity-server/pkg/config"
	"github.com/code-payments/charity-server/pkg/config/env"
	"github.com/code-payments/charity-server/pkg/config/memory"
	"github.com/code-payments/charity-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "INDEXER_SERVICE_"

	UpdateWorkerCountConfigEnvName = envConfigPrefix + "UPDATE_WORKER_COUNT"
	defaultUpdateWorkerCount       = 64

	UpdateQueueSizeConfigEnvName = envConfigPrefix + "UPDATE_QUEUE_SIZE"
	defaultUpdateQueueSize       = 10_000

	ReconcileWorkerIntervalConfigEnvName = envConfigPrefix + "RECONCILE_WORKER_INTERVAL"
	defaultReconcileWorkerInterval       = 5 * time.Minute

	ReconcileBatchSizeConfigEnvName = envConfigPrefix + "RECONCILE_BATCH_SIZE"
	defaultReconcileBatchSize       = 256

	MaxStoreAttemptsConfigEnvName = envConfigPrefix + "MAX_STORE_ATTEMPTS"
	defaultMaxStoreAttempts       = 5
)

type conf struct {
	updateWorkerCount config.Uint64
	updateQueueSize   config.Uint64

	reconcileWorkerInterval config.Duration
	reconcileBatchSize      config.Uint64

	maxStoreAttempts config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			updateWorkerCount: env.NewUint64Config(UpdateWorkerCountConfigEnvName, defaultUpdateWorkerCount),
			updateQueueSize:   env.NewUint64Config(UpdateQueueSizeConfigEnvName, defaultUpdateQueueSize),

			reconcileWorkerInterval: env.NewDurationConfig(ReconcileWorkerIntervalConfigEnvName, defaultReconcileWorkerInterval),
			reconcileBatchSize:      env.NewUint64Config(ReconcileBatchSizeConfigEnvName, defaultReconcileBatchSize),

			maxStoreAttempts: env.NewUint64Config(MaxStoreAttemptsConfigEnvName, defaultMaxStoreAttempts),
		}
	}
}

type testOverrides struct {
	updateQueueSize         uint64
	reconcileWorkerInterval time.Duration
	reconcileBatchSize      uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			updateWorkerCount: wrapper.NewUint64Config(memory.NewConfig(uint64(4)), defaultUpdateWorkerCount),
			updateQueueSize:   wrapper.NewUint64Config(memory.NewConfig(overrides.updateQueueSize), defaultUpdateQueueSize),

			reconcileWorkerInterval: wrapper.NewDurationConfig(memory.NewConfig(overrides.reconcileWorkerInterval), defaultReconcileWorkerInterval),
			reconcileBatchSize:      wrapper.NewUint64Config(memory.NewConfig(overrides.reconcileBatchSize), defaultReconcileBatchSize),

			maxStoreAttempts: wrapper.NewUint64Config(memory.NewConfig(uint64(2)), defaultMaxStoreAttempts),
		}
	}
}
