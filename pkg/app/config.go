package app

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/code-payments/charity-server/pkg/solana"
)

type StorageType string

const (
	StorageMemory   StorageType = "memory"
	StoragePostgres StorageType = "postgres"
	StorageBadger   StorageType = "badger"
)

// BaseConfig contains the process level configuration
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	// Storage selects where the ledger lives. The charity and donation indexes
	// follow it, except with badger where they're kept in memory and rebuilt on
	// startup.
	Storage    StorageType `mapstructure:"storage"`
	BadgerPath string      `mapstructure:"badger_path"`

	PostgresHost               string `mapstructure:"postgres_host"`
	PostgresPort               int    `mapstructure:"postgres_port"`
	PostgresUser               string `mapstructure:"postgres_user"`
	PostgresPassword           string `mapstructure:"postgres_password"`
	PostgresDbName             string `mapstructure:"postgres_db_name"`
	PostgresMaxOpenConnections int    `mapstructure:"postgres_max_open_connections"`
	PostgresMaxIdleConnections int    `mapstructure:"postgres_max_idle_connections"`

	// Authenticate with AWS IAM credentials instead of a password. Only
	// supported on provisioned Aurora clusters.
	PostgresUseAwsIam bool `mapstructure:"postgres_use_aws_iam"`

	// An RPC endpoint, or the name of a public cluster (devnet, testnet or
	// mainnet-beta)
	SolanaRpcEndpoint string `mapstructure:"solana_rpc_endpoint"`

	// Source minimum balances from the RPC node instead of the default rent
	// parameters
	UseRpcRent bool `mapstructure:"use_rpc_rent"`

	// Account locks span processes when etcd endpoints are configured
	EtcdEndpoints []string      `mapstructure:"etcd_endpoints"`
	EtcdLockTTL   time.Duration `mapstructure:"etcd_lock_ttl"`
	LockStripes   uint          `mapstructure:"lock_stripes"`

	// Cron schedule for full index reconciliation. Empty disables it.
	ReconcileSchedule string `mapstructure:"reconcile_schedule"`

	// Metrics configuration across many providers
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "charity-server",

	ShutdownGracePeriod: 30 * time.Second,

	Storage:    StorageMemory,
	BadgerPath: "data/ledger",

	PostgresPort: 5432,

	SolanaRpcEndpoint: string(solana.EnvironmentDev),

	EtcdLockTTL: 10 * time.Second,
	LockStripes: 1024,

	ReconcileSchedule: "@every 10m",
}

func bindEnvs(v *viper.Viper) {
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	_ = v.BindEnv("app_name", "APP_NAME")

	_ = v.BindEnv("shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD")

	_ = v.BindEnv("storage", "STORAGE")
	_ = v.BindEnv("badger_path", "BADGER_PATH")

	_ = v.BindEnv("postgres_host", "POSTGRES_HOST")
	_ = v.BindEnv("postgres_port", "POSTGRES_PORT")
	_ = v.BindEnv("postgres_user", "POSTGRES_USER")
	_ = v.BindEnv("postgres_password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("postgres_db_name", "POSTGRES_DB_NAME")
	_ = v.BindEnv("postgres_max_open_connections", "POSTGRES_MAX_OPEN_CONNECTIONS")
	_ = v.BindEnv("postgres_max_idle_connections", "POSTGRES_MAX_IDLE_CONNECTIONS")
	_ = v.BindEnv("postgres_use_aws_iam", "POSTGRES_USE_AWS_IAM")

	_ = v.BindEnv("solana_rpc_endpoint", "SOLANA_RPC_ENDPOINT")
	_ = v.BindEnv("use_rpc_rent", "USE_RPC_RENT")

	_ = v.BindEnv("etcd_endpoints", "ETCD_ENDPOINTS")
	_ = v.BindEnv("etcd_lock_ttl", "ETCD_LOCK_TTL")
	_ = v.BindEnv("lock_stripes", "LOCK_STRIPES")

	_ = v.BindEnv("reconcile_schedule", "RECONCILE_SCHEDULE")

	_ = v.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}

// LoadConfig reads the config file at path, when it exists, and overlays
// environment variables on top of the defaults
func LoadConfig(path string) (*BaseConfig, error) {
	v := viper.New()
	bindEnvs(v)

	// Viper doesn't report a missing config file that was explicitly set, so
	// check for it ourselves
	if len(path) > 0 {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrap(err, "failed to load config")
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to check if config exists")
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return nil, errors.New("must specify an application name")
	}

	switch config.Storage {
	case StorageMemory, StoragePostgres, StorageBadger:
	default:
		return nil, errors.Errorf("unsupported storage: %s", config.Storage)
	}

	config.SolanaRpcEndpoint = string(solana.ClusterEnvironment(config.SolanaRpcEndpoint))

	return &config, nil
}
