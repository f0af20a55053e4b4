package app

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws/external"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	code_data "github.com/code-payments/charity-server/pkg/code/data"
	pg "github.com/code-payments/charity-server/pkg/database/postgres"
)

func newDataProvider(ctx context.Context, config *BaseConfig) (code_data.Provider, error) {
	switch config.Storage {
	case StorageMemory:
		return code_data.NewMemoryDataProvider(config.SolanaRpcEndpoint)
	case StorageBadger:
		db, err := badgerdb.Open(badgerdb.DefaultOptions(config.BadgerPath).WithLogger(nil))
		if err != nil {
			return nil, errors.Wrapf(err, "error opening badger database at %s", config.BadgerPath)
		}

		provider, err := code_data.NewBadgerDataProvider(db, config.SolanaRpcEndpoint)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return provider, nil
	case StoragePostgres:
		dbConfig := &pg.Config{
			User:               config.PostgresUser,
			Host:               config.PostgresHost,
			Password:           config.PostgresPassword,
			Port:               config.PostgresPort,
			DbName:             config.PostgresDbName,
			MaxOpenConnections: config.PostgresMaxOpenConnections,
			MaxIdleConnections: config.PostgresMaxIdleConnections,
		}

		if !config.PostgresUseAwsIam {
			return code_data.NewDataProvider(dbConfig, config.SolanaRpcEndpoint)
		}

		awsConfig, err := external.LoadDefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "error loading aws config")
		}

		db, err := pg.OpenWithAwsIam(ctx, dbConfig, awsConfig)
		if err != nil {
			return nil, errors.Wrap(err, "error connecting to postgres with aws iam")
		}
		return code_data.NewDataProviderFromDB(db, dbConfig, config.SolanaRpcEndpoint)
	default:
		return nil, errors.Errorf("unsupported storage: %s", config.Storage)
	}
}
