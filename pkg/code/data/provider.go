package data

import (
	"database/sql"

	badgerdb "github.com/dgraph-io/badger/v3"

	pg "github.com/code-payments/charity-server/pkg/database/postgres"
	"github.com/code-payments/charity-server/pkg/solana"
)

const (
	maxLedgerAccountReqSize = 1024
	maxCharityReqSize       = 1024
	maxDonationReqSize      = 1024
)

type Provider interface {
	BlockchainData
	DatabaseData

	GetBlockchainDataProvider() BlockchainData
	GetDatabaseDataProvider() DatabaseData
}

type provider struct {
	*BlockchainProvider
	*DatabaseProvider
}

func NewDataProvider(dbConfig *pg.Config, solanaEndpoint string) (Provider, error) {
	blockchain, err := NewBlockchainProvider(solanaEndpoint)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabaseProvider(dbConfig)
	if err != nil {
		return nil, err
	}

	return &provider{
		BlockchainProvider: blockchain.(*BlockchainProvider),
		DatabaseProvider:   db.(*DatabaseProvider),
	}, nil
}

// NewDataProviderFromDB uses an established postgres connection pool, such as
// one authenticated with AWS IAM credentials.
func NewDataProviderFromDB(db *sql.DB, dbConfig *pg.Config, solanaEndpoint string) (Provider, error) {
	blockchain, err := NewBlockchainProvider(solanaEndpoint)
	if err != nil {
		return nil, err
	}

	return &provider{
		BlockchainProvider: blockchain.(*BlockchainProvider),
		DatabaseProvider:   NewDatabaseProviderFromDB(db, dbConfig).(*DatabaseProvider),
	}, nil
}

// NewBadgerDataProvider keeps the ledger in an embedded badger database. The
// charity and donation indexes are held in memory and are expected to be
// rebuilt from the ledger on startup.
func NewBadgerDataProvider(db *badgerdb.DB, solanaEndpoint string) (Provider, error) {
	blockchain, err := NewBlockchainProvider(solanaEndpoint)
	if err != nil {
		return nil, err
	}

	database, err := NewBadgerDatabaseProvider(db)
	if err != nil {
		return nil, err
	}

	return &provider{
		BlockchainProvider: blockchain.(*BlockchainProvider),
		DatabaseProvider:   database.(*DatabaseProvider),
	}, nil
}

// NewMemoryDataProvider keeps everything in memory. State is lost when the
// process exits.
func NewMemoryDataProvider(solanaEndpoint string) (Provider, error) {
	blockchain, err := NewBlockchainProvider(solanaEndpoint)
	if err != nil {
		return nil, err
	}

	return &provider{
		BlockchainProvider: blockchain.(*BlockchainProvider),
		DatabaseProvider:   NewTestDatabaseProvider().(*DatabaseProvider),
	}, nil
}

func NewTestDataProvider() Provider {
	provider, err := NewMemoryDataProvider(string(solana.EnvironmentTest))
	if err != nil {
		panic(err)
	}
	return provider
}

func (p *provider) GetBlockchainDataProvider() BlockchainData {
	return p.BlockchainProvider
}
func (p *provider) GetDatabaseDataProvider() DatabaseData {
	return p.DatabaseProvider
}
