package data

import (
	"context"
	"database/sql"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"

	pg "github.com/code-payments/charity-server/pkg/database/postgres"
	"github.com/code-payments/charity-server/pkg/database/query"

	"github.com/code-payments/charity-server/pkg/code/data/charity"
	"github.com/code-payments/charity-server/pkg/code/data/donation"
	"github.com/code-payments/charity-server/pkg/code/data/ledger"

	charity_memory_client "github.com/code-payments/charity-server/pkg/code/data/charity/memory"
	donation_memory_client "github.com/code-payments/charity-server/pkg/code/data/donation/memory"
	ledger_memory_client "github.com/code-payments/charity-server/pkg/code/data/ledger/memory"

	charity_postgres_client "github.com/code-payments/charity-server/pkg/code/data/charity/postgres"
	donation_postgres_client "github.com/code-payments/charity-server/pkg/code/data/donation/postgres"
	ledger_postgres_client "github.com/code-payments/charity-server/pkg/code/data/ledger/postgres"

	ledger_badger_client "github.com/code-payments/charity-server/pkg/code/data/ledger/badger"
)

type DatabaseData interface {
	// Ledger
	// --------------------------------------------------------------------------------
	GetLedgerAccount(ctx context.Context, address string) (*ledger.Record, error)
	GetAllLedgerAccountsByOwner(ctx context.Context, owner string, opts ...query.Option) ([]*ledger.Record, error)
	CommitLedgerChanges(ctx context.Context, changes ...*ledger.Change) error

	// Charity
	// --------------------------------------------------------------------------------
	SaveCharity(ctx context.Context, record *charity.Record) error
	GetCharityByAddress(ctx context.Context, address string) (*charity.Record, error)
	GetAllCharitiesByAuthority(ctx context.Context, authority string) ([]*charity.Record, error)
	GetAllCharities(ctx context.Context, opts ...query.Option) ([]*charity.Record, error)
	DeleteCharity(ctx context.Context, address string) error

	// Donation
	// --------------------------------------------------------------------------------
	PutDonation(ctx context.Context, record *donation.Record) error
	GetDonationByAddress(ctx context.Context, address string) (*donation.Record, error)
	GetAllDonationsByCharity(ctx context.Context, charity string, opts ...query.Option) ([]*donation.Record, error)
	GetAllDonationsByDonor(ctx context.Context, donor string, opts ...query.Option) ([]*donation.Record, error)
	GetTotalDonatedToCharity(ctx context.Context, charity string) (uint64, error)
	GetTotalDonatedByDonor(ctx context.Context, donor string) (uint64, error)
	GetDonationCountByCharity(ctx context.Context, charity string) (uint64, error)

	// Close releases any resources held by the underlying stores
	Close() error
}

type DatabaseProvider struct {
	ledger    ledger.Store
	charities charity.Store
	donations donation.Store

	closers []func() error
}

func NewDatabaseProvider(dbConfig *pg.Config) (DatabaseData, error) {
	db, err := pg.Open(context.Background(), dbConfig)
	if err != nil {
		return nil, err
	}

	return newPostgresDatabaseProvider(db, dbConfig), nil
}

// NewDatabaseProviderFromDB wraps an already established postgres connection
// pool, such as one authenticated with AWS IAM credentials.
func NewDatabaseProviderFromDB(db *sql.DB, dbConfig *pg.Config) DatabaseData {
	return newPostgresDatabaseProvider(db, dbConfig)
}

func newPostgresDatabaseProvider(db *sql.DB, dbConfig *pg.Config) *DatabaseProvider {
	if dbConfig.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(dbConfig.MaxOpenConnections)
	}
	if dbConfig.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(dbConfig.MaxIdleConnections)
	}
	db.SetConnMaxIdleTime(time.Hour)
	db.SetConnMaxLifetime(time.Hour)

	return &DatabaseProvider{
		ledger:    ledger_postgres_client.New(db),
		charities: charity_postgres_client.New(db),
		donations: donation_postgres_client.New(db),

		closers: []func() error{db.Close},
	}
}

// NewBadgerDatabaseProvider stores the ledger in badger and keeps the charity
// and donation indexes in memory.
func NewBadgerDatabaseProvider(db *badgerdb.DB) (DatabaseData, error) {
	ledgerStore, err := ledger_badger_client.New(db)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	if closer, ok := ledgerStore.(interface{ Close() error }); ok {
		closers = append(closers, closer.Close)
	}
	closers = append(closers, db.Close)

	return &DatabaseProvider{
		ledger:    ledgerStore,
		charities: charity_memory_client.New(),
		donations: donation_memory_client.New(),

		closers: closers,
	}, nil
}

func NewTestDatabaseProvider() DatabaseData {
	return &DatabaseProvider{
		ledger:    ledger_memory_client.New(),
		charities: charity_memory_client.New(),
		donations: donation_memory_client.New(),
	}
}

func (dp *DatabaseProvider) Close() error {
	var firstErr error
	for _, closer := range dp.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	dp.closers = nil
	return firstErr
}

// Ledger
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) GetLedgerAccount(ctx context.Context, address string) (*ledger.Record, error) {
	return dp.ledger.Get(ctx, address)
}
func (dp *DatabaseProvider) GetAllLedgerAccountsByOwner(ctx context.Context, owner string, opts ...query.Option) ([]*ledger.Record, error) {
	req, err := query.DefaultPaginationHandlerWithLimit(maxLedgerAccountReqSize, opts...)
	if err != nil {
		return nil, err
	}

	return dp.ledger.GetAllByOwner(ctx, owner, req.Cursor, req.Limit, req.SortBy)
}
func (dp *DatabaseProvider) CommitLedgerChanges(ctx context.Context, changes ...*ledger.Change) error {
	return dp.ledger.Commit(ctx, changes...)
}

// Charity
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) SaveCharity(ctx context.Context, record *charity.Record) error {
	return dp.charities.Save(ctx, record)
}
func (dp *DatabaseProvider) GetCharityByAddress(ctx context.Context, address string) (*charity.Record, error) {
	return dp.charities.GetByAddress(ctx, address)
}
func (dp *DatabaseProvider) GetAllCharitiesByAuthority(ctx context.Context, authority string) ([]*charity.Record, error) {
	return dp.charities.GetAllByAuthority(ctx, authority)
}
func (dp *DatabaseProvider) GetAllCharities(ctx context.Context, opts ...query.Option) ([]*charity.Record, error) {
	req, err := query.DefaultPaginationHandlerWithLimit(maxCharityReqSize, opts...)
	if err != nil {
		return nil, err
	}

	return dp.charities.GetAll(ctx, req.Cursor, req.Limit, req.SortBy)
}
func (dp *DatabaseProvider) DeleteCharity(ctx context.Context, address string) error {
	return dp.charities.Delete(ctx, address)
}

// Donation
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) PutDonation(ctx context.Context, record *donation.Record) error {
	return dp.donations.Put(ctx, record)
}
func (dp *DatabaseProvider) GetDonationByAddress(ctx context.Context, address string) (*donation.Record, error) {
	return dp.donations.GetByAddress(ctx, address)
}
func (dp *DatabaseProvider) GetAllDonationsByCharity(ctx context.Context, charity string, opts ...query.Option) ([]*donation.Record, error) {
	req, err := query.DefaultPaginationHandlerWithLimit(maxDonationReqSize, opts...)
	if err != nil {
		return nil, err
	}

	return dp.donations.GetAllByCharity(ctx, charity, req.Cursor, req.Limit, req.SortBy)
}
func (dp *DatabaseProvider) GetAllDonationsByDonor(ctx context.Context, donor string, opts ...query.Option) ([]*donation.Record, error) {
	req, err := query.DefaultPaginationHandlerWithLimit(maxDonationReqSize, opts...)
	if err != nil {
		return nil, err
	}

	return dp.donations.GetAllByDonor(ctx, donor, req.Cursor, req.Limit, req.SortBy)
}
func (dp *DatabaseProvider) GetTotalDonatedToCharity(ctx context.Context, charity string) (uint64, error) {
	return dp.donations.GetTotalByCharity(ctx, charity)
}
func (dp *DatabaseProvider) GetTotalDonatedByDonor(ctx context.Context, donor string) (uint64, error) {
	return dp.donations.GetTotalByDonor(ctx, donor)
}
func (dp *DatabaseProvider) GetDonationCountByCharity(ctx context.Context, charity string) (uint64, error) {
	return dp.donations.CountByCharity(ctx, charity)
}
