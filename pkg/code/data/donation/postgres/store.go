package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/charity-server/pkg/code/data/donation"
	"github.com/code-payments/charity-server/pkg/database/query"
)

const (
	donorColumn   = "donor"
	charityColumn = "charity"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres donation.Store
func New(db *sql.DB) donation.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements donation.Store.Put
func (s *store) Put(ctx context.Context, record *donation.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbPut(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// GetByAddress implements donation.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*donation.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByCharity implements donation.Store.GetAllByCharity
func (s *store) GetAllByCharity(ctx context.Context, charity string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*donation.Record, error) {
	models, err := dbGetAllByColumn(ctx, s.db, charityColumn, charity, cursor, limit, direction)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// GetAllByDonor implements donation.Store.GetAllByDonor
func (s *store) GetAllByDonor(ctx context.Context, donor string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*donation.Record, error) {
	models, err := dbGetAllByColumn(ctx, s.db, donorColumn, donor, cursor, limit, direction)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// GetTotalByCharity implements donation.Store.GetTotalByCharity
func (s *store) GetTotalByCharity(ctx context.Context, charity string) (uint64, error) {
	return dbGetTotalByColumn(ctx, s.db, charityColumn, charity)
}

// GetTotalByDonor implements donation.Store.GetTotalByDonor
func (s *store) GetTotalByDonor(ctx context.Context, donor string) (uint64, error) {
	return dbGetTotalByColumn(ctx, s.db, donorColumn, donor)
}

// CountByCharity implements donation.Store.CountByCharity
func (s *store) CountByCharity(ctx context.Context, charity string) (uint64, error) {
	return dbCountByCharity(ctx, s.db, charity)
}

func fromModels(models []*model) []*donation.Record {
	res := make([]*donation.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res
}
