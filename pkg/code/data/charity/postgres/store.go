package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/charity-server/pkg/code/data/charity"
	"github.com/code-payments/charity-server/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres charity.Store
func New(db *sql.DB) charity.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements charity.Store.Save
func (s *store) Save(ctx context.Context, record *charity.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbSave(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// GetByAddress implements charity.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*charity.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByAuthority implements charity.Store.GetAllByAuthority
func (s *store) GetAllByAuthority(ctx context.Context, authority string) ([]*charity.Record, error) {
	models, err := dbGetAllByAuthority(ctx, s.db, authority)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// GetAll implements charity.Store.GetAll
func (s *store) GetAll(ctx context.Context, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*charity.Record, error) {
	models, err := dbGetAll(ctx, s.db, cursor, limit, direction)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// Delete implements charity.Store.Delete
func (s *store) Delete(ctx context.Context, address string) error {
	return dbDelete(ctx, s.db, address)
}

func fromModels(models []*model) []*charity.Record {
	res := make([]*charity.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res
}
