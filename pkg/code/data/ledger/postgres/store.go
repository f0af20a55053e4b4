package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres ledger.Store
func New(db *sql.DB) ledger.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(ctx context.Context, address string) (*ledger.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*ledger.Record, error) {
	models, err := dbGetAllByOwner(ctx, s.db, owner, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	res := make([]*ledger.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// Commit implements ledger.Store.Commit
func (s *store) Commit(ctx context.Context, changes ...*ledger.Change) error {
	if err := ledger.ValidateChanges(changes); err != nil {
		return err
	}

	models, err := dbCommit(ctx, s.db, changes)
	if err != nil {
		return err
	}

	for i, change := range changes {
		if change.Type == ledger.ChangeTypeClose {
			continue
		}
		fromModel(models[i]).CopyTo(change.Record)
	}
	return nil
}
