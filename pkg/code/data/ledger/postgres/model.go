package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	pgutil "github.com/code-payments/charity-server/pkg/database/postgres"
	q "github.com/code-payments/charity-server/pkg/database/query"
)

const (
	tableName = "charityledger__core_account"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address  string `db:"address"`
	Owner    string `db:"owner"`
	Lamports uint64 `db:"lamports"`
	Data     []byte `db:"data"`

	Version uint64 `db:"version"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toModel(obj *ledger.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Address:  obj.Address,
		Owner:    obj.Owner,
		Lamports: obj.Lamports,
		Data:     data,

		Version: obj.Version,

		CreatedAt: obj.CreatedAt,
		UpdatedAt: obj.UpdatedAt,
	}, nil
}

func fromModel(obj *model) *ledger.Record {
	return &ledger.Record{
		Id: uint64(obj.Id.Int64),

		Address:  obj.Address,
		Owner:    obj.Owner,
		Lamports: obj.Lamports,
		Data:     obj.Data,

		Version: obj.Version,

		CreatedAt: obj.CreatedAt,
		UpdatedAt: obj.UpdatedAt,
	}
}

func (m *model) dbCreate(ctx context.Context, tx *sqlx.Tx, now time.Time) error {
	query := `INSERT INTO ` + tableName + `
		(address, owner, lamports, data, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $5)
		RETURNING id, address, owner, lamports, data, version, created_at, updated_at`

	err := tx.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Owner,
		m.Lamports,
		m.Data,
		now,
	).StructScan(m)
	return pgutil.CheckUniqueViolation(err, ledger.ErrAccountExists)
}

func (m *model) dbUpdate(ctx context.Context, tx *sqlx.Tx, now time.Time) error {
	query := `UPDATE ` + tableName + `
		SET owner = $2, lamports = $3, data = $4, version = version + 1, updated_at = $5
		WHERE address = $1 AND version = $6
		RETURNING id, address, owner, lamports, data, version, created_at, updated_at`

	err := tx.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Owner,
		m.Lamports,
		m.Data,
		now,
		m.Version,
	).StructScan(m)
	return pgutil.CheckNoRows(err, ledger.ErrStaleVersion)
}

func (m *model) dbClose(ctx context.Context, tx *sqlx.Tx) error {
	query := `DELETE FROM ` + tableName + `
		WHERE address = $1 AND version = $2`

	res, err := tx.ExecContext(ctx, query, m.Address, m.Version)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ledger.ErrStaleVersion
	}
	return nil
}

func dbLockVersion(ctx context.Context, tx *sqlx.Tx, address string) (uint64, error) {
	var version uint64

	query := `SELECT version FROM ` + tableName + `
		WHERE address = $1
		FOR UPDATE`

	err := tx.GetContext(ctx, &version, query, address)
	if err != nil {
		return 0, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}
	return version, nil
}

func dbCommit(ctx context.Context, db *sqlx.DB, changes []*ledger.Change) ([]*model, error) {
	models := make([]*model, len(changes))
	for i, change := range changes {
		m, err := toModel(change.Record)
		if err != nil {
			return nil, err
		}
		models[i] = m
	}

	now := time.Now().UTC()
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		for i, change := range changes {
			m := models[i]

			if change.Type == ledger.ChangeTypeCreate {
				if err := m.dbCreate(ctx, tx, now); err != nil {
					return err
				}
				continue
			}

			version, err := dbLockVersion(ctx, tx, m.Address)
			if err != nil {
				return err
			}
			if version != m.Version {
				return ledger.ErrStaleVersion
			}

			switch change.Type {
			case ledger.ChangeTypeUpdate:
				err = m.dbUpdate(ctx, tx, now)
			case ledger.ChangeTypeClose:
				err = m.dbClose(ctx, tx)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models, nil
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT id, address, owner, lamports, data, version, created_at, updated_at FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}
	return res, nil
}

func dbGetAllByOwner(ctx context.Context, db *sqlx.DB, owner string, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT id, address, owner, lamports, data, version, created_at, updated_at FROM ` + tableName + `
		WHERE (owner = $1)
	`

	opts := []interface{}{owner}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}

	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}
	return res, nil
}
