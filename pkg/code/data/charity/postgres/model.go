package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/charity-server/pkg/code/data/charity"
	pgutil "github.com/code-payments/charity-server/pkg/database/postgres"
	q "github.com/code-payments/charity-server/pkg/database/query"
	"github.com/code-payments/charity-server/pkg/pointer"
)

const (
	tableName = "charityledger__core_charity"

	allColumns = `id, address, vault, authority, name, description, total_donated, donation_count, paused, payout_recipient, account_id, version, created_at, updated_at, withdrawn_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address   string `db:"address"`
	Vault     string `db:"vault"`
	Authority string `db:"authority"`

	Name        string `db:"name"`
	Description string `db:"description"`

	TotalDonated  uint64 `db:"total_donated"`
	DonationCount uint64 `db:"donation_count"`
	Paused        bool   `db:"paused"`

	PayoutRecipient sql.NullString `db:"payout_recipient"`

	AccountId uint64 `db:"account_id"`
	Version   uint64 `db:"version"`

	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	WithdrawnAt sql.NullTime `db:"withdrawn_at"`
}

func toModel(obj *charity.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	var payoutRecipient sql.NullString
	if obj.PayoutRecipient != nil {
		payoutRecipient.Valid = true
		payoutRecipient.String = *obj.PayoutRecipient
	}

	var withdrawnAt sql.NullTime
	if obj.WithdrawnAt != nil {
		withdrawnAt.Valid = true
		withdrawnAt.Time = obj.WithdrawnAt.UTC()
	}

	return &model{
		Address:   obj.Address,
		Vault:     obj.Vault,
		Authority: obj.Authority,

		Name:        obj.Name,
		Description: obj.Description,

		TotalDonated:  obj.TotalDonated,
		DonationCount: obj.DonationCount,
		Paused:        obj.Paused,

		PayoutRecipient: payoutRecipient,

		AccountId: obj.AccountId,
		Version:   obj.Version,

		CreatedAt:   obj.CreatedAt.UTC(),
		UpdatedAt:   obj.UpdatedAt.UTC(),
		WithdrawnAt: withdrawnAt,
	}, nil
}

func fromModel(obj *model) *charity.Record {
	var withdrawnAt *time.Time
	if obj.WithdrawnAt.Valid {
		withdrawnAt = pointer.Time(obj.WithdrawnAt.Time)
	}

	return &charity.Record{
		Id: uint64(obj.Id.Int64),

		Address:   obj.Address,
		Vault:     obj.Vault,
		Authority: obj.Authority,

		Name:        obj.Name,
		Description: obj.Description,

		TotalDonated:  obj.TotalDonated,
		DonationCount: obj.DonationCount,
		Paused:        obj.Paused,

		PayoutRecipient: pointer.StringOrNil(obj.PayoutRecipient.String),

		AccountId: obj.AccountId,
		Version:   obj.Version,

		CreatedAt:   obj.CreatedAt,
		UpdatedAt:   obj.UpdatedAt,
		WithdrawnAt: withdrawnAt,
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, vault, authority, name, description, total_donated, donation_count, paused, payout_recipient, version, created_at, updated_at, withdrawn_at, account_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)

			ON CONFLICT (address)
			DO UPDATE
				SET description = $5, total_donated = $6, donation_count = $7, paused = $8, payout_recipient = $9, version = $10, updated_at = $12, withdrawn_at = $13
				WHERE ` + tableName + `.address = $1 AND ` + tableName + `.account_id = $14 AND ` + tableName + `.version < $10

			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Vault,
			m.Authority,
			m.Name,
			m.Description,
			m.TotalDonated,
			m.DonationCount,
			m.Paused,
			m.PayoutRecipient,
			m.Version,
			m.CreatedAt,
			m.UpdatedAt,
			m.WithdrawnAt,
			m.AccountId,
		).StructScan(m)

		return pgutil.CheckNoRows(err, charity.ErrStaleVersion)
	})
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, charity.ErrCharityNotFound)
	}
	return res, nil
}

func dbGetAllByAuthority(ctx context.Context, db *sqlx.DB, authority string) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE authority = $1
		ORDER BY id ASC`

	err := db.SelectContext(ctx, &res, query, authority)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, charity.ErrCharityNotFound)
	}

	if len(res) == 0 {
		return nil, charity.ErrCharityNotFound
	}
	return res, nil
}

func dbGetAll(ctx context.Context, db *sqlx.DB, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE (TRUE)
	`

	opts := []interface{}{}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, charity.ErrCharityNotFound)
	}

	if len(res) == 0 {
		return nil, charity.ErrCharityNotFound
	}
	return res, nil
}

func dbDelete(ctx context.Context, db *sqlx.DB, address string) error {
	query := `DELETE FROM ` + tableName + `
		WHERE address = $1`

	_, err := db.ExecContext(ctx, query, address)
	return err
}
