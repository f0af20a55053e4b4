package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/charity-server/pkg/code/data/donation"
	pgutil "github.com/code-payments/charity-server/pkg/database/postgres"
	q "github.com/code-payments/charity-server/pkg/database/query"
)

const (
	tableName = "charityledger__core_donation"

	allColumns = `id, address, donor, charity, charity_name, amount, created_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address     string `db:"address"`
	Donor       string `db:"donor"`
	Charity     string `db:"charity"`
	CharityName string `db:"charity_name"`
	Amount      uint64 `db:"amount"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *donation.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address:     obj.Address,
		Donor:       obj.Donor,
		Charity:     obj.Charity,
		CharityName: obj.CharityName,
		Amount:      obj.Amount,

		CreatedAt: obj.CreatedAt.UTC(),
	}, nil
}

func fromModel(obj *model) *donation.Record {
	return &donation.Record{
		Id: uint64(obj.Id.Int64),

		Address:     obj.Address,
		Donor:       obj.Donor,
		Charity:     obj.Charity,
		CharityName: obj.CharityName,
		Amount:      obj.Amount,

		CreatedAt: obj.CreatedAt,
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	query := `INSERT INTO ` + tableName + `
		(address, donor, charity, charity_name, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + allColumns

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	err := db.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Donor,
		m.Charity,
		m.CharityName,
		m.Amount,
		m.CreatedAt,
	).StructScan(m)
	return pgutil.CheckUniqueViolation(err, donation.ErrDonationExists)
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, donation.ErrDonationNotFound)
	}
	return res, nil
}

func dbGetAllByColumn(ctx context.Context, db *sqlx.DB, column, value string, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE (` + column + ` = $1)
	`

	opts := []interface{}{value}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, donation.ErrDonationNotFound)
	}

	if len(res) == 0 {
		return nil, donation.ErrDonationNotFound
	}
	return res, nil
}

func dbGetTotalByColumn(ctx context.Context, db *sqlx.DB, column, value string) (uint64, error) {
	var res sql.NullInt64

	query := `SELECT SUM(amount) FROM ` + tableName + `
		WHERE ` + column + ` = $1
	`

	err := db.GetContext(ctx, &res, query, value)
	if err != nil {
		return 0, err
	}

	if !res.Valid {
		return 0, nil
	}
	return uint64(res.Int64), nil
}

func dbCountByCharity(ctx context.Context, db *sqlx.DB, charity string) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName + `
		WHERE charity = $1
	`

	err := db.GetContext(ctx, &res, query, charity)
	if err != nil {
		return 0, err
	}
	return res, nil
}
