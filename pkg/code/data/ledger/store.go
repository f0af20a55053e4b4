package ledger

import (
	"context"
	"errors"

	"github.com/code-payments/charity-server/pkg/database/query"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrStaleVersion    = errors.New("account version is stale")
)

type Store interface {
	// Get gets the current state of an account. ErrAccountNotFound is returned
	// if the account doesn't exist.
	Get(ctx context.Context, address string) (*Record, error)

	// GetAllByOwner gets all accounts owned by a program or wallet.
	// ErrAccountNotFound is returned if no accounts are found.
	GetAllByOwner(ctx context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// Commit applies all changes atomically. Either every change is applied or
	// none are.
	//
	// Creates fail with ErrAccountExists when the address is taken. Updates and
	// closes fail with ErrAccountNotFound when the account doesn't exist, and
	// ErrStaleVersion when the provided version doesn't match the stored one.
	//
	// On success, records are updated in place with their new version and
	// timestamps.
	Commit(ctx context.Context, changes ...*Change) error
}
