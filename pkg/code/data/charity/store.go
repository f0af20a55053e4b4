package charity

import (
	"context"
	"errors"

	"github.com/code-payments/charity-server/pkg/database/query"
)

var (
	ErrCharityNotFound = errors.New("charity not found")
	ErrStaleVersion    = errors.New("charity version is stale")
)

type Store interface {
	// Save creates or updates a charity. ErrStaleVersion is returned if a
	// record for the same account at the same or newer version already
	// exists, or if the address is indexed for a different account.
	Save(ctx context.Context, record *Record) error

	// GetByAddress gets a charity by its account address
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetAllByAuthority gets all charities managed by an authority
	GetAllByAuthority(ctx context.Context, authority string) ([]*Record, error)

	// GetAll gets all charities using a paged API
	GetAll(ctx context.Context, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// Delete removes a charity. Deleting a charity that doesn't exist is a no-op.
	Delete(ctx context.Context, address string) error
}
