package donation

import (
	"context"
	"errors"

	"github.com/code-payments/charity-server/pkg/database/query"
)

var (
	ErrDonationNotFound = errors.New("donation not found")
	ErrDonationExists   = errors.New("donation already exists")
)

type Store interface {
	// Put creates a new donation record. ErrDonationExists is returned if a
	// record already exists at the address.
	Put(ctx context.Context, record *Record) error

	// GetByAddress gets a donation by its account address
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetAllByCharity gets all donations made to a charity using a paged API
	GetAllByCharity(ctx context.Context, charity string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetAllByDonor gets all donations made by a donor using a paged API
	GetAllByDonor(ctx context.Context, donor string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// GetTotalByCharity gets the total amount ever donated to a charity
	GetTotalByCharity(ctx context.Context, charity string) (uint64, error)

	// GetTotalByDonor gets the total amount ever donated by a donor
	GetTotalByDonor(ctx context.Context, donor string) (uint64, error)

	// CountByCharity counts the donations made to a charity
	CountByCharity(ctx context.Context, charity string) (uint64, error)
}
