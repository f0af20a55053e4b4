package query

import (
	"github.com/pkg/errors"
)

var ErrQueryNotSupported = errors.New("the requested query option is not supported")

// QueryOptions is a resolved set of pagination options
type QueryOptions struct {
	Limit  uint64
	SortBy Ordering
	Cursor Cursor
}

type Option func(*QueryOptions)

func WithLimit(val uint64) Option {
	return func(qo *QueryOptions) {
		qo.Limit = val
	}
}

func WithDirection(val Ordering) Option {
	return func(qo *QueryOptions) {
		qo.SortBy = val
	}
}

func WithCursor(val []byte) Option {
	return func(qo *QueryOptions) {
		qo.Cursor = val
	}
}

// DefaultPaginationHandlerWithLimit resolves opts over an ascending query
// returning up to maxLimit results. Requests for more than maxLimit results,
// malformed cursors and unknown orderings are rejected.
func DefaultPaginationHandlerWithLimit(maxLimit uint64, opts ...Option) (*QueryOptions, error) {
	req := QueryOptions{
		Limit:  maxLimit,
		SortBy: Ascending,
	}
	for _, opt := range opts {
		opt(&req)
	}

	if req.Limit == 0 || req.Limit > maxLimit {
		return nil, errors.Wrapf(ErrQueryNotSupported, "limit must be in [1, %d]", maxLimit)
	}
	if len(req.Cursor) != 0 && len(req.Cursor) != cursorSize {
		return nil, errors.Wrap(ErrQueryNotSupported, "invalid cursor")
	}
	if req.SortBy != Ascending && req.SortBy != Descending {
		return nil, errors.Wrap(ErrQueryNotSupported, "invalid ordering")
	}
	return &req, nil
}
