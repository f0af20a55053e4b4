// Package async holds the background workers that run alongside the ledger.
package async

import "context"

// Service is a long-running worker. Start blocks until ctx is cancelled or the
// worker fails.
type Service interface {
	Start(ctx context.Context) error
}
