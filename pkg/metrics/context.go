package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type newRelicContextKey struct{}

// NewRelicContextKey is the context key that holds the *newrelic.Application
var NewRelicContextKey = newRelicContextKey{}

// NewContext returns a copy of ctx that carries the New Relic application
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	return context.WithValue(ctx, NewRelicContextKey, app)
}

// ApplicationFromContext gets the New Relic application carried by ctx, if any
func ApplicationFromContext(ctx context.Context) (*newrelic.Application, bool) {
	app, ok := ctx.Value(NewRelicContextKey).(*newrelic.Application)
	return app, ok && app != nil
}

// StartTransaction starts a New Relic transaction for background work. The
// returned context carries the transaction so that TraceMethodCall segments
// attach to it. Without an application in ctx, it's a no-op.
func StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction) {
	app, ok := ApplicationFromContext(ctx)
	if !ok {
		return ctx, nil
	}

	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn
}
