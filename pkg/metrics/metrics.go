package metrics

import (
	"context"
	"time"
)

// RecordEvent records a custom event. It's a no-op without an application in
// ctx.
func RecordEvent(ctx context.Context, eventName string, kvPairs map[string]interface{}) {
	if app, ok := ApplicationFromContext(ctx); ok {
		app.RecordCustomEvent(eventName, kvPairs)
	}
}

func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app, ok := ApplicationFromContext(ctx); ok {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a custom metric in milliseconds
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app, ok := ApplicationFromContext(ctx); ok {
		app.RecordCustomMetric(metricName, float64(duration.Milliseconds()))
	}
}
