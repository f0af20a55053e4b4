package async_indexer

import (
	"context"
	"time"

	"github.com/code-payments/charity-server/pkg/metrics"
)

const (
	droppedUpdateEventName = "IndexerDroppedAccountUpdate"
	reconcileEventName     = "IndexerReconcile"

	reconcileDurationMetricName = "Indexer/reconcile_duration"
	prunedCharitiesMetricName   = "Indexer/pruned_charities"
)

func recordDroppedUpdateEvent(ctx context.Context, address string) {
	metrics.RecordEvent(ctx, droppedUpdateEventName, map[string]interface{}{
		"account": address,
	})
}

func recordReconcileEvent(ctx context.Context, stats reconcileStats, duration time.Duration) {
	metrics.RecordEvent(ctx, reconcileEventName, map[string]interface{}{
		"charities": stats.charities,
		"donations": stats.donations,
		"pruned":    stats.pruned,
		"failures":  stats.failures,
	})
	metrics.RecordDuration(ctx, reconcileDurationMetricName, duration)
	metrics.RecordCount(ctx, prunedCharitiesMetricName, uint64(stats.pruned))
}
