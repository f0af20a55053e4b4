package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartTransaction_NoApplication(t *testing.T) {
	ctx := context.Background()

	_, ok := ApplicationFromContext(ctx)
	assert.False(t, ok)

	tracedCtx, txn := StartTransaction(ctx, "test")
	assert.Nil(t, txn)
	assert.Equal(t, ctx, tracedCtx)

	// Tracing and recording without an application must be safe
	tracer := TraceMethodCall(tracedCtx, "metrics", "TestStartTransaction_NoApplication")
	tracer.AddAttribute("key", "value")
	tracer.OnError(assert.AnError)
	tracer.End()

	RecordEvent(tracedCtx, "test", map[string]interface{}{"key": "value"})
	RecordCount(tracedCtx, "test", 1)
}

func TestNewContext_NilApplication(t *testing.T) {
	ctx := NewContext(context.Background(), nil)

	_, ok := ApplicationFromContext(ctx)
	assert.False(t, ok)
}
