package logger

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsCtx_AddsTraceID(t *testing.T) {
	hook := test.NewLocal(log)
	defer hook.Reset()

	ctx := WithTraceID(context.Background(), "trace-42")
	WithFieldsCtx(ctx, map[string]interface{}{"operation": "list patients"}).Warn("Database operation failed")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "trace-42", entry.Data["trace_id"])
	assert.Equal(t, "list patients", entry.Data["operation"])
}

func TestWithContext_NoTraceID(t *testing.T) {
	hook := test.NewLocal(log)
	defer hook.Reset()

	WithContext(context.Background()).Info("started")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	_, ok := entry.Data["trace_id"]
	assert.False(t, ok)
}

func TestTraceIDFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.Equal(t, "abc", TraceIDFromContext(WithTraceID(context.Background(), "abc")))
}
