package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("debug", FormatJSON, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("channel_id", 7).Info("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.EqualValues(t, 7, line["channel_id"])
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger("loud", FormatJSON, nil)
	assert.Error(t, err)

	_, err = NewLogger("info", "xml", nil)
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	base, hook := test.NewNullLogger()

	t.Run("fallback with trigger id", func(t *testing.T) {
		hook.Reset()
		ctx := WithTriggerID(context.Background(), "evt-1")
		FromContext(ctx, base).Info("x")

		require.Len(t, hook.Entries, 1)
		assert.Equal(t, "evt-1", hook.LastEntry().Data["trigger_id"])
	})

	t.Run("context logger wins", func(t *testing.T) {
		hook.Reset()
		ctx := WithLogger(context.Background(), base.WithField("component", "engine"))
		FromContext(ctx, nil).Info("x")

		require.Len(t, hook.Entries, 1)
		assert.Equal(t, "engine", hook.LastEntry().Data["component"])
		assert.NotContains(t, hook.LastEntry().Data, "trigger_id")
	})

	t.Run("span ids", func(t *testing.T) {
		hook.Reset()
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()

		FromContext(ctx, base).Info("x")
		require.Len(t, hook.Entries, 1)
		assert.Equal(t, span.SpanContext().TraceID().String(), hook.LastEntry().Data["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), hook.LastEntry().Data["span_id"])
	})

	assert.Equal(t, "", GetTriggerID(context.Background()))
}
