package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Log formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// NewLogger creates a logrus logger writing to output (stdout when nil)
func NewLogger(level, format string, output io.Writer) (*logrus.Logger, error) {
	if output == nil {
		output = os.Stdout
	}

	logger := logrus.New()
	logger.SetOutput(output)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch format {
	case FormatJSON, "":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return logger, nil
}

// contextKey is the type for context keys
type contextKey string

const (
	// TriggerIDKey is the context key for the trigger event id
	TriggerIDKey contextKey = "trigger_id"
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
)

// WithTriggerID adds a trigger id to the context
func WithTriggerID(ctx context.Context, triggerID string) context.Context {
	return context.WithValue(ctx, TriggerIDKey, triggerID)
}

// GetTriggerID retrieves the trigger id from context
func GetTriggerID(ctx context.Context) string {
	if id, ok := ctx.Value(TriggerIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the context logger (or fallback) with trigger and
// trace fields attached.
func FromContext(ctx context.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	logger := fallback
	if l, ok := ctx.Value(LoggerKey).(logrus.FieldLogger); ok {
		logger = l
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if id := GetTriggerID(ctx); id != "" {
		logger = logger.WithField("trigger_id", id)
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		logger = logger.WithFields(logrus.Fields{
			"trace_id": spanCtx.TraceID().String(),
			"span_id":  spanCtx.SpanID().String(),
		})
	}

	return logger
}
