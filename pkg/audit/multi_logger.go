package audit

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// MultiLogger logs to multiple audit loggers in order. The first failure is
// returned after every logger has been tried.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a new multi-logger that writes to multiple destinations
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log logs an audit event to all configured loggers
func (m *MultiLogger) Log(ctx context.Context, event *AuditEvent) error {
	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Log(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes all loggers
func (m *MultiLogger) Close() error {
	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close logger: %w", err)
		}
	}
	return firstErr
}

// LogrusLogger mirrors audit events into the structured application log
type LogrusLogger struct {
	logger logrus.FieldLogger
}

// NewLogrusLogger creates an audit logger backed by logrus
func NewLogrusLogger(logger logrus.FieldLogger) *LogrusLogger {
	return &LogrusLogger{logger: logger}
}

// Log writes one info line per event
func (l *LogrusLogger) Log(ctx context.Context, event *AuditEvent) error {
	fields := logrus.Fields{
		"audit_action":    event.ActionType,
		"acting_user_id":  event.ActingUserID,
		"acting_username": event.ActingUsername,
	}
	if event.TargetChannelID != nil {
		fields["channel_id"] = *event.TargetChannelID
	}
	for k, v := range ParseDetails(event.Details) {
		if _, exists := fields[k]; !exists {
			fields[k] = v
		}
	}
	l.logger.WithFields(fields).Info("audit")
	return nil
}

func (l *LogrusLogger) Close() error {
	return nil
}
