package audit

import (
	"context"
	"database/sql"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log records an audit event
	Log(ctx context.Context, event *AuditEvent) error

	// Close flushes and releases the logger
	Close() error
}

// Searcher reads back recorded events
type Searcher interface {
	Search(ctx context.Context, filter SearchFilter) ([]*AuditEvent, error)
}

// Querier is satisfied by both *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NoOp returns a logger that discards everything
func NoOp() Logger {
	return &noOpLogger{}
}

// noOpLogger is a logger that does nothing (used when no logger is configured)
type noOpLogger struct{}

func (l *noOpLogger) Log(ctx context.Context, event *AuditEvent) error {
	return nil
}

func (l *noOpLogger) Close() error {
	return nil
}
