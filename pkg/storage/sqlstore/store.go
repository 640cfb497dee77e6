package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/chatprune/pkg/audit"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

// Store implements storage.Store
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  logrus.FieldLogger
}

var _ storage.Store = (*Store)(nil)

// NewStore wraps an open database handle
func NewStore(db *sql.DB, dialect Dialect, logger logrus.FieldLogger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

// Migrate applies pending schema migrations
func (s *Store) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.db, s.dialect, s.logger)
}

// WithTx runs fn inside a transaction. The transaction is rolled back when
// fn returns an error or panics.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newTx(sqlTx, s.dialect)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.WithError(rbErr).Error("Failed to roll back transaction")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AuditLog returns a reader over the audit_logs table
func (s *Store) AuditLog() audit.Searcher {
	logger, _ := audit.NewDBLogger(s.db)
	return logger
}

// HealthCheck pings the database
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	return nil
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}
