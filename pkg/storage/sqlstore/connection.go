package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/platinummonkey/chatprune/pkg/storage"
)

// ConnectionManager owns the database handle and its pool configuration
type ConnectionManager struct {
	db      *sql.DB
	dialect Dialect
	config  storage.Config
}

// NewConnectionManager opens and pings the configured database
func NewConnectionManager(config storage.Config) (*ConnectionManager, error) {
	dialect, err := ParseDialect(config.Driver)
	if err != nil {
		return nil, err
	}
	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open(dialect.DriverName(), config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	configurePool(db, dialect, config)

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &ConnectionManager{
		db:      db,
		dialect: dialect,
		config:  config,
	}, nil
}

func configurePool(db *sql.DB, dialect Dialect, config storage.Config) {
	if dialect == SQLite && isMemoryDSN(config.DatabaseURL) {
		// every pooled connection to :memory: would be a distinct database
		db.SetMaxOpenConns(1)
		return
	}

	if config.MaxConns > 0 {
		db.SetMaxOpenConns(config.MaxConns)
	}
	if config.MinConns > 0 {
		db.SetMaxIdleConns(config.MinConns)
	}
	db.SetConnMaxLifetime(config.MaxLifetime)
	db.SetConnMaxIdleTime(config.MaxIdleTime)
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// DB returns the database handle
func (cm *ConnectionManager) DB() *sql.DB {
	return cm.db
}

// Dialect returns the SQL dialect of the connection
func (cm *ConnectionManager) Dialect() Dialect {
	return cm.dialect
}

// HealthCheck pings the database
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics
func (cm *ConnectionManager) Stats() sql.DBStats {
	return cm.db.Stats()
}

// Close closes the database handle
func (cm *ConnectionManager) Close() error {
	if err := cm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
