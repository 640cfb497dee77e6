package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order. Dialect specific
// column types are written as {{pk}} and {{json}}.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users and groups tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGINT PRIMARY KEY,
					username VARCHAR(60) NOT NULL,
					admin BOOLEAN NOT NULL DEFAULT FALSE,
					moderator BOOLEAN NOT NULL DEFAULT FALSE,
					suspended BOOLEAN NOT NULL DEFAULT FALSE,
					staged BOOLEAN NOT NULL DEFAULT FALSE,
					bot BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE TABLE IF NOT EXISTS "groups" (
					id BIGINT PRIMARY KEY,
					name VARCHAR(100) NOT NULL UNIQUE,
					automatic BOOLEAN NOT NULL DEFAULT FALSE
				);

				CREATE TABLE IF NOT EXISTS group_users (
					id {{pk}},
					group_id BIGINT NOT NULL,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (group_id, user_id)
				);

				CREATE INDEX IF NOT EXISTS idx_group_users_user_id ON group_users(user_id);
			`,
		},
		{
			Version:     2,
			Description: "Create categories and category permission tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS categories (
					id BIGINT PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					read_restricted BOOLEAN NOT NULL DEFAULT FALSE
				);

				CREATE TABLE IF NOT EXISTS category_groups (
					id {{pk}},
					category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
					group_id BIGINT NOT NULL,
					permission_type INTEGER NOT NULL DEFAULT 1,
					UNIQUE (category_id, group_id)
				);

				CREATE INDEX IF NOT EXISTS idx_category_groups_group_id ON category_groups(group_id);
			`,
		},
		{
			Version:     3,
			Description: "Create chat channel and membership tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS chat_channels (
					id {{pk}},
					name VARCHAR(255) NOT NULL DEFAULT '',
					channel_type VARCHAR(50) NOT NULL,
					category_id BIGINT REFERENCES categories(id) ON DELETE CASCADE,
					user_count INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_chat_channels_category_id ON chat_channels(category_id);

				CREATE TABLE IF NOT EXISTS chat_memberships (
					id {{pk}},
					chat_channel_id BIGINT NOT NULL REFERENCES chat_channels(id) ON DELETE CASCADE,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					following BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (chat_channel_id, user_id)
				);

				CREATE INDEX IF NOT EXISTS idx_chat_memberships_user_id ON chat_memberships(user_id);
			`,
		},
		{
			Version:     4,
			Description: "Create audit log table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_logs (
					id {{pk}},
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					action_type VARCHAR(100) NOT NULL,
					acting_user_id BIGINT NOT NULL,
					acting_username VARCHAR(60) NOT NULL,
					target_channel_id BIGINT,
					details TEXT NOT NULL DEFAULT '',
					metadata {{json}}
				);

				CREATE INDEX IF NOT EXISTS idx_audit_logs_action_type ON audit_logs(action_type);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_target_channel_id ON audit_logs(target_channel_id);
			`,
		},
	}
}

// render substitutes dialect specific column types
func (m Migration) render(d Dialect) string {
	var r *strings.Replacer
	switch d {
	case SQLite:
		r = strings.NewReplacer("{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{{json}}", "TEXT")
	default:
		r = strings.NewReplacer("{{pk}}", "BIGSERIAL PRIMARY KEY", "{{json}}", "JSONB")
	}
	return r.Replace(m.SQL)
}

// RunMigrations applies pending migrations, each in its own transaction
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect, logger logrus.FieldLogger) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chatprune_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM chatprune_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("Running migration")

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.render(dialect)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chatprune_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
