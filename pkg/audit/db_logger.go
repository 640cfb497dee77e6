package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

const defaultSearchLimit = 100

// DBLogger implements audit logging to the audit_logs table
type DBLogger struct {
	db Querier
}

// NewDBLogger creates a new database-based audit logger. The audit_logs
// table is owned by the store migrations.
func NewDBLogger(db Querier) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBLogger{db: db}, nil
}

// Log logs an audit event to the database
func (l *DBLogger) Log(ctx context.Context, event *AuditEvent) error {
	var metadata interface{}
	if event.Metadata != nil {
		metadataJSON, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = string(metadataJSON)
	}

	query := `
		INSERT INTO audit_logs (
			created_at, action_type, acting_user_id, acting_username,
			target_channel_id, details, metadata
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7
		) RETURNING id
	`

	err := l.db.QueryRowContext(ctx, query,
		event.Timestamp, string(event.ActionType), event.ActingUserID, event.ActingUsername,
		event.TargetChannelID, event.Details, metadata,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// Search returns matching events, newest first
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*AuditEvent, error) {
	query := `
		SELECT
			id, created_at, action_type, acting_user_id, acting_username,
			target_channel_id, details, metadata
		FROM audit_logs
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	if filter.ActionType != "" {
		query += fmt.Sprintf(" AND action_type = $%d", argCount)
		args = append(args, string(filter.ActionType))
		argCount++
	}

	if filter.TargetChannelID != nil {
		query += fmt.Sprintf(" AND target_channel_id = $%d", argCount)
		args = append(args, *filter.TargetChannelID)
		argCount++
	}

	if filter.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filter.Since)
		argCount++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", argCount)
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit logs: %w", err)
	}
	defer rows.Close()

	events := []*AuditEvent{}
	for rows.Next() {
		event := &AuditEvent{}
		var actionType string
		var targetChannelID sql.NullInt64
		var metadata sql.NullString

		if err := rows.Scan(
			&event.ID, &event.Timestamp, &actionType, &event.ActingUserID, &event.ActingUsername,
			&targetChannelID, &event.Details, &metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		event.ActionType = ActionType(actionType)
		if targetChannelID.Valid {
			id := targetChannelID.Int64
			event.TargetChannelID = &id
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &event.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return events, nil
}

// Close is a no-op; the underlying connection belongs to the caller
func (l *DBLogger) Close() error {
	return nil
}
