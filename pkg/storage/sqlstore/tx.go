package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/chatprune/pkg/audit"
	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

// evictableUser is the predicate shared by every membership scope query
const evictableUser = `u.id > 0 AND NOT u.bot AND NOT u.admin AND NOT u.moderator AND NOT u.suspended AND NOT u.staged`

type tx struct {
	tx      *sql.Tx
	dialect Dialect
	audit   audit.Logger
}

var _ storage.Tx = (*tx)(nil)

func newTx(sqlTx *sql.Tx, dialect Dialect) *tx {
	logger, _ := audit.NewDBLogger(sqlTx)
	return &tx{tx: sqlTx, dialect: dialect, audit: logger}
}

func (t *tx) Audit() audit.Logger {
	return t.audit
}

func (t *tx) GetUser(ctx context.Context, id int64) (*chat.User, error) {
	query := `
		SELECT id, username, admin, moderator, suspended, staged, bot, created_at
		FROM users
		WHERE id = $1
	`

	user := &chat.User{}
	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Admin, &user.Moderator,
		&user.Suspended, &user.Staged, &user.Bot, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (t *tx) GetCategory(ctx context.Context, id int64) (*chat.Category, error) {
	query := `SELECT id, name, read_restricted FROM categories WHERE id = $1`

	category := &chat.Category{}
	err := t.tx.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.ReadRestricted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (t *tx) CountCategoryGroups(ctx context.Context, categoryID int64) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM category_groups WHERE category_id = $1`, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count category groups: %w", err)
	}
	return count, nil
}

func (t *tx) CategoryChannelIDs(ctx context.Context, categoryID int64) ([]int64, error) {
	query := `
		SELECT id FROM chat_channels
		WHERE category_id = $1 AND channel_type = $2
		ORDER BY id
	`

	rows, err := t.tx.QueryContext(ctx, query, categoryID, string(chat.CategoryChannel))
	if err != nil {
		return nil, fmt.Errorf("failed to list category channels: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func (t *tx) ChannelPermissions(ctx context.Context, channelIDs []int64) (chat.PermissionMap, error) {
	perms := chat.PermissionMap{}
	if len(channelIDs) == 0 {
		return perms, nil
	}

	args := newQueryArgs(t.dialect)
	query := `
		SELECT c.id, c.category_id, cg.group_id, cg.permission_type
		FROM chat_channels c
		JOIN category_groups cg ON cg.category_id = c.category_id
		WHERE c.channel_type = ` + args.add(string(chat.CategoryChannel)) + `
		AND ` + args.in("c.id", channelIDs) + `
		ORDER BY c.id, cg.group_id
	`

	rows, err := t.tx.QueryContext(ctx, query, args.values...)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel permissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var channelID, categoryID, groupID int64
		var permissionType int
		if err := rows.Scan(&channelID, &categoryID, &groupID, &permissionType); err != nil {
			return nil, fmt.Errorf("failed to scan channel permission: %w", err)
		}
		perms.Grant(channelID, categoryID, groupID, chat.PermissionType(permissionType))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel permissions: %w", err)
	}

	return perms, nil
}

func (t *tx) FindMemberships(ctx context.Context, filter storage.MembershipFilter) ([]storage.MemberRef, error) {
	// nobody is outside the everyone group
	if chat.GroupList(filter.NotInGroups).IncludesEveryone() {
		return []storage.MemberRef{}, nil
	}

	args := newQueryArgs(t.dialect)
	conditions := []string{evictableUser}

	if len(filter.ChannelIDs) > 0 {
		conditions = append(conditions, args.in("m.chat_channel_id", filter.ChannelIDs))
	}
	if len(filter.UserIDs) > 0 {
		conditions = append(conditions, args.in("m.user_id", filter.UserIDs))
	}
	if filter.ChannelType != "" {
		conditions = append(conditions, "c.channel_type = "+args.add(string(filter.ChannelType)))
	}
	if filter.ExcludeChannelType != "" {
		conditions = append(conditions, "c.channel_type <> "+args.add(string(filter.ExcludeChannelType)))
	}
	if len(filter.NotInGroups) > 0 {
		conditions = append(conditions, `NOT EXISTS (
			SELECT 1 FROM group_users gu
			WHERE gu.user_id = m.user_id AND `+args.in("gu.group_id", filter.NotInGroups)+`
		)`)
	}

	query := `
		SELECT m.chat_channel_id, m.user_id
		FROM chat_memberships m
		JOIN users u ON u.id = m.user_id
		JOIN chat_channels c ON c.id = m.chat_channel_id
		WHERE ` + strings.Join(conditions, "\n\t\tAND ") + `
		ORDER BY m.chat_channel_id, m.user_id
	`

	rows, err := t.tx.QueryContext(ctx, query, args.values...)
	if err != nil {
		return nil, fmt.Errorf("failed to find memberships: %w", err)
	}
	defer rows.Close()

	refs := []storage.MemberRef{}
	for rows.Next() {
		var ref storage.MemberRef
		if err := rows.Scan(&ref.ChannelID, &ref.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}

	return refs, nil
}

func (t *tx) DeleteMemberships(ctx context.Context, channelID int64, userIDs []int64) ([]int64, error) {
	if len(userIDs) == 0 {
		return []int64{}, nil
	}

	args := newQueryArgs(t.dialect)
	query := `
		DELETE FROM chat_memberships
		WHERE chat_channel_id = ` + args.add(channelID) + `
		AND ` + args.in("user_id", userIDs) + `
		RETURNING user_id
	`

	rows, err := t.tx.QueryContext(ctx, query, args.values...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete memberships: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func (t *tx) RefreshUserCounts(ctx context.Context, channelIDs []int64) error {
	if len(channelIDs) == 0 {
		return nil
	}

	args := newQueryArgs(t.dialect)
	query := `
		UPDATE chat_channels SET user_count = (
			SELECT COUNT(*)
			FROM chat_memberships m
			JOIN users u ON u.id = m.user_id
			WHERE m.chat_channel_id = chat_channels.id
			AND m.following AND u.id > 0 AND NOT u.bot
		)
		WHERE ` + args.in("id", channelIDs)

	if _, err := t.tx.ExecContext(ctx, query, args.values...); err != nil {
		return fmt.Errorf("failed to refresh user counts: %w", err)
	}
	return nil
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ids: %w", err)
	}
	return ids, nil
}
