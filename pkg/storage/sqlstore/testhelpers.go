package sqlstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/platinummonkey/chatprune/pkg/chat"
)

// NewTestDB opens a migrated in-memory SQLite database that is closed when
// the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger, _ := test.NewNullLogger()
	if err := RunMigrations(context.Background(), db, SQLite, logger); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// NewTestStore returns a Store over NewTestDB
func NewTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()

	db := NewTestDB(t)
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewStore(db, SQLite, logger), db
}

// Fixtures seeds rows for tests
type Fixtures struct {
	t  *testing.T
	db *sql.DB
}

// NewFixtures creates a fixture writer for db
func NewFixtures(t *testing.T, db *sql.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) exec(query string, args ...interface{}) {
	f.t.Helper()
	if _, err := f.db.Exec(query, args...); err != nil {
		f.t.Fatalf("fixture %q failed: %v", query, err)
	}
}

// User inserts a user row
func (f *Fixtures) User(u chat.User) int64 {
	f.t.Helper()
	if u.Username == "" {
		u.Username = "user"
	}
	f.exec(`INSERT INTO users (id, username, admin, moderator, suspended, staged, bot) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Admin, u.Moderator, u.Suspended, u.Staged, u.Bot)
	return u.ID
}

// Group inserts a group and adds members to it
func (f *Fixtures) Group(id int64, name string, userIDs ...int64) int64 {
	f.t.Helper()
	f.exec(`INSERT INTO "groups" (id, name) VALUES ($1, $2)`, id, name)
	f.AddToGroup(id, userIDs...)
	return id
}

// AddToGroup inserts group_users rows
func (f *Fixtures) AddToGroup(groupID int64, userIDs ...int64) {
	f.t.Helper()
	for _, userID := range userIDs {
		f.exec(`INSERT INTO group_users (group_id, user_id) VALUES ($1, $2)`, groupID, userID)
	}
}

// RemoveFromGroup deletes a group_users row
func (f *Fixtures) RemoveFromGroup(groupID, userID int64) {
	f.t.Helper()
	f.exec(`DELETE FROM group_users WHERE group_id = $1 AND user_id = $2`, groupID, userID)
}

// Category inserts a category
func (f *Fixtures) Category(id int64, readRestricted bool) int64 {
	f.t.Helper()
	f.exec(`INSERT INTO categories (id, name, read_restricted) VALUES ($1, $2, $3)`, id, "category", readRestricted)
	return id
}

// Grant inserts a category_groups row
func (f *Fixtures) Grant(categoryID, groupID int64, pt chat.PermissionType) {
	f.t.Helper()
	f.exec(`INSERT INTO category_groups (category_id, group_id, permission_type) VALUES ($1, $2, $3)`,
		categoryID, groupID, int(pt))
}

// Revoke deletes a category_groups row
func (f *Fixtures) Revoke(categoryID, groupID int64) {
	f.t.Helper()
	f.exec(`DELETE FROM category_groups WHERE category_id = $1 AND group_id = $2`, categoryID, groupID)
}

// CategoryChannel inserts a category channel with members
func (f *Fixtures) CategoryChannel(id, categoryID int64, userIDs ...int64) int64 {
	f.t.Helper()
	f.exec(`INSERT INTO chat_channels (id, name, channel_type, category_id) VALUES ($1, $2, $3, $4)`,
		id, "channel", string(chat.CategoryChannel), categoryID)
	f.Join(id, userIDs...)
	return id
}

// DMChannel inserts a direct-message channel with members
func (f *Fixtures) DMChannel(id int64, userIDs ...int64) int64 {
	f.t.Helper()
	f.exec(`INSERT INTO chat_channels (id, name, channel_type) VALUES ($1, $2, $3)`,
		id, "dm", string(chat.DirectMessageChannel))
	f.Join(id, userIDs...)
	return id
}

// Join inserts memberships
func (f *Fixtures) Join(channelID int64, userIDs ...int64) {
	f.t.Helper()
	for _, userID := range userIDs {
		f.exec(`INSERT INTO chat_memberships (chat_channel_id, user_id) VALUES ($1, $2)`, channelID, userID)
	}
}

// Members returns the user ids in a channel, ascending
func (f *Fixtures) Members(channelID int64) []int64 {
	f.t.Helper()
	rows, err := f.db.Query(`SELECT user_id FROM chat_memberships WHERE chat_channel_id = $1 ORDER BY user_id`, channelID)
	if err != nil {
		f.t.Fatalf("failed to list members: %v", err)
	}
	defer rows.Close()

	ids, err := scanIDs(rows)
	if err != nil {
		f.t.Fatalf("failed to scan members: %v", err)
	}
	return ids
}

// UserCount returns the cached member count of a channel
func (f *Fixtures) UserCount(channelID int64) int {
	f.t.Helper()
	var count int
	if err := f.db.QueryRow(`SELECT user_count FROM chat_channels WHERE id = $1`, channelID).Scan(&count); err != nil {
		f.t.Fatalf("failed to read user count: %v", err)
	}
	return count
}

// AuditCount returns the number of audit rows
func (f *Fixtures) AuditCount() int {
	f.t.Helper()
	var count int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM audit_logs`).Scan(&count); err != nil {
		f.t.Fatalf("failed to count audit logs: %v", err)
	}
	return count
}
