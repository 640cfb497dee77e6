package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/chatprune/pkg/audit"
	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

// seedTopology builds two categories, a DM and a mixed set of users:
//
//	1 regular, member of group 20
//	2 regular, no groups
//	3 admin
//	4 suspended
//	5 staged
//	6 bot
func seedTopology(t *testing.T, f *Fixtures) {
	f.User(chat.User{ID: 1, Username: "alice"})
	f.User(chat.User{ID: 2, Username: "bob"})
	f.User(chat.User{ID: 3, Username: "admin", Admin: true})
	f.User(chat.User{ID: 4, Username: "suspended", Suspended: true})
	f.User(chat.User{ID: 5, Username: "staged", Staged: true})
	f.User(chat.User{ID: 6, Username: "bot", Bot: true})
	f.Group(20, "team", 1)
	f.Group(21, "readers")

	f.Category(100, true)
	f.Grant(100, 20, chat.PermissionFull)
	f.Grant(100, 21, chat.PermissionReadonly)
	f.Category(200, false)

	f.CategoryChannel(10, 100, 1, 2, 3, 4, 5, 6)
	f.CategoryChannel(11, 200, 1, 2)
	f.DMChannel(12, 1, 2)
}

func inTx(t *testing.T, s *Store, fn func(ctx context.Context, tx storage.Tx)) {
	t.Helper()
	err := s.WithTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		fn(ctx, tx)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_Topology(t *testing.T) {
	s, db := NewTestStore(t)
	f := NewFixtures(t, db)
	seedTopology(t, f)

	inTx(t, s, func(ctx context.Context, tx storage.Tx) {
		t.Run("get category", func(t *testing.T) {
			category, err := tx.GetCategory(ctx, 100)
			require.NoError(t, err)
			assert.True(t, category.ReadRestricted)

			_, err = tx.GetCategory(ctx, 999)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})

		t.Run("count category groups", func(t *testing.T) {
			count, err := tx.CountCategoryGroups(ctx, 100)
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			count, err = tx.CountCategoryGroups(ctx, 200)
			require.NoError(t, err)
			assert.Equal(t, 0, count)
		})

		t.Run("category channel ids", func(t *testing.T) {
			ids, err := tx.CategoryChannelIDs(ctx, 100)
			require.NoError(t, err)
			assert.Equal(t, []int64{10}, ids)
		})

		t.Run("channel permissions", func(t *testing.T) {
			perms, err := tx.ChannelPermissions(ctx, []int64{10, 11, 12})
			require.NoError(t, err)
			require.Len(t, perms, 1, "channels of categories without rows and DMs are absent")
			assert.Equal(t, chat.GroupList{20}, perms[10].WriteGroups)
			assert.Equal(t, chat.GroupList{21}, perms[10].ReadonlyGroups)
			assert.Equal(t, int64(100), perms[10].CategoryID)
		})

		t.Run("channel permissions with no channels", func(t *testing.T) {
			perms, err := tx.ChannelPermissions(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, perms)
		})
	})
}

func TestStore_GetUser(t *testing.T) {
	s, db := NewTestStore(t)
	f := NewFixtures(t, db)
	f.User(chat.User{ID: 7, Username: "mod", Moderator: true})

	inTx(t, s, func(ctx context.Context, tx storage.Tx) {
		user, err := tx.GetUser(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "mod", user.Username)
		assert.True(t, user.Staff())
		assert.False(t, user.CreatedAt.IsZero())

		_, err = tx.GetUser(ctx, 8)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_FindMemberships(t *testing.T) {
	s, db := NewTestStore(t)
	f := NewFixtures(t, db)
	seedTopology(t, f)

	tests := []struct {
		name   string
		filter storage.MembershipFilter
		want   []storage.MemberRef
	}{
		{
			name:   "only evictable users",
			filter: storage.MembershipFilter{ChannelIDs: []int64{10}},
			want:   []storage.MemberRef{{ChannelID: 10, UserID: 1}, {ChannelID: 10, UserID: 2}},
		},
		{
			name:   "outside groups",
			filter: storage.MembershipFilter{ChannelIDs: []int64{10}, NotInGroups: []int64{20}},
			want:   []storage.MemberRef{{ChannelID: 10, UserID: 2}},
		},
		{
			name:   "outside everyone is nobody",
			filter: storage.MembershipFilter{NotInGroups: []int64{0, 20}},
			want:   []storage.MemberRef{},
		},
		{
			name:   "exclude direct messages",
			filter: storage.MembershipFilter{UserIDs: []int64{2}, ExcludeChannelType: chat.DirectMessageChannel},
			want:   []storage.MemberRef{{ChannelID: 10, UserID: 2}, {ChannelID: 11, UserID: 2}},
		},
		{
			name:   "category channels only",
			filter: storage.MembershipFilter{UserIDs: []int64{1, 2}, ChannelType: chat.CategoryChannel, NotInGroups: []int64{20}},
			want:   []storage.MemberRef{{ChannelID: 10, UserID: 2}, {ChannelID: 11, UserID: 2}},
		},
		{
			name:   "all channel types",
			filter: storage.MembershipFilter{UserIDs: []int64{1}},
			want:   []storage.MemberRef{{ChannelID: 10, UserID: 1}, {ChannelID: 11, UserID: 1}, {ChannelID: 12, UserID: 1}},
		},
	}

	inTx(t, s, func(ctx context.Context, tx storage.Tx) {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				refs, err := tx.FindMemberships(ctx, tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.want, refs)
			})
		}
	})
}

func TestStore_DeleteAndRefresh(t *testing.T) {
	s, db := NewTestStore(t)
	f := NewFixtures(t, db)
	seedTopology(t, f)

	inTx(t, s, func(ctx context.Context, tx storage.Tx) {
		removed, err := tx.DeleteMemberships(ctx, 10, []int64{2, 99})
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, removed)

		removed, err = tx.DeleteMemberships(ctx, 10, nil)
		require.NoError(t, err)
		assert.Empty(t, removed)

		require.NoError(t, tx.RefreshUserCounts(ctx, []int64{10, 11}))
	})

	assert.Equal(t, []int64{1, 3, 4, 5, 6}, f.Members(10))
	// bots are not counted
	assert.Equal(t, 4, f.UserCount(10))
	assert.Equal(t, 2, f.UserCount(11))
	assert.Equal(t, 0, f.UserCount(12))
}

func TestStore_WithTxRollback(t *testing.T) {
	s, db := NewTestStore(t)
	f := NewFixtures(t, db)
	seedTopology(t, f)

	boom := errors.New("boom")
	err := s.WithTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.DeleteMemberships(ctx, 10, []int64{1, 2}); err != nil {
			return err
		}
		if err := tx.Audit().Log(ctx, audit.NewAutoRemoveEvent(10, 2, "category_updated")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, f.Members(10))
	assert.Equal(t, 0, f.AuditCount())
}

func TestStore_WithTxPanic(t *testing.T) {
	s, db := NewTestStore(t)
	f := NewFixtures(t, db)
	seedTopology(t, f)

	assert.Panics(t, func() {
		_ = s.WithTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
			if _, err := tx.DeleteMemberships(ctx, 11, []int64{1}); err != nil {
				return err
			}
			panic("kaboom")
		})
	})

	assert.Equal(t, []int64{1, 2}, f.Members(11))
}

func TestStore_AuditRoundTrip(t *testing.T) {
	s, db := NewTestStore(t)
	f := NewFixtures(t, db)

	err := s.WithTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.Audit().Log(ctx, audit.NewAutoRemoveEvent(10, 2, "destroyed_group"))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.AuditCount())

	events, err := s.AuditLog().Search(context.Background(), audit.SearchFilter{
		ActionType: audit.ActionChatAutoRemoveMembership,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "users_removed: 2\nchannel_id: 10\nevent: destroyed_group", events[0].Details)
	assert.Equal(t, int64(-1), events[0].ActingUserID)
	require.NotNil(t, events[0].TargetChannelID)
	assert.Equal(t, int64(10), *events[0].TargetChannelID)
}

func TestStore_HealthCheck(t *testing.T) {
	s, _ := NewTestStore(t)
	assert.NoError(t, s.HealthCheck(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.HealthCheck(context.Background()))
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db, SQLite, nil)
	require.NoError(t, s.Migrate(context.Background()))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM chatprune_migrations`).Scan(&count))
	assert.Equal(t, len(GetMigrations()), count)
}
