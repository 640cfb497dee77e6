package settings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/chatprune/pkg/chat"
)

func setupProvider(t *testing.T, ttl time.Duration) (*RedisProvider, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisProvider(client, "", ttl, Defaults()), mr
}

func TestRedisProvider_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when hash is missing", func(t *testing.T) {
		p, _ := setupProvider(t, 0)

		s, err := p.Get(ctx)
		require.NoError(t, err)
		assert.True(t, s.ChatEnabled)
		assert.Equal(t, chat.GroupList{3, 11}, s.ChatAllowedGroups)
	})

	t.Run("reads hash fields", func(t *testing.T) {
		p, mr := setupProvider(t, 0)
		mr.HSet(DefaultKey, FieldChatEnabled, "false", FieldChatAllowedGroups, "")

		s, err := p.Get(ctx)
		require.NoError(t, err)
		assert.False(t, s.ChatEnabled)
		assert.Empty(t, s.ChatAllowedGroups)
	})

	t.Run("invalid value", func(t *testing.T) {
		p, mr := setupProvider(t, 0)
		mr.HSet(DefaultKey, FieldChatAllowedGroups, "1|staff")

		_, err := p.Get(ctx)
		assert.Error(t, err)
	})

	t.Run("redis unavailable", func(t *testing.T) {
		p, mr := setupProvider(t, 0)
		mr.Close()

		_, err := p.Get(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load site settings")
	})
}

func TestRedisProvider_Cache(t *testing.T) {
	ctx := context.Background()
	p, mr := setupProvider(t, time.Minute)

	mr.HSet(DefaultKey, FieldChatAllowedGroups, "0")
	s, err := p.Get(ctx)
	require.NoError(t, err)
	assert.True(t, s.ChatAllowedGroups.IncludesEveryone())

	// served from cache until invalidated
	mr.HSet(DefaultKey, FieldChatAllowedGroups, "20")
	s, err = p.Get(ctx)
	require.NoError(t, err)
	assert.True(t, s.ChatAllowedGroups.IncludesEveryone())

	hits, misses := p.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	p.Invalidate()
	s, err = p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, chat.GroupList{20}, s.ChatAllowedGroups)
}

func TestRedisProvider_Set(t *testing.T) {
	ctx := context.Background()
	p, mr := setupProvider(t, time.Minute)

	_, err := p.Get(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Set(ctx, chat.SiteSettings{ChatEnabled: true, ChatAllowedGroups: chat.GroupList{12, 3}}))
	assert.Equal(t, "3|12", mr.HGet(DefaultKey, FieldChatAllowedGroups))

	s, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, chat.GroupList{3, 12}, s.ChatAllowedGroups)
}

func TestStaticProvider(t *testing.T) {
	want := chat.SiteSettings{ChatEnabled: true, ChatAllowedGroups: chat.GroupList{0}}
	got, err := StaticProvider{Settings: want}.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
