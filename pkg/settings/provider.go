package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/chatprune/pkg/chat"
)

// Hash fields of the site settings hash
const (
	FieldChatEnabled       = "chat_enabled"
	FieldChatAllowedGroups = "chat_allowed_groups"
)

// DefaultKey is the Redis hash holding site settings
const DefaultKey = "chatprune:site_settings"

// Provider returns the current site settings
type Provider interface {
	Get(ctx context.Context) (chat.SiteSettings, error)
}

// Defaults mirrors the forum's shipped defaults: chat on, staff and
// trust level 1 allowed.
func Defaults() chat.SiteSettings {
	return chat.SiteSettings{
		ChatEnabled:       true,
		ChatAllowedGroups: chat.GroupList{chat.GroupStaff, chat.GroupTrustLevel1},
	}
}

// StaticProvider always returns the same settings
type StaticProvider struct {
	Settings chat.SiteSettings
}

// Get returns the fixed settings
func (p StaticProvider) Get(ctx context.Context) (chat.SiteSettings, error) {
	return p.Settings, nil
}

// RedisProvider reads settings from a Redis hash. Fields missing from the
// hash fall back to the provider defaults.
type RedisProvider struct {
	client   *redis.Client
	key      string
	defaults chat.SiteSettings
	cache    *lru.LRU[string, chat.SiteSettings]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisProvider creates a provider. A ttl of zero disables caching.
func NewRedisProvider(client *redis.Client, key string, ttl time.Duration, defaults chat.SiteSettings) *RedisProvider {
	if key == "" {
		key = DefaultKey
	}

	p := &RedisProvider{
		client:   client,
		key:      key,
		defaults: defaults,
	}
	if ttl > 0 {
		p.cache = lru.NewLRU[string, chat.SiteSettings](1, nil, ttl)
	}
	return p
}

// Get returns cached settings or loads them from Redis
func (p *RedisProvider) Get(ctx context.Context) (chat.SiteSettings, error) {
	if p.cache != nil {
		if s, ok := p.cache.Get(p.key); ok {
			p.hits.Add(1)
			return s, nil
		}
	}
	p.misses.Add(1)

	values, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return chat.SiteSettings{}, fmt.Errorf("failed to load site settings: %w", err)
	}

	s, err := parse(values, p.defaults)
	if err != nil {
		return chat.SiteSettings{}, err
	}

	if p.cache != nil {
		p.cache.Add(p.key, s)
	}
	return s, nil
}

// Set writes settings to Redis and drops the cached copy
func (p *RedisProvider) Set(ctx context.Context, s chat.SiteSettings) error {
	err := p.client.HSet(ctx, p.key,
		FieldChatEnabled, strconv.FormatBool(s.ChatEnabled),
		FieldChatAllowedGroups, s.ChatAllowedGroups.Normalize().String(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to store site settings: %w", err)
	}
	p.Invalidate()
	return nil
}

// Invalidate drops the cached copy
func (p *RedisProvider) Invalidate() {
	if p.cache != nil {
		p.cache.Purge()
	}
}

// Stats returns cache hits and misses
func (p *RedisProvider) Stats() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}

func parse(values map[string]string, defaults chat.SiteSettings) (chat.SiteSettings, error) {
	s := chat.SiteSettings{
		ChatEnabled:       defaults.ChatEnabled,
		ChatAllowedGroups: defaults.ChatAllowedGroups.Normalize(),
	}

	if raw, ok := values[FieldChatEnabled]; ok {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return chat.SiteSettings{}, fmt.Errorf("invalid %s value %q: %w", FieldChatEnabled, raw, err)
		}
		s.ChatEnabled = enabled
	}

	if raw, ok := values[FieldChatAllowedGroups]; ok {
		groups, err := chat.ParseGroupList(raw)
		if err != nil {
			return chat.SiteSettings{}, fmt.Errorf("invalid %s value: %w", FieldChatAllowedGroups, err)
		}
		s.ChatAllowedGroups = groups
	}

	return s, nil
}
