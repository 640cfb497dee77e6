package storage

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/chatprune/pkg/audit"
	"github.com/platinummonkey/chatprune/pkg/chat"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// MemberRef identifies one channel membership
type MemberRef struct {
	ChannelID int64
	UserID    int64
}

// MembershipFilter selects memberships of evictable users. Empty id slices
// leave that dimension unrestricted.
type MembershipFilter struct {
	// ChannelIDs restricts to these channels
	ChannelIDs []int64
	// UserIDs restricts to these users
	UserIDs []int64
	// ChannelType restricts to one channel type
	ChannelType chat.ChannelType
	// ExcludeChannelType drops one channel type
	ExcludeChannelType chat.ChannelType
	// NotInGroups keeps only users who belong to none of these groups
	NotInGroups []int64
}

// TopologyReader reads the category permission graph
type TopologyReader interface {
	GetCategory(ctx context.Context, id int64) (*chat.Category, error)
	CountCategoryGroups(ctx context.Context, categoryID int64) (int, error)
	CategoryChannelIDs(ctx context.Context, categoryID int64) ([]int64, error)
	// ChannelPermissions returns write and readonly groups per category
	// channel. Channels whose category has no CategoryGroup rows are absent.
	ChannelPermissions(ctx context.Context, channelIDs []int64) (chat.PermissionMap, error)
}

// MembershipReader reads users and their channel memberships
type MembershipReader interface {
	GetUser(ctx context.Context, id int64) (*chat.User, error)
	FindMemberships(ctx context.Context, filter MembershipFilter) ([]MemberRef, error)
}

// MembershipWriter mutates channel memberships
type MembershipWriter interface {
	// DeleteMemberships deletes the memberships of userIDs in channelID and
	// returns the user ids actually removed.
	DeleteMemberships(ctx context.Context, channelID int64, userIDs []int64) ([]int64, error)
	// RefreshUserCounts recomputes the cached member count of channels
	RefreshUserCounts(ctx context.Context, channelIDs []int64) error
}

// Tx is a unit of work bound to one database transaction
type Tx interface {
	TopologyReader
	MembershipReader
	MembershipWriter

	// Audit returns an audit logger that writes inside this transaction
	Audit() audit.Logger
}

// HealthChecker checks backend health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Store is the transactional entry point
type Store interface {
	HealthChecker

	// WithTx runs fn in a transaction, committing when fn returns nil
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// AuditLog reads recorded audit entries
	AuditLog() audit.Searcher

	Close() error
}

// Config for storage backends
type Config struct {
	Driver string // "postgres" or "sqlite3"

	// Database config
	DatabaseURL string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration

	// Redis config
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Driver:          "postgres",
		MaxConns:        20,
		MinConns:        2,
		Timeout:         10 * time.Second,
		MaxLifetime:     30 * time.Minute,
		MaxIdleTime:     5 * time.Minute,
		RedisURL:        "redis://localhost:6379/0",
		RedisDB:         0,
		RedisMaxRetries: 3,
		RedisPoolSize:   10,
	}
}
