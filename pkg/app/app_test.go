package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/config"
	"github.com/platinummonkey/chatprune/pkg/events"
	"github.com/platinummonkey/chatprune/pkg/jobs"
	"github.com/platinummonkey/chatprune/pkg/observability"
	"github.com/platinummonkey/chatprune/pkg/settings"
	"github.com/platinummonkey/chatprune/pkg/storage/sqlstore"
)

func sqliteConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = "sqlite3"
	cfg.Database.URL = ":memory:"
	cfg.Jobs.Backends = []string{config.BackendLocal}
	cfg.Settings.Source = config.SettingsSourceStatic
	cfg.Settings.ChatAllowedGroups = "0"
	cfg.Worker.ConsumeTriggers = false
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	require.NoError(t, cfg.Validate())

	logger, _ := test.NewNullLogger()
	a, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.NoError(t, a.Store.Migrate(context.Background()))
	return a
}

// seedRestrictedCategory leaves user 4 in channel 11 without write access
func seedRestrictedCategory(t *testing.T, a *App) *sqlstore.Fixtures {
	fx := sqlstore.NewFixtures(t, a.Conn.DB())
	fx.User(chat.User{ID: 3, Username: "alice"})
	fx.User(chat.User{ID: 4, Username: "bob"})
	fx.Group(100, "writers", 3)
	fx.Category(1, true)
	fx.Grant(1, 100, chat.PermissionFull)
	fx.CategoryChannel(11, 1, 3, 4)
	return fx
}

func TestNew_SQLiteLocal(t *testing.T) {
	a := newApp(t, sqliteConfig())

	assert.Nil(t, a.Redis)
	assert.Nil(t, a.Queue)
	assert.IsType(t, &jobs.LocalDispatcher{}, a.Dispatcher)
	assert.IsType(t, settings.StaticProvider{}, a.Settings)
	assert.Equal(t, observability.StatusHealthy, a.HealthChecker("test").Check(context.Background()).Status)

	fx := seedRestrictedCategory(t, a)

	trigger := events.NewTrigger(autoremove.EventCategoryUpdated)
	trigger.CategoryID = 1
	result, err := a.Router.Route(context.Background(), trigger)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count())
	assert.Equal(t, []int64{3}, fx.Members(11))
	assert.Equal(t, 1, fx.AuditCount())
}

func TestNew_RedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := sqliteConfig()
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Jobs.Backends = []string{config.BackendRedis, config.BackendLocal}
	cfg.Settings.Source = config.SettingsSourceRedis
	mr.HSet(cfg.Settings.RedisKey, settings.FieldChatAllowedGroups, "0")

	a := newApp(t, cfg)
	require.NotNil(t, a.Redis)
	require.NotNil(t, a.Queue)
	assert.IsType(t, &jobs.Multi{}, a.Dispatcher)
	assert.IsType(t, &settings.RedisProvider{}, a.Settings)

	seedRestrictedCategory(t, a)
	trigger := events.NewTrigger(autoremove.EventCategoryUpdated)
	trigger.CategoryID = 1
	_, err := a.Router.Route(context.Background(), trigger)
	require.NoError(t, err)

	queued, err := a.Queue.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), queued)
}

func TestNew_DatabaseError(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Database.Driver = "mysql"

	logger, _ := test.NewNullLogger()
	_, err := New(context.Background(), cfg, logger)
	assert.ErrorContains(t, err, "failed to connect to database")
}

func TestNew_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := sqliteConfig()
	cfg.Redis.URL = "redis://" + addr
	cfg.Jobs.Backends = []string{config.BackendRedis}

	logger, _ := test.NewNullLogger()
	_, err := New(context.Background(), cfg, logger)
	assert.ErrorContains(t, err, "failed to connect to redis")
}
