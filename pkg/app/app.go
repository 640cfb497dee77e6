package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
	"github.com/platinummonkey/chatprune/pkg/config"
	"github.com/platinummonkey/chatprune/pkg/events"
	"github.com/platinummonkey/chatprune/pkg/jobs"
	"github.com/platinummonkey/chatprune/pkg/observability"
	"github.com/platinummonkey/chatprune/pkg/settings"
	"github.com/platinummonkey/chatprune/pkg/storage"
	"github.com/platinummonkey/chatprune/pkg/storage/sqlstore"
)

// App holds the wired components
type App struct {
	Config   *config.Config
	Logger   logrus.FieldLogger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	Conn  *sqlstore.ConnectionManager
	Store *sqlstore.Store
	Redis *redis.Client

	// Queue is set when the redis job backend is enabled
	Queue      *jobs.RedisQueue
	Dispatcher jobs.Dispatcher
	Settings   settings.Provider
	Engine     *autoremove.Engine
	Router     *events.Router
}

// New connects to the configured backends and builds the engine. ctx bounds
// the lifetime of in-process kick job workers.
func New(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (_ *App, err error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	a.Metrics = observability.NewMetrics(a.Registry)

	defer func() {
		if err != nil {
			if closeErr := a.Close(); closeErr != nil {
				logger.WithError(closeErr).Warn("Failed to release partially built app")
			}
		}
	}()

	a.Conn, err = sqlstore.NewConnectionManager(cfg.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.Store = sqlstore.NewStore(a.Conn.DB(), a.Conn.Dialect(), logger)

	if cfg.UsesBackend(config.BackendRedis) || cfg.Settings.Source == config.SettingsSourceRedis {
		a.Redis, err = storage.NewRedisClient(cfg.StorageConfig())
		if err != nil {
			return nil, err
		}
	}

	a.Dispatcher, err = a.buildDispatcher(ctx)
	if err != nil {
		return nil, err
	}

	a.Settings, err = a.buildSettings()
	if err != nil {
		return nil, err
	}

	a.Engine = autoremove.New(a.Store, a.Dispatcher, autoremove.Options{
		Logger:    logger,
		Metrics:   a.Metrics,
		KickDelay: cfg.Jobs.KickDelay,
	})
	a.Router = events.NewRouter(a.Engine, a.Settings, logger, a.Metrics)

	logger.WithFields(logrus.Fields{
		"driver":          cfg.Database.Driver,
		"job_backends":    cfg.Jobs.Backends,
		"settings_source": cfg.Settings.Source,
	}).Info("Chatprune initialized")

	return a, nil
}

func (a *App) buildDispatcher(ctx context.Context) (jobs.Dispatcher, error) {
	cfg := a.Config
	var dispatchers []jobs.Dispatcher
	for _, backend := range cfg.Jobs.Backends {
		switch backend {
		case config.BackendRedis:
			a.Queue = jobs.NewRedisQueue(a.Redis, cfg.Jobs.QueueKey)
			dispatchers = append(dispatchers, a.Queue)
		case config.BackendKafka:
			dispatchers = append(dispatchers, jobs.NewKafkaDispatcher(jobs.NewKafkaWriter(cfg.JobWriterConfig())))
		case config.BackendLocal:
			dispatchers = append(dispatchers, jobs.NewLocalDispatcher(ctx, a.Logger, cfg.Jobs.LocalWorkers, cfg.Jobs.Timeout, jobs.LogHandler(a.Logger)))
		default:
			return nil, fmt.Errorf("unknown job backend %q", backend)
		}
	}

	switch len(dispatchers) {
	case 0:
		return nil, errors.New("no job backend configured")
	case 1:
		return dispatchers[0], nil
	default:
		return jobs.NewMulti(a.Logger, cfg.Jobs.Timeout, dispatchers...), nil
	}
}

func (a *App) buildSettings() (settings.Provider, error) {
	defaults, err := a.Config.SiteDefaults()
	if err != nil {
		return nil, err
	}
	if a.Config.Settings.Source == config.SettingsSourceRedis {
		return settings.NewRedisProvider(a.Redis, a.Config.Settings.RedisKey, a.Config.Settings.CacheTTL, defaults), nil
	}
	return settings.StaticProvider{Settings: defaults}, nil
}

// HealthChecker checks the database and, when configured, Redis
func (a *App) HealthChecker(version string) *observability.HealthChecker {
	return observability.NewHealthChecker(a.Conn, a.Redis, version)
}

// Close releases dispatchers and connections
func (a *App) Close() error {
	var errs []error
	if a.Dispatcher != nil {
		if err := a.Dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close dispatcher: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if a.Conn != nil {
		if err := a.Conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
