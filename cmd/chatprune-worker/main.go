package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/chatprune/pkg/app"
	"github.com/platinummonkey/chatprune/pkg/config"
	"github.com/platinummonkey/chatprune/pkg/events"
	"github.com/platinummonkey/chatprune/pkg/httputil"
	"github.com/platinummonkey/chatprune/pkg/observability"
)

var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Worker exited with error")
		stop()
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
		MetricInterval: cfg.Observability.OTelMetricInterval,
	}, logger)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var scheduler *cron.Cron
	if cfg.Worker.SweepSchedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.Worker.SweepSchedule, func() { sweep(ctx, a, logger) }); err != nil {
			return err
		}
	}

	router := mux.NewRouter()
	observability.RegisterHealthRoutes(router, a.HealthChecker(version))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(router, a.Registry)
	}
	a.Router.RegisterRoutes(router)

	handler := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		httputil.MaxBytesMiddleware(1<<20),
	)(router)
	server := &http.Server{
		Addr:              cfg.Worker.OpsAddr,
		Handler:           otelhttp.NewHandler(handler, "chatprune-ops"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Worker.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", cfg.Worker.OpsAddr).Info("Ops server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Worker.ConsumeTriggers {
		consumer := events.NewConsumer(
			events.NewKafkaReader(cfg.TriggerReaderConfig()),
			a.Router,
			events.NewRetryPolicy(cfg.Kafka.TriggerRetry),
			logger,
		)
		defer consumer.Close()
		g.Go(func() error { return consumer.Run(gctx) })
	}

	if scheduler != nil {
		scheduler.Start()
		logger.WithField("schedule", cfg.Worker.SweepSchedule).Info("Allowed groups sweep scheduled")
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			select {
			case <-scheduler.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				a.Metrics.RecordDBStats(a.Conn.Stats())
			}
		}
	})

	g.Go(func() error { return shutdown.WaitForShutdown(gctx) })

	return g.Wait()
}

// sweep removes users outside the current chat_allowed_groups from every
// non-DM channel
func sweep(ctx context.Context, a *app.App, logger logrus.FieldLogger) {
	result, err := a.Router.Sweep(ctx)
	if err != nil {
		logger.WithError(err).Error("Allowed groups sweep failed")
		return
	}
	logger.WithField("users_removed", result.Count()).Info("Allowed groups sweep finished")
}
