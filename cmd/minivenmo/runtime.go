package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/minivenmo/internal/domain"
	apperrors "github.com/Proton-105/minivenmo/internal/errors"
	"github.com/Proton-105/minivenmo/internal/feed"
	"github.com/Proton-105/minivenmo/internal/health"
	"github.com/Proton-105/minivenmo/internal/idempotency"
	"github.com/Proton-105/minivenmo/internal/lifecycle"
	"github.com/Proton-105/minivenmo/internal/processor"
	"github.com/Proton-105/minivenmo/internal/venmo"
	"github.com/Proton-105/minivenmo/pkg/config"
	"github.com/Proton-105/minivenmo/pkg/graceful"
	"github.com/Proton-105/minivenmo/pkg/logger"
	pkgredis "github.com/Proton-105/minivenmo/pkg/redis"
)

const sentryFlushTimeout = 2 * time.Second

// runtime is everything a command needs, wired from configuration.
type runtime struct {
	cfg      *config.Config
	log      *slog.Logger
	level    *slog.LevelVar
	app      *venmo.App
	errs     *apperrors.Handler
	shutdown *lifecycle.Shutdown
}

type bootstrapOptions struct {
	configPath string
	// feed output
	out io.Writer
	// log output
	errOut io.Writer
	// watch reloads feed.emit and log.level when the config file changes
	watch bool
}

func bootstrap(ctx context.Context, opts bootstrapOptions) (*runtime, error) {
	cfg, v, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.Sentry.Enabled() {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      sentryEnvironment(cfg),
			Release:          Version,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			return nil, fmt.Errorf("init sentry: %w", err)
		}
	}

	level := new(slog.LevelVar)
	lvl, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	level.Set(lvl)

	log, logCloser := logger.New(logger.Options{
		Level:  level,
		Format: cfg.Log.Format,
		Output: opts.errOut,
		File: logger.FileOptions{
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
		Sentry:      cfg.Sentry.Enabled(),
		SentryLevel: slog.LevelError,
	})
	log = log.With(slog.String("env", cfg.AppEnv))

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("log_file", func(context.Context) error {
		return logCloser.Close()
	})
	if cfg.Sentry.Enabled() {
		shutdown.Register("sentry", func(context.Context) error {
			sentry.Flush(sentryFlushTimeout)
			return nil
		})
	}

	checker := health.NewChecker(log)

	var store idempotency.Store = idempotency.NewMemoryStore()
	if cfg.Idempotency.Backend == "redis" {
		client, err := pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store = idempotency.NewRedisStore(client, log)
		checker.AddCheck("redis", health.NewRedisChecker(client))
		shutdown.Register("redis", func(context.Context) error {
			return client.Close()
		})
	}

	charger := processor.New(cfg, idempotency.NewManager(store, log), log)
	checker.AddCheck("card_processor", health.NewProcessorChecker(charger))

	errs := apperrors.NewHandler(log, cfg.Sentry.Enabled())
	renderer := feed.NewRenderer(opts.out, cfg.Feed.Emit)
	app := venmo.NewApp(log, charger, renderer,
		venmo.WithCardPolicy(domain.NewCardPolicy(cfg.Cards.Accepted...)),
		venmo.WithErrorHandler(errs),
	)

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg, log, checker, shutdown)
	}

	if opts.watch {
		watching := config.Watch(v, func(next *config.Config, err error) {
			if err != nil {
				log.Warn("config reload rejected", slog.Any("error", err))
				return
			}

			renderer.SetEmit(next.Feed.Emit)
			if lvl, err := logger.ParseLevel(next.Log.Level); err == nil {
				level.Set(lvl)
			}
			log.Info("config reloaded",
				slog.Bool("feed_emit", next.Feed.Emit),
				slog.String("log_level", next.Log.Level),
			)
		})
		log.Debug("config watch", slog.Bool("enabled", watching))
	}

	log.Info("minivenmo started",
		slog.String("version", Version),
		slog.String("idempotency_backend", cfg.Idempotency.Backend),
		slog.Bool("metrics", cfg.Metrics.Enabled),
	)

	return &runtime{
		cfg:      cfg,
		log:      log,
		level:    level,
		app:      app,
		errs:     errs,
		shutdown: shutdown,
	}, nil
}

func startMetricsServer(ctx context.Context, cfg *config.Config, log *slog.Logger, checker *health.Checker, shutdown *lifecycle.Shutdown) {
	srvCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	srv := graceful.NewMetricsServer(log, cfg.Metrics.Addr, cfg.Metrics.ShutdownTimeout, lifecycle.NewProbes(log, checker))

	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(srvCtx)
	}()

	shutdown.Register("metrics_server", func(ctx context.Context) error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func sentryEnvironment(cfg *config.Config) string {
	if cfg.Sentry.Environment != "" {
		return cfg.Sentry.Environment
	}

	return cfg.AppEnv
}

func (rt *runtime) close(ctx context.Context) error {
	return rt.shutdown.Execute(context.WithoutCancel(ctx), rt.cfg.Metrics.ShutdownTimeout)
}
