// Package main is the entry point for the Class Routine Hub daemon.
//
// The daemon keeps an in-memory copy of the campus class schedule, refreshes
// it from the campus feed in the background, and serves timetable views,
// statistics and the free-room finder over a REST API.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: schedule and routine logic without external dependencies
// - Application: the routine engine orchestrating snapshots and caches
// - Infrastructure: feed client, persistence, background jobs
// - Interface: HTTP handlers
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/campus-hub/class-routine-hub/config"
	"github.com/campus-hub/class-routine-hub/internal/application/engine"
	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/internal/infrastructure/external/campus"
	"github.com/campus-hub/class-routine-hub/internal/infrastructure/persistence/postgres"
	"github.com/campus-hub/class-routine-hub/internal/infrastructure/persistence/redis"
	"github.com/campus-hub/class-routine-hub/internal/infrastructure/scheduler"
	"github.com/campus-hub/class-routine-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/campus-hub/class-routine-hub/internal/interface/http"
	"github.com/campus-hub/class-routine-hub/internal/interface/http/handlers"
	"github.com/campus-hub/class-routine-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Class Routine Hub",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"storage", string(cfg.App.StorageBackend),
	)

	appLog := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SNAPSHOT STORE
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)

	var store schedule.SnapshotStore

	switch cfg.App.StorageBackend {
	case config.StoragePostgres:
		log.Info("connecting to database...")
		dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if cfg.Database.AutoMigrate {
			log.Info("running database migrations...")
			migrator := postgres.NewMigrator(dbConn)
			if err := migrator.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		store = postgres.NewSnapshotStore(dbConn)
		healthChecker.AddCheck("database", handlers.NewPingCheck(dbConn))
		log.Info("database connection established")

	case config.StorageRedis:
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer func() {
			log.Info("closing Redis connection...")
			_ = cache.Close()
		}()

		store = redis.NewSnapshotStore(cache, "")
		healthChecker.AddCheck("redis", handlers.NewPingCheck(cache))
		log.Info("Redis connection established")

	case config.StorageNone:
		log.Info("snapshot persistence disabled; cold starts wait for the feed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. CAMPUS FEED CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	feedConfig := campus.DefaultClientConfig(cfg.Feed.BaseURL)
	feedConfig.RoutinePath = cfg.Feed.RoutinePath
	feedConfig.APIKey = cfg.Feed.APIKey
	feedConfig.Timeout = cfg.Feed.RequestTimeout
	feedConfig.RateLimiterConfig.RequestsPerSecond = cfg.Feed.RequestsPerSecond
	feedConfig.RateLimiterConfig.BurstSize = cfg.Feed.BurstSize
	feedConfig.Logger = log
	feedConfig.Debug = cfg.App.Debug

	feedClient := campus.NewClient(feedConfig)
	healthChecker.AddCheck("feed", handlers.NewFeedCheck(feedClient))

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ROUTINE ENGINE
	// ─────────────────────────────────────────────────────────────────────────
	eng := engine.New(feedClient, store, appLog)
	healthChecker.AddCheck("snapshot", handlers.NewSnapshotCheck(eng))

	if err := eng.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap engine: %w", err)
	}

	// The initial fetch may fail when the feed is down. The stored snapshot
	// keeps the service usable, so a failure here is not fatal.
	if err := eng.Refresh(ctx); err != nil {
		log.Warn("initial feed refresh failed", "error", err)
	}
	if info, ok := eng.Snapshot(); ok {
		log.Info("serving schedule snapshot",
			"version", info.Version,
			"sessions", info.SessionCount,
		)
	} else {
		log.Warn("no schedule snapshot available yet")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. BACKGROUND REFRESH
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler

	if cfg.Scheduler.Enabled {
		schedConfig := scheduler.DefaultSchedulerConfig()
		schedConfig.Logger = log
		schedConfig.Timezone = cfg.App.Location
		sched = scheduler.NewScheduler(schedConfig)

		refreshJob := jobs.NewRefreshRoutineJob(eng, log, jobs.RefreshRoutineConfig{
			Timeout: cfg.Scheduler.JobTimeout,
		})
		if err := sched.Register(refreshJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RefreshInterval)); err != nil {
			return fmt.Errorf("failed to register refresh job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()

		log.Info("background refresh scheduled", "interval", cfg.Scheduler.RefreshInterval.String())
	} else {
		log.Info("scheduler disabled; snapshot refreshes only via the admin endpoint")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.AdminKey = cfg.HTTP.AdminKey

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Engine:        eng,
		Scheduler:     sched,
		Logger:        appLog,
		HealthChecker: healthChecker,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", server.Address())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger configures the process-wide structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
