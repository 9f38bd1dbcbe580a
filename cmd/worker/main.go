// Package main is the entry point of the Explo Progression Hub worker.
// The worker runs periodic maintenance jobs, most importantly the badge
// sweep that awards time-based badges (streak thresholds crossed by the
// calendar, not by an explorer action).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/explo-hub/explo-progression-hub/config"
	"github.com/explo-hub/explo-progression-hub/internal/application/saga"
	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/content"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/messaging"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/persistence/memory"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/persistence/postgres"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/persistence/redis"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/scheduler"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/scheduler/jobs"
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
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Explo Progression Hub worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled, worker has nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. LEARNING CONTENT CATALOG
	// ─────────────────────────────────────────────────────────────────────────
	var modules *catalog.Catalog
	if cfg.Content.CatalogPath != "" {
		modules, _, err = content.LoadFile(cfg.Content.CatalogPath)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
	} else {
		modules, _ = content.Default()
	}
	log.Info("catalog ready", "modules", modules.Len())

	// ─────────────────────────────────────────────────────────────────────────
	// 4. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, displayed-badge state will be process-local", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. BADGE AWARD FLOW
	// ─────────────────────────────────────────────────────────────────────────
	explorerRepo := postgres.NewExplorerRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)
	drillRepo := postgres.NewDrillRepository(dbConn)
	earnedRepo := postgres.NewEarnedBadgeRepository(dbConn)

	var displayedStore badge.DisplayedStore
	if redisCache != nil {
		displayedStore = redis.NewDisplayedBadgeStore(redisCache)
	} else {
		displayedStore = memory.NewDisplayedBadgeStore()
	}

	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() { _ = eventBus.Close() }()

	badgeFlow := saga.NewBadgeAwardFlow(
		modules,
		badge.NewEngine(badge.DefaultCatalog()),
		progressRepo,
		drillRepo,
		streakRepo,
		explorerRepo,
		earnedRepo,
		displayedStore,
		eventBus,
		log,
		saga.DefaultBadgeAwardFlowConfig(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. SCHEDULER & JOBS
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(log)

	sweepCfg := jobs.DefaultBadgeSweepConfig()
	sweepCfg.Concurrency = cfg.Scheduler.MaxConcurrentJobs
	sweepCfg.ExplorerTimeout = cfg.Scheduler.JobTimeout
	badgeSweep := jobs.NewBadgeSweepJob(explorerRepo, badgeFlow, log, sweepCfg)

	if err := sched.Register(badgeSweep, scheduler.NewIntervalSchedule(cfg.Scheduler.BadgeSweepInterval)); err != nil {
		return fmt.Errorf("failed to register badge sweep job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("Explo Progression Hub worker is running",
		"badge_sweep_interval", cfg.Scheduler.BadgeSweepInterval.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
