// Package main is the entry point of the Explo Progression Hub API
// server. It wires the catalog, the progression state machine, streaks,
// drills and the badge engine behind the REST interface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/explo-hub/explo-progression-hub/config"
	"github.com/explo-hub/explo-progression-hub/internal/application/command"
	"github.com/explo-hub/explo-progression-hub/internal/application/eventhandler"
	"github.com/explo-hub/explo-progression-hub/internal/application/query"
	"github.com/explo-hub/explo-progression-hub/internal/application/saga"
	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/entitlement"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/content"
	entclient "github.com/explo-hub/explo-progression-hub/internal/infrastructure/entitlement"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/messaging"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/persistence/memory"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/persistence/postgres"
	"github.com/explo-hub/explo-progression-hub/internal/infrastructure/persistence/redis"
	httpapi "github.com/explo-hub/explo-progression-hub/internal/interface/http"
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
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Explo Progression Hub API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. LEARNING CONTENT CATALOG
	// ─────────────────────────────────────────────────────────────────────────
	var (
		modules      *catalog.Catalog
		displayOrder catalog.DisplayOrder
	)
	if cfg.Content.CatalogPath != "" {
		modules, displayOrder, err = content.LoadFile(cfg.Content.CatalogPath)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		log.Info("catalog loaded", "path", cfg.Content.CatalogPath, "modules", modules.Len())
	} else {
		modules, displayOrder = content.Default()
		log.Info("using built-in catalog", "modules", modules.Len())
	}

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

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, board caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	explorerRepo := postgres.NewExplorerRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)
	drillRepo := postgres.NewDrillRepository(dbConn)
	earnedRepo := postgres.NewEarnedBadgeRepository(dbConn)

	var displayedStore badge.DisplayedStore
	var boardCache query.ModuleBoardCache
	if redisCache != nil {
		displayedStore = redis.NewDisplayedBadgeStore(redisCache)
		boardCache = redis.NewBoardCache(redisCache, redis.TTLBoardCache, log)
	} else {
		displayedStore = memory.NewDisplayedBadgeStore()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ENTITLEMENT GATE
	// ─────────────────────────────────────────────────────────────────────────
	var gate entitlement.Gate
	if cfg.Entitlement.Enabled {
		gate = entclient.NewHTTPGate(entclient.ClientConfig{
			BaseURL: cfg.Entitlement.BaseURL,
			APIKey:  cfg.Entitlement.APIKey,
			Timeout: cfg.Entitlement.RequestTimeout,
			Logger:  log,
		})
		log.Info("entitlement gate enabled", "base_url", cfg.Entitlement.BaseURL)
	} else {
		gate = entclient.NewStaticGate()
		log.Info("entitlement gate disabled, all content allowed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	badgeCatalog := badge.DefaultCatalog()
	badgeFlow := saga.NewBadgeAwardFlow(
		modules,
		badge.NewEngine(badgeCatalog),
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

	registerExplorer := command.NewRegisterExplorerHandler(explorerRepo, log)
	submitResponse := command.NewSubmitResponseHandler(
		modules, explorerRepo, progressRepo, streakRepo, gate, badgeFlow, eventBus, log)
	reviewSubmission := command.NewReviewSubmissionHandler(
		modules, explorerRepo, progressRepo, badgeFlow, eventBus, log)
	recordDrill := command.NewRecordDrillHandler(
		drillRepo, streakRepo, gate, badgeFlow, eventBus, log)
	markBadgesDisplayed := command.NewMarkBadgesDisplayedHandler(badgeCatalog, displayedStore, log)

	getModuleBoard := query.NewGetModuleBoardHandler(
		modules, displayOrder, explorerRepo, progressRepo, streakRepo, gate, boardCache, log)
	getBadgeBoard := query.NewGetBadgeBoardHandler(badgeFlow, earnedRepo)
	getDrillStats := query.NewGetDrillStatsHandler(drillRepo, gate)
	getPendingReviews := query.NewGetPendingReviewsHandler(modules, progressRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. EVENT SUBSCRIPTIONS
	// ─────────────────────────────────────────────────────────────────────────
	if boardCache != nil {
		onDefiCompleted := eventhandler.NewOnDefiCompletedHandler(boardCache, log)
		onDrillFinished := eventhandler.NewOnDrillFinishedHandler(boardCache, log)

		// Module completion always rides on a defi completion, so the
		// defi handler alone keeps the board cache fresh.
		subscriptions := map[shared.EventType]shared.EventHandler{
			shared.EventDefiCompleted: onDefiCompleted.Handle,
			shared.EventDrillFinished: onDrillFinished.Handle,
		}
		for eventType, handler := range subscriptions {
			if err := eventBus.Subscribe(eventType, handler); err != nil {
				return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpapi.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	server := httpapi.NewServer(serverCfg, httpapi.Dependencies{
		RegisterExplorer:    registerExplorer,
		SubmitResponse:      submitResponse,
		ReviewSubmission:    reviewSubmission,
		RecordDrill:         recordDrill,
		MarkBadgesDisplayed: markBadgesDisplayed,
		GetModuleBoard:      getModuleBoard,
		GetBadgeBoard:       getBadgeBoard,
		GetDrillStats:       getDrillStats,
		GetPendingReviews:   getPendingReviews,
		Logger:              log,
		HealthChecker: &healthChecker{
			db:    dbConn,
			cache: redisCache,
		},
	})

	errCh := server.StartAsync()
	log.Info("Explo Progression Hub API is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker aggregates dependency health for the probe endpoints.
type healthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

func (h *healthChecker) Check(ctx context.Context) httpapi.HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := httpapi.HealthStatus{
		Healthy: true,
		Ready:   true,
		Checks:  make(map[string]string),
	}

	if err := h.db.Ping(checkCtx); err != nil {
		status.Healthy = false
		status.Ready = false
		status.Message = "database unreachable"
		status.Checks["database"] = err.Error()
	} else {
		status.Checks["database"] = "ok"
	}

	// A Redis outage degrades caching only; it never fails readiness.
	if h.cache != nil {
		if err := h.cache.Ping(checkCtx); err != nil {
			status.Checks["redis"] = err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	return status
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
