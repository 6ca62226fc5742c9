// Package main - entry point for the Prodigal Engagement Hub API server.
//
// The server exposes the REST API: activity submission, user/team stats,
// the leaderboard, CSV export and the PIN-protected admin endpoints.
// Achievement backfill runs in the separate worker binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/prodigal-hub/engagement-hub/config"
	"github.com/prodigal-hub/engagement-hub/internal/application/command"
	"github.com/prodigal-hub/engagement-hub/internal/application/query"
	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/infrastructure/persistence/postgres"
	"github.com/prodigal-hub/engagement-hub/internal/infrastructure/persistence/redis"
	httpapi "github.com/prodigal-hub/engagement-hub/internal/interface/http"
	"github.com/prodigal-hub/engagement-hub/internal/interface/http/handlers"
	"github.com/prodigal-hub/engagement-hub/pkg/logger"
	"github.com/prodigal-hub/engagement-hub/pkg/retry"
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
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Prodigal Engagement Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	// The database container may still be starting; retry with backoff.
	dbConn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := conn.Ping(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	},
		retry.WithMaxAttempts(10),
		retry.WithInitialDelay(500*time.Millisecond),
		retry.WithMaxDelay(10*time.Second),
		retry.WithRetryIf(func(error) bool { return true }),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database not ready, retrying",
				logger.Int("attempt", attempt), logger.Err(err))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	log.Info("running database migrations")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REPOSITORIES & SEED DATA
	// ─────────────────────────────────────────────────────────────────────────
	activityRepo := postgres.NewActivityRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	typeRepo := postgres.NewTypeRepository(dbConn)
	rosterRepo := postgres.NewRosterRepository(dbConn)

	// Seeding is idempotent: existing rows (including admin price edits)
	// are left untouched.
	if err := typeRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed activity types: %w", err)
	}
	if err := rosterRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed teams: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional, leaderboard cache)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled && cfg.Features.IsEnabled(config.FeatureLeaderboardCache) {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// The leaderboard rebuilds from PostgreSQL on every request
			// when the cache is down; degraded but correct.
			log.Warn("failed to connect to Redis, leaderboard caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. DOMAIN SERVICES & APPLICATION HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	stats := engagement.NewStatsCalculator()
	rules := engagement.DefaultRules()
	evaluator := engagement.NewEvaluator(rules)

	submitHandler := command.NewSubmitActivitiesHandler(
		activityRepo, achievementRepo, typeRepo, rosterRepo, stats, evaluator)
	manageActivityHandler := command.NewManageActivityHandler(activityRepo, stats)
	manageRosterHandler := command.NewManageRosterHandler(rosterRepo)
	manageTypesHandler := command.NewManageTypesHandler(typeRepo)
	backfillHandler := command.NewBackfillAchievementsHandler(
		activityRepo, achievementRepo, stats, evaluator)

	userStatsHandler := query.NewGetUserStatsHandler(
		activityRepo, achievementRepo, typeRepo, rosterRepo, stats, rules)
	teamStatsHandler := query.NewGetTeamStatsHandler(activityRepo, rosterRepo, stats)

	var queryCache query.LeaderboardCache
	if leaderboardCache != nil {
		queryCache = leaderboardCache
	}
	leaderboardHandler := query.NewGetLeaderboardHandler(activityRepo, rosterRepo, stats, queryCache)
	exportHandler := query.NewExportCSVHandler(activityRepo, typeRepo, rosterRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HEALTH CHECKS & ADMIN AUTH
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	adminAuth := handlers.NewAdminPINAuth(cfg.Admin.PINHash, cfg.Admin.SessionTTL)
	if adminAuth == nil {
		log.Warn("ADMIN_PIN_HASH not set, admin API is disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	deps := httpapi.Dependencies{
		SubmitActivitiesHandler:     submitHandler,
		ManageActivityHandler:       manageActivityHandler,
		ManageRosterHandler:         manageRosterHandler,
		ManageTypesHandler:          manageTypesHandler,
		BackfillAchievementsHandler: backfillHandler,
		GetUserStatsHandler:         userStatsHandler,
		GetTeamStatsHandler:         teamStatsHandler,
		GetLeaderboardHandler:       leaderboardHandler,
		ExportCSVHandler:            exportHandler,
		RosterReader:                rosterRepo,
		TypeReader:                  typeRepo,
		AdminAuth:                   adminAuth,
		Features:                    cfg.Features,
		HealthChecker:               healthChecker,
		Logger:                      log,
	}
	if leaderboardCache != nil {
		deps.LeaderboardCache = leaderboardCache
	}

	server := httpapi.NewServer(httpapi.ConfigFrom(cfg.HTTP), deps)
	errCh := server.StartAsync()

	log.Info("Prodigal Engagement Hub API is running", logger.String("address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger builds the process logger from the observability config.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}
