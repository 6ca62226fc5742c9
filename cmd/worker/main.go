// Package main - точка входа для фоновых процессов (Worker) Prodigal Engagement Hub.
//
// Worker отвечает за периодические задачи:
// - Переоценка достижений всех пользователей (backfill)
//
// Backfill нужен, потому что стрик-достижения могут «дозреть» без
// каких-либо новых записей: правила меняются, данные импортируются
// задним числом. Периодический прогон гарантирует, что каждый
// заработанный бейдж рано или поздно будет выдан, а повторная выдача
// невозможна на уровне БД.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"

	"github.com/prodigal-hub/engagement-hub/config"
	"github.com/prodigal-hub/engagement-hub/internal/application/command"
	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/infrastructure/persistence/postgres"
	"github.com/prodigal-hub/engagement-hub/pkg/logger"
	"github.com/prodigal-hub/engagement-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	log := logger.New(opts).With(logger.Component("worker"))

	log.Info("starting Prodigal Engagement Hub Worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.Duration("backfill_interval", cfg.Scheduler.BackfillInterval),
	)

	if !cfg.Scheduler.Enabled || !cfg.Features.IsEnabled(config.FeatureBackfillWorker) {
		log.Info("backfill worker is disabled, exiting")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	// База может подниматься дольше воркера, поэтому ждём с backoff.
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

	// Worker также должен иметь актуальную схему
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ИНИЦИАЛИЗАЦИЯ BACKFILL HANDLER
	// ─────────────────────────────────────────────────────────────────────────
	activityRepo := postgres.NewActivityRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)

	backfill := command.NewBackfillAchievementsHandler(
		activityRepo,
		achievementRepo,
		engagement.NewStatsCalculator(),
		engagement.NewEvaluator(engagement.DefaultRules()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	// Стрики считаются по календарным дням UTC, поэтому и планировщик
	// живёт в UTC.
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	runBackfill := func() {
		jobCtx, cancel := context.WithTimeout(ctx, cfg.Scheduler.JobTimeout)
		defer cancel()

		start := time.Now()
		result, err := backfill.Handle(jobCtx, command.BackfillAchievementsCommand{})
		if err != nil {
			log.Error("backfill run failed", logger.Err(err))
			return
		}

		log.Info("backfill run completed",
			logger.Int("users_processed", result.UsersProcessed),
			logger.Int("achievements_granted", result.AchievementsGranted),
			logger.Int("user_errors", len(result.Errors)),
			logger.Latency(time.Since(start)),
		)

		// Ошибки по отдельным пользователям не валят весь прогон,
		// но каждую видно в логах.
		for userID, userErr := range result.Errors {
			log.Warn("backfill skipped user", logger.UserID(userID), logger.Err(userErr))
		}
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Scheduler.BackfillInterval),
		gocron.NewTask(runBackfill),
		gocron.WithName("achievement-backfill"),
		// Прогоны не должны накладываться друг на друга
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule backfill job: %w", err)
	}

	scheduler.Start()
	log.Info("Prodigal Engagement Hub Worker is running")

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", logger.String("signal", sig.String()))

	if err := scheduler.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}
