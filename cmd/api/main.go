package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/api/http/handlers"
	"github.com/spec-kit/backoffice/internal/bootstrap"
	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/config"
	"github.com/spec-kit/backoffice/internal/observability"
	"github.com/spec-kit/backoffice/internal/persistence"
	"github.com/spec-kit/backoffice/internal/ratelimit"
	"github.com/spec-kit/backoffice/internal/repository"
	"github.com/spec-kit/backoffice/internal/repository/memstore"
	"github.com/spec-kit/backoffice/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	probes := map[string]handlers.Pinger{}
	var (
		store   *repository.Store
		storage string
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
		storage = "postgres"
		probes["postgres"] = pg
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		db := memstore.New(clock.Real())
		db.SeedDefaultCatalog()
		store = db.Store()
		storage = "memory"
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	probes["redis"] = redis

	services, err := bootstrap.BuildServices(ctx, store, cfg, logger, clock.Real())
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	limiter := ratelimit.NewRedisLimiter(redis.Client, "ratelimit", cfg.RateLimit.Requests, cfg.RateLimit.Window())
	app := bootstrap.NewHTTPApp(services, bootstrap.HTTPOptions{
		App:       cfg.App,
		Storage:   storage,
		Probes:    probes,
		Limiter:   limiter,
		Metrics:   metrics,
		Logger:    logger,
		Scheduler: cfg.Scheduler,
	})

	var scheduler *worker.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = worker.NewScheduler(worker.ReminderJobs(services.Reminders, cfg.Scheduler), logger)
		scheduler.Start(ctx)
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Wait()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
