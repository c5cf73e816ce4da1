package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/peacetifal/peacetifal-backend/internal/batch"
	"github.com/peacetifal/peacetifal-backend/internal/reconcile"
	"github.com/peacetifal/peacetifal-backend/pkg/config"
	"github.com/peacetifal/peacetifal-backend/pkg/db"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
	"github.com/peacetifal/peacetifal-backend/pkg/metrics"
	"github.com/peacetifal/peacetifal-backend/pkg/migrate"
	"github.com/peacetifal/peacetifal-backend/pkg/redis"
)

const lockKeyFormat = "reconcile-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconcile-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reconcile-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	engine, err := reconcile.NewEngine(dbClient.DB(), logg, cfg.Reconcile.BatchSize)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile engine", err)
		os.Exit(1)
	}

	propagator, err := reconcile.NewPropagator(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create address propagator", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewBatchJobMetrics(prometheus.DefaultRegisterer)

	reconcileJob, err := batch.NewReconcileJob(batch.ReconcileJobParams{
		Logger:  logg,
		Engine:  engine,
		Metrics: metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	mirrorJob, err := batch.NewMirrorJob(batch.MirrorJobParams{
		Logger:     logg,
		Propagator: propagator,
		Metrics:    metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mirror job", err)
		os.Exit(1)
	}

	lock, err := batch.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), cfg.Reconcile.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create batch lock", err)
		os.Exit(1)
	}

	service, err := batch.NewService(batch.ServiceParams{
		Logger:   logg,
		Registry: batch.NewRegistry(reconcileJob, mirrorJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Reconcile.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create batch service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting reconcile worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconcile worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconcile worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
