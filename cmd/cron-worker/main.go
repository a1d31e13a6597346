package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/m4ssya/warehouse-backend/internal/cron"
	"github.com/m4ssya/warehouse-backend/internal/lowstock"
	"github.com/m4ssya/warehouse-backend/internal/sales"
	"github.com/m4ssya/warehouse-backend/pkg/config"
	"github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
	"github.com/m4ssya/warehouse-backend/pkg/metrics"
	"github.com/m4ssya/warehouse-backend/pkg/migrate"
	"github.com/m4ssya/warehouse-backend/pkg/redis"
)

const lockKeyFormat = "wh:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})
	ctx := context.Background()

	fatal := func(msg string, err error) {
		logg.Error(ctx, msg, err)
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config", err)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fatal("failed to bootstrap database", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		fatal("failed to run dev migrations", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		fatal("failed to bootstrap redis", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	collector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		fatal("failed to create cron lock", err)
	}

	registry, err := buildRegistry(cfg, logg, dbClient, collector)
	if err != nil {
		fatal("failed to build cron jobs", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  collector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		fatal("failed to create cron service", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "starting cron worker")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, collector *metrics.CronJobMetrics) (*cron.Registry, error) {
	salesRetention, err := cron.NewSalesRetentionJob(cron.SalesRetentionJobParams{
		Logger:     logg,
		Repository: sales.NewRepository(dbClient.DB()),
		Metrics:    collector,
		Retention:  cfg.Retention.SalesHistoryDays,
	})
	if err != nil {
		return nil, fmt.Errorf("sales retention job: %w", err)
	}

	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: lowstock.NewRepository(dbClient.DB()),
		Metrics:    collector,
	})
	if err != nil {
		return nil, fmt.Errorf("notification cleanup job: %w", err)
	}

	return cron.NewRegistry(salesRetention, notificationCleanup), nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
