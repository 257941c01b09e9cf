package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/la-reminders/internal/bootstrap"
	"github.com/angelmondragon/la-reminders/internal/cron"
	"github.com/angelmondragon/la-reminders/pkg/config"
	"github.com/angelmondragon/la-reminders/pkg/logger"
	"github.com/angelmondragon/la-reminders/pkg/metrics"
	"github.com/angelmondragon/la-reminders/pkg/redis"
)

const (
	serviceName     = "reminders"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	stack, err := bootstrap.Open(ctx, cfg, logg, prometheus.DefaultRegisterer)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stores", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := stack.Close(closeCtx); err != nil {
			logg.Error(closeCtx, "error closing stores", err)
		}
		if path := cfg.Metrics.TextfilePath; path != "" {
			if err := metrics.WriteTextfile(path, prometheus.DefaultGatherer); err != nil {
				logg.Error(closeCtx, "failed to write metrics textfile", err)
			}
		}
	}()

	lock, closeLock, err := schedulerLock(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create scheduler lock", err)
		os.Exit(1)
	}
	defer closeLock()

	dueJob, err := cron.NewDueRemindersJob(cron.DueRemindersJobParams{
		Logger:     logg,
		Service:    stack.Service,
		Dispatcher: stack.Dispatcher,
		Reminders:  stack.Reminders,
		Metrics:    stack.Consistency,
	})
	if err != nil {
		logg.Error(ctx, "failed to create due reminders job", err)
		os.Exit(1)
	}
	sweepJob, err := cron.NewOrphanSweepJob(cron.OrphanSweepJobParams{
		Logger:    logg,
		Documents: stack.Documents,
		Reminders: stack.Reminders,
		Metrics:   stack.Consistency,
		Grace:     cfg.Dispatch.OrphanGrace,
	})
	if err != nil {
		logg.Error(ctx, "failed to create orphan sweep job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(dueJob)
	registry.RegisterEvery(sweepJob, cfg.Dispatch.SweepInterval)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Dispatch.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create scheduler", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting reminder scheduler")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reminder scheduler stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "reminder scheduler shutting down gracefully")
}

// schedulerLock prefers a redis lock so two desktop sessions never fire the
// same reminder twice. Without redis a process-local lock is used.
func schedulerLock(ctx context.Context, cfg *config.Config, logg *logger.Logger) (cron.Lock, func(), error) {
	client, err := redis.New(ctx, cfg.Redis, logg)
	if errors.Is(err, redis.ErrDisabled) {
		logg.Info(ctx, "redis not configured, using local scheduler lock")
		return &cron.LocalLock{}, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}
	lock, err := cron.NewRedisLock(client, client.LockKey("scheduler", cfg.App.Env), cfg.Dispatch.LockTTL)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return lock, closeFn, nil
}
