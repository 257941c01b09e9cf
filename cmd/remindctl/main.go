package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/la-reminders/internal/app"
	"github.com/angelmondragon/la-reminders/internal/bootstrap"
	"github.com/angelmondragon/la-reminders/internal/console"
	"github.com/angelmondragon/la-reminders/pkg/config"
	"github.com/angelmondragon/la-reminders/pkg/logger"
)

const (
	serviceName     = "remindctl"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Logs go to stderr so they never interleave with the prompt on stdout.
	logg := logger.New(logger.Options{ServiceName: serviceName, Output: os.Stderr})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	stack, err := bootstrap.Open(ctx, cfg, logg, prometheus.NewRegistry())
	requireResource(ctx, logg, "stores", err)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := stack.Close(closeCtx); err != nil {
			logg.Error(closeCtx, "error closing stores", err)
		}
	}()

	term, err := console.New()
	requireResource(ctx, logg, "console", err)
	defer term.Close()

	flows, err := app.New(stack.Service, term.Prompt, logg)
	requireResource(ctx, logg, "app", err)

	if err := console.NewMenu(term, flows).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "console stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
