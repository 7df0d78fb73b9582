package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/careerlift/quota/adapter/cli"
	"github.com/careerlift/quota/pkg/config"
	"github.com/careerlift/quota/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		cfg = &config.Config{AppEnv: "development", StorageBackend: config.BackendMemory}
	}

	cli.SetLogger(logger)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			// In development, allow version and help to run without storage.
			logger.Warn("failed to initialize storage, running in limited mode", "error", err)
		} else {
			logger.Error("failed to initialize storage", "error", err)
			os.Exit(1)
		}
	} else {
		defer app.Close()
		cli.SetApp(app)
	}

	cli.Execute(ctx)
}
