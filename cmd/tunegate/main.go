package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tunegate/tunegate"
	_ "github.com/tunegate/tunegate/connector/connectors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := tunegate.NewSlogServiceLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	configPath := os.Getenv("TUNEGATE_CONFIG")
	conf, err := tunegate.LoadConfig(configPath)
	if err != nil {
		logger.Error("Failed to load configuration", err, nil)
		os.Exit(1)
	}

	engine := tunegate.New(conf, logger, ctx, tunegate.Dependencies{
		Hooks: tunegate.LoggingHooks(logger),
	})

	go func() {
		if err := engine.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Engine stopped", err, nil)
			stop()
		}
	}()

	api := tunegate.NewAPI(engine, logger)
	if err := api.Serve(ctx); err != nil {
		logger.Error("Server stopped", err, nil)
		os.Exit(1)
	}

	logger.Info("Shutdown complete", nil)
}
