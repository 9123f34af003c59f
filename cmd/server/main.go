package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/rpsgame/internal/api"
	"github.com/mcoot/rpsgame/internal/config"
	"github.com/mcoot/rpsgame/internal/factory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := config.NewCommand(&config.Config{}, run)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Set up logging
	logger, err := cfg.Logger(os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(ctx, cfg.Factory(logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.String("error", err.Error()))
		}
	}()

	go app.HubManager.RunJanitor(ctx, cfg.JanitorInterval)

	server := api.NewServer(app.Router(cfg.PublicURL), cfg.Server(), logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("realtime", cfg.Realtime),
		slog.String("ledger", cfg.Ledger))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
