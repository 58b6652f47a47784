package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/energysplit/internal/api"
	"github.com/eshaffer321/energysplit/internal/application/service"
	"github.com/eshaffer321/energysplit/internal/infrastructure/config"
	"github.com/eshaffer321/energysplit/internal/infrastructure/logging"
	"github.com/eshaffer321/energysplit/internal/infrastructure/storage"
)

const shutdownTimeout = 30 * time.Second

// RunServe runs the API server until ctx is cancelled or SIGINT/SIGTERM
// arrives, then shuts it down gracefully.
func RunServe(ctx context.Context, cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	asm, err := NewAssembler(cfg, "")
	if err != nil {
		return err
	}
	svc := service.NewBillingService(store, asm, logging.NewLoggerWithSystem(loggingCfg, "billing"))

	port := cfg.Server.Port
	if flags.Port > 0 {
		port = flags.Port
	}
	server := api.NewServer(api.Config{
		Port:           port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        cfg.Observability.Metrics.Enabled,
		Labels:         cfg.Allocation.CategoryLabels,
	}, svc, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
