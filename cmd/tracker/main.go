package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/app"
	"github.com/rodrigueslp/ca-youtube-go/internal/config"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Channel analytics tracker starting...",
		zap.String("version", "1.0.0-go"),
		zap.String("log_level", cfg.Logging.Level),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	// Create context with cancellation for runtime lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Scheduler.Enabled {
		container.Scheduler.Start(ctx)
	} else {
		logger.Info("Scheduler disabled, running a single batch refresh")
		if result, runErr := container.Batch.RefreshAll(ctx); runErr != nil {
			logger.Error("Batch refresh failed", zap.Error(runErr))
		} else {
			logger.Info("Batch refresh done",
				zap.Int("total", result.TotalProcessed),
				zap.Int("success", result.SuccessCount),
				zap.Int("failed", result.FailureCount))
		}
	}

	logger.Info("Tracker started, waiting for signals...")

	sig := <-sigCh
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("Shutting down gracefully...")
	cancel()

	if cfg.Scheduler.Enabled {
		done := make(chan struct{})
		go func() {
			container.Scheduler.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			logger.Warn("Scheduler did not stop in time")
		}
	}

	logger.Info("Shutdown complete")
}
