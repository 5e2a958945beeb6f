// Package cli provides common initialization utilities shared by
// cmd/finanzbuch, cmd/finanzbuch-server and cmd/finanzbuch-worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanzbuch/internal/amqp"
	"finanzbuch/internal/config"
	"finanzbuch/internal/datafile"
	applog "finanzbuch/internal/log"
	"finanzbuch/internal/storage"
)

// SetupLogger initializes structured logging at the level named by level.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) *slog.Logger {
	lvl := applog.ParseLevel(level)
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: applog.ComponentApp,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}),
	})
	applog.SetDefault(logger)
	return logger.Logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore reads the document. An unreadable document is fatal.
func OpenStore(logger *slog.Logger, path string) *datafile.Store {
	store, err := datafile.Open(path)
	if err != nil {
		logger.Error("Failed to read document", "error", err, "path", path)
		os.Exit(1)
	}
	logger.Debug("Document loaded", "path", path)
	return store
}

// InitMirror opens the SQL mirror, or returns nil when none is configured.
func InitMirror(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*storage.Repository, error) {
	if !cfg.MirrorEnabled() {
		logger.Info("SQL mirror disabled - no MIRROR_DRIVER provided")
		return nil, nil
	}
	repo, err := storage.Open(ctx, cfg.MirrorDriver, cfg.MirrorDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s mirror: %w", cfg.MirrorDriver, err)
	}
	logger.Info("SQL mirror initialized", "driver", cfg.MirrorDriver)
	return repo, nil
}

// InitAMQP connects to the broker, or returns nil when AMQP is disabled.
func InitAMQP(logger *slog.Logger, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled - depot changes will not be published")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, err
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
