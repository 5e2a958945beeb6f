package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"finanzbuch/internal/cli"
	"finanzbuch/internal/core"
	apphttp "finanzbuch/internal/http"
	applog "finanzbuch/internal/log"
	"finanzbuch/internal/services"
)

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel)

	store := cli.OpenStore(logger, cfg.DataFile)

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		// the document stays authoritative without a broker
		logger.Warn("AMQP unavailable, continuing without events", "error", err)
	}

	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	depot := services.NewDepotService(store, core.SystemClock{}, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, depot, apphttp.Options{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Logger:            applog.New(applog.Config{Component: applog.ComponentHTTP, Handler: logger.Handler()}),
		Ready: func(context.Context) error {
			if _, err := os.Stat(store.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("document not accessible: %w", err)
			}
			return nil
		},
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
	})

	logger.Info("Starting finanzbuch server",
		"port", cfg.Port,
		"file", store.Path(),
		"events", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
