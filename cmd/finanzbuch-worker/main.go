package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"finanzbuch/internal/backend"
	"finanzbuch/internal/cli"
	"finanzbuch/internal/core"
	"finanzbuch/internal/services"
	"finanzbuch/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting finanzbuch-worker", "file", cfg.DataFile)

	store := cli.OpenStore(logger, cfg.DataFile)
	clock := core.SystemClock{}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	mirror, err := cli.InitMirror(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize SQL mirror", "error", err)
		os.Exit(1)
	}
	var mirrorTarget worker.Mirror
	if mirror != nil {
		defer mirror.Close()
		mirrorTarget = mirror
	}

	exportCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid export configuration", "error", err)
		os.Exit(1)
	}
	exporter, err := backend.NewFactory(logger).CreateExporter(ctx, exportCfg)
	if err != nil {
		logger.Error("Failed to create ledger exporter", "error", err)
		os.Exit(1)
	}

	w := worker.NewMirrorWorker(store, mirrorTarget, exporter, clock)

	// catch up on changes made while the worker was down
	if err := w.SyncAll(ctx); err != nil {
		logger.Error("Startup sync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	if amqpClient != nil {
		defer amqpClient.Close()
		g.Go(func() error {
			return amqpClient.ConsumeDepotChanged(gctx, w.HandleDepotChanged)
		})
	} else {
		logger.Info("Skipping AMQP message consumption - changes are picked up by the scheduled job only")
	}

	// the worker materializes through its own service; events would only
	// come back to itself
	scheduler := worker.NewScheduler(gctx)
	materializer := services.NewDepotService(store, clock, nil)
	if err := scheduler.Add("uniform-export", cfg.ExportSchedule, w.UniformJob(materializer)); err != nil {
		logger.Error("Failed to schedule export", "error", err)
		os.Exit(1)
	}
	g.Go(scheduler.Run)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
