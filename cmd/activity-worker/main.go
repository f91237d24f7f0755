package main

import (
	"context"
	"errors"
	"os"
	"time"

	"ledgerdash/internal/amqp"
	"ledgerdash/internal/backend"
	"ledgerdash/internal/cache"
	"ledgerdash/internal/cli"
	"ledgerdash/internal/log"
	"ledgerdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the activity worker")
		os.Exit(1)
	}

	beCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	sink, err := backend.NewFactory(logger).CreateActivitySink(context.Background(), beCfg)
	if err != nil {
		logger.Error("Failed to initialize activity sink", log.FieldError, err.Error())
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}

	w := worker.NewActivityWorker(sink, logger)
	caches := cache.NewManager(logger)
	caches.Register("activity_seen", w.Seen())
	caches.StartCleanup(10 * time.Minute)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		caches.Stop()
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err.Error())
		}
		appended, duplicates, failures := w.Stats()
		logger.Info("Activity worker totals", "appended", appended, "duplicates", duplicates, "failures", failures)
	})

	prepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = w.Prepare(prepCtx)
	cancel()
	if err != nil {
		// Appends still work on a sheet without a header row.
		logger.Warn("Failed to prepare activity sink", log.FieldError, err.Error())
	}

	logger.Info("Starting activity worker", "queue", cfg.AMQPQueue, "prefetch", cfg.WorkerPrefetch, "sheets", beCfg.SheetsEnabled)
	if err := client.ConsumeActivity(ctx, cfg.WorkerPrefetch, w.HandleActivity); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Activity worker stopped")
}
