package main

import (
	"context"
	"os"
	"time"

	"forecast/internal/amqp"
	"forecast/internal/cli"
	"forecast/internal/log"
	"forecast/internal/scenarios/rediscache"
	"forecast/internal/services"
	"forecast/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "projection-worker")
	logger.Info("Starting projection-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the projection worker")
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	res := cli.InitBackend(initCtx, logger, cfg)
	initCancel()
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	var bundles services.BundleStore = res.Store
	if cfg.RedisEnabled() {
		client, err := rediscache.NewClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, writing bundles to the store only", log.FieldError, err)
		} else {
			defer client.Close()
			// Writes must go through the cache so the server never serves a
			// bundle this worker replaced.
			bundles = rediscache.New(res.Store, client, cfg.RedisTTL)
		}
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPEventQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	svc := cli.NewProjectionService(cfg, res.Store, bundles, amqpClient)
	w := worker.NewProjectionWorker(svc)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	ctx = log.WithContext(ctx, logger.WithComponent(log.ComponentWorker))

	logger.Info("Consuming projection requests",
		"queue", cfg.AMQPRequestQueue,
		"concurrency", cfg.WorkerConcurrency)
	if err := w.Run(ctx, amqpClient, cfg.WorkerConcurrency); err != nil {
		logger.Error("Projection worker failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
