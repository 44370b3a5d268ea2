package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"forecast/internal/amqp"
	"forecast/internal/cli"
	apphttp "forecast/internal/http"
	"forecast/internal/log"
	"forecast/internal/scenarios/rediscache"
	"forecast/internal/services"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "forecast-server")
	cfg := cli.LoadAndValidateConfig(logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	res := cli.InitBackend(initCtx, logger, cfg)
	initCancel()
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	store := res.Store
	var bundles services.BundleStore = store
	checks := []pinger{}
	if p, ok := store.(pinger); ok {
		checks = append(checks, p)
	}

	if cfg.RedisEnabled() {
		client, err := rediscache.NewClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, serving bundles from the store", log.FieldError, err)
		} else {
			defer client.Close()
			bundles = rediscache.New(store, client, cfg.RedisTTL)
			logger.Info("Redis bundle cache enabled", "ttl", cfg.RedisTTL)
		}
	}

	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPEventQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, projection events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "event_queue", cfg.AMQPEventQueue)
		}
	} else {
		logger.Info("AMQP disabled - projection events will not be published")
	}

	svc := cli.NewProjectionService(cfg, store, bundles, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger: logger.WithComponent(log.ComponentHTTP),
		Lister: store,
		Ready: func(ctx context.Context) error {
			for _, c := range checks {
				if err := c.Ping(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})

	var refresher *services.RefreshProcessor
	if cfg.RefreshInterval > 0 {
		refresher = services.NewRefreshProcessor(store, bundles, svc, services.RefreshProcessorConfig{
			PollInterval: cfg.RefreshInterval,
			MaxAge:       cfg.RefreshMaxAge,
			Concurrency:  cfg.WorkerConcurrency,
		})
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if refresher != nil {
			if err := refresher.Stop(ctx); err != nil {
				logger.Warn("Refresh processor stop", log.FieldError, err)
			}
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting forecast server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if refresher != nil {
		if err := refresher.Start(gctx); err != nil {
			logger.Error("Failed to start refresh processor", log.FieldError, err)
		} else {
			logger.Info("Refresh processor started", "interval", cfg.RefreshInterval, "max_age", cfg.RefreshMaxAge)
		}
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
