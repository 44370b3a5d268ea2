// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/forecast, cmd/forecast-server and cmd/projection-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"forecast/assets"
	"forecast/internal/backend"
	"forecast/internal/config"
	"forecast/internal/log"
	"forecast/internal/lookup"
	"forecast/internal/scenarios"
	"forecast/internal/services"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT style
// values, names its component and installs it as the slog default. It runs
// before configuration is validated, so bad values fall back to Info and text.
func SetupLogger(w io.Writer, level, format, component string) *log.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
		Format:    format,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend opens the store selected by cfg.
// Returns the store or exits the process on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	logger = logger.WithComponent(log.ComponentStorage)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentStorage)).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", backendCfg.Type.String())
		os.Exit(1)
	}
	return res
}

// LookupLoader returns the loader and file name for the lookup tables.
// LOOKUP_FILE, when set, replaces the embedded tables.
func LookupLoader(cfg *config.Config) (*lookup.Loader, string) {
	if cfg.LookupFile == "" {
		return lookup.NewLoader(nil), assets.LookupFile
	}
	return lookup.NewLoader(os.DirFS(filepath.Dir(cfg.LookupFile))), filepath.Base(cfg.LookupFile)
}

// NewProjectionService wires the projection service from cfg.
func NewProjectionService(cfg *config.Config, reader scenarios.ScenarioReader, bundles services.BundleStore, publisher services.EventPublisher) *services.ProjectionService {
	loader, name := LookupLoader(cfg)
	return services.NewProjectionService(reader, bundles, loader, publisher).
		WithLookupFile(name).
		WithDefaultPeriodicity(cfg.DefaultPeriodicity)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
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
