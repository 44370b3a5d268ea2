package backend

import (
	"context"
	"fmt"
	"log/slog"

	"forecast/internal/scenarios/memory"
	"forecast/internal/storage"
)

const defaultDataDirectory = "data"

type factory struct {
	logger *slog.Logger
}

// NewFactory returns a Factory that logs through logger, or slog.Default
// when logger is nil.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &factory{logger: logger}
}

func (f *factory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Type == MemoryBackend {
		dir := cfg.DataDirectory
		if dir == "" {
			dir = defaultDataDirectory
		}
		store, err := memory.NewFromDir(dir)
		if err != nil {
			return nil, fmt.Errorf("load scenarios from %s: %w", dir, err)
		}
		f.logger.Info("Initialized memory backend", "data_directory", dir)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil
	}

	repo, err := f.openDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Type, err)
	}
	seeded, err := f.seedIfEmpty(ctx, repo, cfg.DataDirectory)
	if err != nil {
		repo.Close()
		return nil, err
	}
	f.logger.Info("Initialized database backend", "type", cfg.Type.String(), "seeded", seeded)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *factory) openDatabase(ctx context.Context, cfg Config) (*storage.Repository, error) {
	if cfg.Type == PostgresBackend {
		return storage.NewPostgresRepository(ctx, cfg.DatabaseURL, storage.DefaultPostgresOptions())
	}
	return storage.NewSQLiteRepository(cfg.SQLiteDBPath)
}

// seedIfEmpty imports the scenario files of dir into an empty database and
// returns how many went in.
func (f *factory) seedIfEmpty(ctx context.Context, repo *storage.Repository, dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	count, err := repo.CountScenarios(ctx)
	if err != nil {
		return 0, fmt.Errorf("count scenarios: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	files, err := memory.NewFromDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read seed scenarios: %w", err)
	}
	list := files.All()
	if len(list) == 0 {
		return 0, nil
	}
	if err := repo.ImportScenarios(ctx, list); err != nil {
		return 0, fmt.Errorf("import seed scenarios: %w", err)
	}
	return len(list), nil
}
