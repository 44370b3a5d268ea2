package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// postgresSchema mirrors the SQLite migrations. Documents stay JSON text so
// both backends share one set of queries.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS scenarios (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    document TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS projection_bundles (
    scenario_id BIGINT PRIMARY KEY,
    bundle_id TEXT NOT NULL,
    config_json TEXT,
    rows_json TEXT NOT NULL DEFAULT '[]',
    row_count BIGINT NOT NULL DEFAULT 0,
    generated_at TEXT,
    saved_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_projection_bundles_generated_at ON projection_bundles(generated_at);
`

// PostgresOptions control how long NewPostgresRepository waits for the
// database to come up.
type PostgresOptions struct {
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultPostgresOptions() PostgresOptions {
	return PostgresOptions{MaxRetries: 30, RetryDelay: 2 * time.Second}
}

// NormalizePostgresURL accepts the postgresql:// scheme and disables TLS
// unless sslmode is given.
func NormalizePostgresURL(databaseURL string) string {
	databaseURL = strings.TrimSpace(databaseURL)
	if rest, ok := strings.CutPrefix(databaseURL, "postgresql://"); ok {
		databaseURL = "postgres://" + rest
	}
	if databaseURL != "" && !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL += separator + "sslmode=disable"
	}
	return databaseURL
}

// NewPostgresRepository connects through pgx, retrying until the server
// answers, and creates the schema.
func NewPostgresRepository(ctx context.Context, databaseURL string, opts PostgresOptions) (*Repository, error) {
	config, err := pgx.ParseConfig(NormalizePostgresURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	db := stdlib.OpenDB(*config)
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			break
		}
		if attempt >= opts.MaxRetries {
			db.Close()
			return nil, fmt.Errorf("connect to postgres after %d attempts: %w", attempt, err)
		}
		slog.WarnContext(ctx, "Postgres not ready, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxRetries,
			"retry_in", opts.RetryDelay,
			"error", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	slog.Debug("Postgres schema ready", "host", config.Host, "database", config.Database)

	return &Repository{
		db:      db,
		queries: NewPostgres(db),
		driver:  "postgres",
	}, nil
}
