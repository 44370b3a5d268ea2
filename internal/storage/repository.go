package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"forecast/internal/core"
	"forecast/internal/projection"
	"forecast/internal/scenarios"

	_ "modernc.org/sqlite"
)

// Repository stores scenario documents and projection bundles as JSON text in
// SQLite or Postgres.
type Repository struct {
	db      *sql.DB
	queries *Queries
	driver  string
}

var _ scenarios.Store = (*Repository)(nil)

// NewSQLiteRepository opens dbPath, creating its directory, and migrates the
// schema.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &Repository{
		db:      db,
		queries: New(db),
		driver:  "sqlite",
	}, nil
}

// Ping verifies the connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetScenario implements scenarios.ScenarioReader
func (r *Repository) GetScenario(ctx context.Context, id int) (*core.Scenario, error) {
	row, err := r.queries.GetScenario(ctx, int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scenario %d: %w", id, core.ErrScenarioNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get scenario: %w", err)
	}

	var sc core.Scenario
	if err := json.Unmarshal([]byte(row.Document), &sc); err != nil {
		return nil, fmt.Errorf("decode scenario %d: %w", id, err)
	}
	sc.ID = int(row.ID)
	return &sc, nil
}

// SaveScenario implements scenarios.ScenarioWriter
func (r *Repository) SaveScenario(ctx context.Context, sc *core.Scenario) error {
	if sc == nil {
		return errors.New("nil scenario")
	}
	doc, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	if err := r.queries.UpsertScenario(ctx, ScenarioRow{ID: int64(sc.ID), Name: sc.Name, Document: string(doc)}); err != nil {
		return fmt.Errorf("save scenario: %w", err)
	}

	slog.DebugContext(ctx, "Scenario saved",
		"backend", r.driver,
		"scenario_id", sc.ID,
		"accounts", len(sc.Accounts),
		"transactions", len(sc.Transactions))
	return nil
}

// ImportScenarios saves every scenario in one transaction.
func (r *Repository) ImportScenarios(ctx context.Context, list []core.Scenario) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, sc := range list {
		doc, err := json.Marshal(sc)
		if err != nil {
			return fmt.Errorf("encode scenario %d: %w", sc.ID, err)
		}
		if err := q.UpsertScenario(ctx, ScenarioRow{ID: int64(sc.ID), Name: sc.Name, Document: string(doc)}); err != nil {
			return fmt.Errorf("import scenario %d: %w", sc.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Scenarios imported", "backend", r.driver, "count", len(list))
	return nil
}

// CountScenarios returns the number of stored scenarios.
func (r *Repository) CountScenarios(ctx context.Context) (int, error) {
	n, err := r.queries.CountScenarios(ctx)
	if err != nil {
		return 0, fmt.Errorf("count scenarios: %w", err)
	}
	return int(n), nil
}

// ListScenarios implements scenarios.ScenarioLister
func (r *Repository) ListScenarios(ctx context.Context) ([]scenarios.Summary, error) {
	rows, err := r.queries.ListScenarios(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	out := make([]scenarios.Summary, len(rows))
	for i, row := range rows {
		out[i] = scenarios.Summary{ID: int(row.ID), Name: row.Name}
	}
	return out, nil
}

// SaveProjectionBundle implements scenarios.ProjectionWriter
func (r *Repository) SaveProjectionBundle(ctx context.Context, scenarioID int, b scenarios.Bundle) error {
	rows := b.Rows
	if rows == nil {
		rows = []core.ProjectionRecord{}
	}
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode projection rows: %w", err)
	}

	row := BundleRow{
		ScenarioID: int64(scenarioID),
		BundleID:   b.ID.String(),
		RowsJSON:   string(rowsJSON),
		RowCount:   int64(len(rows)),
	}
	if b.Config != nil {
		cfg, err := json.Marshal(b.Config)
		if err != nil {
			return fmt.Errorf("encode projection config: %w", err)
		}
		row.ConfigJSON = sql.NullString{String: string(cfg), Valid: true}
	}
	if b.GeneratedAt != nil {
		row.GeneratedAt = sql.NullString{String: b.GeneratedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	if err := r.queries.UpsertBundle(ctx, row); err != nil {
		return fmt.Errorf("save projection bundle: %w", err)
	}

	slog.InfoContext(ctx, "Projection bundle saved",
		"backend", r.driver,
		"scenario_id", scenarioID,
		"bundle_id", row.BundleID,
		"rows", row.RowCount)
	return nil
}

// GetProjectionBundle implements scenarios.ProjectionReader
func (r *Repository) GetProjectionBundle(ctx context.Context, scenarioID int) (scenarios.Bundle, error) {
	row, err := r.queries.GetBundle(ctx, int64(scenarioID))
	if errors.Is(err, sql.ErrNoRows) {
		return scenarios.Bundle{}, fmt.Errorf("scenario %d: %w", scenarioID, scenarios.ErrBundleNotFound)
	}
	if err != nil {
		return scenarios.Bundle{}, fmt.Errorf("get projection bundle: %w", err)
	}

	var b scenarios.Bundle
	if b.ID, err = uuid.Parse(row.BundleID); err != nil {
		return scenarios.Bundle{}, fmt.Errorf("parse bundle id: %w", err)
	}
	if err := json.Unmarshal([]byte(row.RowsJSON), &b.Rows); err != nil {
		return scenarios.Bundle{}, fmt.Errorf("decode projection rows: %w", err)
	}
	if row.ConfigJSON.Valid {
		var cfg projection.Config
		if err := json.Unmarshal([]byte(row.ConfigJSON.String), &cfg); err != nil {
			return scenarios.Bundle{}, fmt.Errorf("decode projection config: %w", err)
		}
		b.Config = &cfg
	}
	if row.GeneratedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, row.GeneratedAt.String)
		if err != nil {
			return scenarios.Bundle{}, fmt.Errorf("parse generated_at: %w", err)
		}
		b.GeneratedAt = &t
	}
	return b, nil
}
