package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect selects the bind parameter style.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

type Queries struct {
	db      DBTX
	dialect Dialect
}

// New returns SQLite queries over db.
func New(db DBTX) *Queries {
	return &Queries{db: db, dialect: DialectSQLite}
}

// NewPostgres returns queries over db that use $n placeholders.
func NewPostgres(db DBTX) *Queries {
	return &Queries{db: db, dialect: DialectPostgres}
}

// WithTx returns queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

// bind rewrites ? placeholders for the dialect. None of the statements
// contain a literal question mark.
func (q *Queries) bind(query string) string {
	if q.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type ScenarioRow struct {
	ID       int64
	Name     string
	Document string
}

type BundleRow struct {
	ScenarioID  int64
	BundleID    string
	ConfigJSON  sql.NullString
	RowsJSON    string
	RowCount    int64
	GeneratedAt sql.NullString
}

const upsertScenario = `
INSERT INTO scenarios (id, name, document)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    document = excluded.document,
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertScenario(ctx context.Context, row ScenarioRow) error {
	_, err := q.db.ExecContext(ctx, q.bind(upsertScenario), row.ID, row.Name, row.Document)
	return err
}

const getScenario = `SELECT id, name, document FROM scenarios WHERE id = ?`

func (q *Queries) GetScenario(ctx context.Context, id int64) (ScenarioRow, error) {
	var row ScenarioRow
	err := q.db.QueryRowContext(ctx, q.bind(getScenario), id).Scan(&row.ID, &row.Name, &row.Document)
	return row, err
}

const listScenarios = `SELECT id, name FROM scenarios ORDER BY id`

func (q *Queries) ListScenarios(ctx context.Context) ([]ScenarioRow, error) {
	rows, err := q.db.QueryContext(ctx, q.bind(listScenarios))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ScenarioRow
	for rows.Next() {
		var row ScenarioRow
		if err := rows.Scan(&row.ID, &row.Name); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

const countScenarios = `SELECT COUNT(*) FROM scenarios`

func (q *Queries) CountScenarios(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, q.bind(countScenarios)).Scan(&n)
	return n, err
}

const upsertBundle = `
INSERT INTO projection_bundles (scenario_id, bundle_id, config_json, rows_json, row_count, generated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(scenario_id) DO UPDATE SET
    bundle_id = excluded.bundle_id,
    config_json = excluded.config_json,
    rows_json = excluded.rows_json,
    row_count = excluded.row_count,
    generated_at = excluded.generated_at,
    saved_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertBundle(ctx context.Context, row BundleRow) error {
	_, err := q.db.ExecContext(ctx, q.bind(upsertBundle),
		row.ScenarioID, row.BundleID, row.ConfigJSON, row.RowsJSON, row.RowCount, row.GeneratedAt)
	return err
}

const getBundle = `
SELECT scenario_id, bundle_id, config_json, rows_json, row_count, generated_at
FROM projection_bundles WHERE scenario_id = ?`

func (q *Queries) GetBundle(ctx context.Context, scenarioID int64) (BundleRow, error) {
	var row BundleRow
	err := q.db.QueryRowContext(ctx, q.bind(getBundle), scenarioID).Scan(
		&row.ScenarioID, &row.BundleID, &row.ConfigJSON, &row.RowsJSON, &row.RowCount, &row.GeneratedAt)
	return row, err
}
