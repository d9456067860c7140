// Package archive stores each generated report in Postgres so runs can be
// compared over time.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"scan-report-dashboard/internal/archive/migrations"
	"scan-report-dashboard/internal/report"
)

const openTimeout = 12 * time.Second

var validSchema = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Config struct {
	URL    string
	Schema string
}

// Meta describes the run a report came from.
type Meta struct {
	InputPath  string
	OutputPath string
	BlankRows  int
	Tag        string
}

type Archive struct {
	db     *sql.DB
	schema string
}

// Open connects, creates the schema when missing and applies pending
// migrations inside it.
func Open(ctx context.Context, cfg Config) (*Archive, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("database URL missing; set archive.database_url, SCAN_REPORT_DB_URL or DATABASE_URL")
	}
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	if err := ensureSchema(ctx, cfg.URL, schema); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", withSearchPath(cfg.URL, schema))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db: db, schema: schema}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Schema is the Postgres schema the archive writes to.
func (a *Archive) Schema() string {
	return a.schema
}

// Store writes the report, its cards and every table row in one
// transaction and returns the new run id.
func (a *Archive) Store(ctx context.Context, r *report.Report, meta Meta) (runID uuid.UUID, err error) {
	runID = uuid.New()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_runs (
			id, variant, title, input_path, output_path,
			total_scans, blank_rows, generated_at, run_tag
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		runID,
		r.Variant,
		r.Title,
		meta.InputPath,
		nullString(meta.OutputPath),
		r.TotalScans,
		meta.BlankRows,
		r.GeneratedAt,
		nullString(meta.Tag),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	for i, m := range r.Metrics {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO report_metrics (id, run_id, position, label, kind, value, description)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.New(), runID, i, m.Label, string(m.Kind), m.Value, nullString(m.Description),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert metric %q: %w", m.Label, err)
		}
	}

	for _, t := range r.Tables {
		for i, row := range t.Data.Rows {
			var cells []byte
			cells, err = rowJSON(t.Data.Columns, row)
			if err != nil {
				return uuid.Nil, err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO report_table_rows (id, run_id, table_key, position, cells)
				VALUES ($1,$2,$3,$4,$5::jsonb)`,
				uuid.New(), runID, t.Key, i, string(cells),
			)
			if err != nil {
				return uuid.Nil, fmt.Errorf("insert %s row %d: %w", t.Key, i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return runID, nil
}

// Run is one archived report run.
type Run struct {
	ID          uuid.UUID
	Variant     string
	Title       string
	InputPath   string
	TotalScans  int
	GeneratedAt time.Time
	Tag         string
}

// RecentRuns lists the latest runs of variant, newest first.
func (a *Archive) RecentRuns(ctx context.Context, variant string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, variant, title, input_path, total_scans, generated_at, COALESCE(run_tag, '')
		FROM report_runs
		WHERE variant = $1
		ORDER BY generated_at DESC, created_at DESC
		LIMIT $2`, variant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Variant, &run.Title, &run.InputPath, &run.TotalScans, &run.GeneratedAt, &run.Tag); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func migrate(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func ensureSchema(ctx context.Context, dsn, schema string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema))
	return err
}

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	if !validSchema.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// withSearchPath pins every pooled connection to schema. URL-style DSNs get
// a search_path query parameter; keyword/value DSNs get an extra pair.
func withSearchPath(dsn, schema string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err == nil {
			q := u.Query()
			q.Set("search_path", schema)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return strings.TrimSpace(dsn) + " search_path=" + schema
}

func rowJSON(columns []string, row []any) ([]byte, error) {
	obj := make(map[string]any, len(columns))
	for i, col := range columns {
		var cell any
		if i < len(row) {
			cell = row[i]
		}
		obj[col] = report.JSONValue(cell)
	}
	return json.Marshal(obj)
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
