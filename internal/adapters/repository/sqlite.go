package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/simulation"
	"github.com/okian/seirsim/pkg/metrics"
)

const sqliteDriverName = "sqlite"

const schemaRuns = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL,
    status TEXT NOT NULL,
    request TEXT NOT NULL,
    series TEXT,
    error TEXT NOT NULL DEFAULT '',
    error_kind TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    started_at TIMESTAMP,
    finished_at TIMESTAMP
);
`

const schemaRunsIndex = `CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);`

const (
	insertRunSQL = `
		INSERT INTO runs (id, fingerprint, status, request, created_at)
		VALUES (?, ?, ?, ?, ?)`

	markRunningSQL = `UPDATE runs SET status = ?, started_at = ? WHERE id = ?`

	completeRunSQL = `UPDATE runs SET status = ?, series = ?, finished_at = ? WHERE id = ?`

	failRunSQL = `UPDATE runs SET status = ?, error = ?, error_kind = ?, finished_at = ? WHERE id = ?`

	selectRunSQL = `
		SELECT id, fingerprint, status, request, series, error, error_kind, created_at, started_at, finished_at
		FROM runs WHERE id = ?`

	listRunsSQL = `
		SELECT id, fingerprint, status, request, NULL, error, error_kind, created_at, started_at, finished_at
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`

	countRunsSQL = `SELECT COUNT(*) FROM runs`
)

// OpenSQLite opens or creates a SQLite database at path and ensures the
// runs table exists.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// One connection: SQLite serialises writers, and ":memory:" databases
	// exist per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range []string{schemaRuns, schemaRunsIndex} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// SQLiteStore persists runs in the runs table. Request and series are stored
// as JSON text.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore wraps an open database; see OpenSQLite.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Create(ctx context.Context, run *model.Run) error {
	defer observe("create", time.Now())
	req, err := json.Marshal(run.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.db.ExecContext(ctx, insertRunSQL,
		run.ID, run.Fingerprint, string(run.Status), string(req), created.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateID
		}
		metrics.RecordErrorByComponent("repository", "insert")
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) MarkRunning(ctx context.Context, id string, at time.Time) error {
	defer observe("mark_running", time.Now())
	return s.exec(ctx, id, markRunningSQL, string(model.StatusRunning), at.UTC(), id)
}

func (s *SQLiteStore) Complete(ctx context.Context, id string, series *simulation.Series, at time.Time) error {
	defer observe("complete", time.Now())
	b, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("marshal series: %w", err)
	}
	return s.exec(ctx, id, completeRunSQL, string(model.StatusSucceeded), string(b), at.UTC(), id)
}

func (s *SQLiteStore) Fail(ctx context.Context, id, kind, reason string, at time.Time) error {
	defer observe("fail", time.Now())
	return s.exec(ctx, id, failRunSQL, string(model.StatusFailed), reason, kind, at.UTC(), id)
}

func (s *SQLiteStore) exec(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "update")
		return fmt.Errorf("update run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	if n == 0 {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Run, error) {
	defer observe("get", time.Now())
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRunSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*model.Run, error) {
	defer observe("list", time.Now())
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countRunsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	metrics.UpdateStoredRuns(n)
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	var (
		run               model.Run
		status, request   string
		series            sql.NullString
		started, finished sql.NullTime
	)
	if err := row.Scan(&run.ID, &run.Fingerprint, &status, &request, &series,
		&run.Error, &run.ErrorKind, &run.CreatedAt, &started, &finished); err != nil {
		return nil, err
	}
	run.Status = model.Status(status)
	if err := json.Unmarshal([]byte(request), &run.Request); err != nil {
		return nil, fmt.Errorf("decode request of run %s: %w", run.ID, err)
	}
	if series.Valid && series.String != "" {
		run.Series = new(simulation.Series)
		if err := json.Unmarshal([]byte(series.String), run.Series); err != nil {
			return nil, fmt.Errorf("decode series of run %s: %w", run.ID, err)
		}
	}
	run.CreatedAt = run.CreatedAt.UTC()
	if started.Valid {
		run.StartedAt = started.Time.UTC()
	}
	if finished.Valid {
		run.FinishedAt = finished.Time.UTC()
	}
	return &run, nil
}
