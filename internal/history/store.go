// Package history records differential runs in a SQLite database so that
// past results can be listed and failing examples inspected later.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/frontend-diff/internal/models"
)

// ErrRunNotFound is returned when a run ID is not in the history.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one recorded run.
type RunSummary struct {
	ID        string
	Version   string
	Renderer  string
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Passed    int
	Failed    int
}

// Failure is one failing example of a recorded run.
type Failure struct {
	Component string
	Example   string
	Reason    string
	Error     string
	Changes   []models.Change
	Unified   string
	Duration  time.Duration
}

// Store manages the run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the history database at dbPath and applies
// pending migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// connection-scoped settings go in the DSN so every pooled connection gets them
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry retries a statement with exponential backoff while the
// database is locked.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a run report with every outcome in one transaction.
func (s *Store) Record(ctx context.Context, report *models.RunReport) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("record run: report has no run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, version, renderer, started_at, duration_ms, total, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Version,
		report.Renderer,
		report.StartedAt.UTC(),
		report.Duration.Milliseconds(),
		report.Total,
		report.Passed,
		report.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO outcomes
		(run_id, component, example, passed, reason, error_message, change_count, unified_diff, changes, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, comp := range report.Components {
		for _, res := range comp.Results {
			// passing outcomes keep only the verdict
			var unified, changes string
			if !res.Passed {
				unified = res.Diff.Unified
				if len(res.Diff.Changes) > 0 {
					data, err := json.Marshal(res.Diff.Changes)
					if err != nil {
						return fmt.Errorf("marshal changes for %s/%s: %w", comp.Component, res.Example, err)
					}
					changes = string(data)
				}
			}
			_, err := stmt.ExecContext(ctx,
				report.RunID,
				comp.Component,
				res.Example,
				res.Passed,
				res.Reason,
				res.Error,
				len(res.Diff.Changes),
				unified,
				changes,
				res.Duration.Milliseconds(),
			)
			if err != nil {
				return fmt.Errorf("insert outcome %s/%s: %w", comp.Component, res.Example, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", report.RunID, err)
	}
	return nil
}

const runColumns = `id, version, renderer, started_at, duration_ms, total, passed, failed`

// ListRuns returns the most recent runs first. A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by ID, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, runID string) (RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// Failures returns the failing outcomes of a run in recorded order.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT component, example, reason, error_message, unified_diff, changes, duration_ms
		FROM outcomes
		WHERE run_id = ? AND passed = 0
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		var reason, errMsg, unified, changes sql.NullString
		var durationMS int64
		if err := rows.Scan(&f.Component, &f.Example, &reason, &errMsg, &unified, &changes, &durationMS); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.Reason = reason.String
		f.Error = errMsg.String
		f.Unified = unified.String
		f.Duration = time.Duration(durationMS) * time.Millisecond
		if changes.String != "" {
			if err := json.Unmarshal([]byte(changes.String), &f.Changes); err != nil {
				return nil, fmt.Errorf("decode changes for %s/%s: %w", f.Component, f.Example, err)
			}
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return failures, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunSummary, error) {
	var run RunSummary
	var renderer sql.NullString
	var durationMS int64
	err := row.Scan(&run.ID, &run.Version, &renderer, &run.StartedAt, &durationMS, &run.Total, &run.Passed, &run.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, err
	}
	if err != nil {
		return RunSummary{}, fmt.Errorf("scan run: %w", err)
	}
	run.Renderer = renderer.String
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}
