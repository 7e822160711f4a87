// Package journal records runs and their attempts in a SQLite database so
// past generations can be inspected with the history command.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jmylchreest/parsegen/internal/agent"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	target TEXT NOT NULL,
	input_path TEXT NOT NULL,
	expected_path TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	success INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	output_path TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target, started_at);

CREATE TABLE IF NOT EXISTS attempts (
	run_id TEXT NOT NULL REFERENCES runs(id),
	attempt INTEGER NOT NULL,
	candidate_path TEXT NOT NULL,
	generated INTEGER NOT NULL,
	generate_error TEXT,
	success INTEGER NOT NULL,
	message TEXT,
	started_at TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, attempt)
);
`

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored run summary.
type Run struct {
	ID           string    `json:"id" yaml:"id"`
	Target       string    `json:"target" yaml:"target"`
	InputPath    string    `json:"input_path" yaml:"input_path"`
	ExpectedPath string    `json:"expected_path" yaml:"expected_path"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Attempts     int       `json:"attempts" yaml:"attempts"`
	Success      bool      `json:"success" yaml:"success"`
	LastError    string    `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	OutputPath   string    `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	History []agent.AttemptRecord `json:"history,omitempty" yaml:"history,omitempty"`
}

// Journal is a SQLite-backed agent.Recorder.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the journal at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialise journal schema: %w", err)
	}
	return &Journal{db: db, path: path, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// StartRun implements agent.Recorder.
func (j *Journal) StartRun(ctx context.Context, s agent.State) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, target, input_path, expected_path, started_at) VALUES (?, ?, ?, ?, ?)`,
		s.RunID, s.Target, s.Files.Input, s.Files.Expected, formatTime(j.now()))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordAttempt implements agent.Recorder.
func (j *Journal) RecordAttempt(ctx context.Context, runID string, rec agent.AttemptRecord) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO attempts
			(run_id, attempt, candidate_path, generated, generate_error, success, message, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Attempt, rec.CandidatePath, rec.Generated, rec.GenerateError,
		rec.Success, rec.Message, formatTime(rec.StartedAt), rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// FinishRun implements agent.Recorder.
func (j *Journal) FinishRun(ctx context.Context, s agent.State) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, attempts = ?, success = ?, last_error = ?, output_path = ? WHERE id = ?`,
		formatTime(j.now()), s.Attempt, s.Success, s.LastError, s.OutputPath, s.RunID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", s.RunID, ErrRunNotFound)
	}
	return nil
}

// Runs lists runs for target, newest first. An empty target lists all runs.
// limit <= 0 returns every run.
func (j *Journal) Runs(ctx context.Context, target string, limit int) ([]Run, error) {
	query := `SELECT id, target, input_path, expected_path, started_at, COALESCE(finished_at, ''),
		attempts, success, COALESCE(last_error, ''), COALESCE(output_path, '') FROM runs`
	var args []any
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Target, &r.InputPath, &r.ExpectedPath, &started, &finished,
			&r.Attempts, &r.Success, &r.LastError, &r.OutputPath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Attempts returns the attempts of a run in order.
func (j *Journal) Attempts(ctx context.Context, runID string) ([]agent.AttemptRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT attempt, candidate_path, generated, COALESCE(generate_error, ''), success,
			COALESCE(message, ''), started_at, duration_ms
		FROM attempts WHERE run_id = ? ORDER BY attempt`, runID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []agent.AttemptRecord
	for rows.Next() {
		var (
			rec        agent.AttemptRecord
			started    string
			durationMS int64
		)
		if err := rows.Scan(&rec.Attempt, &rec.CandidatePath, &rec.Generated, &rec.GenerateError,
			&rec.Success, &rec.Message, &started, &durationMS); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		rec.StartedAt = parseTime(started)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// History lists runs for target with their attempts attached.
func (j *Journal) History(ctx context.Context, target string, limit int) ([]Run, error) {
	runs, err := j.Runs(ctx, target, limit)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].History, err = j.Attempts(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ agent.Recorder = (*Journal)(nil)
