package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// StartRun inserts a running run with a fresh ID and returns it.
func (s *Store) StartRun(ctx context.Context, run Run) (Run, error) {
	run.ID = uuid.NewString()
	run.Status = RunRunning
	run.StartedAt = time.Now().UTC()
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, command, segmenter, input, output_dir, config_summary, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Command,
		nullableString(run.Segmenter),
		nullableString(run.Input),
		nullableString(run.OutputDir),
		nullableString(run.ConfigSummary),
		run.Status,
		run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run with its final status.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus) error {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(timeLayout), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// RecordFile appends one file result to its run.
func (s *Store) RecordFile(ctx context.Context, result FileResult) error {
	if result.RecordedAt.IsZero() {
		result.RecordedAt = time.Now().UTC()
	}
	_, err := s.exec(ctx,
		`INSERT INTO file_results (run_id, audio_path, status, segments, chunks, skipped, reason, duration_ms, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.AudioPath,
		result.Status,
		result.Segments,
		result.Chunks,
		result.Skipped,
		nullableString(result.Reason),
		result.Duration.Milliseconds(),
		result.RecordedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record file result: %w", err)
	}
	return nil
}

// Completed reports whether audioPath was processed without failure by an
// earlier run of command.
func (s *Store) Completed(ctx context.Context, command, audioPath string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM file_results f JOIN runs r ON r.id = f.run_id
         WHERE r.command = ? AND f.audio_path = ? AND f.status IN (?, ?)`,
		command, audioPath, StatusOK, StatusEmpty,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query completed: %w", err)
	}
	return count > 0, nil
}

const runColumns = "id, command, segmenter, input, output_dir, config_summary, status, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run                                  Run
		segmenter, input, outputDir, summary sql.NullString
		status                               string
		startedRaw, finishedRaw              sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.Command, &segmenter, &input, &outputDir, &summary, &status, &startedRaw, &finishedRaw); err != nil {
		return Run{}, err
	}
	run.Segmenter = segmenter.String
	run.Input = input.String
	run.OutputDir = outputDir.String
	run.ConfigSummary = summary.String
	run.Status = RunStatus(status)
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	return run, nil
}

// GetRun fetches a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Runs returns the most recent runs first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FileResults returns a run's results in recording order.
func (s *Store) FileResults(ctx context.Context, runID string) ([]FileResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, audio_path, status, segments, chunks, skipped, reason, duration_ms, recorded_at
         FROM file_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list file results: %w", err)
	}
	defer rows.Close()

	var results []FileResult
	for rows.Next() {
		var (
			r           FileResult
			status      string
			reason      sql.NullString
			durationMS  int64
			recordedRaw sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.AudioPath, &status, &r.Segments, &r.Chunks, &r.Skipped, &reason, &durationMS, &recordedRaw); err != nil {
			return nil, err
		}
		r.Status = Status(status)
		r.Reason = reason.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.RecordedAt = parseTime(recordedRaw)
		results = append(results, r)
	}
	return results, rows.Err()
}

// RunSummary aggregates the file results of runID.
func (s *Store) RunSummary(ctx context.Context, runID string) (Summary, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Run: run}
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1), COALESCE(SUM(chunks), 0), COALESCE(SUM(skipped), 0)
         FROM file_results WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize run: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status                 string
			count, chunks, skipped int
		)
		if err := rows.Scan(&status, &count, &chunks, &skipped); err != nil {
			return Summary{}, err
		}
		summary.Files += count
		summary.Chunks += chunks
		summary.Skipped += skipped
		switch Status(status) {
		case StatusOK:
			summary.OK = count
		case StatusEmpty:
			summary.Empty = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}
