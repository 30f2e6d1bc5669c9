package ledger

import (
	"database/sql"
	"time"
)

// Status is the outcome of one audio file.
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one CLI invocation.
type Run struct {
	ID            string
	Command       string
	Segmenter     string
	Input         string
	OutputDir     string
	ConfigSummary string
	Status        RunStatus
	StartedAt     time.Time
	FinishedAt    time.Time
}

// FileResult records what happened to one audio file within a run.
type FileResult struct {
	RunID      string
	AudioPath  string
	Status     Status
	Segments   int
	Chunks     int
	Skipped    int
	Reason     string
	Duration   time.Duration
	RecordedAt time.Time
}

// Summary aggregates a run's file results.
type Summary struct {
	Run     Run
	Files   int
	OK      int
	Empty   int
	Failed  int
	Chunks  int
	Skipped int
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTime(raw sql.NullString) time.Time {
	if !raw.Valid || raw.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, raw.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
