// Package logging assembles structured slog loggers and formatting helpers used
// across speechline.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing (including the rotating log file), and exposes context-aware helpers
// so per-file pipeline code tags log lines with the run ID and the audio file
// being processed. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
