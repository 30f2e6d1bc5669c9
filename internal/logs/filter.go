package logs

import (
	"encoding/json"
	"strings"
)

// Filter narrows JSON log records. Zero fields match everything.
type Filter struct {
	RunID     string
	Component string
	// Level is the minimum level: debug, info, warn, or error.
	Level string
}

type record struct {
	Level     string `json:"level"`
	RunID     string `json:"run_id"`
	Component string `json:"component"`
}

func (f Filter) empty() bool {
	return f.RunID == "" && f.Component == "" && f.Level == ""
}

// Match reports whether line passes the filter. Lines that are not JSON
// objects only pass an empty filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return false
	}
	if f.RunID != "" && rec.RunID != f.RunID {
		return false
	}
	if f.Component != "" && !strings.EqualFold(rec.Component, f.Component) {
		return false
	}
	if f.Level != "" && levelRank(rec.Level) < levelRank(f.Level) {
		return false
	}
	return true
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "info", "":
		return 1
	case "warn", "warning":
		return 2
	case "error":
		return 3
	default:
		return 1
	}
}
