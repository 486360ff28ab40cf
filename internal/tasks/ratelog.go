package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/plx/internal/models"
)

// RateLog appends rate-limit events to a JSONL file, one record per line.
// Entries are never rewritten; the file is an audit trail across runs.
type RateLog struct {
	path string
}

// NewRateLog creates a rate log for the given path. An empty path returns nil,
// which disables file logging.
func NewRateLog(path string) *RateLog {
	if path == "" {
		return nil
	}
	return &RateLog{path: path}
}

// Append writes one event as a JSON line, creating parent directories and the
// file as needed.
func (l *RateLog) Append(event models.RateLimitEvent) error {
	if l == nil {
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create rate log directory: %w", err)
		}
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal rate limit event: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open rate log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write rate log: %w", err)
	}

	return nil
}

// Path returns the log file path, or "" for a nil log.
func (l *RateLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
