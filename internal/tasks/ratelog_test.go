package tasks

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/plx/internal/models"
)

func TestRateLog(t *testing.T) {
	t.Run("appends one JSON line per event", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "events.jsonl")
		log := NewRateLog(path)

		events := []models.RateLimitEvent{
			{Timestamp: time.Now().UTC(), Endpoint: "search_track", RetryAfterSeconds: 5, Attempt: 1, MaxAttempts: 5, Playlist: "My Mix"},
			{Timestamp: time.Now().UTC(), Endpoint: "add_tracks", RetryAfterSeconds: 2, Attempt: 2, MaxAttempts: 5, Playlist: "My Mix"},
		}
		for _, event := range events {
			if err := log.Append(event); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		file, err := os.Open(path)
		if err != nil {
			t.Fatalf("failed to open log: %v", err)
		}
		defer file.Close()

		var lines []models.RateLimitEvent
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			var event models.RateLimitEvent
			if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
				t.Fatalf("line is not valid JSON: %v", err)
			}
			lines = append(lines, event)
		}
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		if lines[0].Endpoint != "search_track" || lines[1].Attempt != 2 {
			t.Errorf("unexpected events: %+v", lines)
		}
	})

	t.Run("creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "nested", "events.jsonl")
		log := NewRateLog(path)

		if err := log.Append(models.RateLimitEvent{Endpoint: "search_track"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("log file was not created: %v", err)
		}
	})

	t.Run("nil log is a no-op", func(t *testing.T) {
		log := NewRateLog("")
		if log != nil {
			t.Fatal("expected nil for an empty path")
		}
		if err := log.Append(models.RateLimitEvent{}); err != nil {
			t.Errorf("nil Append should succeed: %v", err)
		}
	})
}
