package models

import "time"

// Track represents one row of the export file. Identity is positional within
// its playlist; there is no global uniqueness invariant.
type Track struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"` // Duration in seconds
}

// Playlist is a named, ordered collection of tracks. Names are not unique;
// the remote service permits duplicate playlist names.
type Playlist struct {
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// BatchMeta records parse diagnostics for an export batch.
type BatchMeta struct {
	SourceFile  string    `json:"source_file"`
	Encoding    string    `json:"encoding"`
	Replaced    bool      `json:"replaced"` // true when invalid bytes were replaced
	Delimiter   string    `json:"delimiter"`
	RowCount    int       `json:"row_count"`
	SkippedRows int       `json:"skipped_rows"`
	ParsedAt    time.Time `json:"parsed_at"`
}

// ExportBatch is the full result of one parse run: playlists in
// first-appearance order plus parse metadata. Immutable after parsing.
type ExportBatch struct {
	Playlists []Playlist `json:"playlists"`
	Meta      BatchMeta  `json:"meta"`
}

// TrackCount returns the total number of tracks across all playlists.
func (b *ExportBatch) TrackCount() int {
	n := 0
	for _, pl := range b.Playlists {
		n += len(pl.Tracks)
	}
	return n
}

// RateLimitEvent is an append-only record of one observed rate-limit response.
type RateLimitEvent struct {
	Timestamp         time.Time `json:"timestamp"`
	Endpoint          string    `json:"endpoint"`
	RetryAfterSeconds float64   `json:"retry_after_seconds"`
	Attempt           int       `json:"attempt"`
	MaxAttempts       int       `json:"max_attempts"`
	Playlist          string    `json:"playlist,omitempty"`
}

// UploadStatus is the terminal state of one playlist's upload.
type UploadStatus int

const (
	StatusPending UploadStatus = iota
	StatusSkipped
	StatusCreated
	StatusUploaded
	StatusPartiallyUploaded
	StatusFailed
)

func (s UploadStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSkipped:
		return "skipped"
	case StatusCreated:
		return "created"
	case StatusUploaded:
		return "uploaded"
	case StatusPartiallyUploaded:
		return "partially_uploaded"
	case StatusFailed:
		return "failed"
	default:
		return ""
	}
}

// MarshalText implements [encoding.TextMarshaler] so statuses serialize as
// their names in JSON output.
func (s UploadStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TrackFailure records one track that could not be resolved or added.
type TrackFailure struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Reason string `json:"reason"`
}

// UploadResult is the outcome for one playlist, produced in batch order.
// A created playlist with unresolved tracks is still a success at the playlist
// level; the misses are recorded in TrackFailures.
type UploadResult struct {
	PlaylistName  string         `json:"playlist_name"`
	PlaylistID    string         `json:"playlist_id,omitempty"`
	Status        UploadStatus   `json:"status"`
	Reason        string         `json:"reason,omitempty"`
	TracksAdded   int            `json:"tracks_added"`
	TrackFailures []TrackFailure `json:"track_failures,omitempty"`
}

// UploadSummary aggregates a run's results for the final report.
type UploadSummary struct {
	Uploaded   int           `json:"uploaded"`
	Partial    int           `json:"partially_uploaded"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	StopReason string        `json:"stop_reason,omitempty"`
	RateEvents int           `json:"rate_limit_events"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// Summarize folds a result list into an UploadSummary.
func Summarize(results []UploadResult) UploadSummary {
	var s UploadSummary
	for _, r := range results {
		switch r.Status {
		case StatusUploaded, StatusCreated:
			s.Uploaded++
		case StatusPartiallyUploaded:
			s.Partial++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
