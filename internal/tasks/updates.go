package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/plx/internal/models"
)

// ProgressUpdate represents a progress event during an upload run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	CreatePlaylist Phase = iota
	SearchTracks
	AddTracks
	RateLimitWait
	PlaylistDone
)

func (p Phase) String() string {
	switch p {
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case AddTracks:
		return "add_tracks"
	case RateLimitWait:
		return "rate_limit_wait"
	case PlaylistDone:
		return "playlist_done"
	default:
		return ""
	}
}

func createPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Creating playlist: %s", step, total, name),
	}
}

func searchTrackUpdate(step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, tr.Artist, tr.Title),
	}
}

func addTracksUpdate(count int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Message: fmt.Sprintf("Adding %d tracks to %s...", count, name),
	}
}

func rateLimitWaitUpdate(attempt, max int, endpoint string, wait time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RateLimitWait,
		Step:    attempt,
		Total:   max,
		Message: fmt.Sprintf("Rate limited on %s; waiting %s (attempt %d/%d)", endpoint, wait, attempt, max),
	}
}

func playlistDoneUpdate(step, total int, result models.UploadResult) ProgressUpdate {
	var mark string
	switch result.Status {
	case models.StatusUploaded, models.StatusCreated:
		mark = "✓"
	case models.StatusPartiallyUploaded:
		mark = "~"
	case models.StatusSkipped:
		mark = "−"
	default:
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   PlaylistDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%s)", step, total, mark, result.PlaylistName, result.Status),
		Data:    result,
	}
}
