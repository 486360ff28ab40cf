// package services defines interface Service for interacting with remote
// playlist APIs (Spotify).
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/plx/internal/shared"
)

// Service defines the operations the upload controller needs from a music
// service: authentication, playlist creation, track search and track addition.
//
// There is deliberately no list/lookup operation: the remote service allows
// duplicate playlist names, so uploads never check for existing playlists.
type Service interface {
	// Authenticate performs OAuth or token authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*User, error)

	// CreatePlaylist creates a new (possibly duplicate-named) playlist and returns it.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*CreatedPlaylist, error)

	// SearchTrack searches for a track. artist may be empty for a title-only search.
	// Returns an error wrapping [shared.ErrTrackNotFound] when nothing matches.
	SearchTrack(ctx context.Context, title, artist string) (*FoundTrack, error)

	// AddTracks appends the given track URIs to a playlist, preserving order.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// User represents the authenticated user's profile.
type User struct {
	ID          string
	DisplayName string
}

// CreatedPlaylist is the remote handle for a playlist created during an upload.
type CreatedPlaylist struct {
	ID   string
	Name string
	URL  string
}

// FoundTrack is a catalog entry resolved by search.
type FoundTrack struct {
	URI    string
	Title  string
	Artist string
	Album  string
}

// RateLimitError reports an HTTP 429-equivalent response. RetryAfter holds the
// service-provided wait duration when the header was present.
type RateLimitError struct {
	Endpoint      string
	Status        int
	RetryAfter    time.Duration
	HasRetryAfter bool
}

func (e *RateLimitError) Error() string {
	if e.HasRetryAfter {
		return fmt.Sprintf("rate limited on %s (retry after %s)", e.Endpoint, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited on %s", e.Endpoint)
}

// Unwrap lets callers match with errors.Is(err, shared.ErrRateLimited).
func (e *RateLimitError) Unwrap() error {
	return shared.ErrRateLimited
}

// AsRateLimit unwraps err into a RateLimitError if one is in the chain.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// StatusError reports a non-2xx, non-429 API response.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.Status)
}

// parseRetryAfter interprets a Retry-After header value as either integer
// seconds or an HTTP-date.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
