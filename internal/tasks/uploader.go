package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/shared"
	"golang.org/x/time/rate"
)

// MatchCache caches search resolutions keyed by normalized title+artist so
// duplicate tracks and re-runs skip the remote search endpoint.
// Implementations must treat a miss as (uri="", ok=false, err=nil).
type MatchCache interface {
	Get(key string) (uri string, ok bool, err error)
	Put(key, title, artist, uri string) error
}

// ConfirmFunc asks the operator whether a playlist should be uploaded.
// Declining skips that playlist only.
type ConfirmFunc func(playlist models.Playlist) (bool, error)

// Options configures one upload run.
type Options struct {
	Confirm           bool          // suppress the per-playlist confirmation prompt
	StopOn429         bool          // abort the remaining queue on the first rate limit
	MaxAttempts       int           // per-call attempt ceiling (default 5)
	Backoff           time.Duration // base wait when Retry-After is absent (default 1s)
	RequestsPerSecond float64       // client-side pacing (default 5)
	TitleFallback     bool          // retry a missed title+artist search with title alone
	Public            bool          // create playlists as public
	Description       string        // playlist description; empty uses a per-playlist default
	ConfirmFunc       ConfirmFunc   // prompt implementation; nil behaves as confirmed
}

// UploadRunResult contains per-playlist outcomes in batch order plus the
// rate-limit events observed during the run.
type UploadRunResult struct {
	Results []models.UploadResult
	Events  []models.RateLimitEvent
	Summary models.UploadSummary
}

// UploadEngine walks an export batch and mirrors it onto the remote service.
// All state beyond its dependencies lives in a per-run struct; engines are
// safe to reuse across sequential runs.
type UploadEngine struct {
	service services.Service
	cache   MatchCache
	rateLog *RateLog
	logger  *log.Logger
	sleep   SleepFunc
}

// NewUploadEngine creates an UploadEngine. cache and rateLog may be nil.
func NewUploadEngine(service services.Service, cache MatchCache, rateLog *RateLog, logger *log.Logger) *UploadEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &UploadEngine{
		service: service,
		cache:   cache,
		rateLog: rateLog,
		logger:  logger,
		sleep:   realSleep,
	}
}

// SetSleep overrides the backoff sleep. Used by tests to avoid real delays.
func (e *UploadEngine) SetSleep(sleep SleepFunc) {
	if sleep != nil {
		e.sleep = sleep
	}
}

// uploadRun is the mutable state of a single Upload call: the event log, the
// accumulated results and the request pacer. Owned exclusively by the single
// control goroutine.
type uploadRun struct {
	*UploadEngine
	opts     Options
	limiter  *rate.Limiter
	events   []models.RateLimitEvent
	progress chan<- ProgressUpdate
}

// Upload mirrors the batch onto the remote service, one playlist at a time in
// batch order.
//
// The returned result always contains one UploadResult per attempted playlist.
// The error is non-nil only for run-level failures (no service, canceled
// context); individual playlist failures are recorded in their results, and a
// stop-on-429 abort is reported via the summary's StopReason.
func (e *UploadEngine) Upload(ctx context.Context, batch *models.ExportBatch, opts Options, progress chan<- ProgressUpdate) (*UploadRunResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if batch == nil || len(batch.Playlists) == 0 {
		return nil, fmt.Errorf("%w: empty batch", shared.ErrInvalidInput)
	}

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5.0
	}

	run := &uploadRun{
		UploadEngine: e,
		opts:         opts,
		limiter:      rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		progress:     progress,
	}

	started := time.Now()
	result := &UploadRunResult{}
	total := len(batch.Playlists)

	for i, playlist := range batch.Playlists {
		res, stop := run.uploadPlaylist(ctx, playlist)
		result.Results = append(result.Results, res)
		run.send(playlistDoneUpdate(i+1, total, res))

		if stop {
			result.Summary = models.Summarize(result.Results)
			result.Summary.StopReason = fmt.Sprintf("stopped on rate limit while uploading %q", playlist.Name)
			break
		}
		if err := ctx.Err(); err != nil {
			result.Events = run.events
			result.Summary = models.Summarize(result.Results)
			return result, err
		}
	}

	result.Events = run.events
	if result.Summary.StopReason == "" {
		result.Summary = models.Summarize(result.Results)
	}
	result.Summary.RateEvents = len(run.events)
	result.Summary.Elapsed = time.Since(started)

	return result, nil
}

// uploadPlaylist drives one playlist through the
// confirm → create → resolve → add state machine. The bool return requests a
// run-level stop (stop-on-429).
func (r *uploadRun) uploadPlaylist(ctx context.Context, playlist models.Playlist) (models.UploadResult, bool) {
	result := models.UploadResult{PlaylistName: playlist.Name, Status: models.StatusPending}

	if !r.opts.Confirm && r.opts.ConfirmFunc != nil {
		ok, err := r.opts.ConfirmFunc(playlist)
		if err != nil {
			r.logger.Warn("confirmation prompt failed", "playlist", playlist.Name, "err", err)
			result.Status = models.StatusSkipped
			result.Reason = fmt.Sprintf("confirmation prompt failed: %v", err)
			return result, false
		}
		if !ok {
			result.Status = models.StatusSkipped
			result.Reason = "declined by operator"
			return result, false
		}
	}

	r.logger.Info("creating playlist", "name", playlist.Name, "tracks", len(playlist.Tracks))
	r.send(createPlaylistUpdate(1, 1, playlist.Name))

	description := r.opts.Description
	if description == "" {
		description = fmt.Sprintf("Imported from %s", r.service.Name())
	}

	var created *services.CreatedPlaylist
	err := r.call(ctx, "create_playlist", playlist.Name, func() error {
		var callErr error
		created, callErr = r.service.CreatePlaylist(ctx, playlist.Name, description, r.opts.Public)
		return callErr
	})
	if err != nil {
		return r.failResult(result, err)
	}

	result.PlaylistID = created.ID
	result.Status = models.StatusCreated

	uris, failures, err := r.resolveTracks(ctx, playlist)
	result.TrackFailures = failures
	if err != nil {
		return r.failResult(result, err)
	}

	if len(uris) > 0 {
		r.send(addTracksUpdate(len(uris), playlist.Name))
	}
	for start := 0; start < len(uris); start += services.MaxTracksPerAdd {
		end := min(start+services.MaxTracksPerAdd, len(uris))
		chunk := uris[start:end]

		err := r.call(ctx, "add_tracks", playlist.Name, func() error {
			return r.service.AddTracks(ctx, created.ID, chunk)
		})
		if err != nil {
			result.TracksAdded = start
			return r.failResult(result, err)
		}
		result.TracksAdded = end
	}

	if len(failures) == 0 {
		result.Status = models.StatusUploaded
	} else {
		result.Status = models.StatusPartiallyUploaded
	}
	return result, false
}

// failResult finalizes a playlist result for a terminal error and reports
// whether the whole run must stop.
func (r *uploadRun) failResult(result models.UploadResult, err error) (models.UploadResult, bool) {
	result.Status = models.StatusFailed
	switch {
	case errors.Is(err, shared.ErrRateLimitStop):
		result.Reason = "rate limited"
		return result, true
	case errors.Is(err, shared.ErrRateLimitExhausted):
		result.Reason = "rate limit retries exhausted"
	default:
		result.Reason = err.Error()
	}
	r.logger.Error("playlist upload failed", "name", result.PlaylistName, "reason", result.Reason)
	return result, false
}

// resolveTracks maps each track to a remote URI via the cache and search.
// Unresolved tracks become per-track failures; only rate-limit terminal errors
// propagate to the playlist level.
func (r *uploadRun) resolveTracks(ctx context.Context, playlist models.Playlist) ([]string, []models.TrackFailure, error) {
	var uris []string
	var failures []models.TrackFailure

	total := len(playlist.Tracks)
	for i, track := range playlist.Tracks {
		r.send(searchTrackUpdate(i+1, total, track))

		uri, err := r.resolveTrack(ctx, track)
		if err != nil {
			if errors.Is(err, shared.ErrRateLimitStop) || errors.Is(err, shared.ErrRateLimitExhausted) {
				return uris, failures, err
			}
			failures = append(failures, models.TrackFailure{
				Title:  track.Title,
				Artist: track.Artist,
				Reason: failureReason(err),
			})
			continue
		}
		uris = append(uris, uri)
	}

	return uris, failures, nil
}

// resolveTrack resolves a single track: cache first, then title+artist search,
// then the optional title-only fallback.
func (r *uploadRun) resolveTrack(ctx context.Context, track models.Track) (string, error) {
	if isUnknown(track.Title) {
		return "", fmt.Errorf("%w: unknown title", shared.ErrTrackNotFound)
	}

	key := shared.NormalizeTrackKey(track.Title, track.Artist)
	if r.cache != nil {
		if uri, ok, err := r.cache.Get(key); err == nil && ok {
			return uri, nil
		} else if err != nil {
			r.logger.Warn("cache lookup failed", "key", key, "err", err)
		}
	}

	artist := track.Artist
	if isUnknown(artist) {
		artist = ""
	}

	found, err := r.searchOnce(ctx, track.Title, artist)
	if err != nil && artist != "" && r.opts.TitleFallback && errors.Is(err, shared.ErrTrackNotFound) {
		found, err = r.searchOnce(ctx, track.Title, "")
	}
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Put(key, track.Title, track.Artist, found.URI); err != nil {
			r.logger.Warn("cache write failed", "key", key, "err", err)
		}
	}
	return found.URI, nil
}

func (r *uploadRun) searchOnce(ctx context.Context, title, artist string) (*services.FoundTrack, error) {
	var found *services.FoundTrack
	err := r.call(ctx, "search_track", "", func() error {
		var callErr error
		found, callErr = r.service.SearchTrack(ctx, title, artist)
		return callErr
	})
	return found, err
}

// send delivers a progress update without blocking.
func (r *uploadRun) send(update ProgressUpdate) {
	if r.progress == nil {
		return
	}
	select {
	case r.progress <- update:
	default:
	}
}

func failureReason(err error) string {
	if errors.Is(err, shared.ErrTrackNotFound) {
		return "not found or title unknown"
	}
	return err.Error()
}

func isUnknown(s string) bool {
	return s == "" || strings.EqualFold(strings.TrimSpace(s), "unknown")
}
