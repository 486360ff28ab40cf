package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/shared"
)

// SleepFunc suspends for the given duration or until the context is done.
// Injected so retry behavior is testable without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// realSleep is the production SleepFunc.
func realSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// call runs fn through the bounded retry state machine.
//
// Each attempt first waits on the client-side pacer. Rate-limit responses are
// recorded as events and retried after the service-provided duration (or an
// exponential fallback when the Retry-After header is absent) until attempts
// are exhausted, which yields an error wrapping [shared.ErrRateLimitExhausted].
// With StopOn429 set, the first rate limit returns [shared.ErrRateLimitStop]
// without waiting. Any other error returns immediately.
func (r *uploadRun) call(ctx context.Context, endpoint, playlist string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}

		rl, ok := services.AsRateLimit(err)
		if !ok {
			return err
		}

		wait := rl.RetryAfter
		if !rl.HasRetryAfter {
			wait = r.opts.Backoff * (1 << (attempt - 1))
		}

		r.recordRateLimit(models.RateLimitEvent{
			Timestamp:         time.Now().UTC(),
			Endpoint:          endpoint,
			RetryAfterSeconds: wait.Seconds(),
			Attempt:           attempt,
			MaxAttempts:       r.opts.MaxAttempts,
			Playlist:          playlist,
		})

		if r.opts.StopOn429 {
			return fmt.Errorf("%w: %s", shared.ErrRateLimitStop, endpoint)
		}

		if attempt >= r.opts.MaxAttempts {
			return fmt.Errorf("%w: %s after %d attempts", shared.ErrRateLimitExhausted, endpoint, attempt)
		}

		r.send(rateLimitWaitUpdate(attempt, r.opts.MaxAttempts, endpoint, wait))
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// recordRateLimit appends the event to the in-memory run log and, when
// configured, the JSONL rate log file. Logging failures never mask the
// rate-limit handling itself.
func (r *uploadRun) recordRateLimit(event models.RateLimitEvent) {
	r.events = append(r.events, event)

	if r.rateLog == nil {
		return
	}
	if err := r.rateLog.Append(event); err != nil {
		r.logger.Warn("failed to append rate limit event", "err", err)
	}
}
