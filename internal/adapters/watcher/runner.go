// Package watcher provides the periodic session liveness runner.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/marketgrove/storefront-state/internal/service"
)

// Runner re-validates at a fixed interval that the persisted session still
// backs the in-memory authenticated state. Storage is shared with other
// processes and can change underneath us; divergence triggers a full
// re-initialization rather than a partial patch.
type Runner struct {
	sessions      *service.SessionService
	interval      time.Duration
	logger        *slog.Logger
	authenticated func() bool
	onDivergence  func(ctx context.Context)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Sessions *service.SessionService // Required
	Interval time.Duration           // Defaults to 30s
	Logger   *slog.Logger            // Optional

	// Authenticated reports the current in-memory auth flag.
	Authenticated func() bool
	// OnDivergence runs when storage and memory disagree.
	OnDivergence func(ctx context.Context)
}

// NewRunner creates a liveness runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}
	return &Runner{
		sessions:      opts.Sessions,
		interval:      opts.Interval,
		logger:        opts.Logger,
		authenticated: opts.Authenticated,
		onDivergence:  opts.OnDivergence,
	}, nil
}

func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Sessions == nil {
		return errors.New("session service is required")
	}
	if opts.Authenticated == nil {
		return errors.New("authenticated probe is required")
	}
	if opts.OnDivergence == nil {
		return errors.New("divergence handler is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run executes the liveness loop until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "session liveness watcher started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "session liveness watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			r.CheckOnce(ctx)
		}
	}
}

// CheckOnce performs a single liveness check.
func (r *Runner) CheckOnce(ctx context.Context) {
	if !r.authenticated() {
		return
	}
	if r.sessions.IsValid(ctx) {
		return
	}
	r.logger.WarnContext(ctx, "authenticated in memory but session gone from storage, reinitializing")
	r.onDivergence(ctx)
}
