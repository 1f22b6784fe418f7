package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/marketgrove/storefront-state/internal/ports"
)

// VerifyServiceOptions groups dependencies for VerifyService.
type VerifyServiceOptions struct {
	Auth     ports.AuthAPI   // Required
	Sessions *SessionService // Required
	Logger   *slog.Logger    // Optional
}

// VerifyService reconciles the local session with server truth in the
// background. The server is authoritative for token validity: a 401/403
// clears the local session even when it looks valid locally. Transient
// failures (network, 5xx) never invalidate; staying logged in with stale
// data beats spurious logouts.
type VerifyService struct {
	auth     ports.AuthAPI
	sessions *SessionService
	logger   *slog.Logger
}

// NewVerifyService constructs a VerifyService.
func NewVerifyService(opts VerifyServiceOptions) (*VerifyService, error) {
	if opts.Auth == nil {
		return nil, errors.New("auth API is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session service is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &VerifyService{auth: opts.Auth, sessions: opts.Sessions, logger: opts.Logger}, nil
}

// VerifyOnce performs one verification round. It returns whether a valid
// session remains after the round.
func (v *VerifyService) VerifyOnce(ctx context.Context) (bool, error) {
	rec, ok, err := v.sessions.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	profile, err := v.auth.GetProfile(ctx, rec.Token)
	switch {
	case err == nil:
		// Server agreed; adopt the fresher profile blob.
		if refreshErr := v.sessions.RefreshUser(ctx, profile); refreshErr != nil {
			v.logger.WarnContext(ctx, "refresh profile failed", "error", refreshErr)
		}
		return true, nil
	case errors.Is(err, ports.ErrUnauthorized):
		v.logger.InfoContext(ctx, "server rejected token, clearing session",
			"session_id", rec.SessionID)
		if clearErr := v.sessions.Clear(ctx); clearErr != nil {
			return false, clearErr
		}
		return false, nil
	default:
		// Verdict unknown: keep the local session.
		v.logger.WarnContext(ctx, "verification inconclusive, keeping session", "error", err)
		return true, nil
	}
}
