// Package service orchestrates the state layer: session lifecycle, cart and
// wishlist mutations, and background verification against the auth API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marketgrove/storefront-state/internal/domain/session"
	"github.com/marketgrove/storefront-state/internal/ports"
)

// Storage keys for the session bundle and its resilience copies. The bundle
// is authoritative; token and user are also written standalone so a record
// with a damaged bundle can still be partially recovered.
const (
	sessionKey      = "session"
	sessionTokenKey = "session_token"
	sessionUserKey  = "session_user"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store  ports.StateStore // Required
	Auth   ports.AuthAPI    // Required for Login/Logout flows
	Clock  ports.Clock      // Required: drives expiry decisions
	TTL    time.Duration    // Session lifetime assigned at login
	Logger *slog.Logger     // Optional
}

// SessionService manages the persisted session record: create on login,
// restore on startup, destroy on logout or expiry.
type SessionService struct {
	store  ports.StateStore
	auth   ports.AuthAPI
	clock  ports.Clock
	ttl    time.Duration
	logger *slog.Logger
}

// ErrNoSession is returned by operations that need a valid session when
// none is present.
var ErrNoSession = errors.New("no active session")

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Store == nil {
		return nil, errors.New("state store is required")
	}
	if opts.Clock == nil {
		return nil, errors.New("clock is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SessionService{
		store:  opts.Store,
		auth:   opts.Auth,
		clock:  opts.Clock,
		ttl:    opts.TTL,
		logger: opts.Logger,
	}, nil
}

// Save normalizes the token and persists the session bundle plus standalone
// token and user copies. Returns the stored record.
func (s *SessionService) Save(
	ctx context.Context,
	user json.RawMessage,
	token string,
	expiresAt time.Time,
) (session.Record, error) {
	rec := session.Record{
		User:      user,
		Token:     session.NormalizeToken(token),
		ExpiresAt: expiresAt,
		SessionID: uuid.NewString(),
	}
	if !rec.Valid(s.clock.Now()) {
		return session.Record{}, errors.New("refusing to save invalid session")
	}

	if err := s.store.Save(ctx, sessionKey, rec, true); err != nil {
		return session.Record{}, fmt.Errorf("save session: %w", err)
	}
	// Standalone copies are resilience only; their failure is not fatal.
	if err := s.store.Save(ctx, sessionTokenKey, rec.Token, false); err != nil {
		s.logger.WarnContext(ctx, "save standalone token failed", "error", err)
	}
	if err := s.store.Save(ctx, sessionUserKey, rec.User, false); err != nil {
		s.logger.WarnContext(ctx, "save standalone user failed", "error", err)
	}
	return rec, nil
}

// Load restores the session record from storage. Expired or unusable
// records are cleared and reported as absent; the caller never sees a
// partially populated record. A token missing from the record but nested
// in the user blob is recovered and re-persisted (self-healing).
func (s *SessionService) Load(ctx context.Context) (session.Record, bool, error) {
	var rec session.Record
	found, err := s.store.Load(ctx, sessionKey, &rec)
	if err != nil {
		return session.Record{}, false, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return session.Record{}, false, nil
	}

	rec.Token = session.NormalizeToken(rec.Token)
	if rec.Token == "" {
		if recovered := rec.TokenFromUser(); recovered != "" {
			rec.Token = recovered
			s.logger.InfoContext(ctx, "recovered token from user blob", "session_id", rec.SessionID)
			if saveErr := s.store.Save(ctx, sessionKey, rec, true); saveErr != nil {
				s.logger.WarnContext(ctx, "re-persist healed session failed", "error", saveErr)
			}
			if saveErr := s.store.Save(ctx, sessionTokenKey, rec.Token, false); saveErr != nil {
				s.logger.WarnContext(ctx, "re-persist healed token failed", "error", saveErr)
			}
		}
	}

	now := s.clock.Now()
	if !rec.Valid(now) {
		if rec.TimeRemaining(now) <= 0 {
			s.logger.InfoContext(ctx, "session expired", "session_id", rec.SessionID)
		}
		if clearErr := s.Clear(ctx); clearErr != nil {
			s.logger.WarnContext(ctx, "clear stale session failed", "error", clearErr)
		}
		return session.Record{}, false, nil
	}
	return rec, true, nil
}

// Clear removes every session-related key.
func (s *SessionService) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{sessionKey, sessionTokenKey, sessionUserKey} {
		if err := s.store.Clear(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsValid reports whether a usable session is currently persisted.
func (s *SessionService) IsValid(ctx context.Context) bool {
	_, ok, err := s.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "session validity probe failed", "error", err)
		return false
	}
	return ok
}

// Login authenticates against the auth API and persists the resulting
// session with an expiry assigned from the configured TTL.
func (s *SessionService) Login(ctx context.Context, creds ports.Credentials) (session.Record, error) {
	if s.auth == nil {
		return session.Record{}, errors.New("auth API is not configured")
	}
	result, err := s.auth.Login(ctx, creds)
	if err != nil {
		return session.Record{}, fmt.Errorf("login: %w", err)
	}
	rec, err := s.Save(ctx, result.User, result.Token, s.clock.Now().Add(s.ttl))
	if err != nil {
		return session.Record{}, err
	}
	s.logger.InfoContext(ctx, "session created", "session_id", rec.SessionID, "user_id", rec.UserID())
	return rec, nil
}

// Logout notifies the auth API (best effort) and clears the local session.
func (s *SessionService) Logout(ctx context.Context) error {
	rec, ok, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if ok && s.auth != nil {
		if logoutErr := s.auth.Logout(ctx, rec.Token); logoutErr != nil {
			s.logger.WarnContext(ctx, "server logout failed", "error", logoutErr)
		}
	}
	if !ok {
		return nil
	}
	if err := s.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.InfoContext(ctx, "session destroyed", "session_id", rec.SessionID)
	return nil
}

// RefreshUser replaces the stored profile blob, keeping token and expiry.
// Used when a background verification returns fresher profile data.
func (s *SessionService) RefreshUser(ctx context.Context, user json.RawMessage) error {
	rec, ok, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSession
	}
	rec.User = user
	if err := s.store.Save(ctx, sessionKey, rec, true); err != nil {
		return fmt.Errorf("refresh user: %w", err)
	}
	if err := s.store.Save(ctx, sessionUserKey, rec.User, false); err != nil {
		s.logger.WarnContext(ctx, "refresh standalone user failed", "error", err)
	}
	return nil
}
