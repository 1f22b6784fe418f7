// Command statekeeper runs the storefront state daemon: it restores the
// persisted session and carts on startup, keeps them reconciled with the
// auth API in the background, and watches for storage divergence.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marketgrove/storefront-state/config"
	"github.com/marketgrove/storefront-state/internal/adapters/authapi"
	"github.com/marketgrove/storefront-state/internal/adapters/watcher"
	"github.com/marketgrove/storefront-state/internal/bootstrap"
	"github.com/marketgrove/storefront-state/internal/data"
	"github.com/marketgrove/storefront-state/internal/service"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting statekeeper",
		"storage_backend", cfg.Storage.Backend,
		"auth_base_url", cfg.AuthAPI.BaseURL,
		"dev", cfg.IsDev)

	infra, err := bootstrap.ConnectKeyValue(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close storage failed", "error", cerr)
		}
	}()

	rt, err := buildRuntime(&cfg, infra, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.reinitialize(ctx)

	return runLoops(ctx, &cfg, rt, logger)
}

// runtime holds the wired services plus the in-memory authenticated flag
// the liveness watcher compares against storage.
type runtime struct {
	sessions  *service.SessionService
	verifier  *service.VerifyService
	carts     *service.CartService
	wishlists *service.WishlistService
	logger    *slog.Logger

	mu     sync.Mutex
	userID string
}

func buildRuntime(cfg *config.AppConfig, infra *bootstrap.Infra, logger *slog.Logger) (*runtime, error) {
	store, err := data.NewDurableStore(data.DurableStoreOptions{
		KV:     infra.KV,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	auth, err := authapi.NewClient(authapi.ClientOptions{Config: cfg.AuthAPI})
	if err != nil {
		return nil, err
	}

	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:  store,
		Auth:   auth,
		Clock:  data.RealClock{},
		TTL:    cfg.Session.TTL,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	verifier, err := service.NewVerifyService(service.VerifyServiceOptions{
		Auth:     auth,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	onAuthRequired := func() {
		logger.Info("mutation refused, authentication required")
	}
	carts, err := service.NewCartService(service.CartServiceOptions{
		Store:          store,
		Logger:         logger,
		OnAuthRequired: onAuthRequired,
	})
	if err != nil {
		return nil, err
	}
	wishlists, err := service.NewWishlistService(service.WishlistServiceOptions{
		Store:          store,
		Logger:         logger,
		OnAuthRequired: onAuthRequired,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		sessions:  sessions,
		verifier:  verifier,
		carts:     carts,
		wishlists: wishlists,
		logger:    logger,
	}, nil
}

func (rt *runtime) authenticated() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.userID != ""
}

// reinitialize rebuilds in-memory state from storage: restore the session
// if one is persisted and valid, otherwise drop back to guest state.
func (rt *runtime) reinitialize(ctx context.Context) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rec, ok, err := rt.sessions.Load(ctx)
	if err != nil {
		rt.logger.WarnContext(ctx, "restore session failed", "error", err)
		ok = false
	}

	if !ok {
		if rt.userID != "" {
			rt.logger.InfoContext(ctx, "dropping to guest state", "user_id", rt.userID)
			rt.deactivateLocked(ctx)
		}
		return
	}

	userID := rec.UserID()
	if userID == rt.userID {
		return
	}
	if rt.userID != "" {
		rt.deactivateLocked(ctx)
	}

	if _, err := rt.carts.Activate(ctx, userID); err != nil {
		rt.logger.WarnContext(ctx, "restore cart failed", "user_id", userID, "error", err)
	}
	if _, err := rt.wishlists.Activate(ctx, userID); err != nil {
		rt.logger.WarnContext(ctx, "restore wishlist failed", "user_id", userID, "error", err)
	}
	rt.userID = userID
	rt.logger.InfoContext(ctx, "session restored",
		"session_id", rec.SessionID, "user_id", userID, "expires_in", rec.TimeRemaining(time.Now()))
}

func (rt *runtime) deactivateLocked(ctx context.Context) {
	if err := rt.carts.Deactivate(ctx, false); err != nil {
		rt.logger.WarnContext(ctx, "deactivate cart failed", "error", err)
	}
	if err := rt.wishlists.Deactivate(ctx, false); err != nil {
		rt.logger.WarnContext(ctx, "deactivate wishlist failed", "error", err)
	}
	rt.userID = ""
}

func runLoops(ctx context.Context, cfg *config.AppConfig, rt *runtime, logger *slog.Logger) error {
	liveness, err := watcher.NewRunner(watcher.RunnerOptions{
		Sessions:      rt.sessions,
		Interval:      cfg.Session.LivenessInterval,
		Logger:        logger,
		Authenticated: rt.authenticated,
		OnDivergence:  rt.reinitialize,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return liveness.Run(ctx)
	})
	g.Go(func() error {
		return runVerifyLoop(ctx, cfg.Session.VerifyInterval, rt)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("statekeeper stopped")
	return nil
}

func runVerifyLoop(ctx context.Context, interval time.Duration, rt *runtime) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ok, err := rt.verifier.VerifyOnce(ctx)
			if err != nil {
				rt.logger.WarnContext(ctx, "session verification failed", "error", err)
				continue
			}
			if !ok && rt.authenticated() {
				// Server revoked the session since the last round.
				rt.reinitialize(ctx)
			}
		}
	}
}
