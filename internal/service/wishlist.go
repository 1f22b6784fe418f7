package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marketgrove/storefront-state/internal/domain/cart"
	"github.com/marketgrove/storefront-state/internal/domain/wishlist"
	"github.com/marketgrove/storefront-state/internal/ports"
)

// WishlistServiceOptions groups dependencies for WishlistService.
type WishlistServiceOptions struct {
	Store  ports.StateStore // Required
	Logger *slog.Logger     // Optional

	// OnAuthRequired fires instead of mutating state when an
	// unauthenticated caller attempts a gated action.
	OnAuthRequired func()
}

// WishlistService mirrors CartService without quantity semantics.
type WishlistService struct {
	store          ports.StateStore
	logger         *slog.Logger
	onAuthRequired func()

	mu     sync.Mutex
	state  wishlist.State
	userID string
}

// NewWishlistService constructs a WishlistService with an empty aggregate.
func NewWishlistService(opts WishlistServiceOptions) (*WishlistService, error) {
	if opts.Store == nil {
		return nil, errors.New("state store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &WishlistService{
		store:          opts.Store,
		logger:         opts.Logger,
		onAuthRequired: opts.OnAuthRequired,
		state:          wishlist.Empty(),
	}, nil
}

func wishlistKey(userID string) string { return "wishlist:" + userID }

// Activate loads the persisted wishlist for userID.
func (w *WishlistService) Activate(ctx context.Context, userID string) (wishlist.State, error) {
	if userID == "" {
		return wishlist.Empty(), errors.New("user id is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.userID = userID
	snapshot := wishlist.Empty()
	found, err := w.store.Load(ctx, wishlistKey(userID), &snapshot)
	if err != nil {
		return wishlist.Empty(), fmt.Errorf("load wishlist: %w", err)
	}
	if !found {
		snapshot = wishlist.Empty()
	}
	w.state = snapshot
	return w.state, nil
}

// Deactivate resets the in-memory aggregate; clearPersisted also removes
// the stored copy.
func (w *WishlistService) Deactivate(ctx context.Context, clearPersisted bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	userID := w.userID
	w.state = wishlist.Empty()
	w.userID = ""

	if clearPersisted && userID != "" {
		if err := w.store.Clear(ctx, wishlistKey(userID)); err != nil {
			return fmt.Errorf("clear persisted wishlist: %w", err)
		}
	}
	return nil
}

// Add puts a product on the wishlist. Idempotent; gated on authentication.
func (w *WishlistService) Add(ctx context.Context, p cart.Product) (wishlist.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.userID == "" {
		w.refuse()
		return w.state, ErrAuthRequired
	}
	w.state = w.state.Add(p)
	w.persistLocked(ctx)
	return w.state, nil
}

// Remove deletes a product by id. Gated on authentication.
func (w *WishlistService) Remove(ctx context.Context, productID string) (wishlist.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.userID == "" {
		w.refuse()
		return w.state, ErrAuthRequired
	}
	w.state = w.state.Remove(productID)
	w.persistLocked(ctx)
	return w.state, nil
}

// State returns the current aggregate snapshot.
func (w *WishlistService) State() wishlist.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *WishlistService) refuse() {
	if w.onAuthRequired != nil {
		w.onAuthRequired()
	}
}

func (w *WishlistService) persistLocked(ctx context.Context) {
	if w.state.IsEmpty() {
		return
	}
	if err := w.store.Save(ctx, wishlistKey(w.userID), w.state, true); err != nil {
		w.logger.WarnContext(ctx, "persist wishlist failed", "user_id", w.userID, "error", err)
	}
}
