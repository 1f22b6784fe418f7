package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marketgrove/storefront-state/internal/domain/cart"
	"github.com/marketgrove/storefront-state/internal/ports"
)

// ErrAuthRequired is returned when a guest attempts a gated mutation.
// Guests may browse but not accumulate a persisted cart.
var ErrAuthRequired = errors.New("authentication required")

// CartServiceOptions groups dependencies for CartService.
type CartServiceOptions struct {
	Store  ports.StateStore // Required
	Logger *slog.Logger     // Optional

	// OnAuthRequired fires instead of mutating state when an
	// unauthenticated caller attempts a gated action.
	OnAuthRequired func()
}

// CartService holds the in-memory cart aggregate for the active user and
// writes it through the durable store after every mutation. All methods are
// safe for concurrent use.
type CartService struct {
	store          ports.StateStore
	logger         *slog.Logger
	onAuthRequired func()

	mu     sync.Mutex
	state  cart.State
	userID string
}

// NewCartService constructs a CartService with an empty aggregate.
func NewCartService(opts CartServiceOptions) (*CartService, error) {
	if opts.Store == nil {
		return nil, errors.New("state store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &CartService{
		store:          opts.Store,
		logger:         opts.Logger,
		onAuthRequired: opts.OnAuthRequired,
		state:          cart.Empty(),
	}, nil
}

// cartKey namespaces the persisted aggregate by user id so accounts sharing
// one deployment do not collide.
func cartKey(userID string) string { return "cart:" + userID }

// Activate marks userID as the authenticated cart owner and loads their
// persisted aggregate, replacing the in-memory state wholesale.
func (c *CartService) Activate(ctx context.Context, userID string) (cart.State, error) {
	if userID == "" {
		return cart.Empty(), errors.New("user id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userID = userID
	snapshot := cart.Empty()
	found, err := c.store.Load(ctx, cartKey(userID), &snapshot)
	if err != nil {
		return cart.Empty(), fmt.Errorf("load cart: %w", err)
	}
	if !found {
		snapshot = cart.Empty()
	}
	c.state = snapshot
	c.logger.InfoContext(ctx, "cart activated", "user_id", userID, "lines", len(snapshot.Items))
	return c.state, nil
}

// Deactivate resets the in-memory aggregate to empty and forgets the owner.
// The persisted copy stays in storage so the cart survives the next login;
// clearPersisted removes it as well.
func (c *CartService) Deactivate(ctx context.Context, clearPersisted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	userID := c.userID
	c.state = cart.Empty()
	c.userID = ""

	if clearPersisted && userID != "" {
		if err := c.store.Clear(ctx, cartKey(userID)); err != nil {
			return fmt.Errorf("clear persisted cart: %w", err)
		}
	}
	return nil
}

// Add merges a product into the cart. Gated on authentication.
func (c *CartService) Add(
	ctx context.Context,
	p cart.Product,
	quantity int,
	size, color string,
) (cart.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		c.refuse()
		return c.state, ErrAuthRequired
	}
	c.state = c.state.Add(p, quantity, size, color)
	c.persistLocked(ctx)
	return c.state, nil
}

// Remove deletes a line by composite key. Gated on authentication.
func (c *CartService) Remove(ctx context.Context, key string) (cart.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		c.refuse()
		return c.state, ErrAuthRequired
	}
	c.state = c.state.Remove(key)
	c.persistLocked(ctx)
	return c.state, nil
}

// SetQuantity replaces a line's quantity. Gated on authentication.
func (c *CartService) SetQuantity(ctx context.Context, key string, quantity int) (cart.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID == "" {
		c.refuse()
		return c.state, ErrAuthRequired
	}
	c.state = c.state.SetQuantity(key, quantity)
	c.persistLocked(ctx)
	return c.state, nil
}

// Clear empties the in-memory aggregate and the persisted copy. Not gated:
// clearing is always allowed (e.g. after checkout or session teardown).
func (c *CartService) Clear(ctx context.Context) (cart.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = cart.Empty()
	if c.userID != "" {
		if err := c.store.Clear(ctx, cartKey(c.userID)); err != nil {
			return c.state, fmt.Errorf("clear persisted cart: %w", err)
		}
	}
	return c.state, nil
}

// State returns the current aggregate snapshot.
func (c *CartService) State() cart.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *CartService) refuse() {
	if c.onAuthRequired != nil {
		c.onAuthRequired()
	}
}

// persistLocked writes the aggregate through the durable store. A failed
// save loses persistence, not the in-memory state, so it is logged rather
// than surfaced to the mutating caller.
func (c *CartService) persistLocked(ctx context.Context) {
	if c.state.IsEmpty() {
		return
	}
	if err := c.store.Save(ctx, cartKey(c.userID), c.state, true); err != nil {
		c.logger.WarnContext(ctx, "persist cart failed", "user_id", c.userID, "error", err)
	}
}
