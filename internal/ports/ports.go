package ports

// Package ports defines interfaces (hexagonal ports) for storage and the
// auth collaborator. Implementations live in internal/data and
// internal/adapters; orchestration in internal/service.

import (
	"context"
	"encoding/json"
	"time"
)

// KeyValue is a string-keyed durable store, the substrate underneath the
// backup-copy wrapper. Get returns nil for absent keys rather than an error.
type KeyValue interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes a key. Returns true if the key existed.
	Delete(ctx context.Context, key string) (bool, error)
}

// StateStore is the durable wrapper the service layer writes through: JSON
// values with a parallel backup copy and best-effort recovery on load.
type StateStore interface {
	// Save serializes value under key. When backup is true an identical
	// copy and a write timestamp are stored alongside it.
	Save(ctx context.Context, key string, value any, backup bool) error
	// Load reads key into dest, falling back to the backup copy when the
	// primary is absent or corrupt. Returns false when neither yields a
	// value; dest is untouched in that case.
	Load(ctx context.Context, key string, dest any) (bool, error)
	// Clear removes the primary, backup, and timestamp entries for key.
	Clear(ctx context.Context, key string) error
}

// Credentials carries a login request to the auth collaborator.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the successful outcome of a login call: the opaque profile
// blob and the bearer token. Expiry is assigned locally by session policy.
type LoginResult struct {
	User  json.RawMessage
	Token string
}

// AuthAPI is the external auth collaborator. GetProfile returns
// ErrUnauthorized when the server rejects the token (401/403); any other
// failure means the verdict is unknown and local state must be kept.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	GetProfile(ctx context.Context, token string) (json.RawMessage, error)
	Logout(ctx context.Context, token string) error
}

// Clock provides the current time. Injected so expiry logic is testable.
type Clock interface {
	Now() time.Time
}

// ErrUnauthorized is returned by AuthAPI implementations when the server
// authoritatively rejects a credential (HTTP 401 or 403).
type unauthorizedError struct{}

func (unauthorizedError) Error() string { return "unauthorized" }

var ErrUnauthorized error = unauthorizedError{}
