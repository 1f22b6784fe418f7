package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/marketgrove/storefront-state/internal/ports"
)

// FakeAuthAPI is a lightweight hand-written double for tests that do not
// need gomock expectations. Unset funcs fall back to a deterministic
// "happy path" user.
type FakeAuthAPI struct {
	LoginFunc      func(ctx context.Context, creds ports.Credentials) (ports.LoginResult, error)
	GetProfileFunc func(ctx context.Context, token string) (json.RawMessage, error)
	LogoutFunc     func(ctx context.Context, token string) error

	// LogoutCalls counts Logout invocations for assertion convenience.
	LogoutCalls int
}

// Ensure compile-time conformance to the port.
var _ ports.AuthAPI = (*FakeAuthAPI)(nil)

// DefaultUser is the profile blob returned by the fallback implementations.
var DefaultUser = json.RawMessage(`{"id":"user-1","name":"Fake User","email":"fake.user@example.com","role":"customer"}`)

// DefaultToken is the token returned by the fallback Login.
const DefaultToken = "fake-token-1"

func (f *FakeAuthAPI) Login(ctx context.Context, creds ports.Credentials) (ports.LoginResult, error) {
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, creds)
	}
	return ports.LoginResult{User: DefaultUser, Token: DefaultToken}, nil
}

func (f *FakeAuthAPI) GetProfile(ctx context.Context, token string) (json.RawMessage, error) {
	if f.GetProfileFunc != nil {
		return f.GetProfileFunc(ctx, token)
	}
	return DefaultUser, nil
}

func (f *FakeAuthAPI) Logout(ctx context.Context, token string) error {
	f.LogoutCalls++
	if f.LogoutFunc != nil {
		return f.LogoutFunc(ctx, token)
	}
	return nil
}

// FutureExpiry returns an expiry comfortably in the future relative to now.
func FutureExpiry(now time.Time) time.Time { return now.Add(time.Hour) }
