package authapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketgrove/storefront-state/config"
	"github.com/marketgrove/storefront-state/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientOptions{
		Config: config.AuthAPIConfig{BaseURL: srv.URL, Timeout: 2 * time.Second},
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL is required")
}

func TestClient_Login_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":"u1","name":"Ada"},"token":"tok-1"}`))
	})

	result, err := client.Login(context.Background(), ports.Credentials{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.JSONEq(t, `{"id":"u1","name":"Ada"}`, string(result.User))
}

func TestClient_Login_BadCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), ports.Credentials{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrUnauthorized))
}

func TestClient_Login_MissingFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token":""}`))
	})

	_, err := client.Login(context.Background(), ports.Credentials{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing user or token")
}

func TestClient_GetProfile_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"u1","role":"customer"}`))
	})

	profile, err := client.GetProfile(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","role":"customer"}`, string(profile))
}

func TestClient_GetProfile_StatusClassification(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		unauthorized bool
	}{
		{name: "401 is authoritative", status: http.StatusUnauthorized, unauthorized: true},
		{name: "403 is authoritative", status: http.StatusForbidden, unauthorized: true},
		{name: "500 is inconclusive", status: http.StatusInternalServerError, unauthorized: false},
		{name: "502 is inconclusive", status: http.StatusBadGateway, unauthorized: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			_, err := client.GetProfile(context.Background(), "tok")
			require.Error(t, err)
			assert.Equal(t, tt.unauthorized, errors.Is(err, ports.ErrUnauthorized))
		})
	}
}

func TestClient_GetProfile_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // Connection refused from here on.

	client, err := NewClient(ClientOptions{
		Config: config.AuthAPIConfig{BaseURL: srv.URL, Timeout: time.Second},
	})
	require.NoError(t, err)

	_, err = client.GetProfile(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrUnauthorized),
		"transport failures must not look like auth rejections")
}

func TestClient_Logout(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/auth/logout", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Logout(context.Background(), "tok-1"))
	assert.Equal(t, "Bearer tok-1", gotAuth)
}
