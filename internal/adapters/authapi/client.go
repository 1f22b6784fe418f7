// Package authapi provides the HTTP client for the storefront auth API,
// the external collaborator that owns credential and token truth.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marketgrove/storefront-state/config"
	"github.com/marketgrove/storefront-state/internal/ports"
)

// maxErrorBody bounds how much of an error response is read for messages.
const maxErrorBody = 2048

// Client implements ports.AuthAPI over HTTP/JSON.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOptions groups configuration for Client.
type ClientOptions struct {
	Config config.AuthAPIConfig
	Client *http.Client // Optional: defaults to a timeout-bounded client
}

// NewClient builds an auth API client. Callers should pass a validated config.
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.Config.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("auth API base URL is required")
	}

	hc := opts.Client
	if hc == nil {
		timeout := opts.Config.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, client: hc}, nil
}

var _ ports.AuthAPI = (*Client)(nil)

// Login exchanges credentials for a profile blob and bearer token.
func (c *Client) Login(ctx context.Context, creds ports.Credentials) (ports.LoginResult, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("login request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if err := classifyStatus(resp); err != nil {
		return ports.LoginResult{}, err
	}

	var payload struct {
		User  json.RawMessage `json:"user"`
		Token string          `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ports.LoginResult{}, fmt.Errorf("decode login response: %w", err)
	}
	if len(payload.User) == 0 || payload.Token == "" {
		return ports.LoginResult{}, errors.New("login response missing user or token")
	}
	return ports.LoginResult{User: payload.User, Token: payload.Token}, nil
}

// GetProfile fetches the profile for a bearer token. A 401/403 yields
// ports.ErrUnauthorized; any other failure is an ordinary error and carries
// no verdict on the token.
func (c *Client) GetProfile(ctx context.Context, token string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	profile, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read profile response: %w", err)
	}
	if !json.Valid(profile) {
		return nil, errors.New("profile response is not valid JSON")
	}
	return profile, nil
}

// Logout invalidates the token server-side. Best effort; callers clear
// local state regardless.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	defer drainAndClose(resp.Body)

	return classifyStatus(resp)
}

// classifyStatus translates a non-2xx response into an error. 401 and 403
// map to the authoritative ports.ErrUnauthorized.
func classifyStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("auth API status %d: %w", resp.StatusCode, ports.ErrUnauthorized)
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("auth API status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
