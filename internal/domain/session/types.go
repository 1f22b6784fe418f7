package session

// Package session contains domain-level types for the persisted user session.
// It is pure and free of storage/adapter concerns.

import (
	"encoding/json"
	"strings"
	"time"
)

// Record is the session bundle persisted for an authenticated user.
// User is an opaque profile blob from the storefront API; it is passed
// through unmodified rather than modeled field by field.
type Record struct {
	User      json.RawMessage `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	// SessionID identifies this login instance. Diagnostic display only.
	SessionID string `json:"session_id"`
}

// Valid reports whether the record represents a usable session: user,
// token, and expiry must all be present and the expiry in the future.
func (r Record) Valid(now time.Time) bool {
	if len(r.User) == 0 || r.Token == "" || r.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(r.ExpiresAt)
}

// TimeRemaining returns how long the session stays valid from now.
// Negative when already expired.
func (r Record) TimeRemaining(now time.Time) time.Duration {
	return r.ExpiresAt.Sub(now)
}

// UserID extracts the user identifier from the profile blob. The storefront
// API emits either "id" or the document-store "_id" field.
func (r Record) UserID() string {
	var probe struct {
		ID    string `json:"id"`
		DocID string `json:"_id"`
	}
	if err := json.Unmarshal(r.User, &probe); err != nil {
		return ""
	}
	if probe.ID != "" {
		return probe.ID
	}
	return probe.DocID
}

// TokenFromUser recovers a token nested inside the profile blob. Older
// clients stored the token there; Load uses this to self-heal records
// whose standalone token went missing.
func (r Record) TokenFromUser() string {
	var probe struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(r.User, &probe); err != nil {
		return ""
	}
	return NormalizeToken(probe.Token)
}

// NormalizeToken strips quoting artifacts left behind by a historical
// double-serialization bug: tokens were JSON-stringified twice and ended
// up wrapped in literal or escaped quotes. Tokens written by this module
// are plain strings; normalization only repairs legacy records.
func NormalizeToken(token string) string {
	t := strings.TrimSpace(token)
	t = strings.ReplaceAll(t, `\"`, "")
	t = strings.Trim(t, `"`)
	return t
}
