package session

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRecord_Valid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := json.RawMessage(`{"id":"u1","name":"Ada"}`)

	tests := []struct {
		name  string
		rec   Record
		valid bool
	}{
		{
			name:  "all present and unexpired",
			rec:   Record{User: user, Token: "tok", ExpiresAt: now.Add(time.Hour)},
			valid: true,
		},
		{
			name:  "expired",
			rec:   Record{User: user, Token: "tok", ExpiresAt: now.Add(-time.Second)},
			valid: false,
		},
		{
			name:  "expiry exactly now",
			rec:   Record{User: user, Token: "tok", ExpiresAt: now},
			valid: false,
		},
		{
			name:  "missing user",
			rec:   Record{Token: "tok", ExpiresAt: now.Add(time.Hour)},
			valid: false,
		},
		{
			name:  "missing token",
			rec:   Record{User: user, ExpiresAt: now.Add(time.Hour)},
			valid: false,
		},
		{
			name:  "missing expiry",
			rec:   Record{User: user, Token: "tok"},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Valid(now); got != tt.valid {
				t.Fatalf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestRecord_TimeRemaining(t *testing.T) {
	now := time.Now()
	r := Record{ExpiresAt: now.Add(90 * time.Minute)}
	if got := r.TimeRemaining(now); got != 90*time.Minute {
		t.Fatalf("TimeRemaining() = %v", got)
	}
	expired := Record{ExpiresAt: now.Add(-time.Minute)}
	if got := expired.TimeRemaining(now); got >= 0 {
		t.Fatalf("expected negative remaining, got %v", got)
	}
}

func TestRecord_UserID(t *testing.T) {
	tests := []struct {
		name string
		user string
		want string
	}{
		{name: "plain id", user: `{"id":"u42"}`, want: "u42"},
		{name: "document id", user: `{"_id":"6512bd43d9ca"}`, want: "6512bd43d9ca"},
		{name: "id wins over _id", user: `{"id":"u1","_id":"doc1"}`, want: "u1"},
		{name: "no id fields", user: `{"name":"Ada"}`, want: ""},
		{name: "malformed blob", user: `{"id":`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{User: json.RawMessage(tt.user)}
			if got := r.UserID(); got != tt.want {
				t.Fatalf("UserID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecord_TokenFromUser(t *testing.T) {
	r := Record{User: json.RawMessage(`{"id":"u1","token":"\"abc.def\""}`)}
	if got := r.TokenFromUser(); got != "abc.def" {
		t.Fatalf("TokenFromUser() = %q", got)
	}
	empty := Record{User: json.RawMessage(`{"id":"u1"}`)}
	if got := empty.TokenFromUser(); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "clean token", input: "abc.def.ghi", want: "abc.def.ghi"},
		{name: "wrapped in quotes", input: `"abc.def.ghi"`, want: "abc.def.ghi"},
		{name: "escaped quotes", input: `\"abc.def.ghi\"`, want: "abc.def.ghi"},
		{name: "double wrapped", input: `"\"abc.def.ghi\""`, want: "abc.def.ghi"},
		{name: "surrounding whitespace", input: "  abc ", want: "abc"},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeToken(tt.input); got != tt.want {
				t.Fatalf("NormalizeToken(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
