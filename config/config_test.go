package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestStorageBackend_UnmarshalText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    StorageBackend
		expectError bool
	}{
		{name: "memory", input: "memory", expected: BackendMemory},
		{name: "redis", input: "redis", expected: BackendRedis},
		{name: "postgres", input: "postgres", expected: BackendPostgres},
		{name: "case insensitive", input: "Redis", expected: BackendRedis},
		{name: "invalid", input: "sqlite", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b StorageBackend
			err := b.UnmarshalText([]byte(tt.input))
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for input %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, b)
			}
		})
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("expected memory backend default, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.KeyPrefix != "storefront:" {
		t.Errorf("unexpected key prefix default: %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("unexpected session TTL default: %v", cfg.Session.TTL)
	}
	if cfg.Session.LivenessInterval != 30*time.Second {
		t.Errorf("unexpected liveness interval default: %v", cfg.Session.LivenessInterval)
	}
	if cfg.Redis.URI != "localhost:6379" {
		t.Errorf("unexpected redis URI default: %q", cfg.Redis.URI)
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("unexpected postgres port default: %d", cfg.Postgres.Port)
	}
	if cfg.AuthAPI.Timeout != 10*time.Second {
		t.Errorf("unexpected auth API timeout default: %v", cfg.AuthAPI.Timeout)
	}
}

func TestAppConfig_EnvOverride(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("AUTH_BASE_URL", "https://shop.example.com/api")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	if cfg.Storage.Backend != BackendRedis {
		t.Errorf("expected redis backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.Session.TTL)
	}
	if cfg.AuthAPI.BaseURL != "https://shop.example.com/api" {
		t.Errorf("unexpected auth base URL: %q", cfg.AuthAPI.BaseURL)
	}
}
