package config

import (
	"fmt"
	"strings"
)

// StorageBackend selects which key-value backend holds persisted state.
type StorageBackend string

const (
	// BackendMemory keeps state in process memory (development and tests).
	BackendMemory StorageBackend = "memory"
	// BackendRedis persists state in Redis, shared across processes.
	BackendRedis StorageBackend = "redis"
	// BackendPostgres persists state in a Postgres table.
	BackendPostgres StorageBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "memory", "redis", "postgres":
		*b = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: memory, redis, postgres)", v)
	}
}

// StorageConfig contains state storage configuration.
type StorageConfig struct {
	// Backend determines which key-value implementation to use.
	Backend StorageBackend `env:"BACKEND" envDefault:"memory"`

	// KeyPrefix is prepended to every state key. Useful when several
	// deployments share one Redis or Postgres instance.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"storefront:"`
}
