package config

import "time"

// SessionConfig contains session policy configuration.
type SessionConfig struct {
	// TTL is how long a freshly saved session stays valid.
	TTL time.Duration `env:"TTL" envDefault:"24h"`

	// LivenessInterval is how often the watcher re-validates that the
	// persisted session still matches in-memory state.
	LivenessInterval time.Duration `env:"LIVENESS_INTERVAL" envDefault:"30s"`

	// VerifyInterval is how often the background verifier checks the token
	// against the auth API.
	VerifyInterval time.Duration `env:"VERIFY_INTERVAL" envDefault:"5m"`
}

// AuthAPIConfig contains configuration for the external auth API.
type AuthAPIConfig struct {
	// BaseURL is the root of the storefront REST API, e.g. http://localhost:4000/api.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:4000/api"`

	// Timeout bounds each HTTP call to the auth API.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}
