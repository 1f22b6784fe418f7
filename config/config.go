package config

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - storage.go: State storage backend configuration
//   - database.go: Redis and Postgres connection configuration
//   - session.go: Session policy and auth API configuration
type AppConfig struct {
	// IsDev controls development mode behavior (memory backend defaults,
	// verbose logging). Set DEV=true for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Storage backend configuration
	Storage StorageConfig `envPrefix:"STORAGE_"`

	// Database configuration
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Postgres DBConfig    `envPrefix:"DB_"`

	// Session policy configuration
	Session SessionConfig `envPrefix:"SESSION_"`

	// Auth collaborator configuration
	AuthAPI AuthAPIConfig `envPrefix:"AUTH_"`
}
