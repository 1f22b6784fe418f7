package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	// Import pgx driver for database/sql compatibility.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/marketgrove/storefront-state/config"
	"github.com/marketgrove/storefront-state/internal/data"
	"github.com/marketgrove/storefront-state/internal/ports"
)

// ConnectDB establishes a connection to the PostgreSQL database.
func ConnectDB(cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	// Build DSN using url.URL to safely handle special characters in credentials
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()

	db, err := sql.Open("pgx", u.String())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if logger != nil {
		logger.Info("database connected", "host", cfg.Host, "port", cfg.Port, "database", cfg.Name)
	}
	return db, nil
}

// ConnectRedis establishes a connection to Redis.
func ConnectRedis(cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := data.NewRedisClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if logger != nil {
		logger.Info("redis connected", "addr", cfg.URI, "db", cfg.DB)
	}
	return client, nil
}

// Infra bundles the connected key-value backend with its closer.
type Infra struct {
	KV    ports.KeyValue
	close func() error
}

// Close releases the underlying connection, if any.
func (i *Infra) Close() error {
	if i.close == nil {
		return nil
	}
	return i.close()
}

// ConnectKeyValue builds the key-value backend selected by configuration.
//
//nolint:ireturn // the backend is intentionally abstract behind ports.KeyValue.
func ConnectKeyValue(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Infra, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Info("using in-memory state backend; state will not survive restarts")
		return &Infra{KV: data.NewMemoryKV()}, nil

	case config.BackendRedis:
		client, err := ConnectRedis(cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &Infra{
			KV:    data.NewRedisKV(client, cfg.Storage.KeyPrefix),
			close: client.Close,
		}, nil

	case config.BackendPostgres:
		db, err := ConnectDB(cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		kv := data.NewPGKV(db, cfg.Storage.KeyPrefix)
		if err := kv.EnsureSchema(ctx); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
			return nil, err
		}
		return &Infra{KV: kv, close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
