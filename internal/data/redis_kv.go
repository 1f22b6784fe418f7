package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/marketgrove/storefront-state/config"
)

// RedisKV is a Redis-backed KeyValue for state shared across processes.
// Entries carry no TTL: like the browser store this module replaces, keys
// live until explicitly cleared.
type RedisKV struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisKV creates a RedisKV with the given client and key prefix.
func NewRedisKV(client redis.UniversalClient, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

// Set stores value under key without expiry.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

// Get retrieves a value by key. Absent keys yield nil, not an error.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}
	result, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return []byte(result), nil
}

// Delete removes a key. Returns true if the key existed.
func (r *RedisKV) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	result, err := r.client.Del(ctx, r.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return result > 0, nil
}

// Keys returns all stored keys under the configured prefix, with the
// prefix stripped. Uses SCAN so large keyspaces do not block the server.
func (r *RedisKV) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Health checks the Redis connection.
func (r *RedisKV) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NewRedisClient creates a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.URI,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
