package data

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	// Import pgx driver for database/sql compatibility.
	_ "github.com/jackc/pgx/v5/stdlib"

	apperrors "github.com/marketgrove/storefront-state/internal/errors"
)

// PGKV is a Postgres-backed KeyValue storing entries in a single table.
// Writes are upserts, so last-writer-wins matches the semantics of the
// other backends.
type PGKV struct {
	db     *sql.DB
	prefix string
}

// NewPGKV creates a PGKV with the given connection and key prefix.
func NewPGKV(db *sql.DB, prefix string) *PGKV {
	return &PGKV{db: db, prefix: prefix}
}

// EnsureSchema creates the backing table if it does not exist.
func (p *PGKV) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS kv_entries (
			key        text PRIMARY KEY,
			value      bytea NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure kv schema: %w", apperrors.MapStoreError(err))
	}
	return nil
}

// Set upserts value under key.
func (p *PGKV) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return stderrors.New("key cannot be empty")
	}
	const q = `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()`
	if _, err := p.db.ExecContext(ctx, q, p.prefix+key, value); err != nil {
		return fmt.Errorf("kv upsert %q: %w", key, apperrors.MapStoreError(err))
	}
	return nil
}

// Get retrieves a value by key. Absent keys yield nil, not an error.
func (p *PGKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, stderrors.New("key cannot be empty")
	}
	const q = `SELECT value FROM kv_entries WHERE key = $1`
	var value []byte
	err := p.db.QueryRowContext(ctx, q, p.prefix+key).Scan(&value)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("kv select %q: %w", key, apperrors.MapStoreError(err))
	}
	return value, nil
}

// Delete removes a key. Returns true if a row was deleted.
func (p *PGKV) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, stderrors.New("key cannot be empty")
	}
	const q = `DELETE FROM kv_entries WHERE key = $1`
	res, err := p.db.ExecContext(ctx, q, p.prefix+key)
	if err != nil {
		return false, fmt.Errorf("kv delete %q: %w", key, apperrors.MapStoreError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("kv delete rows affected: %w", err)
	}
	return affected > 0, nil
}

// Keys returns all stored keys under the configured prefix, with the
// prefix stripped.
func (p *PGKV) Keys(ctx context.Context) ([]string, error) {
	const q = `SELECT key FROM kv_entries WHERE key LIKE $1 || '%' ORDER BY key`
	rows, err := p.db.QueryContext(ctx, q, p.prefix)
	if err != nil {
		return nil, fmt.Errorf("kv list keys: %w", apperrors.MapStoreError(err))
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if scanErr := rows.Scan(&key); scanErr != nil {
			return nil, fmt.Errorf("kv scan key: %w", scanErr)
		}
		keys = append(keys, strings.TrimPrefix(key, p.prefix))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv iterate keys: %w", err)
	}
	return keys, nil
}

// Health checks the database connection.
func (p *PGKV) Health(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
