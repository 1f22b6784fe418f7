// Package data provides key-value backends and the durable store wrapper
// that maintains backup copies of persisted state.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marketgrove/storefront-state/internal/ports"
)

const (
	backupSuffix    = "_backup"
	timestampSuffix = "_timestamp"
)

// DurableStore wraps a KeyValue backend with JSON serialization and a
// parallel backup copy per key. The backing store has no atomicity or
// corruption guarantees across writers; the backup copy gives best-effort
// recovery without a transaction log.
type DurableStore struct {
	kv     ports.KeyValue
	clock  ports.Clock
	logger *slog.Logger
}

// DurableStoreOptions groups dependencies for DurableStore.
type DurableStoreOptions struct {
	KV     ports.KeyValue // Required: backing store
	Clock  ports.Clock    // Optional: defaults to system time
	Logger *slog.Logger   // Optional: defaults to slog.Default()
}

// NewDurableStore constructs a DurableStore.
func NewDurableStore(opts DurableStoreOptions) (*DurableStore, error) {
	if opts.KV == nil {
		return nil, errors.New("key-value backend is required")
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &DurableStore{kv: opts.KV, clock: opts.Clock, logger: opts.Logger}, nil
}

// Save serializes value to JSON and writes it under key. Unless suppressed,
// an identical backup copy and a write timestamp are stored alongside it.
// A failed backup write degrades recovery but does not fail the save.
func (d *DurableStore) Save(ctx context.Context, key string, value any, backup bool) error {
	payload, err := json.Marshal(value)
	if err != nil {
		d.logger.ErrorContext(ctx, "serialize state failed", "key", key, "error", err)
		return fmt.Errorf("marshal %q: %w", key, err)
	}

	if err := d.kv.Set(ctx, key, payload); err != nil {
		d.logger.ErrorContext(ctx, "persist state failed", "key", key, "error", err)
		return fmt.Errorf("store %q: %w", key, err)
	}

	if !backup {
		return nil
	}
	if err := d.kv.Set(ctx, key+backupSuffix, payload); err != nil {
		d.logger.WarnContext(ctx, "backup copy write failed", "key", key, "error", err)
	}
	ts := d.clock.Now().UTC().Format(time.RFC3339Nano)
	if err := d.kv.Set(ctx, key+timestampSuffix, []byte(ts)); err != nil {
		d.logger.WarnContext(ctx, "write timestamp failed", "key", key, "error", err)
	}
	return nil
}

// Load reads key into dest. On a missing or corrupt primary copy it falls
// back to the backup, transparently repairing the primary when the fallback
// succeeds. Returns false when neither copy yields a value; dest is left
// untouched so the caller's default applies.
func (d *DurableStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	primary, err := d.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %q: %w", key, err)
	}
	if primary != nil {
		if unmarshalErr := json.Unmarshal(primary, dest); unmarshalErr == nil {
			return true, nil
		}
		d.logger.WarnContext(ctx, "primary copy corrupt, trying backup", "key", key)
	}

	backup, err := d.kv.Get(ctx, key+backupSuffix)
	if err != nil {
		return false, fmt.Errorf("load backup of %q: %w", key, err)
	}
	if backup == nil {
		return false, nil
	}
	if unmarshalErr := json.Unmarshal(backup, dest); unmarshalErr != nil {
		d.logger.WarnContext(ctx, "backup copy corrupt", "key", key, "error", unmarshalErr)
		return false, nil
	}

	// Repair the primary copy from the backup.
	if repairErr := d.kv.Set(ctx, key, backup); repairErr != nil {
		d.logger.WarnContext(ctx, "repair primary copy failed", "key", key, "error", repairErr)
	} else {
		d.logger.InfoContext(ctx, "restored state from backup copy", "key", key)
	}
	return true, nil
}

// Clear removes the primary, backup, and timestamp entries for key.
func (d *DurableStore) Clear(ctx context.Context, key string) error {
	var errs []error
	for _, k := range []string{key, key + backupSuffix, key + timestampSuffix} {
		if _, err := d.kv.Delete(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("clear %q: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// LastWrite returns the recorded write timestamp for key, when present.
func (d *DurableStore) LastWrite(ctx context.Context, key string) (time.Time, bool, error) {
	raw, err := d.kv.Get(ctx, key+timestampSuffix)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load timestamp of %q: %w", key, err)
	}
	if raw == nil {
		return time.Time{}, false, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, false, nil
	}
	return ts, true, nil
}
