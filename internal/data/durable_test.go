package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) (*DurableStore, *MemoryKV, *FixedClock) {
	t.Helper()
	kv := NewMemoryKV()
	clock := NewFixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	store, err := NewDurableStore(DurableStoreOptions{KV: kv, Clock: clock})
	require.NoError(t, err)
	return store, kv, clock
}

func TestNewDurableStore_RequiresKV(t *testing.T) {
	_, err := NewDurableStore(DurableStoreOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key-value backend is required")
}

func TestDurableStore_SaveLoadRoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	in := payload{Name: "cart", Count: 3}
	require.NoError(t, store.Save(ctx, "state", in, true))

	var out payload
	found, err := store.Load(ctx, "state", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestDurableStore_SaveWritesBackupAndTimestamp(t *testing.T) {
	store, kv, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state", payload{Name: "a"}, true))

	backup, err := kv.Get(ctx, "state_backup")
	require.NoError(t, err)
	primary, err := kv.Get(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, primary, backup)

	ts, ok, err := store.LastWrite(ctx, "state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, ts.Equal(clock.Now()))
}

func TestDurableStore_SaveWithoutBackup(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state", payload{Name: "a"}, false))

	backup, err := kv.Get(ctx, "state_backup")
	require.NoError(t, err)
	assert.Nil(t, backup)

	_, ok, err := store.LastWrite(ctx, "state")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDurableStore_SaveUnserializable(t *testing.T) {
	store, _, _ := newTestStore(t)
	err := store.Save(context.Background(), "state", make(chan int), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal")
}

func TestDurableStore_LoadAbsentKey(t *testing.T) {
	store, _, _ := newTestStore(t)

	out := payload{Name: "untouched"}
	found, err := store.Load(context.Background(), "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "untouched", out.Name, "dest must be untouched when nothing is found")
}

func TestDurableStore_BackupFallbackRepairsPrimary(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state", payload{Name: "keep", Count: 7}, true))

	// Simulate primary loss.
	_, err := kv.Delete(ctx, "state")
	require.NoError(t, err)

	var out payload
	found, err := store.Load(ctx, "state", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "keep", Count: 7}, out)

	// Primary must have been repaired from the backup.
	primary, err := kv.Get(ctx, "state")
	require.NoError(t, err)
	require.NotNil(t, primary)
	backup, err := kv.Get(ctx, "state_backup")
	require.NoError(t, err)
	assert.Equal(t, backup, primary)
}

func TestDurableStore_CorruptPrimaryFallsBack(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state", payload{Name: "good"}, true))
	require.NoError(t, kv.Set(ctx, "state", []byte("{not json")))

	var out payload
	found, err := store.Load(ctx, "state", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "good", out.Name)
}

func TestDurableStore_BothCopiesCorrupt(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "state", []byte("{bad")))
	require.NoError(t, kv.Set(ctx, "state_backup", []byte("also bad}")))

	var out payload
	found, err := store.Load(ctx, "state", &out)
	require.NoError(t, err, "corruption is absence, not failure")
	assert.False(t, found)
}

func TestDurableStore_Clear(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state", payload{Name: "x"}, true))
	require.NoError(t, store.Clear(ctx, "state"))

	for _, key := range []string{"state", "state_backup", "state_timestamp"} {
		v, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, v, "key %q should be gone", key)
	}
}
