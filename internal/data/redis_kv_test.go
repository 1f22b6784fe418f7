package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketgrove/storefront-state/internal/testutil"
)

func TestRedisKV_SetGetDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)
	defer client.Close()

	kv := NewRedisKV(client, "test:")
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "session", []byte(`{"token":"t"}`)))
		got, err := kv.Get(ctx, "session")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"token":"t"}`), got)
	})

	t.Run("get absent key", func(t *testing.T) {
		got, err := kv.Get(ctx, "never-written")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("overwrite is last-writer-wins", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "session", []byte("one")))
		require.NoError(t, kv.Set(ctx, "session", []byte("two")))
		got, err := kv.Get(ctx, "session")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "doomed", []byte("x")))
		existed, err := kv.Delete(ctx, "doomed")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = kv.Delete(ctx, "doomed")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		require.Error(t, kv.Set(ctx, "", []byte("x")))
		_, err := kv.Get(ctx, "")
		require.Error(t, err)
	})
}

func TestRedisKV_NoTTL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testutil.SetupTestRedis(t)
	defer client.Close()

	kv := NewRedisKV(client, "test:")
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "persistent", []byte("v")))
	// TTL returns -1 for keys without expiry.
	ttl := client.TTL(ctx, "test:persistent").Val()
	assert.Negative(t, int64(ttl), "state keys must not expire")
}
