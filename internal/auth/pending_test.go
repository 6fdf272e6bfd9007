package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisPendingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisPendingStore(client), mr
}

func TestRedisPendingStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ch-1", 42, time.Minute))

	id, err := store.Get(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	require.NoError(t, store.Delete(ctx, "ch-1"))
	_, err = store.Get(ctx, "ch-1")
	assert.ErrorIs(t, err, errChallengeNotFound)
}

func TestRedisPendingStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ch-1", 42, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "ch-1")
	assert.ErrorIs(t, err, errChallengeNotFound)
}

func TestRedisPendingStoreUnknownChallenge(t *testing.T) {
	store, _ := newRedisStore(t)
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, errChallengeNotFound)
}

func TestMemoryPendingStoreRoundTrip(t *testing.T) {
	store := NewMemoryPendingStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ch-1", 7, time.Minute))

	id, err := store.Get(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	require.NoError(t, store.Delete(ctx, "ch-1"))
	_, err = store.Get(ctx, "ch-1")
	assert.ErrorIs(t, err, errChallengeNotFound)
}

func TestMemoryPendingStoreExpiry(t *testing.T) {
	store := NewMemoryPendingStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ch-1", 7, -time.Second))
	_, err := store.Get(ctx, "ch-1")
	assert.ErrorIs(t, err, errChallengeNotFound)
}
