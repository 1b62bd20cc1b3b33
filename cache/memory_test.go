package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := cache.NewMemoryStore(clock)

	require.NoError(t, store.Set(ctx, "courts:all", []byte("v1"), time.Minute))

	clock.Advance(59 * time.Second)
	got, ok, err := store.Get(ctx, "courts:all")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	clock.Advance(time.Second)
	_, ok, err = store.Get(ctx, "courts:all")
	require.NoError(t, err)
	assert.False(t, ok, "entry must be absent once its TTL has elapsed")
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreOverwriteResetsTTL(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := cache.NewMemoryStore(clock)

	require.NoError(t, store.Set(ctx, "k", []byte("old"), time.Minute))
	clock.Advance(50 * time.Second)
	require.NoError(t, store.Set(ctx, "k", []byte("new"), time.Minute))
	clock.Advance(50 * time.Second)

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestMemoryStoreNonPositiveTTLIsNotStored(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(clockwork.NewFakeClock())

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreInvalidateTags(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(clockwork.NewFakeClock())

	require.NoError(t, store.Set(ctx, "games:organizer:1", []byte("a"), time.Minute, "games", "games:organizer:1"))
	require.NoError(t, store.Set(ctx, "games:organizer:2", []byte("b"), time.Minute, "games", "games:organizer:2"))
	require.NoError(t, store.Set(ctx, "courts:all", []byte("c"), time.Minute, "courts"))

	require.NoError(t, store.InvalidateTags(ctx, "games:organizer:1"))
	_, ok, _ := store.Get(ctx, "games:organizer:1")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "games:organizer:2")
	assert.True(t, ok)

	require.NoError(t, store.InvalidateTags(ctx, "games"))
	_, ok, _ = store.Get(ctx, "games:organizer:2")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "courts:all")
	assert.True(t, ok)
}

func TestMemoryStoreDeleteAndSweep(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := cache.NewMemoryStore(clock)

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), time.Hour))

	require.NoError(t, store.Delete(ctx, "c"))
	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}
