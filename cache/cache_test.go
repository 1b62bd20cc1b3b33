package cache_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/Dosada05/meetbasket/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type courtRow struct {
	ID   int
	Name string
}

func TestGetOrLoadReadThrough(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	m := metrics.NewMock()
	c := cache.New(cache.NewMemoryStore(clock), m, nil)
	entry := cache.Entry{Key: "courts:all", TTL: 5 * time.Minute, Tags: []string{"courts"}}

	loads := 0
	loader := func(context.Context) ([]courtRow, error) {
		loads++
		return []courtRow{{ID: 1, Name: "Mauerpark"}}, nil
	}

	first, err := cache.GetOrLoad(ctx, c, entry, loader)
	require.NoError(t, err)
	second, err := cache.GetOrLoad(ctx, c, entry, loader)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads, "second read must be served from cache")
	assert.Equal(t, 1, m.Hits("courts"))
	assert.Equal(t, 1, m.Misses("courts"))

	clock.Advance(5 * time.Minute)
	_, err = cache.GetOrLoad(ctx, c, entry, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "expired entry must force a reload")

	require.NoError(t, c.Invalidate(ctx, "courts"))
	_, err = cache.GetOrLoad(ctx, c, entry, loader)
	require.NoError(t, err)
	assert.Equal(t, 3, loads, "invalidated entry must force a reload")
}

type stampedRow struct {
	ID        int        `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func TestGetOrLoadHitMatchesMiss(t *testing.T) {
	local := time.Local
	time.Local = time.FixedZone("EDT", -4*60*60)
	t.Cleanup(func() { time.Local = local })

	ctx := context.Background()
	c := cache.New(cache.NewMemoryStore(clockwork.NewFakeClock()), metrics.NewMock(), nil)
	entry := cache.Entry{Key: "courts:all", TTL: time.Minute, Tags: []string{"courts"}}

	created := time.Date(2026, time.May, 1, 18, 0, 0, 0, time.UTC)
	expires := created.Add(30 * 24 * time.Hour).In(time.FixedZone("CEST", 2*60*60))
	loader := func(context.Context) ([]stampedRow, error) {
		return []stampedRow{{ID: 1, CreatedAt: created, ExpiresAt: &expires}}, nil
	}

	miss, err := cache.GetOrLoad(ctx, c, entry, loader)
	require.NoError(t, err)
	hit, err := cache.GetOrLoad(ctx, c, entry, loader)
	require.NoError(t, err)

	missJSON, err := json.Marshal(miss)
	require.NoError(t, err)
	hitJSON, err := json.Marshal(hit)
	require.NoError(t, err)

	assert.JSONEq(t, string(missJSON), string(hitJSON))
	assert.Contains(t, string(hitJSON), `"created_at":"2026-05-01T18:00:00Z"`)
	assert.Contains(t, string(hitJSON), `"expires_at":"2026-05-31T18:00:00Z"`)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := cache.New(cache.NewMemoryStore(clockwork.NewFakeClock()), metrics.NewMock(), nil)
	entry := cache.Entry{Key: "users:all", TTL: time.Minute}

	boom := errors.New("db down")
	_, err := cache.GetOrLoad(ctx, c, entry, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := cache.GetOrLoad(ctx, c, entry, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("unreachable")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration, ...string) error {
	return errors.New("unreachable")
}
func (failingStore) Delete(context.Context, ...string) error         { return nil }
func (failingStore) InvalidateTags(context.Context, ...string) error { return nil }

func TestGetOrLoadSurvivesStoreFailure(t *testing.T) {
	c := cache.New(failingStore{}, nil, nil)
	v, err := cache.GetOrLoad(context.Background(), c, cache.Entry{Key: "players:all", TTL: time.Minute},
		func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}
