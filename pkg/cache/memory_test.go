package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

type payload struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	require.NoError(t, mc.Set(ctx, "k", payload{Name: "btc", Score: 0.7}, 0))

	var got payload
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, payload{Name: "btc", Score: 0.7}, got)

	var s string
	require.NoError(t, mc.Set(ctx, "s", "raw", 0))
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "raw", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &got), ErrCacheMiss)
}

func TestMemoryCacheStoresCopies(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	in := []string{"a", "b"}
	require.NoError(t, mc.Set(ctx, "k", in, 0))
	in[0] = "mutated"

	var out []string
	require.NoError(t, mc.Get(ctx, "k", &out))
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestMemoryCacheLazyExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	mc := NewMemoryCache(WithMemoryClock(clock.now))

	require.NoError(t, mc.Set(ctx, "short", 1, time.Minute))
	require.NoError(t, mc.Set(ctx, "forever", 2, 0))

	clock.t = clock.t.Add(59 * time.Second)
	ok, err := mc.Exists(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)

	clock.t = clock.t.Add(2 * time.Second)
	var v int
	assert.ErrorIs(t, mc.Get(ctx, "short", &v), ErrCacheMiss)

	clock.t = clock.t.Add(365 * 24 * time.Hour)
	require.NoError(t, mc.Get(ctx, "forever", &v))
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryClock(clock.now))

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	clock.t = clock.t.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	clock.t = clock.t.Add(time.Second)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	clock.t = clock.t.Add(time.Second)

	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	require.NoError(t, mc.Delete(ctx, "a", "never-set"))

	ok, err := mc.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLayeredCacheReadsThroughAndWritesThrough(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote)

	require.NoError(t, lc.Set(ctx, "k", payload{Name: "eth"}, 0))

	var got payload
	require.NoError(t, remote.Get(ctx, "k", &got))
	assert.Equal(t, "eth", got.Name)

	// a value only present remotely is served and promoted
	require.NoError(t, remote.Set(ctx, "r", payload{Name: "sol"}, 0))
	got = payload{}
	require.NoError(t, lc.Get(ctx, "r", &got))
	assert.Equal(t, "sol", got.Name)
	ok, _ := lc.memCache.Exists(ctx, "r")
	assert.True(t, ok)

	require.NoError(t, lc.Delete(ctx, "k"))
	assert.ErrorIs(t, lc.Get(ctx, "k", &got), ErrCacheMiss)
}
