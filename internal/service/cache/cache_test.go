package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	pkgcache "SignalDesk/pkg/cache"
)

func TestStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(pkgcache.NewMemoryCache())

	in := models.StopLossState{Confidence: 0.8, Timestamp: 1_700_000_000_000}
	require.NoError(t, store.Save(ctx, repository.KeyStopLossState, in))

	var out models.StopLossState
	require.NoError(t, store.Load(ctx, repository.KeyStopLossState, &out))
	assert.Equal(t, in, out)
}

func TestStateStoreMissingKey(t *testing.T) {
	store := NewStateStore(pkgcache.NewMemoryCache())

	var out models.StopLossState
	err := store.Load(context.Background(), repository.KeyStopLossState, &out)
	assert.True(t, errors.Is(err, repository.ErrStateNotFound))
}

func TestTTLCacheExpiresLazily(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewTTLCache[int](5*time.Minute, func() time.Time { return now })

	c.Set("btc", 1)
	v, ok := c.Get("btc")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(4*time.Minute + 59*time.Second)
	_, ok = c.Get("btc")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("btc")
	assert.False(t, ok)
}

func TestTTLCacheDeleteAndClear(t *testing.T) {
	c := NewTTLCache[string](time.Minute, nil)
	c.Set("a", "x")
	c.Set("b", "y")

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
}
