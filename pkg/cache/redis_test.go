package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheGet(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db, WithRedisPrefix("test"))

	t.Run("hit decodes json", func(t *testing.T) {
		mock.ExpectGet("test:k").SetVal(`{"name":"btc","score":0.5}`)

		var got payload
		require.NoError(t, rc.Get(ctx, "k", &got))
		assert.Equal(t, payload{Name: "btc", Score: 0.5}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss maps to ErrCacheMiss", func(t *testing.T) {
		mock.ExpectGet("test:missing").RedisNil()

		var got payload
		assert.ErrorIs(t, rc.Get(ctx, "missing", &got), ErrCacheMiss)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheSet(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db, WithRedisPrefix("test"))

	mock.ExpectSet("test:k", `{"name":"eth","score":1}`, 0).SetVal("OK")
	require.NoError(t, rc.Set(ctx, "k", payload{Name: "eth", Score: 1}, 0))

	mock.ExpectSet("test:ttl", "raw", time.Minute).SetVal("OK")
	require.NoError(t, rc.Set(ctx, "ttl", "raw", time.Minute))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db, WithRedisPrefix("test"))

	mock.ExpectExists("test:a").SetVal(1)
	ok, err := rc.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectDel("test:a", "test:b").SetVal(1)
	require.NoError(t, rc.Delete(ctx, "a", "b"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheBreakerOpensOnFailures(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db,
		WithRedisPrefix("test"),
		WithRedisBreaker(BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Hour}),
	)

	boom := errors.New("connection refused")
	mock.ExpectGet("test:k").SetErr(boom)
	mock.ExpectGet("test:k").SetErr(boom)

	var got payload
	assert.ErrorIs(t, rc.Get(ctx, "k", &got), boom)
	assert.ErrorIs(t, rc.Get(ctx, "k", &got), boom)
	assert.Equal(t, gobreaker.StateOpen, rc.BreakerState())

	// open breaker short-circuits without touching redis
	assert.ErrorIs(t, rc.Get(ctx, "k", &got), gobreaker.ErrOpenState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheMissesDoNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCacheFromClient(db,
		WithRedisPrefix("test"),
		WithRedisBreaker(BreakerConfig{ConsecutiveFailures: 1}),
	)

	for i := 0; i < 3; i++ {
		mock.ExpectGet("test:missing").RedisNil()
		var got payload
		assert.ErrorIs(t, rc.Get(ctx, "missing", &got), ErrCacheMiss)
	}
	assert.Equal(t, gobreaker.StateClosed, rc.BreakerState())
}
