package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "q", quote{Symbol: "NVDA", Price: 181.2}, time.Minute))
	got, err := GetTyped[quote](ctx, mc, "q")
	require.NoError(t, err)
	assert.Equal(t, quote{Symbol: "NVDA", Price: 181.2}, got)

	require.NoError(t, mc.Set(ctx, "s", "plain", time.Minute))
	var s string
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "plain", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &s), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	now := time.Date(2026, 1, 26, 9, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "k", 1, time.Minute))
	ok, _ := mc.Exists(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Zero(t, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer mc.Close()

	now := time.Date(2026, 1, 26, 9, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { now = now.Add(time.Second); return now }

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestMemoryCacheTryLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	ok, err := mc.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = mc.TryLock(ctx, "job", time.Minute)
	assert.False(t, ok)
	require.NoError(t, mc.Unlock(ctx, "job"))
	ok, _ = mc.TryLock(ctx, "job", time.Minute)
	assert.True(t, ok)
}

func TestRedisCacheGetSet(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	rc := NewRedisCache(db, "sentimentdesk")

	mock.ExpectSet("sentimentdesk:q", `{"symbol":"TSLA","price":420.5}`, time.Hour).SetVal("OK")
	require.NoError(t, rc.Set(ctx, "q", quote{Symbol: "TSLA", Price: 420.5}, time.Hour))

	mock.ExpectGet("sentimentdesk:q").SetVal(`{"symbol":"TSLA","price":420.5}`)
	got, err := GetTyped[quote](ctx, rc, "q")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", got.Symbol)

	mock.ExpectGet("sentimentdesk:gone").RedisNil()
	_, err = GetTyped[quote](ctx, rc, "gone")
	assert.ErrorIs(t, err, ErrCacheMiss)

	mock.ExpectExists("sentimentdesk:q").SetVal(1)
	ok, err := rc.Exists(ctx, "q")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectSetNX("sentimentdesk:lock:q", "locked", time.Minute).SetVal(true)
	ok, err = rc.TryLock(ctx, "q", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectDel("sentimentdesk:lock:q").SetVal(1)
	require.NoError(t, rc.Unlock(ctx, "q"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayeredCachePromotesRemoteHit(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	lc := NewLayeredCache(NewRedisCache(db, "sd"), WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()

	mock.ExpectGet("sd:snap").SetVal(`{"symbol":"SPY","price":601}`)
	first, err := GetTyped[quote](ctx, lc, "snap")
	require.NoError(t, err)
	assert.Equal(t, "SPY", first.Symbol)

	// served from memory; no further Redis expectation
	second, err := GetTyped[quote](ctx, lc, "snap")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayeredCacheSurfacesRemoteErrors(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	lc := NewLayeredCache(NewRedisCache(db, "sd"))
	defer lc.Close()

	mock.ExpectGet("sd:x").SetErr(errors.New("connection refused"))
	var v quote
	err := lc.Get(ctx, "x", &v)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))

	mock.ExpectGet("sd:y").RedisNil()
	assert.ErrorIs(t, lc.Get(ctx, "y", &v), ErrCacheMiss)
}
