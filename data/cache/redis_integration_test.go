//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, expiration time.Duration) (*RedisCache, *redis.Client) {
	t.Helper()

	c := testutil.StartRedis(t)
	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", c.Host, c.Port)})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.FlushDB(context.Background()).Err())

	return NewRedisCache(rdb, expiration), rdb
}

func TestRedisCache_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedisCache(t, 0)

	_, err := c.GetSymbols(ctx, model.AssetTypeCrypto)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.SetSymbols(ctx, model.AssetTypeCrypto, map[string]int64{"BTC": 1, "ETH": 2}))
	require.NoError(t, c.SetSymbols(ctx, model.AssetTypeCrypto, map[string]int64{"BTC": 1}))

	symbols, err := c.GetSymbols(ctx, model.AssetTypeCrypto)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"BTC": 1}, symbols)

	require.NoError(t, c.Invalidate(ctx))
	_, err = c.GetSymbols(ctx, model.AssetTypeCrypto)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c, rdb := newTestRedisCache(t, time.Hour)

	require.NoError(t, c.SetSymbols(ctx, model.AssetTypeStock, map[string]int64{"AAPL": 5}))

	ttl, err := rdb.TTL(ctx, symbolsKey(model.AssetTypeStock)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestRedisCache_EmptyDirectoryIsCached(t *testing.T) {
	ctx := context.Background()
	c, rdb := newTestRedisCache(t, time.Hour)

	require.NoError(t, c.SetSymbols(ctx, model.AssetTypeStock, map[string]int64{}))

	symbols, err := c.GetSymbols(ctx, model.AssetTypeStock)
	require.NoError(t, err)
	assert.Empty(t, symbols)

	ttl, err := rdb.TTL(ctx, symbolsKey(model.AssetTypeStock)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = c.GetSymbols(ctx, model.AssetTypeCrypto)
	assert.ErrorIs(t, err, ErrMiss)
}
