package cache

import (
	"context"
	"testing"
	"time"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_MissThenHit(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	_, err := c.GetSymbols(ctx, model.AssetTypeCrypto)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.SetSymbols(ctx, model.AssetTypeCrypto, map[string]int64{"BTC": 1, "ETH": 2}))

	symbols, err := c.GetSymbols(ctx, model.AssetTypeCrypto)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"BTC": 1, "ETH": 2}, symbols)

	_, err = c.GetSymbols(ctx, model.AssetTypeStock)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_StoresCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	src := map[string]int64{"BTC": 1}
	require.NoError(t, c.SetSymbols(ctx, model.AssetTypeCrypto, src))
	src["BTC"] = 42

	symbols, err := c.GetSymbols(ctx, model.AssetTypeCrypto)
	require.NoError(t, err)
	assert.Equal(t, int64(1), symbols["BTC"])
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return current }

	require.NoError(t, c.SetSymbols(ctx, model.AssetTypeCrypto, map[string]int64{"BTC": 1}))

	current = current.Add(59 * time.Second)
	_, err := c.GetSymbols(ctx, model.AssetTypeCrypto)
	require.NoError(t, err)

	current = current.Add(time.Second)
	_, err = c.GetSymbols(ctx, model.AssetTypeCrypto)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	require.NoError(t, c.SetSymbols(ctx, model.AssetTypeCrypto, map[string]int64{"BTC": 1}))
	require.NoError(t, c.SetSymbols(ctx, model.AssetTypeStock, map[string]int64{"AAPL": 7}))
	require.NoError(t, c.Invalidate(ctx))

	_, err := c.GetSymbols(ctx, model.AssetTypeCrypto)
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.GetSymbols(ctx, model.AssetTypeStock)
	assert.ErrorIs(t, err, ErrMiss)
}
