package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/redis/go-redis/v9"
)

const (
	symbolsKeyPrefix = "finvault:symbols:"
	// present in every stored hash so an empty directory is still a hit
	loadedField = ":loaded"
)

var cachedAssetTypes = []model.AssetType{model.AssetTypeCrypto, model.AssetTypeStock}

// RedisCache shares the symbol directory between instances, one hash per asset type.
type RedisCache struct {
	redis      *redis.Client
	expiration time.Duration
}

func NewRedisCache(redisClient *redis.Client, expiration time.Duration) *RedisCache {
	return &RedisCache{redis: redisClient, expiration: expiration}
}

func symbolsKey(assetType model.AssetType) string {
	return symbolsKeyPrefix + string(assetType)
}

func (r *RedisCache) GetSymbols(ctx context.Context, assetType model.AssetType) (map[string]int64, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.GetSymbols"

	res, err := r.redis.HGetAll(ctx, symbolsKey(assetType)).Result()
	if err != nil {
		slog.Error("failed on redis.HGetAll", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrMiss
	}

	symbols := make(map[string]int64, len(res))
	for symbol, rawID := range res {
		if symbol == loadedField {
			continue
		}
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			slog.Error(
				"can't parse asset id from redis",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.String("symbol", symbol),
				slog.String("value", rawID),
			)
			return nil, fmt.Errorf("parse asset id for %s: %w", symbol, err)
		}
		symbols[symbol] = id
	}

	return symbols, nil
}

func (r *RedisCache) SetSymbols(ctx context.Context, assetType model.AssetType, symbols map[string]int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.SetSymbols"
	key := symbolsKey(assetType)

	slog.Debug("SetSymbols start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(symbols)))

	values := make(map[string]any, len(symbols)+1)
	for symbol, id := range symbols {
		values[symbol] = id
	}
	values[loadedField] = 1

	pipe := r.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, values)
	if r.expiration > 0 {
		pipe.Expire(ctx, key, r.expiration)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetSymbols completed", slog.String("rqID", rqID), slog.String("op", op))
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, len(cachedAssetTypes))
	for _, assetType := range cachedAssetTypes {
		keys = append(keys, symbolsKey(assetType))
	}

	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		slog.Error("failed on redis.Del", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("op", "RedisCache.Invalidate"), slog.String("err", err.Error()))
		return err
	}

	return nil
}
