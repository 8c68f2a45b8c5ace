package cache

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/utils"
)

type symbolsEntry struct {
	symbols   map[string]int64
	expiresAt time.Time
}

// MemoryCache keeps the symbol directory for the process lifetime.
// A zero ttl disables expiry, entries then live until Invalidate.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[model.AssetType]symbolsEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[model.AssetType]symbolsEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) GetSymbols(ctx context.Context, assetType model.AssetType) (map[string]int64, error) {
	c.mu.RLock()
	entry, ok := c.entries[assetType]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		slog.Debug("symbols expired", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("type", string(assetType)))
		return nil, ErrMiss
	}

	return entry.symbols, nil
}

func (c *MemoryCache) SetSymbols(ctx context.Context, assetType model.AssetType, symbols map[string]int64) error {
	entry := symbolsEntry{symbols: maps.Clone(symbols)}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[assetType] = entry
	c.mu.Unlock()

	slog.Debug("symbols cached", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("type", string(assetType)), slog.Int("count", len(symbols)))
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()

	slog.Debug("symbols cache invalidated", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)))
	return nil
}
