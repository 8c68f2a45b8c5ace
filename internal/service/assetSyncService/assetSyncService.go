package assetSyncService

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/finvault_portfolio/config"
	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/service"
	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/shopspring/decimal"
)

type CmcApi interface {
	GetListings(ctx context.Context, start, limit int) ([]model.ListingAsset, error)
	GetMetadata(ctx context.Context, ids []int64) (map[int64]model.AssetMetadata, error)
}

type FxRates interface {
	GetRateAllowStale(ctx context.Context, base, target string) (rate decimal.Decimal, stale bool, err error)
}

type Repository interface {
	UpsertAssets(ctx context.Context, assets []model.Asset) error
}

type SymbolCache interface {
	Invalidate(ctx context.Context) error
}

type AssetSyncService struct {
	cmcApi          CmcApi
	fxRates         FxRates
	repo            Repository
	cache           SymbolCache
	listingLimit    int
	baseCurrency    string
	displayCurrency string
	now             func() time.Time
}

func New(cfg *config.Config, cmcApi CmcApi, fxRates FxRates, repo Repository, cache SymbolCache) *AssetSyncService {
	return &AssetSyncService{
		cmcApi:          cmcApi,
		fxRates:         fxRates,
		repo:            repo,
		cache:           cache,
		listingLimit:    cfg.Catalog.ListingLimit,
		baseCurrency:    strings.ToUpper(cfg.Fx.BaseCurrency),
		displayCurrency: strings.ToUpper(cfg.Fx.DisplayCurrency),
		now:             time.Now,
	}
}

// SyncAssets pulls the top listings with their metadata and upserts them into the catalog.
// Nothing is written when an upstream call fails. Holdings are never touched.
func (s *AssetSyncService) SyncAssets(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AssetSyncService.SyncAssets"

	slog.Info("SyncAssets start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("limit", s.listingLimit))

	listings, err := s.cmcApi.GetListings(ctx, 1, s.listingLimit)
	if err != nil {
		slog.Error("got error from cmcApi.GetListings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return fmt.Errorf("%w: %w", service.ErrUpstreamUnavailable, err)
	}

	if len(listings) == 0 {
		slog.Warn("upstream returned no listings, nothing to sync", slog.String("rqID", rqID), slog.String("op", op))
		return nil
	}

	ids := make([]int64, 0, len(listings))
	for _, listing := range listings {
		ids = append(ids, listing.CmcID)
	}

	metadata, err := s.cmcApi.GetMetadata(ctx, ids)
	if err != nil {
		slog.Error("got error from cmcApi.GetMetadata", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return fmt.Errorf("%w: %w", service.ErrUpstreamUnavailable, err)
	}

	displayRate, hasDisplayRate := s.displayRate(ctx)
	syncedAt := s.now().UTC()

	assets := make([]model.Asset, 0, len(listings))
	for _, listing := range listings {
		asset := s.buildAsset(listing, metadata[listing.CmcID], syncedAt)
		if hasDisplayRate {
			displayPrice := listing.Price.Mul(displayRate)
			asset.DisplayPrice = &displayPrice
			asset.DisplayCurrency = s.displayCurrency
		}
		assets = append(assets, asset)
	}

	if err = s.repo.UpsertAssets(ctx, assets); err != nil {
		slog.Error("got error from repo.UpsertAssets", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if err = s.cache.Invalidate(ctx); err != nil {
		slog.Error("got error from cache.Invalidate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	slog.Info(
		"SyncAssets completed",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("assets", len(assets)),
		slog.Int("withMetadata", len(metadata)),
		slog.Bool("displayPrice", hasDisplayRate),
	)

	return nil
}

// displayRate returns false when display prices should be left as they are.
func (s *AssetSyncService) displayRate(ctx context.Context) (decimal.Decimal, bool) {
	if s.displayCurrency == "" || s.displayCurrency == s.baseCurrency {
		return decimal.Zero, false
	}

	rate, stale, err := s.fxRates.GetRateAllowStale(ctx, s.baseCurrency, s.displayCurrency)
	if err != nil {
		slog.Warn(
			"display price conversion skipped",
			slog.String("rqID", utils.GetRequestIDFromCtx(ctx)),
			slog.String("pair", s.baseCurrency+"/"+s.displayCurrency),
			slog.String("err", err.Error()),
		)
		return decimal.Zero, false
	}

	if stale {
		slog.Warn("display prices converted with stale rate", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)))
	}

	return rate, true
}

func (s *AssetSyncService) buildAsset(listing model.ListingAsset, meta model.AssetMetadata, syncedAt time.Time) model.Asset {
	rank := listing.Rank
	asset := model.Asset{
		CmcID:            listing.CmcID,
		Symbol:           listing.Symbol,
		Name:             listing.Name,
		Slug:             listing.Slug,
		Type:             model.AssetTypeCrypto,
		IsActive:         listing.IsActive,
		Platform:         listing.Platform,
		LogoURL:          meta.LogoURL,
		Price:            listing.Price,
		PercentChange24h: listing.PercentChange24h,
		PriceUpdatedAt:   &syncedAt,
	}

	if rank > 0 {
		asset.Rank = &rank
	}
	if meta.Platform != nil {
		asset.Platform = meta.Platform
	}

	return asset
}
