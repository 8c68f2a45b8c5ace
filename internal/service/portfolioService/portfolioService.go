package portfolioService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/finvault_portfolio/config"
	"github.com/KotFed0t/finvault_portfolio/data/repository"
	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/service"
	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/shopspring/decimal"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 250
	quantityScale    = 8
)

type CmcApi interface {
	GetQuotes(ctx context.Context, ids []int64) (map[int64]model.PriceQuote, error)
	GetListings(ctx context.Context, start, limit int) ([]model.ListingAsset, error)
}

type Repository interface {
	GetHoldings(ctx context.Context, userID int64) ([]model.Holding, error)
	GetHolding(ctx context.Context, userID, assetID int64) (model.Holding, error)
	UpsertHolding(ctx context.Context, userID, assetID int64, quantity, invested decimal.Decimal) (totalQuantity, totalInvested decimal.Decimal, err error)
	DeleteHolding(ctx context.Context, userID, assetID int64) error
	GetAssetByID(ctx context.Context, assetID int64) (model.Asset, error)
	ListSymbols(ctx context.Context, assetType model.AssetType) (map[string]int64, error)
	SearchAssets(ctx context.Context, search string, limit, offset int) ([]model.Asset, bool, error)
	ListAssets(ctx context.Context, limit, offset int) ([]model.Asset, bool, error)
}

type SymbolCache interface {
	GetSymbols(ctx context.Context, assetType model.AssetType) (map[string]int64, error)
	SetSymbols(ctx context.Context, assetType model.AssetType, symbols map[string]int64) error
}

type PortfolioService struct {
	repo          Repository
	cache         SymbolCache
	cmcApi        CmcApi
	trendingLimit int
}

func New(cfg *config.Config, repo Repository, cache SymbolCache, cmcApi CmcApi) *PortfolioService {
	return &PortfolioService{
		repo:          repo,
		cache:         cache,
		cmcApi:        cmcApi,
		trendingLimit: cfg.Catalog.TrendingLimit,
	}
}

// GetPortfolio values every holding of the user with one batch quote request.
func (s *PortfolioService) GetPortfolio(ctx context.Context, userID int64) (model.Portfolio, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetPortfolio"

	slog.Debug("GetPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
	defer func() {
		slog.Debug("GetPortfolio finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
	}()

	holdings, err := s.repo.GetHoldings(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.GetHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, err
	}

	if len(holdings) == 0 {
		return buildPortfolio(nil), nil
	}

	valuations, err := s.valueHoldings(ctx, holdings)
	if err != nil {
		return model.Portfolio{}, err
	}

	return buildPortfolio(valuations), nil
}

// GetAssetDetail values a single holding. AllocationPercent is left zero since no other holding is loaded.
func (s *PortfolioService) GetAssetDetail(ctx context.Context, userID, assetID int64) (model.HoldingValuation, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetAssetDetail"

	slog.Debug("GetAssetDetail start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID), slog.Int64("assetID", assetID))

	holding, err := s.repo.GetHolding(ctx, userID, assetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.HoldingValuation{}, fmt.Errorf("%w: asset %d is not in portfolio", service.ErrNotFound, assetID)
		}
		slog.Error("got error from repo.GetHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.HoldingValuation{}, err
	}

	valuations, err := s.valueHoldings(ctx, []model.Holding{holding})
	if err != nil {
		return model.HoldingValuation{}, err
	}

	return valuations[0], nil
}

func (s *PortfolioService) AddAsset(ctx context.Context, userID int64, req model.AddAssetRequest) (model.AddAssetResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.AddAsset"

	slog.Debug("AddAsset start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID), slog.Any("req", req))
	defer func() {
		slog.Debug("AddAsset finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
	}()

	if err := validateAddRequest(req); err != nil {
		return model.AddAssetResult{}, err
	}

	asset, err := s.resolveAsset(ctx, req.Symbol, req.Type)
	if err != nil {
		return model.AddAssetResult{}, err
	}

	quote, err := s.quoteAsset(ctx, asset)
	if err != nil {
		return model.AddAssetResult{}, err
	}

	quantity, amount, err := deriveQuantityAndAmount(req, quote.Price)
	if err != nil {
		return model.AddAssetResult{}, err
	}

	totalQuantity, totalInvested, err := s.repo.UpsertHolding(ctx, userID, asset.ID, quantity, amount)
	if err != nil {
		slog.Error("got error from repo.UpsertHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		if errors.Is(err, repository.ErrNotFound) {
			return model.AddAssetResult{}, fmt.Errorf("%w: asset %d", service.ErrNotFound, asset.ID)
		}
		return model.AddAssetResult{}, err
	}

	slog.Info(
		"asset added to portfolio",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int64("userID", userID),
		slog.String("symbol", asset.Symbol),
		slog.String("quantity", quantity.String()),
		slog.String("amount", amount.String()),
	)

	return model.AddAssetResult{
		AssetID:       asset.ID,
		Symbol:        asset.Symbol,
		Name:          asset.Name,
		Type:          asset.Type,
		Price:         quote.Price,
		AddedQuantity: quantity,
		AddedAmount:   amount,
		Quantity:      totalQuantity,
		InvestedValue: totalInvested,
	}, nil
}

func (s *PortfolioService) RemoveAsset(ctx context.Context, userID, assetID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.RemoveAsset"

	err := s.repo.DeleteHolding(ctx, userID, assetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: asset %d is not in portfolio", service.ErrNotFound, assetID)
		}
		slog.Error("got error from repo.DeleteHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Info("asset removed from portfolio", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID), slog.Int64("assetID", assetID))
	return nil
}

// GetTrending returns the top listings by market capitalization straight from upstream.
func (s *PortfolioService) GetTrending(ctx context.Context) ([]model.ListingAsset, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetTrending"

	listings, err := s.cmcApi.GetListings(ctx, 1, s.trendingLimit)
	if err != nil {
		slog.Error("got error from cmcApi.GetListings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("%w: %w", service.ErrUpstreamUnavailable, err)
	}

	return listings, nil
}

func (s *PortfolioService) SearchAssets(ctx context.Context, search string, limit, offset int) (model.AssetPage, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.SearchAssets"

	search = strings.TrimSpace(search)
	if search == "" {
		return model.AssetPage{}, fmt.Errorf("%w: search query is required", service.ErrValidation)
	}

	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return model.AssetPage{}, err
	}

	assets, hasNextPage, err := s.repo.SearchAssets(ctx, search, limit, offset)
	if err != nil {
		slog.Error("got error from repo.SearchAssets", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.AssetPage{}, err
	}

	return model.AssetPage{Assets: assets, Limit: limit, Offset: offset, HasNextPage: hasNextPage}, nil
}

func (s *PortfolioService) ListAllAssets(ctx context.Context, limit, offset int) (model.AssetPage, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ListAllAssets"

	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return model.AssetPage{}, err
	}

	assets, hasNextPage, err := s.repo.ListAssets(ctx, limit, offset)
	if err != nil {
		slog.Error("got error from repo.ListAssets", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.AssetPage{}, err
	}

	return model.AssetPage{Assets: assets, Limit: limit, Offset: offset, HasNextPage: hasNextPage}, nil
}

// GetAssetPrice returns a live quote for a catalog asset addressed by symbol and type.
func (s *PortfolioService) GetAssetPrice(ctx context.Context, symbol string, assetType model.AssetType) (model.PriceQuote, error) {
	if strings.TrimSpace(symbol) == "" {
		return model.PriceQuote{}, fmt.Errorf("%w: symbol is required", service.ErrValidation)
	}
	if !assetType.Valid() {
		return model.PriceQuote{}, fmt.Errorf("%w: unknown asset type %q", service.ErrValidation, assetType)
	}

	asset, err := s.resolveAsset(ctx, symbol, assetType)
	if err != nil {
		return model.PriceQuote{}, err
	}

	return s.quoteAsset(ctx, asset)
}

func (s *PortfolioService) valueHoldings(ctx context.Context, holdings []model.Holding) ([]model.HoldingValuation, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.valueHoldings"

	ids := make([]int64, 0, len(holdings))
	seen := make(map[int64]struct{}, len(holdings))
	for _, h := range holdings {
		if _, ok := seen[h.Asset.CmcID]; ok {
			continue
		}
		seen[h.Asset.CmcID] = struct{}{}
		ids = append(ids, h.Asset.CmcID)
	}

	quotes, err := s.cmcApi.GetQuotes(ctx, ids)
	if err != nil {
		slog.Error("got error from cmcApi.GetQuotes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("%w: %w", service.ErrUpstreamUnavailable, err)
	}

	valuations := make([]model.HoldingValuation, 0, len(holdings))
	for _, h := range holdings {
		price, percentChange24h, err := pickPrice(ctx, h.Asset, quotes)
		if err != nil {
			return nil, err
		}
		valuations = append(valuations, valueHolding(h, price, percentChange24h))
	}

	return valuations, nil
}

func (s *PortfolioService) quoteAsset(ctx context.Context, asset model.Asset) (model.PriceQuote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.quoteAsset"

	quotes, err := s.cmcApi.GetQuotes(ctx, []int64{asset.CmcID})
	if err != nil {
		slog.Error("got error from cmcApi.GetQuotes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PriceQuote{}, fmt.Errorf("%w: %w", service.ErrUpstreamUnavailable, err)
	}

	if quote, ok := quotes[asset.CmcID]; ok && quote.Price.IsPositive() {
		return quote, nil
	}

	price, percentChange24h, err := pickPrice(ctx, asset, quotes)
	if err != nil {
		return model.PriceQuote{}, err
	}

	quote := model.PriceQuote{
		CmcID:            asset.CmcID,
		Symbol:           asset.Symbol,
		Price:            price,
		PercentChange24h: percentChange24h,
	}
	if asset.PriceUpdatedAt != nil {
		quote.LastUpdated = *asset.PriceUpdatedAt
	}

	return quote, nil
}

// pickPrice prefers the live quote and falls back to the price captured by the last sync.
// A zero price, live or fallback, is never used.
func pickPrice(ctx context.Context, asset model.Asset, quotes map[int64]model.PriceQuote) (price, percentChange24h decimal.Decimal, err error) {
	if quote, ok := quotes[asset.CmcID]; ok && quote.Price.IsPositive() {
		return quote.Price, quote.PercentChange24h, nil
	}

	if asset.Price.IsPositive() {
		slog.Warn(
			"no live quote, using catalog price",
			slog.String("rqID", utils.GetRequestIDFromCtx(ctx)),
			slog.Int64("cmcID", asset.CmcID),
			slog.String("symbol", asset.Symbol),
		)
		return asset.Price, asset.PercentChange24h, nil
	}

	return decimal.Zero, decimal.Zero, fmt.Errorf("%w: no price for %s (cmc id %d)", service.ErrUpstreamUnavailable, asset.Symbol, asset.CmcID)
}

// resolveAsset maps symbol and type to a catalog row through the symbol directory cache,
// loading the directory from the catalog on a cache miss.
func (s *PortfolioService) resolveAsset(ctx context.Context, symbol string, assetType model.AssetType) (model.Asset, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.resolveAsset"
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	symbols, err := s.cache.GetSymbols(ctx, assetType)
	if err != nil {
		slog.Debug("symbols not cached, loading from repo", slog.String("rqID", rqID), slog.String("op", op), slog.String("reason", err.Error()))

		symbols, err = s.repo.ListSymbols(ctx, assetType)
		if err != nil {
			slog.Error("got error from repo.ListSymbols", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return model.Asset{}, err
		}

		if err = s.cache.SetSymbols(ctx, assetType, symbols); err != nil {
			slog.Error("got error from cache.SetSymbols", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}

	assetID, ok := symbols[symbol]
	if !ok {
		return model.Asset{}, fmt.Errorf("%w: %s asset %s", service.ErrNotFound, assetType, symbol)
	}

	asset, err := s.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Asset{}, fmt.Errorf("%w: %s asset %s", service.ErrNotFound, assetType, symbol)
		}
		slog.Error("got error from repo.GetAssetByID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Asset{}, err
	}

	return asset, nil
}

func validateAddRequest(req model.AddAssetRequest) error {
	if strings.TrimSpace(req.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", service.ErrValidation)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: type must be one of crypto, stock", service.ErrValidation)
	}
	if req.Quantity == nil && req.Amount == nil {
		return fmt.Errorf("%w: quantity or amount is required", service.ErrValidation)
	}
	if req.Quantity != nil && !req.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", service.ErrValidation)
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", service.ErrValidation)
	}
	return nil
}

// deriveQuantityAndAmount fills whichever of quantity and amount is missing from the other at price.
func deriveQuantityAndAmount(req model.AddAssetRequest, price decimal.Decimal) (quantity, amount decimal.Decimal, err error) {
	switch {
	case req.Quantity != nil && req.Amount != nil:
		return *req.Quantity, *req.Amount, nil
	case req.Quantity != nil:
		return *req.Quantity, req.Quantity.Mul(price), nil
	default:
		if !price.IsPositive() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: can't derive quantity at zero price", service.ErrValidation)
		}
		quantity = req.Amount.DivRound(price, quantityScale)
		if !quantity.IsPositive() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: amount is too small for price %s", service.ErrValidation, price)
		}
		return quantity, *req.Amount, nil
	}
}

func normalizePage(limit, offset int) (int, int, error) {
	if offset < 0 {
		return 0, 0, fmt.Errorf("%w: offset must not be negative", service.ErrValidation)
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return limit, offset, nil
}
