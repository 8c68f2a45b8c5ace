package cmcApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/KotFed0t/finvault_portfolio/config"
	"github.com/KotFed0t/finvault_portfolio/internal/externalApi"
	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/model/cmcModel"
	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	listingsUrl = "/v1/cryptocurrency/listings/latest"
	infoUrl     = "/v1/cryptocurrency/info"
	quotesUrl   = "/v1/cryptocurrency/quotes/latest"

	listingsAux = "cmc_rank,tags,platform,max_supply,circulating_supply,total_supply,is_active"
)

type CmcApi struct {
	client  *resty.Client
	limiter *rate.Limiter
	convert string
}

func New(cfg *config.Config) *CmcApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.CmcApi.Url).
		SetHeader("Accept", "application/json").
		SetHeader("X-CMC_PRO_API_KEY", cfg.API.CmcApi.Key)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.API.CmcApi.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.API.CmcApi.RateLimit), cfg.API.CmcApi.RateLimit)
	}

	return &CmcApi{
		client:  client,
		limiter: limiter,
		convert: strings.ToUpper(cfg.Fx.BaseCurrency),
	}
}

// GetListings returns the ranked listing ordered by market capitalization.
func (a *CmcApi) GetListings(ctx context.Context, start, limit int) ([]model.ListingAsset, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CmcApi.GetListings"
	params := map[string]string{
		"start":    strconv.Itoa(start),
		"limit":    strconv.Itoa(limit),
		"convert":  a.convert,
		"sort":     "market_cap",
		"sort_dir": "desc",
		"aux":      listingsAux,
	}

	raw := cmcModel.ListingsResponse{}
	if err := a.get(ctx, op, listingsUrl, params, &raw); err != nil {
		return nil, err
	}
	if err := checkStatus(raw.Status); err != nil {
		slog.Error("CmcApi returned error status", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	res, err := a.parseListings(raw.Data)
	if err != nil {
		slog.Error("can't parse listings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return res, nil
}

// GetMetadata returns logo and platform keyed by catalog id. Ids the provider
// does not know are absent from the result.
func (a *CmcApi) GetMetadata(ctx context.Context, ids []int64) (map[int64]model.AssetMetadata, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CmcApi.GetMetadata"

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return map[int64]model.AssetMetadata{}, nil
	}

	raw := cmcModel.InfoResponse{}
	if err := a.get(ctx, op, infoUrl, map[string]string{"id": joinIDs(ids), "aux": "logo,platform"}, &raw); err != nil {
		return nil, err
	}
	if err := checkStatus(raw.Status); err != nil {
		slog.Error("CmcApi returned error status", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	res := make(map[int64]model.AssetMetadata, len(raw.Data))
	for key, info := range raw.Data {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id != info.ID {
			slog.Warn("skip metadata entry with mismatched id", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", key), slog.Int64("id", info.ID))
			continue
		}
		res[id] = model.AssetMetadata{
			CmcID:    id,
			LogoURL:  info.Logo,
			Platform: convertPlatform(info.Platform),
		}
	}

	return res, nil
}

// GetQuotes fetches live quotes for all ids in a single request. Entries that
// fail validation (id mismatch, no convert quote, null or non-positive price)
// are dropped, so callers must check presence of every id.
func (a *CmcApi) GetQuotes(ctx context.Context, ids []int64) (map[int64]model.PriceQuote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CmcApi.GetQuotes"

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return map[int64]model.PriceQuote{}, nil
	}

	raw := cmcModel.QuotesResponse{}
	if err := a.get(ctx, op, quotesUrl, map[string]string{"id": joinIDs(ids), "convert": a.convert}, &raw); err != nil {
		return nil, err
	}
	if err := checkStatus(raw.Status); err != nil {
		slog.Error("CmcApi returned error status", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return a.parseQuotes(ctx, raw.Data), nil
}

func (a *CmcApi) get(ctx context.Context, op, url string, params map[string]string, dst any) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", op, errors.Join(externalApi.ErrUpstreamUnavailable, err))
	}

	slog.Debug("start CmcApi request", slog.String("rqID", rqID), slog.String("op", op), slog.Any("params", params))

	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		slog.Error("error while dialing CmcApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, errors.Join(externalApi.ErrUpstreamUnavailable, err))
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		slog.Warn("CmcApi rate limited", slog.String("rqID", rqID), slog.String("op", op))
		return fmt.Errorf("%s: %w", op, externalApi.ErrRateLimited)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		slog.Error("CmcApi non-2xx response", slog.String("rqID", rqID), slog.String("op", op), slog.Int("status", resp.StatusCode()))
		return fmt.Errorf("%s: status %d: %w", op, resp.StatusCode(), externalApi.ErrUpstreamUnavailable)
	}

	if err = json.Unmarshal(resp.Body(), dst); err != nil {
		slog.Error("can't unmarshall CmcApi response", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return fmt.Errorf("%s: decode response: %w", op, errors.Join(externalApi.ErrUpstreamUnavailable, err))
	}

	slog.Debug("CmcApi request complete", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}

func (a *CmcApi) parseListings(rawListings []cmcModel.RawListing) ([]model.ListingAsset, error) {
	res := make([]model.ListingAsset, 0, len(rawListings))

	for _, raw := range rawListings {
		if raw.ID <= 0 {
			return nil, fmt.Errorf("listing with invalid id %d: %w", raw.ID, externalApi.ErrUpstreamUnavailable)
		}

		quote, ok := raw.Quote[a.convert]
		if !ok {
			return nil, fmt.Errorf("listing %d has no %s quote: %w", raw.ID, a.convert, externalApi.ErrUpstreamUnavailable)
		}

		listing := model.ListingAsset{
			CmcID:             raw.ID,
			Name:              raw.Name,
			Symbol:            raw.Symbol,
			Slug:              raw.Slug,
			Rank:              raw.CmcRank,
			IsActive:          raw.IsActive == nil || *raw.IsActive == 1,
			Platform:          convertPlatform(raw.Platform),
			Price:             quote.Price,
			PercentChange1h:   quote.PercentChange1h,
			PercentChange24h:  quote.PercentChange24h,
			PercentChange7d:   quote.PercentChange7d,
			MarketCap:         quote.MarketCap,
			Volume24h:         quote.Volume24h,
			CirculatingSupply: raw.CirculatingSupply,
			TotalSupply:       raw.TotalSupply,
			Tags:              raw.Tags,
		}
		if raw.MaxSupply.Valid {
			maxSupply := raw.MaxSupply.Decimal
			listing.MaxSupply = &maxSupply
		}
		if listing.Tags == nil {
			listing.Tags = []string{}
		}

		res = append(res, listing)
	}

	return res, nil
}

func (a *CmcApi) parseQuotes(ctx context.Context, data map[string]cmcModel.RawQuoteAsset) map[int64]model.PriceQuote {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CmcApi.parseQuotes"

	res := make(map[int64]model.PriceQuote, len(data))
	for key, raw := range data {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id != raw.ID {
			slog.Warn("skip quote with mismatched id", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", key), slog.Int64("id", raw.ID))
			continue
		}

		quote, ok := raw.Quote[a.convert]
		if !ok {
			slog.Warn("skip quote without convert currency", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("id", id), slog.String("convert", a.convert))
			continue
		}

		// null decodes as zero, a missing price must not look like a real one
		if !quote.Price.IsPositive() {
			slog.Warn("skip quote without positive price", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("id", id))
			continue
		}

		res[id] = model.PriceQuote{
			CmcID:            id,
			Symbol:           raw.Symbol,
			Price:            quote.Price,
			PercentChange24h: quote.PercentChange24h,
			LastUpdated:      quote.LastUpdated,
		}
	}

	return res
}

func checkStatus(status cmcModel.Status) error {
	if status.ErrorCode == 0 {
		return nil
	}
	msg := ""
	if status.ErrorMessage != nil {
		msg = *status.ErrorMessage
	}
	return fmt.Errorf("cmc error code %d %q: %w", status.ErrorCode, msg, externalApi.ErrUpstreamUnavailable)
}

func convertPlatform(raw *cmcModel.RawPlatform) *model.AssetPlatform {
	if raw == nil {
		return nil
	}
	return &model.AssetPlatform{
		ID:           raw.ID,
		Name:         raw.Name,
		Symbol:       raw.Symbol,
		Slug:         raw.Slug,
		TokenAddress: raw.TokenAddress,
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	res := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
