package fxApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/finvault_portfolio/config"
	"github.com/KotFed0t/finvault_portfolio/internal/externalApi"
	"github.com/KotFed0t/finvault_portfolio/internal/model/fxModel"
	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type FxApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *FxApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.FxApi.Url).
		SetHeader("Accept", "application/json")
	return &FxApi{client: client}
}

// GetLatestRates returns every rate quoted against base.
func (a *FxApi) GetLatestRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "FxApi.GetLatestRates"
	base = strings.ToUpper(base)

	slog.Debug("start FxApi.GetLatestRates request", slog.String("rqID", rqID), slog.String("base", base))

	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("base", base).
		Get("/v6/latest/{base}")
	if err != nil {
		slog.Error("error while dialing FxApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, errors.Join(externalApi.ErrUpstreamUnavailable, err))
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		slog.Error("FxApi non-2xx response", slog.String("rqID", rqID), slog.String("op", op), slog.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("%s: status %d: %w", op, resp.StatusCode(), externalApi.ErrUpstreamUnavailable)
	}

	raw := fxModel.LatestRatesResponse{}
	if err = json.Unmarshal(resp.Body(), &raw); err != nil {
		slog.Error("can't unmarshall response into fxModel.LatestRatesResponse", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: decode response: %w", op, errors.Join(externalApi.ErrUpstreamUnavailable, err))
	}

	if !strings.EqualFold(raw.Result, "success") {
		return nil, fmt.Errorf("%s: result %q: %w", op, raw.Result, externalApi.ErrUpstreamUnavailable)
	}

	if raw.BaseCode != "" && !strings.EqualFold(raw.BaseCode, base) {
		return nil, fmt.Errorf("%s: requested base %s, got %s: %w", op, base, raw.BaseCode, externalApi.ErrUpstreamUnavailable)
	}

	slog.Debug("FxApi.GetLatestRates request complete", slog.String("rqID", rqID), slog.Int("rates", len(raw.Rates)))

	return raw.Rates, nil
}
