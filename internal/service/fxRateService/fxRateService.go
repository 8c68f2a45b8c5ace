package fxRateService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/finvault_portfolio/config"
	"github.com/KotFed0t/finvault_portfolio/data/repository"
	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/service"
	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/shopspring/decimal"
)

type FxApi interface {
	GetLatestRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

type Repository interface {
	GetFxRate(ctx context.Context, base, target string) (model.FxRate, error)
	UpsertFxRate(ctx context.Context, rate model.FxRate) error
}

// FxRateService keeps one cached rate per currency pair, refreshed from upstream once stale.
type FxRateService struct {
	repo   Repository
	fxApi  FxApi
	base   string
	target string
	ttl    time.Duration
	now    func() time.Time
}

func New(cfg *config.Config, repo Repository, fxApi FxApi) *FxRateService {
	return &FxRateService{
		repo:   repo,
		fxApi:  fxApi,
		base:   strings.ToUpper(cfg.Fx.BaseCurrency),
		target: strings.ToUpper(cfg.Fx.DisplayCurrency),
		ttl:    cfg.Fx.TTL,
		now:    time.Now,
	}
}

// GetRate returns a fresh rate, refreshing it when the cached one is older than the ttl.
func (s *FxRateService) GetRate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	rate, _, err := s.getRate(ctx, base, target, false)
	return rate, err
}

// GetRateAllowStale is GetRate that falls back to a stale cached rate when the refresh fails.
// The returned flag reports whether the rate is stale.
func (s *FxRateService) GetRateAllowStale(ctx context.Context, base, target string) (decimal.Decimal, bool, error) {
	return s.getRate(ctx, base, target, true)
}

// RefreshRate unconditionally refreshes the configured pair.
func (s *FxRateService) RefreshRate(ctx context.Context) error {
	_, err := s.refresh(ctx, s.base, s.target)
	return err
}

func (s *FxRateService) getRate(ctx context.Context, base, target string, allowStale bool) (rate decimal.Decimal, stale bool, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "FxRateService.getRate"
	base, target = strings.ToUpper(base), strings.ToUpper(target)

	slog.Debug("getRate start", slog.String("rqID", rqID), slog.String("op", op), slog.String("base", base), slog.String("target", target))
	defer func() {
		slog.Debug("getRate finished", slog.String("rqID", rqID), slog.String("op", op), slog.Bool("stale", stale))
	}()

	if base == target {
		return decimal.NewFromInt(1), false, nil
	}

	cached, err := s.repo.GetFxRate(ctx, base, target)
	hasCached := err == nil
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		slog.Error("got error from repo.GetFxRate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return decimal.Zero, false, fmt.Errorf("%w: %w", service.ErrRateUnavailable, err)
	}

	if hasCached && cached.IsFresh(s.now(), s.ttl) {
		return cached.Rate, false, nil
	}

	refreshed, err := s.refresh(ctx, base, target)
	if err == nil {
		return refreshed.Rate, false, nil
	}

	if allowStale && hasCached {
		slog.Warn(
			"using stale fx rate",
			slog.String("rqID", rqID),
			slog.String("op", op),
			slog.Time("updatedAt", cached.UpdatedAt),
			slog.String("err", err.Error()),
		)
		return cached.Rate, true, nil
	}

	return decimal.Zero, false, err
}

func (s *FxRateService) refresh(ctx context.Context, base, target string) (model.FxRate, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "FxRateService.refresh"

	rates, err := s.fxApi.GetLatestRates(ctx, base)
	if err != nil {
		slog.Error("got error from fxApi.GetLatestRates", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.FxRate{}, fmt.Errorf("%w: %w", service.ErrRateUnavailable, err)
	}

	value, ok := rates[target]
	if !ok || !value.IsPositive() {
		slog.Error("fx rate missing in upstream response", slog.String("rqID", rqID), slog.String("op", op), slog.String("target", target))
		return model.FxRate{}, fmt.Errorf("%w: no %s/%s rate in response", service.ErrRateUnavailable, base, target)
	}

	rate := model.FxRate{
		BaseCurrency:   base,
		TargetCurrency: target,
		Rate:           value,
		UpdatedAt:      s.now().UTC(),
	}

	if err = s.repo.UpsertFxRate(ctx, rate); err != nil {
		slog.Error("got error from repo.UpsertFxRate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.FxRate{}, fmt.Errorf("%w: %w", service.ErrRateUnavailable, err)
	}

	slog.Info("fx rate refreshed", slog.String("rqID", rqID), slog.String("op", op), slog.String("pair", base+"/"+target), slog.String("rate", value.String()))

	return rate, nil
}
