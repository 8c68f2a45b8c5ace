package historyService

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/service"
	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/shopspring/decimal"
)

type Valuer interface {
	GetPortfolio(ctx context.Context, userID int64) (model.Portfolio, error)
}

type Repository interface {
	ListUserIDsWithHoldings(ctx context.Context) ([]int64, error)
	InsertSnapshot(ctx context.Context, userID int64, totalValue decimal.Decimal, recordedAt time.Time) (model.PortfolioSnapshot, error)
	GetSnapshots(ctx context.Context, userID int64, since *time.Time) ([]model.PortfolioSnapshot, error)
}

type ReportGenerator interface {
	GenerateHistory(ctx context.Context, report model.HistoryReport) (fileBytes []byte, fileExtension string, err error)
}

type HistoryService struct {
	repo      Repository
	valuer    Valuer
	generator ReportGenerator
	now       func() time.Time
}

func New(repo Repository, valuer Valuer, generator ReportGenerator) *HistoryService {
	return &HistoryService{
		repo:      repo,
		valuer:    valuer,
		generator: generator,
		now:       time.Now,
	}
}

// SnapshotJob appends one total valuation point per user holding at least one asset.
// A failing user is logged and skipped, the job itself only fails when users can't be listed.
func (s *HistoryService) SnapshotJob(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "HistoryService.SnapshotJob"

	userIDs, err := s.repo.ListUserIDsWithHoldings(ctx)
	if err != nil {
		slog.Error("got error from repo.ListUserIDsWithHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	recordedAt := s.now().UTC()
	var written, skipped, failed int

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			slog.Warn("snapshot job cancelled", slog.String("rqID", rqID), slog.String("op", op), slog.Int("written", written))
			return ctx.Err()
		}

		portfolio, err := s.valuer.GetPortfolio(ctx, userID)
		if err != nil {
			failed++
			slog.Error("can't value portfolio for snapshot", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID), slog.String("err", err.Error()))
			continue
		}

		if len(portfolio.Holdings) == 0 {
			skipped++
			continue
		}

		if _, err = s.repo.InsertSnapshot(ctx, userID, portfolio.TotalValue, recordedAt); err != nil {
			failed++
			slog.Error("got error from repo.InsertSnapshot", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID), slog.String("err", err.Error()))
			continue
		}
		written++
	}

	slog.Info(
		"portfolio snapshots recorded",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("users", len(userIDs)),
		slog.Int("written", written),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed),
	)

	return nil
}

// GetHistory returns the user's points inside the range, oldest first.
func (s *HistoryService) GetHistory(ctx context.Context, userID int64, rawRange string) ([]model.PortfolioSnapshot, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "HistoryService.GetHistory"

	historyRange, ok := model.ParseHistoryRange(rawRange)
	if !ok {
		return nil, fmt.Errorf("%w: range must be one of 24h, 7d, 30d, all", service.ErrValidation)
	}

	snapshots, err := s.repo.GetSnapshots(ctx, userID, historyRange.Since(s.now()))
	if err != nil {
		slog.Error("got error from repo.GetSnapshots", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return snapshots, nil
}

// ExportHistory renders the range as a spreadsheet, with the current holdings when they can be valued.
func (s *HistoryService) ExportHistory(ctx context.Context, userID int64, rawRange string) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "HistoryService.ExportHistory"

	slog.Debug("ExportHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
	defer func() {
		slog.Debug("ExportHistory finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
	}()

	points, err := s.GetHistory(ctx, userID, rawRange)
	if err != nil {
		return nil, "", err
	}

	historyRange, _ := model.ParseHistoryRange(rawRange)
	report := model.HistoryReport{
		UserID:      userID,
		Range:       historyRange,
		GeneratedAt: s.now().UTC(),
		Points:      points,
	}

	portfolio, err := s.valuer.GetPortfolio(ctx, userID)
	if err != nil {
		slog.Warn("exporting history without current holdings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	} else {
		report.Portfolio = &portfolio
	}

	return s.generator.GenerateHistory(ctx, report)
}
