package xslsxGenerator

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateHistory(t *testing.T) {
	start := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	profitLoss := decimal.NewFromInt(20)
	report := model.HistoryReport{
		UserID:      1,
		Range:       model.HistoryRange7d,
		GeneratedAt: start.Add(3 * time.Hour),
		Points: []model.PortfolioSnapshot{
			{ID: 1, RecordedAt: start, TotalValue: decimal.NewFromInt(100)},
			{ID: 2, RecordedAt: start.Add(time.Hour), TotalValue: decimal.NewFromInt(110)},
		},
		Portfolio: &model.Portfolio{
			TotalValue:    decimal.NewFromInt(120),
			TotalInvested: decimal.NewFromInt(100),
			Holdings: []model.HoldingValuation{
				{Symbol: "BTC", Name: "Bitcoin", Type: model.AssetTypeCrypto, Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(120), Value: decimal.NewFromInt(120), ProfitLoss: &profitLoss},
			},
		},
	}

	fileBytes, ext, err := New().GenerateHistory(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"History", "Holdings"}, f.GetSheetList())

	rangeValue, err := f.GetCellValue("History", "B1")
	require.NoError(t, err)
	assert.Equal(t, "7d", rangeValue)

	total, err := f.GetCellValue("History", "B6")
	require.NoError(t, err)
	assert.Equal(t, "110", total)

	changePct, err := f.GetCellValue("History", "D6")
	require.NoError(t, err)
	assert.Equal(t, "10", changePct)

	symbol, err := f.GetCellValue("Holdings", "A2")
	require.NoError(t, err)
	assert.Equal(t, "BTC", symbol)
}

func TestGenerateHistory_NoPortfolio(t *testing.T) {
	fileBytes, _, err := New().GenerateHistory(context.Background(), model.HistoryReport{Range: model.HistoryRangeAll})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"History"}, f.GetSheetList())
}
