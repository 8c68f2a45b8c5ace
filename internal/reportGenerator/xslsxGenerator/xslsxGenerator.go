package xslsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	historySheet  = "History"
	holdingsSheet = "Holdings"
	dateFormat    = "yyyy-mm-dd hh:mm"
)

var hundred = decimal.NewFromInt(100)

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

// GenerateHistory writes the snapshot series and, when present, the current holdings to an xlsx workbook.
func (g *XSLSXGenerator) GenerateHistory(ctx context.Context, report model.HistoryReport) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.GenerateHistory"

	slog.Debug("GenerateHistory start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("points", len(report.Points)))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	// the default sheet becomes the history sheet
	if err = f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, "", err
	}

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, "", err
	}

	if err = g.fillHistory(f, report, headerStyle); err != nil {
		slog.Error("got error while filling history sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if report.Portfolio != nil {
		if err = g.fillHoldings(f, *report.Portfolio, headerStyle); err != nil {
			slog.Error("got error while filling holdings sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("GenerateHistory completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func newHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
}

func (g *XSLSXGenerator) fillHistory(f *excelize.File, report model.HistoryReport, headerStyle int) error {
	_ = f.SetCellStr(historySheet, "A1", "Range")
	_ = f.SetCellStr(historySheet, "B1", string(report.Range))
	_ = f.SetCellStr(historySheet, "A2", "Generated at")
	_ = f.SetCellValue(historySheet, "B2", report.GeneratedAt)

	headers := []string{"Recorded at", "Total value", "Change", "Change %"}
	if err := setHeaderRow(f, historySheet, 4, headers, headerStyle); err != nil {
		return err
	}

	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(dateFormat)})
	if err != nil {
		return err
	}

	for i, point := range report.Points {
		row := i + 5
		_ = f.SetCellValue(historySheet, cell("A", row), point.RecordedAt)
		_ = f.SetCellValue(historySheet, cell("B", row), point.TotalValue.InexactFloat64())

		if i == 0 {
			continue
		}
		prev := report.Points[i-1].TotalValue
		change := point.TotalValue.Sub(prev)
		_ = f.SetCellValue(historySheet, cell("C", row), change.InexactFloat64())
		if !prev.IsZero() {
			_ = f.SetCellValue(historySheet, cell("D", row), change.Div(prev).Mul(hundred).Round(2).InexactFloat64())
		}
	}

	if len(report.Points) > 0 {
		if err = f.SetCellStyle(historySheet, "A5", cell("A", len(report.Points)+4), dateStyle); err != nil {
			return fmt.Errorf("apply date style: %w", err)
		}
	}

	return f.SetColWidth(historySheet, "A", "D", 20)
}

func (g *XSLSXGenerator) fillHoldings(f *excelize.File, portfolio model.Portfolio, headerStyle int) error {
	if _, err := f.NewSheet(holdingsSheet); err != nil {
		return err
	}

	headers := []string{"Symbol", "Name", "Type", "Quantity", "Price", "Value", "Invested", "Profit/Loss", "Profit/Loss %", "24h change", "Allocation %"}
	if err := setHeaderRow(f, holdingsSheet, 1, headers, headerStyle); err != nil {
		return err
	}

	for i, h := range portfolio.Holdings {
		row := i + 2
		_ = f.SetCellStr(holdingsSheet, cell("A", row), h.Symbol)
		_ = f.SetCellStr(holdingsSheet, cell("B", row), h.Name)
		_ = f.SetCellStr(holdingsSheet, cell("C", row), string(h.Type))
		_ = f.SetCellValue(holdingsSheet, cell("D", row), h.Quantity.InexactFloat64())
		_ = f.SetCellValue(holdingsSheet, cell("E", row), h.Price.InexactFloat64())
		_ = f.SetCellValue(holdingsSheet, cell("F", row), h.Value.InexactFloat64())
		_ = f.SetCellValue(holdingsSheet, cell("G", row), h.InvestedValue.InexactFloat64())
		if h.ProfitLoss != nil {
			_ = f.SetCellValue(holdingsSheet, cell("H", row), h.ProfitLoss.InexactFloat64())
		}
		if h.ProfitLossPercent != nil {
			_ = f.SetCellValue(holdingsSheet, cell("I", row), h.ProfitLossPercent.Round(2).InexactFloat64())
		}
		_ = f.SetCellValue(holdingsSheet, cell("J", row), h.Change24h.InexactFloat64())
		_ = f.SetCellValue(holdingsSheet, cell("K", row), h.AllocationPercent.Round(2).InexactFloat64())
	}

	totalRow := len(portfolio.Holdings) + 3
	_ = f.SetCellStr(holdingsSheet, cell("A", totalRow), "Total")
	_ = f.SetCellValue(holdingsSheet, cell("F", totalRow), portfolio.TotalValue.InexactFloat64())
	_ = f.SetCellValue(holdingsSheet, cell("G", totalRow), portfolio.TotalInvested.InexactFloat64())
	_ = f.SetCellValue(holdingsSheet, cell("H", totalRow), portfolio.AllTimeChange.InexactFloat64())
	_ = f.SetCellValue(holdingsSheet, cell("I", totalRow), portfolio.AllTimeChangePercent.Round(2).InexactFloat64())
	_ = f.SetCellValue(holdingsSheet, cell("J", totalRow), portfolio.Portfolio24hChange.InexactFloat64())

	return f.SetColWidth(holdingsSheet, "A", "K", 16)
}

func setHeaderRow(f *excelize.File, sheet string, row int, headers []string, style int) error {
	for i, header := range headers {
		name, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		_ = f.SetCellStr(sheet, name, header)
	}

	last, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return err
	}
	if err = f.SetCellStyle(sheet, cell("A", row), last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func ptr[T any](v T) *T {
	return &v
}
