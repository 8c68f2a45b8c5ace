package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PortfolioSnapshot struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	RecordedAt time.Time       `json:"recordedAt"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

type HistoryRange string

const (
	HistoryRange24h HistoryRange = "24h"
	HistoryRange7d  HistoryRange = "7d"
	HistoryRange30d HistoryRange = "30d"
	HistoryRangeAll HistoryRange = "all"
)

// ParseHistoryRange treats an empty value as HistoryRangeAll.
func ParseHistoryRange(s string) (HistoryRange, bool) {
	switch HistoryRange(s) {
	case "":
		return HistoryRangeAll, true
	case HistoryRange24h, HistoryRange7d, HistoryRange30d, HistoryRangeAll:
		return HistoryRange(s), true
	default:
		return "", false
	}
}

// Since returns the lower bound of the range relative to now, nil when unbounded.
func (r HistoryRange) Since(now time.Time) *time.Time {
	var window time.Duration
	switch r {
	case HistoryRange24h:
		window = 24 * time.Hour
	case HistoryRange7d:
		window = 7 * 24 * time.Hour
	case HistoryRange30d:
		window = 30 * 24 * time.Hour
	default:
		return nil
	}
	since := now.Add(-window)
	return &since
}

// HistoryReport is what the history export renders. Portfolio is nil when the
// current valuation could not be computed.
type HistoryReport struct {
	UserID      int64
	Range       HistoryRange
	GeneratedAt time.Time
	Points      []PortfolioSnapshot
	Portfolio   *Portfolio
}
