package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Holding struct {
	ID            int64           `db:"id"`
	UserID        int64           `db:"user_id"`
	AssetID       int64           `db:"asset_id"`
	Quantity      decimal.Decimal `db:"quantity"`
	InvestedValue decimal.Decimal `db:"invested_value"`
}

// HoldingWithAsset is a portfolio row joined with its catalog row.
type HoldingWithAsset struct {
	Holding
	CmcID            int64           `db:"cmc_id"`
	Symbol           string          `db:"symbol"`
	Name             string          `db:"name"`
	Slug             string          `db:"slug"`
	Type             string          `db:"type"`
	LogoURL          *string         `db:"logo_url"`
	Price            decimal.Decimal `db:"price"`
	PercentChange24h decimal.Decimal `db:"percent_change_24h"`
}

type Snapshot struct {
	ID         int64           `db:"id"`
	UserID     int64           `db:"user_id"`
	TotalValue decimal.Decimal `db:"total_value"`
	RecordedAt time.Time       `db:"recorded_at"`
}

type FxRate struct {
	BaseCurrency   string          `db:"base_currency"`
	TargetCurrency string          `db:"target_currency"`
	Rate           decimal.Decimal `db:"rate"`
	UpdatedAt      time.Time       `db:"updated_at"`
}
