package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Asset struct {
	ID               int64               `db:"id"`
	CmcID            int64               `db:"cmc_id"`
	Rank             *int                `db:"rank"`
	Symbol           string              `db:"symbol"`
	Name             string              `db:"name"`
	Slug             string              `db:"slug"`
	Type             string              `db:"type"`
	IsActive         bool                `db:"is_active"`
	Platform         []byte              `db:"platform"`
	LogoURL          *string             `db:"logo_url"`
	Price            decimal.Decimal     `db:"price"`
	PercentChange24h decimal.Decimal     `db:"percent_change_24h"`
	DisplayPrice     decimal.NullDecimal `db:"display_price"`
	DisplayCurrency  *string             `db:"display_currency"`
	PriceUpdatedAt   *time.Time          `db:"price_updated_at"`
}
