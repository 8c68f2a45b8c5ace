package cmcModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status struct {
	ErrorCode    int     `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
	CreditCount  int     `json:"credit_count"`
}

type RawPlatform struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Slug         string `json:"slug"`
	TokenAddress string `json:"token_address"`
}

type RawQuote struct {
	Price            decimal.Decimal `json:"price"`
	Volume24h        decimal.Decimal `json:"volume_24h"`
	PercentChange1h  decimal.Decimal `json:"percent_change_1h"`
	PercentChange24h decimal.Decimal `json:"percent_change_24h"`
	PercentChange7d  decimal.Decimal `json:"percent_change_7d"`
	MarketCap        decimal.Decimal `json:"market_cap"`
	LastUpdated      time.Time       `json:"last_updated"`
}

type RawListing struct {
	ID                int64               `json:"id"`
	Name              string              `json:"name"`
	Symbol            string              `json:"symbol"`
	Slug              string              `json:"slug"`
	CmcRank           int                 `json:"cmc_rank"`
	IsActive          *int                `json:"is_active"`
	CirculatingSupply decimal.Decimal     `json:"circulating_supply"`
	TotalSupply       decimal.Decimal     `json:"total_supply"`
	MaxSupply         decimal.NullDecimal `json:"max_supply"`
	Tags              []string            `json:"tags"`
	Platform          *RawPlatform        `json:"platform"`
	Quote             map[string]RawQuote `json:"quote"`
}

type ListingsResponse struct {
	Status Status       `json:"status"`
	Data   []RawListing `json:"data"`
}

type RawInfo struct {
	ID       int64        `json:"id"`
	Logo     string       `json:"logo"`
	Platform *RawPlatform `json:"platform"`
}

// InfoResponse data is keyed by the stringified catalog id.
type InfoResponse struct {
	Status Status             `json:"status"`
	Data   map[string]RawInfo `json:"data"`
}

type RawQuoteAsset struct {
	ID     int64               `json:"id"`
	Symbol string              `json:"symbol"`
	Quote  map[string]RawQuote `json:"quote"`
}

// QuotesResponse data is keyed by the stringified catalog id.
type QuotesResponse struct {
	Status Status                   `json:"status"`
	Data   map[string]RawQuoteAsset `json:"data"`
}
