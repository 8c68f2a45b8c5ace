package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is a live price view of an asset. It is never persisted.
type PriceQuote struct {
	CmcID            int64           `json:"cmcId"`
	Symbol           string          `json:"symbol"`
	Price            decimal.Decimal `json:"price"`
	PercentChange24h decimal.Decimal `json:"percentChange24h"`
	LastUpdated      time.Time       `json:"lastUpdated"`
}

type ListingAsset struct {
	CmcID             int64            `json:"id"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	Slug              string           `json:"slug"`
	Rank              int              `json:"rank"`
	IsActive          bool             `json:"isActive"`
	Platform          *AssetPlatform   `json:"platform,omitempty"`
	Price             decimal.Decimal  `json:"price"`
	PercentChange1h   decimal.Decimal  `json:"percentChange1h"`
	PercentChange24h  decimal.Decimal  `json:"percentChange24h"`
	PercentChange7d   decimal.Decimal  `json:"percentChange7d"`
	MarketCap         decimal.Decimal  `json:"marketCap"`
	Volume24h         decimal.Decimal  `json:"volume24h"`
	CirculatingSupply decimal.Decimal  `json:"circulatingSupply"`
	TotalSupply       decimal.Decimal  `json:"totalSupply"`
	MaxSupply         *decimal.Decimal `json:"maxSupply"`
	Tags              []string         `json:"tags"`
}

type AssetMetadata struct {
	CmcID    int64
	LogoURL  string
	Platform *AssetPlatform
}
