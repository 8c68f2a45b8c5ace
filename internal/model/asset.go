package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeStock  AssetType = "stock"
)

func (t AssetType) Valid() bool {
	return t == AssetTypeCrypto || t == AssetTypeStock
}

type AssetPlatform struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Slug         string `json:"slug"`
	TokenAddress string `json:"tokenAddress,omitempty"`
}

// Asset is a catalog row. Price fields hold the value captured by the last sync
// and serve only as a fallback for live quotes.
type Asset struct {
	ID               int64            `json:"id"`
	CmcID            int64            `json:"cmcId"`
	Symbol           string           `json:"symbol"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Type             AssetType        `json:"type"`
	IsActive         bool             `json:"isActive"`
	Platform         *AssetPlatform   `json:"platform,omitempty"`
	LogoURL          string           `json:"logoUrl,omitempty"`
	Rank             *int             `json:"rank,omitempty"`
	Price            decimal.Decimal  `json:"price"`
	PercentChange24h decimal.Decimal  `json:"percentChange24h"`
	DisplayPrice     *decimal.Decimal `json:"displayPrice,omitempty"`
	DisplayCurrency  string           `json:"displayCurrency,omitempty"`
	PriceUpdatedAt   *time.Time       `json:"priceUpdatedAt,omitempty"`
}

type AssetPage struct {
	Assets      []Asset `json:"assets"`
	Limit       int     `json:"limit"`
	Offset      int     `json:"offset"`
	HasNextPage bool    `json:"hasNextPage"`
}
