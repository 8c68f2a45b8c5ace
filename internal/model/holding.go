package model

import "github.com/shopspring/decimal"

// Holding is a user's position in one catalog asset joined with that asset.
type Holding struct {
	ID            int64
	UserID        int64
	AssetID       int64
	Quantity      decimal.Decimal
	InvestedValue decimal.Decimal
	Asset         Asset
}

type AddAssetRequest struct {
	Symbol   string           `json:"symbol"`
	Type     AssetType        `json:"type"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
}

type AddAssetResult struct {
	AssetID       int64           `json:"assetId"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Type          AssetType       `json:"type"`
	Price         decimal.Decimal `json:"price"`
	AddedQuantity decimal.Decimal `json:"addedQuantity"`
	AddedAmount   decimal.Decimal `json:"addedAmount"`
	Quantity      decimal.Decimal `json:"quantity"`
	InvestedValue decimal.Decimal `json:"investedValue"`
}
