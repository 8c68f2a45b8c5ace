package model

import "github.com/shopspring/decimal"

type Portfolio struct {
	TotalValue                decimal.Decimal    `json:"totalValue"`
	TotalInvested             decimal.Decimal    `json:"totalInvested"`
	AllTimeChange             decimal.Decimal    `json:"allTimeChange"`
	AllTimeChangePercent      decimal.Decimal    `json:"allTimeChangePercent"`
	Portfolio24hChange        decimal.Decimal    `json:"portfolio24hChange"`
	Portfolio24hChangePercent decimal.Decimal    `json:"portfolio24hChangePercent"`
	Holdings                  []HoldingValuation `json:"holdings"`
}

type HoldingValuation struct {
	AssetID           int64            `json:"assetId"`
	CmcID             int64            `json:"cmcId"`
	Symbol            string           `json:"symbol"`
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	Type              AssetType        `json:"type"`
	LogoURL           string           `json:"logoUrl,omitempty"`
	Quantity          decimal.Decimal  `json:"quantity"`
	InvestedValue     decimal.Decimal  `json:"investedValue"`
	Price             decimal.Decimal  `json:"price"`
	PercentChange24h  decimal.Decimal  `json:"percentChange24h"`
	Value             decimal.Decimal  `json:"value"`
	Change24h         decimal.Decimal  `json:"change24h"`
	ProfitLoss        *decimal.Decimal `json:"profitLoss"`
	ProfitLossPercent *decimal.Decimal `json:"profitLossPercent"`
	AllocationPercent decimal.Decimal  `json:"allocationPercent"`
}
