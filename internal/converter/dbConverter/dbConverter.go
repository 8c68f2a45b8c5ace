package dbConverter

import (
	"encoding/json"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/model/dbModel"
)

func ConvertAsset(dbAsset dbModel.Asset) model.Asset {
	asset := model.Asset{
		ID:               dbAsset.ID,
		CmcID:            dbAsset.CmcID,
		Symbol:           dbAsset.Symbol,
		Name:             dbAsset.Name,
		Slug:             dbAsset.Slug,
		Type:             model.AssetType(dbAsset.Type),
		IsActive:         dbAsset.IsActive,
		Rank:             dbAsset.Rank,
		Platform:         convertPlatform(dbAsset.Platform),
		Price:            dbAsset.Price,
		PercentChange24h: dbAsset.PercentChange24h,
		PriceUpdatedAt:   dbAsset.PriceUpdatedAt,
	}

	if dbAsset.LogoURL != nil {
		asset.LogoURL = *dbAsset.LogoURL
	}
	if dbAsset.DisplayPrice.Valid {
		displayPrice := dbAsset.DisplayPrice.Decimal
		asset.DisplayPrice = &displayPrice
	}
	if dbAsset.DisplayCurrency != nil {
		asset.DisplayCurrency = *dbAsset.DisplayCurrency
	}

	return asset
}

func ConvertHolding(dbHolding dbModel.HoldingWithAsset) model.Holding {
	holding := model.Holding{
		ID:            dbHolding.ID,
		UserID:        dbHolding.UserID,
		AssetID:       dbHolding.AssetID,
		Quantity:      dbHolding.Quantity,
		InvestedValue: dbHolding.InvestedValue,
		Asset: model.Asset{
			ID:               dbHolding.AssetID,
			CmcID:            dbHolding.CmcID,
			Symbol:           dbHolding.Symbol,
			Name:             dbHolding.Name,
			Slug:             dbHolding.Slug,
			Type:             model.AssetType(dbHolding.Type),
			Price:            dbHolding.Price,
			PercentChange24h: dbHolding.PercentChange24h,
		},
	}

	if dbHolding.LogoURL != nil {
		holding.Asset.LogoURL = *dbHolding.LogoURL
	}

	return holding
}

func ConvertSnapshot(dbSnapshot dbModel.Snapshot) model.PortfolioSnapshot {
	return model.PortfolioSnapshot{
		ID:         dbSnapshot.ID,
		UserID:     dbSnapshot.UserID,
		RecordedAt: dbSnapshot.RecordedAt,
		TotalValue: dbSnapshot.TotalValue,
	}
}

func ConvertFxRate(dbRate dbModel.FxRate) model.FxRate {
	return model.FxRate{
		BaseCurrency:   dbRate.BaseCurrency,
		TargetCurrency: dbRate.TargetCurrency,
		Rate:           dbRate.Rate,
		UpdatedAt:      dbRate.UpdatedAt,
	}
}

// convertPlatform drops platform json that does not decode.
func convertPlatform(raw []byte) *model.AssetPlatform {
	if len(raw) == 0 {
		return nil
	}
	platform := &model.AssetPlatform{}
	if err := json.Unmarshal(raw, platform); err != nil {
		return nil
	}
	return platform
}
