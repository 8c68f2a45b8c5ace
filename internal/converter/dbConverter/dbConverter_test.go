package dbConverter

import (
	"testing"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/model/dbModel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertAsset(t *testing.T) {
	logo := "https://logo/825.png"
	currency := "NGN"
	rank := 3

	asset := ConvertAsset(dbModel.Asset{
		ID:              10,
		CmcID:           825,
		Rank:            &rank,
		Symbol:          "USDT",
		Type:            "crypto",
		IsActive:        true,
		Platform:        []byte(`{"id":1027,"name":"Ethereum","symbol":"ETH","slug":"ethereum"}`),
		LogoURL:         &logo,
		Price:           decimal.RequireFromString("1.0001"),
		DisplayPrice:    decimal.NewNullDecimal(decimal.NewFromInt(1480)),
		DisplayCurrency: &currency,
	})

	assert.Equal(t, model.AssetTypeCrypto, asset.Type)
	assert.Equal(t, logo, asset.LogoURL)
	assert.Equal(t, &rank, asset.Rank)
	require.NotNil(t, asset.Platform)
	assert.Equal(t, "ethereum", asset.Platform.Slug)
	require.NotNil(t, asset.DisplayPrice)
	assert.True(t, decimal.NewFromInt(1480).Equal(*asset.DisplayPrice))
	assert.Equal(t, "NGN", asset.DisplayCurrency)
}

func TestConvertAsset_NullColumns(t *testing.T) {
	asset := ConvertAsset(dbModel.Asset{ID: 1, CmcID: 1, Platform: []byte(`not json`)})

	assert.Nil(t, asset.Platform)
	assert.Nil(t, asset.DisplayPrice)
	assert.Empty(t, asset.LogoURL)
	assert.Empty(t, asset.DisplayCurrency)
}
