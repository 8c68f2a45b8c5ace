package portfolioService

import (
	"testing"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func holding(symbol string, cmcID int64, quantity, invested string) model.Holding {
	return model.Holding{
		AssetID:       cmcID * 10,
		Quantity:      d(quantity),
		InvestedValue: d(invested),
		Asset:         model.Asset{ID: cmcID * 10, CmcID: cmcID, Symbol: symbol, Type: model.AssetTypeCrypto},
	}
}

func TestImpliedYesterdayPrice(t *testing.T) {
	price, ok := impliedYesterdayPrice(d("110"), d("10"))
	require.True(t, ok)
	assert.True(t, d("100").Equal(price), price.String())

	price, ok = impliedYesterdayPrice(d("50"), d("-50"))
	require.True(t, ok)
	assert.True(t, d("100").Equal(price), price.String())

	_, ok = impliedYesterdayPrice(d("0"), d("-100"))
	assert.False(t, ok)
}

func TestValueHolding_Change24h(t *testing.T) {
	v := valueHolding(holding("BTC", 1, "1", "80"), d("110"), d("10"))

	assert.True(t, d("110").Equal(v.Value))
	assert.True(t, d("10").Equal(v.Change24h), v.Change24h.String())
	require.NotNil(t, v.ProfitLoss)
	assert.True(t, d("30").Equal(*v.ProfitLoss))
	require.NotNil(t, v.ProfitLossPercent)
	assert.True(t, d("37.5").Equal(*v.ProfitLossPercent), v.ProfitLossPercent.String())
}

func TestValueHolding_ZeroInvested(t *testing.T) {
	v := valueHolding(holding("AIR", 2, "3", "0"), d("2"), d("0"))

	require.NotNil(t, v.ProfitLoss)
	assert.True(t, d("6").Equal(*v.ProfitLoss))
	assert.Nil(t, v.ProfitLossPercent)
}

func TestValueHolding_TotalLoss24h(t *testing.T) {
	v := valueHolding(holding("LUNA", 3, "10", "100"), d("0"), d("-100"))

	assert.True(t, v.Value.IsZero())
	assert.True(t, v.Change24h.IsZero())
}

func TestBuildPortfolio_Empty(t *testing.T) {
	p := buildPortfolio(nil)

	assert.True(t, p.TotalValue.IsZero())
	assert.True(t, p.TotalInvested.IsZero())
	assert.True(t, p.AllTimeChangePercent.IsZero())
	assert.True(t, p.Portfolio24hChangePercent.IsZero())
	assert.NotNil(t, p.Holdings)
	assert.Empty(t, p.Holdings)
}

func TestBuildPortfolio_Aggregates(t *testing.T) {
	valuations := []model.HoldingValuation{
		valueHolding(holding("ETH", 1027, "2", "100"), d("55"), d("10")),
		valueHolding(holding("BTC", 1, "1", "100"), d("110"), d("10")),
		valueHolding(holding("ADA", 2010, "100", "50"), d("0.5"), d("0")),
	}

	p := buildPortfolio(valuations)

	sum := decimal.Zero
	for _, h := range p.Holdings {
		sum = sum.Add(h.Value)
	}
	assert.True(t, sum.Equal(p.TotalValue))
	assert.True(t, d("270").Equal(p.TotalValue), p.TotalValue.String())
	assert.True(t, d("250").Equal(p.TotalInvested))
	assert.True(t, d("20").Equal(p.AllTimeChange))
	assert.True(t, d("8").Equal(p.AllTimeChangePercent), p.AllTimeChangePercent.String())

	// 10 from BTC and 10 from ETH, relative to the implied yesterday total of 250
	assert.True(t, d("20").Equal(p.Portfolio24hChange), p.Portfolio24hChange.String())
	assert.True(t, d("8").Equal(p.Portfolio24hChangePercent), p.Portfolio24hChangePercent.String())

	// BTC and ETH tie on value, symbol breaks the tie
	require.Len(t, p.Holdings, 3)
	assert.Equal(t, "BTC", p.Holdings[0].Symbol)
	assert.Equal(t, "ETH", p.Holdings[1].Symbol)
	assert.Equal(t, "ADA", p.Holdings[2].Symbol)

	allocation := decimal.Zero
	for _, h := range p.Holdings {
		allocation = allocation.Add(h.AllocationPercent)
	}
	assert.True(t, allocation.Sub(hundred).Abs().LessThan(d("0.000001")), allocation.String())
}

func TestBuildPortfolio_ZeroDenominator(t *testing.T) {
	// worthless holding with no cost basis
	valuations := []model.HoldingValuation{
		valueHolding(holding("DEAD", 9, "1", "0"), d("0"), d("0")),
	}

	p := buildPortfolio(valuations)
	assert.True(t, p.Portfolio24hChangePercent.IsZero())
	assert.True(t, p.AllTimeChangePercent.IsZero())
	assert.True(t, p.Holdings[0].AllocationPercent.IsZero())
}
