package portfolioService

import (
	"sort"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// impliedYesterdayPrice back-computes the price 24h ago from the 24h percent change.
// It is undefined when the change is -100% or below.
func impliedYesterdayPrice(price, percentChange24h decimal.Decimal) (decimal.Decimal, bool) {
	factor := decimal.NewFromInt(1).Add(percentChange24h.Div(hundred))
	if !factor.IsPositive() {
		return decimal.Zero, false
	}
	return price.Div(factor), true
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func valueHolding(holding model.Holding, price, percentChange24h decimal.Decimal) model.HoldingValuation {
	value := price.Mul(holding.Quantity)

	change24h := decimal.Zero
	if yesterdayPrice, ok := impliedYesterdayPrice(price, percentChange24h); ok {
		change24h = value.Sub(yesterdayPrice.Mul(holding.Quantity))
	}

	profitLoss := value.Sub(holding.InvestedValue)
	var profitLossPercent *decimal.Decimal
	if !holding.InvestedValue.IsZero() {
		pct := percentOf(profitLoss, holding.InvestedValue)
		profitLossPercent = &pct
	}

	return model.HoldingValuation{
		AssetID:           holding.AssetID,
		CmcID:             holding.Asset.CmcID,
		Symbol:            holding.Asset.Symbol,
		Name:              holding.Asset.Name,
		Slug:              holding.Asset.Slug,
		Type:              holding.Asset.Type,
		LogoURL:           holding.Asset.LogoURL,
		Quantity:          holding.Quantity,
		InvestedValue:     holding.InvestedValue,
		Price:             price,
		PercentChange24h:  percentChange24h,
		Value:             value,
		Change24h:         change24h,
		ProfitLoss:        &profitLoss,
		ProfitLossPercent: profitLossPercent,
	}
}

// buildPortfolio aggregates valued holdings. The 24h percent is relative to the implied
// yesterday total (totalValue - delta), not to today's total.
func buildPortfolio(valuations []model.HoldingValuation) model.Portfolio {
	portfolio := model.Portfolio{Holdings: make([]model.HoldingValuation, 0, len(valuations))}

	for _, v := range valuations {
		portfolio.TotalValue = portfolio.TotalValue.Add(v.Value)
		portfolio.TotalInvested = portfolio.TotalInvested.Add(v.InvestedValue)
		portfolio.Portfolio24hChange = portfolio.Portfolio24hChange.Add(v.Change24h)
	}

	portfolio.AllTimeChange = portfolio.TotalValue.Sub(portfolio.TotalInvested)
	portfolio.AllTimeChangePercent = percentOf(portfolio.AllTimeChange, portfolio.TotalInvested)
	portfolio.Portfolio24hChangePercent = percentOf(portfolio.Portfolio24hChange, portfolio.TotalValue.Sub(portfolio.Portfolio24hChange))

	for _, v := range valuations {
		v.AllocationPercent = percentOf(v.Value, portfolio.TotalValue)
		portfolio.Holdings = append(portfolio.Holdings, v)
	}

	sort.SliceStable(portfolio.Holdings, func(i, j int) bool {
		a, b := portfolio.Holdings[i], portfolio.Holdings[j]
		if cmp := a.Value.Cmp(b.Value); cmp != 0 {
			return cmp > 0
		}
		return a.Symbol < b.Symbol
	})

	return portfolio
}
