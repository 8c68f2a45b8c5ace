package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type FxRate struct {
	BaseCurrency   string          `json:"baseCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (r FxRate) IsFresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.UpdatedAt) < ttl
}
