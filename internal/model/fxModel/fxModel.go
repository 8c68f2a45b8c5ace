package fxModel

import "github.com/shopspring/decimal"

type LatestRatesResponse struct {
	Result             string                     `json:"result"`
	BaseCode           string                     `json:"base_code"`
	TimeLastUpdateUnix int64                      `json:"time_last_update_unix"`
	Rates              map[string]decimal.Decimal `json:"rates"`
}
