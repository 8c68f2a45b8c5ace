package fxApi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KotFed0t/finvault_portfolio/config"
	"github.com/KotFed0t/finvault_portfolio/internal/externalApi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApi(t *testing.T, handler http.HandlerFunc) *FxApi {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(&config.Config{API: config.API{Timeout: 5 * time.Second, FxApi: config.FxApi{Url: srv.URL}}})
}

func TestGetLatestRates(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/latest/USD", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","time_last_update_unix":1715299200,"rates":{"USD":1,"NGN":1480.25,"EUR":0.93}}`))
	})

	rates, err := api.GetLatestRates(context.Background(), "usd")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1480.25").Equal(rates["NGN"]))
	assert.Len(t, rates, 3)
}

func TestGetLatestRates_Failures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"non 2xx":       {status: http.StatusServiceUnavailable, body: ``},
		"error result":  {status: http.StatusOK, body: `{"result":"error","error-type":"unsupported-code"}`},
		"base mismatch": {status: http.StatusOK, body: `{"result":"success","base_code":"EUR","rates":{"NGN":1600}}`},
		"bad json":      {status: http.StatusOK, body: `{"result":`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := api.GetLatestRates(context.Background(), "USD")
			assert.ErrorIs(t, err, externalApi.ErrUpstreamUnavailable)
		})
	}
}
