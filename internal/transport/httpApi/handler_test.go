package httpApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/finvault_portfolio/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

type MockPortfolioService struct {
	mock.Mock
}

func (m *MockPortfolioService) GetPortfolio(ctx context.Context, userID int64) (model.Portfolio, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Portfolio), args.Error(1)
}

func (m *MockPortfolioService) GetAssetDetail(ctx context.Context, userID, assetID int64) (model.HoldingValuation, error) {
	args := m.Called(ctx, userID, assetID)
	return args.Get(0).(model.HoldingValuation), args.Error(1)
}

func (m *MockPortfolioService) AddAsset(ctx context.Context, userID int64, req model.AddAssetRequest) (model.AddAssetResult, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(model.AddAssetResult), args.Error(1)
}

func (m *MockPortfolioService) RemoveAsset(ctx context.Context, userID, assetID int64) error {
	args := m.Called(ctx, userID, assetID)
	return args.Error(0)
}

func (m *MockPortfolioService) GetTrending(ctx context.Context) ([]model.ListingAsset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ListingAsset), args.Error(1)
}

func (m *MockPortfolioService) SearchAssets(ctx context.Context, search string, limit, offset int) (model.AssetPage, error) {
	args := m.Called(ctx, search, limit, offset)
	return args.Get(0).(model.AssetPage), args.Error(1)
}

func (m *MockPortfolioService) ListAllAssets(ctx context.Context, limit, offset int) (model.AssetPage, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).(model.AssetPage), args.Error(1)
}

func (m *MockPortfolioService) GetAssetPrice(ctx context.Context, symbol string, assetType model.AssetType) (model.PriceQuote, error) {
	args := m.Called(ctx, symbol, assetType)
	return args.Get(0).(model.PriceQuote), args.Error(1)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) GetHistory(ctx context.Context, userID int64, rawRange string) ([]model.PortfolioSnapshot, error) {
	args := m.Called(ctx, userID, rawRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PortfolioSnapshot), args.Error(1)
}

func (m *MockHistoryService) ExportHistory(ctx context.Context, userID int64, rawRange string) ([]byte, string, error) {
	args := m.Called(ctx, userID, rawRange)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func newTestRouter() (http.Handler, *MockPortfolioService, *MockHistoryService) {
	portfolio := &MockPortfolioService{}
	history := &MockHistoryService{}
	return NewRouter(NewHandler(portfolio, history), testSecret), portfolio, history
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validToken(t *testing.T, userID int64) string {
	return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
}

func do(router http.Handler, method, target, token string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	res := errorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealth_EchoesRequestID(t *testing.T) {
	router, _, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "rq-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rq-123", rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_GeneratesRequestID(t *testing.T) {
	router, _, _ := newTestRouter()

	rec := do(router, http.MethodGet, "/api/v1/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	cases := map[string]func(t *testing.T) string{
		"missing": func(t *testing.T) string { return "" },
		"wrong secret": func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"userId": 1})
		},
		"alg none": func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"userId": 1})
		},
		"expired": func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
				"userId": 1,
				"exp":    time.Now().Add(-time.Minute).Unix(),
			})
		},
		"no user": func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "alice"})
		},
		"string user": func(t *testing.T) string {
			return signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"userId": "7"})
		},
		"garbage": func(t *testing.T) string { return "not.a.token" },
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			router, portfolio, _ := newTestRouter()

			rec := do(router, http.MethodGet, "/api/v1/portfolio", token(t), "")

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			res := decodeError(t, rec)
			assert.Equal(t, http.StatusUnauthorized, res.Code)
			assert.Equal(t, errCodeUnauthorized, res.ErrorCode)
			assert.Equal(t, rec.Header().Get("X-Request-ID"), res.RequestID)
			portfolio.AssertNotCalled(t, "GetPortfolio", mock.Anything, mock.Anything)
		})
	}
}

func TestGetPortfolio(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("GetPortfolio", mock.Anything, int64(42)).Return(model.Portfolio{
		TotalValue:    decimal.RequireFromString("1250.5"),
		TotalInvested: decimal.NewFromInt(1000),
		Holdings:      []model.HoldingValuation{},
	}, nil)

	rec := do(router, http.MethodGet, "/api/v1/portfolio", validToken(t, 42), "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1250.5, body["totalValue"])
	assert.Equal(t, float64(1000), body["totalInvested"])
	portfolio.AssertExpectations(t)
}

func TestGetPortfolio_UpstreamUnavailable(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("GetPortfolio", mock.Anything, int64(42)).
		Return(model.Portfolio{}, fmt.Errorf("%w: quotes down", service.ErrUpstreamUnavailable))

	rec := do(router, http.MethodGet, "/api/v1/portfolio", validToken(t, 42), "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	res := decodeError(t, rec)
	assert.Equal(t, errCodeUpstreamUnavailable, res.ErrorCode)
	assert.NotContains(t, res.Message, "quotes down")
}

func TestUnknownErrorIsInternal(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("GetTrending", mock.Anything).Return(nil, errors.New("boom"))

	rec := do(router, http.MethodGet, "/api/v1/portfolio/trending", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	res := decodeError(t, rec)
	assert.Equal(t, errCodeInternal, res.ErrorCode)
	assert.Equal(t, "internal server error", res.Message)
}

func TestAddAsset(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("AddAsset", mock.Anything, int64(7), mock.MatchedBy(func(req model.AddAssetRequest) bool {
		return req.Symbol == "btc" && req.Type == model.AssetTypeCrypto &&
			req.Amount != nil && req.Amount.Equal(decimal.NewFromInt(500)) && req.Quantity == nil
	})).Return(model.AddAssetResult{
		AssetID:       1,
		Symbol:        "BTC",
		Price:         decimal.NewFromInt(100),
		AddedQuantity: decimal.NewFromInt(5),
		AddedAmount:   decimal.NewFromInt(500),
		Quantity:      decimal.NewFromInt(5),
		InvestedValue: decimal.NewFromInt(500),
	}, nil)

	rec := do(router, http.MethodPost, "/api/v1/portfolio/add", validToken(t, 7), `{"symbol":"btc","type":"CRYPTO","amount":500}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(5), body["addedQuantity"])
	portfolio.AssertExpectations(t)
}

func TestAddAsset_Validation(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("AddAsset", mock.Anything, int64(7), mock.Anything).
		Return(model.AddAssetResult{}, fmt.Errorf("%w: quantity or amount is required", service.ErrValidation))

	rec := do(router, http.MethodPost, "/api/v1/portfolio/add", validToken(t, 7), `{"symbol":"btc","type":"crypto"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeError(t, rec)
	assert.Equal(t, errCodeValidation, res.ErrorCode)
	assert.Contains(t, res.Message, "quantity or amount is required")
}

func TestAddAsset_MalformedBody(t *testing.T) {
	router, portfolio, _ := newTestRouter()

	rec := do(router, http.MethodPost, "/api/v1/portfolio/add", validToken(t, 7), `{"symbol":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	portfolio.AssertNotCalled(t, "AddAsset", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAssetDetail(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("GetAssetDetail", mock.Anything, int64(7), int64(3)).
		Return(model.HoldingValuation{}, fmt.Errorf("%w: holding", service.ErrNotFound))

	rec := do(router, http.MethodGet, "/api/v1/portfolio/asset/3", validToken(t, 7), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errCodeNotFound, decodeError(t, rec).ErrorCode)

	rec = do(router, http.MethodGet, "/api/v1/portfolio/asset/abc", validToken(t, 7), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	portfolio.AssertNumberOfCalls(t, "GetAssetDetail", 1)
}

func TestRemoveAsset(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("RemoveAsset", mock.Anything, int64(7), int64(3)).Return(nil)

	rec := do(router, http.MethodDelete, "/api/v1/portfolio/asset/3", validToken(t, 7), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	portfolio.AssertExpectations(t)
}

func TestSearchAssets_Paging(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("SearchAssets", mock.Anything, "bit", 10, 20).
		Return(model.AssetPage{Assets: []model.Asset{}, Limit: 10, Offset: 20, HasNextPage: true}, nil)

	rec := do(router, http.MethodGet, "/api/v1/portfolio/assets?search=bit&limit=10&offset=20", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"assets":[],"limit":10,"offset":20,"hasNextPage":true}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/v1/portfolio/assets?search=bit&limit=ten", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	portfolio.AssertNumberOfCalls(t, "SearchAssets", 1)
}

func TestListAllAssets_Defaults(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("ListAllAssets", mock.Anything, 0, 0).Return(model.AssetPage{Assets: []model.Asset{}, Limit: 50}, nil)

	rec := do(router, http.MethodGet, "/api/v1/portfolio/all-assets", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	portfolio.AssertExpectations(t)
}

func TestGetAssetPrice_DefaultsToCrypto(t *testing.T) {
	router, portfolio, _ := newTestRouter()
	portfolio.On("GetAssetPrice", mock.Anything, "ETH", model.AssetTypeCrypto).
		Return(model.PriceQuote{CmcID: 1027, Symbol: "ETH", Price: decimal.NewFromInt(3000)}, nil)

	rec := do(router, http.MethodGet, "/api/v1/portfolio/price?symbol=ETH", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	portfolio.AssertExpectations(t)
}

func TestGetHistory(t *testing.T) {
	router, _, history := newTestRouter()
	recordedAt := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	history.On("GetHistory", mock.Anything, int64(7), "7d").Return([]model.PortfolioSnapshot{
		{ID: 1, UserID: 7, RecordedAt: recordedAt, TotalValue: decimal.NewFromInt(100)},
	}, nil)

	rec := do(router, http.MethodGet, "/api/v1/portfolio/history?range=7d", validToken(t, 7), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"range":"7d","points":[{"id":1,"userId":7,"recordedAt":"2024-05-10T12:00:00Z","totalValue":100}]}`, rec.Body.String())
}

func TestGetHistory_BadRange(t *testing.T) {
	router, _, history := newTestRouter()
	history.On("GetHistory", mock.Anything, int64(7), "1y").
		Return(nil, fmt.Errorf("%w: range", service.ErrValidation))

	rec := do(router, http.MethodGet, "/api/v1/portfolio/history?range=1y", validToken(t, 7), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHistory(t *testing.T) {
	router, _, history := newTestRouter()
	history.On("ExportHistory", mock.Anything, int64(7), "").Return([]byte("xlsx-bytes"), ".xlsx", nil)

	rec := do(router, http.MethodGet, "/api/v1/portfolio/history/export", validToken(t, 7), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="portfolio_history_all.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestExportHistory_GeneratedWorkbookFilename(t *testing.T) {
	fileBytes, ext, err := xslsxGenerator.New().GenerateHistory(context.Background(), model.HistoryReport{
		UserID:      7,
		Range:       model.HistoryRange7d,
		GeneratedAt: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		Points:      []model.PortfolioSnapshot{},
	})
	require.NoError(t, err)

	router, _, history := newTestRouter()
	history.On("ExportHistory", mock.Anything, int64(7), "7d").Return(fileBytes, ext, nil)

	rec := do(router, http.MethodGet, "/api/v1/portfolio/history/export?range=7d", validToken(t, 7), "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="portfolio_history_7d.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, len(fileBytes), rec.Body.Len())
}
