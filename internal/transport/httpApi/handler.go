package httpApi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/service"
	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PortfolioService interface {
	GetPortfolio(ctx context.Context, userID int64) (model.Portfolio, error)
	GetAssetDetail(ctx context.Context, userID, assetID int64) (model.HoldingValuation, error)
	AddAsset(ctx context.Context, userID int64, req model.AddAssetRequest) (model.AddAssetResult, error)
	RemoveAsset(ctx context.Context, userID, assetID int64) error
	GetTrending(ctx context.Context) ([]model.ListingAsset, error)
	SearchAssets(ctx context.Context, search string, limit, offset int) (model.AssetPage, error)
	ListAllAssets(ctx context.Context, limit, offset int) (model.AssetPage, error)
	GetAssetPrice(ctx context.Context, symbol string, assetType model.AssetType) (model.PriceQuote, error)
}

type HistoryService interface {
	GetHistory(ctx context.Context, userID int64, rawRange string) ([]model.PortfolioSnapshot, error)
	ExportHistory(ctx context.Context, userID int64, rawRange string) (fileBytes []byte, fileExtension string, err error)
}

type Handler struct {
	portfolioService PortfolioService
	historyService   HistoryService
}

func NewHandler(portfolioService PortfolioService, historyService HistoryService) *Handler {
	return &Handler{
		portfolioService: portfolioService,
		historyService:   historyService,
	}
}

type historyResponse struct {
	Range  model.HistoryRange        `json:"range"`
	Points []model.PortfolioSnapshot `json:"points"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	portfolio, err := h.portfolioService.GetPortfolio(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "Handler.GetPortfolio", err)
		return
	}

	writeJSON(w, http.StatusOK, portfolio)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	rawRange := r.URL.Query().Get("range")
	points, err := h.historyService.GetHistory(r.Context(), userID, rawRange)
	if err != nil {
		writeServiceError(w, r, "Handler.GetHistory", err)
		return
	}

	historyRange, _ := model.ParseHistoryRange(rawRange)
	writeJSON(w, http.StatusOK, historyResponse{Range: historyRange, Points: points})
}

func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	rawRange := r.URL.Query().Get("range")
	fileBytes, ext, err := h.historyService.ExportHistory(r.Context(), userID, rawRange)
	if err != nil {
		writeServiceError(w, r, "Handler.ExportHistory", err)
		return
	}

	historyRange, _ := model.ParseHistoryRange(rawRange)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="portfolio_history_%s%s"`, historyRange, ext))
	w.Header().Set("Content-Length", strconv.Itoa(len(fileBytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(fileBytes)
}

func (h *Handler) GetTrending(w http.ResponseWriter, r *http.Request) {
	listings, err := h.portfolioService.GetTrending(r.Context())
	if err != nil {
		writeServiceError(w, r, "Handler.GetTrending", err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

// GetAssetPrice defaults the type to crypto when the query omits it.
func (h *Handler) GetAssetPrice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	assetType := model.AssetType(strings.ToLower(query.Get("type")))
	if assetType == "" {
		assetType = model.AssetTypeCrypto
	}

	quote, err := h.portfolioService.GetAssetPrice(r.Context(), query.Get("symbol"), assetType)
	if err != nil {
		writeServiceError(w, r, "Handler.GetAssetPrice", err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) GetAssetDetail(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	assetID, err := parseAssetID(r)
	if err != nil {
		writeServiceError(w, r, "Handler.GetAssetDetail", err)
		return
	}

	detail, err := h.portfolioService.GetAssetDetail(r.Context(), userID, assetID)
	if err != nil {
		writeServiceError(w, r, "Handler.GetAssetDetail", err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) RemoveAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	assetID, err := parseAssetID(r)
	if err != nil {
		writeServiceError(w, r, "Handler.RemoveAsset", err)
		return
	}

	if err = h.portfolioService.RemoveAsset(r.Context(), userID, assetID); err != nil {
		writeServiceError(w, r, "Handler.RemoveAsset", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "asset removed"})
}

func (h *Handler) SearchAssets(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		writeServiceError(w, r, "Handler.SearchAssets", err)
		return
	}

	page, err := h.portfolioService.SearchAssets(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeServiceError(w, r, "Handler.SearchAssets", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) ListAllAssets(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		writeServiceError(w, r, "Handler.ListAllAssets", err)
		return
	}

	page, err := h.portfolioService.ListAllAssets(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, "Handler.ListAllAssets", err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) AddAsset(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	req := model.AddAssetRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, r, "Handler.AddAsset", fmt.Errorf("%w: malformed request body", service.ErrValidation))
		return
	}
	req.Type = model.AssetType(strings.ToLower(string(req.Type)))

	result, err := h.portfolioService.AddAsset(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, "Handler.AddAsset", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := utils.GetUserIDFromCtx(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, errCodeUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}

func parseAssetID(r *http.Request) (int64, error) {
	assetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || assetID <= 0 {
		return 0, fmt.Errorf("%w: asset id must be a positive integer", service.ErrValidation)
	}
	return assetID, nil
}

// parsePage leaves range checks to the service, empty values mean defaults.
func parsePage(r *http.Request) (limit, offset int, err error) {
	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return 0, 0, fmt.Errorf("%w: limit must be an integer", service.ErrValidation)
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			return 0, 0, fmt.Errorf("%w: offset must be an integer", service.ErrValidation)
		}
	}
	return limit, offset, nil
}
