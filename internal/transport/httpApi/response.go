package httpApi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KotFed0t/finvault_portfolio/internal/service"
	"github.com/KotFed0t/finvault_portfolio/utils"
)

const (
	errCodeValidation          = "validation_error"
	errCodeNotFound            = "not_found"
	errCodeUnauthorized        = "unauthorized"
	errCodeUpstreamUnavailable = "upstream_unavailable"
	errCodeRateUnavailable     = "rate_unavailable"
	errCodeInternal            = "internal_error"
)

type errorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("can't encode response", slog.String("err", err.Error()))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:      status,
		Message:   message,
		ErrorCode: errorCode,
		RequestID: utils.GetRequestIDFromCtx(r.Context()),
	})
}

// writeServiceError maps service sentinels to a status. Anything unknown is a 500
// and its text is not exposed to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	rqID := utils.GetRequestIDFromCtx(r.Context())

	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, r, http.StatusBadRequest, errCodeValidation, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, r, http.StatusNotFound, errCodeNotFound, err.Error())
	case errors.Is(err, service.ErrUpstreamUnavailable):
		slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		writeError(w, r, http.StatusInternalServerError, errCodeUpstreamUnavailable, "market data provider is unavailable")
	case errors.Is(err, service.ErrRateUnavailable):
		slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		writeError(w, r, http.StatusInternalServerError, errCodeRateUnavailable, "exchange rate is unavailable")
	default:
		slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		writeError(w, r, http.StatusInternalServerError, errCodeInternal, "internal server error")
	}
}
