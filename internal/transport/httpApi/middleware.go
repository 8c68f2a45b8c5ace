package httpApi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/KotFed0t/finvault_portfolio/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

const requestIDHeader = "X-Request-ID"

// RequestID takes the caller's X-Request-ID or generates one, and echoes it back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := utils.CreateCtxWithRqID(r.Context(), strings.TrimSpace(r.Header.Get(requestIDHeader)))
		w.Header().Set(requestIDHeader, utils.GetRequestIDFromCtx(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		rqID := utils.GetRequestIDFromCtx(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		slog.Info(
			"start request",
			slog.String("rqID", rqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			slog.Info(
				"request finished",
				slog.String("rqID", rqID),
				slog.String("route", routePattern(r)),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("request duration", fmt.Sprintf("%.2fs", time.Since(now).Seconds())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

type authClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Auth accepts HS256 bearer tokens carrying an integer userId claim.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rqID := utils.GetRequestIDFromCtx(r.Context())

			tokenString, ok := bearerToken(r)
			if !ok {
				writeError(w, r, http.StatusUnauthorized, errCodeUnauthorized, "missing bearer token")
				return
			}

			userID, err := parseUserID(tokenString, secret)
			if err != nil {
				slog.Warn("rejected bearer token", slog.String("rqID", rqID), slog.String("err", err.Error()))
				writeError(w, r, http.StatusUnauthorized, errCodeUnauthorized, "invalid or expired token")
				return
			}

			ctx := utils.CreateCtxWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func parseUserID(tokenString string, secret []byte) (int64, error) {
	if len(secret) == 0 {
		return 0, errors.New("jwt secret is not configured")
	}

	claims := authClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}

	if claims.UserID <= 0 {
		return 0, fmt.Errorf("invalid userId claim %d", claims.UserID)
	}

	return claims.UserID, nil
}
