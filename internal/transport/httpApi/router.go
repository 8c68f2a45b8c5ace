package httpApi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
		MaxAge:         300,
	}))

	auth := Auth([]byte(jwtSecret))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/trending", h.GetTrending)
			r.Get("/price", h.GetAssetPrice)
			r.Get("/assets", h.SearchAssets)
			r.Get("/all-assets", h.ListAllAssets)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Get("/", h.GetPortfolio)
				r.Get("/history", h.GetHistory)
				r.Get("/history/export", h.ExportHistory)
				r.Get("/asset/{id}", h.GetAssetDetail)
				r.Delete("/asset/{id}", h.RemoveAsset)
				r.Post("/add", h.AddAsset)
			})
		})
	})

	return r
}
