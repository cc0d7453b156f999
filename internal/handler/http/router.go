package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tthanhhau/shopsearch/internal/service"
	"github.com/tthanhhau/shopsearch/pkg/health"
	"github.com/tthanhhau/shopsearch/pkg/middleware"
)

// NewRouter creates a chi router with all search routes registered. The
// resync endpoint is restricted to admin tokens.
func NewRouter(
	searchService *service.SearchService,
	syncService *service.SyncService,
	healthHandler *health.Handler,
	tokenValidator middleware.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("search"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	searchHandler := NewSearchHandler(searchService, syncService, logger)

	r.Route("/v1/api/search", func(r chi.Router) {
		r.Get("/", searchHandler.Search)
		r.Get("/suggestions", searchHandler.Suggestions)
		r.Get("/facets", searchHandler.Facets)
		r.Patch("/products/{slug}/views", searchHandler.TrackView)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Use(middleware.RequireRole("admin"))
			r.Post("/sync", searchHandler.Resync)
		})
	})

	return r
}
