package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/debjit15/angrybolly/internal/service"
	"github.com/debjit15/angrybolly/pkg/health"
	"github.com/debjit15/angrybolly/pkg/middleware"
)

// RouterConfig holds the HTTP-surface knobs the router needs.
type RouterConfig struct {
	AdminJWTSecret string
	WriteRPS       int
	WriteBurst     int
	CORS           middleware.CORSConfig
}

// NewRouter creates a chi router with all service routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	statsService *service.StatsService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("reviews"))
	r.Use(middleware.Tracing("reviews"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	reviewHandler := NewReviewHandler(reviewService, logger)
	statsHandler := NewStatsHandler(statsService, logger)

	// One token-bucket store shared by all write endpoints.
	writeLimit := middleware.RateLimit(cfg.WriteRPS, cfg.WriteBurst, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/stats", statsHandler.Get)
		r.With(middleware.AdminAuth(cfg.AdminJWTSecret, logger)).Put("/stats", statsHandler.Set)
		r.With(writeLimit).Post("/stats/downloads", statsHandler.TrackDownload)

		r.Get("/reviews", reviewHandler.List)
		r.With(writeLimit).Post("/reviews", reviewHandler.Submit)
	})

	return r
}
