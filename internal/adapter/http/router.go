package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/michaelwybraniec/bankly/internal/adapter/http/handler"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	HealthHandler *handler.HealthHandler
	AuditHandler  *handler.AuditHandler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/audit-events", func(r chi.Router) {
			r.Get("/{transactionID}", cfg.AuditHandler.Get)
		})
	})

	return r
}
