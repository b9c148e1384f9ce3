package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promostack/discount-engine/internal/service"
	"github.com/promostack/discount-engine/pkg/health"
	"github.com/promostack/discount-engine/pkg/middleware"
)

// NewRouter creates a chi router with all discount-engine routes registered.
func NewRouter(
	discountService *service.DiscountService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("discount-engine"))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("discount-engine"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Profiling endpoints, restricted to loopback.
	middleware.RegisterPprof(r, []string{"127.0.0.1/32", "::1/128"}, logger)

	// Discount stack API endpoints
	stackHandler := NewStackHandler(discountService, logger)

	r.Route("/api/v1/stacks", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", stackHandler.CreateStack)
		r.Get("/", stackHandler.ListStacks)

		// Dry-run validation endpoint (must come before /{id} to avoid conflict).
		r.Post("/validate", stackHandler.ValidateStack)

		r.Get("/{id}", stackHandler.GetStack)
		r.Put("/{id}", stackHandler.UpdateStack)
		r.Delete("/{id}", stackHandler.DeleteStack)
		r.Post("/{id}/activate", stackHandler.ActivateStack)
		r.Post("/{id}/deactivate", stackHandler.DeactivateStack)
		r.Post("/{id}/evaluate", stackHandler.EvaluateStack)
	})

	return r
}
