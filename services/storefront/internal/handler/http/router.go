package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/services/storefront/internal/notify"
	"github.com/utafrali/storefront/services/storefront/internal/storefront"
)

// RouterOptions carries the edge settings of the BFF.
type RouterOptions struct {
	CORS           middleware.CORSConfig
	RateLimitRPS   float64
	RateLimitBurst int
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	session *storefront.Session,
	notices *notify.Recorder,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(middleware.Session())
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, opts.PprofCIDRs, logger)

	h := NewStorefrontHandler(session, notices, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(opts.CORS))
		r.Use(middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst, logger))
		r.Use(middleware.NoStore())
		r.Use(ContentTypeJSON)

		r.Get("/storefront", h.GetView)
		r.Get("/products", h.ListProducts)
		r.Get("/notices", h.ListNotices)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/refresh", h.RefreshCart)

			r.Post("/items", h.AddItem)
			r.Post("/items/{id}/increment", h.IncrementItem)
			r.Post("/items/{id}/decrement", h.DecrementItem)
			r.Delete("/items/{id}", h.RemoveItem)
		})

		r.Route("/detail", func(r chi.Router) {
			r.Post("/", h.OpenDetail)
			r.Delete("/", h.CloseDetail)
			r.Put("/quantity", h.SetDetailQuantity)
			r.Post("/add", h.AddFromDetail)
		})

		r.Post("/order", h.SubmitOrder)
	})

	return r
}
