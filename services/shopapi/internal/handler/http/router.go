package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/services/shopapi/internal/service"
)

// catalogMaxAge is how long clients may cache catalog reads, in seconds.
const catalogMaxAge = 60

// NewRouter creates a chi router with all shop API routes registered.
func NewRouter(
	shop *service.ShopService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	apiPath string,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("shopapi"))
	r.Use(middleware.Tracing("shopapi"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	h := NewShopHandler(shop, logger)

	r.Route("/api/{path}", func(r chi.Router) {
		r.Use(KnownPath(apiPath))
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogMaxAge))
			r.Get("/products", h.ListProducts)
			r.Get("/products/all", h.ListAllProducts)
			r.Get("/product/{id}", h.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore())
			r.Get("/cart", h.GetCart)
			r.Post("/cart", h.AddToCart)
			r.Put("/cart/{id}", h.UpdateCartLine)
			r.Delete("/cart/{id}", h.RemoveCartLine)
			r.Delete("/carts", h.ClearCart)

			r.Post("/order", h.PlaceOrder)
			r.Get("/order/{id}", h.GetOrder)
		})
	})

	return r
}
