package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DavidAnato/AgriConnect/internal/catalog"
	"github.com/DavidAnato/AgriConnect/internal/domain"
	"github.com/DavidAnato/AgriConnect/internal/workspace"
	"github.com/DavidAnato/AgriConnect/pkg/health"
	"github.com/DavidAnato/AgriConnect/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig holds what the router needs besides the workspaces.
type RouterConfig struct {
	Cookie          CookieConfig
	CORS            middleware.CORSConfig
	MetricsCIDRs    []string
	RateLimitRPS    float64
	RateLimitBurst  int
	CatalogDefaults catalog.Query
	// CatalogMaxAge is the public cache lifetime of anonymous catalog reads,
	// in seconds.
	CatalogMaxAge int
}

// NewRouter creates a chi router with all storefront routes registered. ctx
// bounds the background cleanup of the rate limiter.
func NewRouter(
	ctx context.Context,
	registry *workspace.Registry,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.With(middleware.IPAllowlist(cfg.MetricsCIDRs, logger)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	sessionHandler := NewSessionHandler(logger)
	cartHandler := NewCartHandler(logger)
	catalogHandler := NewCatalogHandler(cfg.CatalogDefaults, logger)
	orderHandler := NewOrderHandler(logger)
	producerHandler := NewProducerHandler(logger)

	consumer := middleware.RequireRole(gate, logger, string(domain.RoleConsumer))
	producer := middleware.RequireRole(gate, logger, string(domain.RoleProducer))
	signedIn := middleware.RequireRole(gate, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(SessionBinding(registry, cfg.Cookie, logger))
		r.Use(middleware.RequestLogger(logger))
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

		r.Route("/session", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/", sessionHandler.Current)
			r.Post("/login", sessionHandler.Login)
			r.Post("/google-login", sessionHandler.GoogleLogin)
			r.Post("/logout", sessionHandler.Logout)
			r.Post("/register", sessionHandler.Register)
			r.Post("/verify-email", sessionHandler.VerifyEmail)
			r.Post("/resend-activation", sessionHandler.ResendActivation)
			r.Post("/password-reset-request", sessionHandler.RequestPasswordReset)
			r.Post("/password-reset-confirm", sessionHandler.ConfirmPasswordReset)
			r.Post("/check-email", sessionHandler.CheckEmail)

			r.Group(func(r chi.Router) {
				r.Use(signedIn)
				r.Patch("/profile", sessionHandler.UpdateProfile)
				r.Put("/set-password", sessionHandler.SetPassword)
				r.Post("/change-password", sessionHandler.ChangePassword)
			})
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
				r.Get("/", catalogHandler.List)
				r.Get("/products/{id}", catalogHandler.GetProduct)
			})

			r.Route("/browse", func(r chi.Router) {
				r.Use(middleware.NoStore)
				r.Get("/", catalogHandler.Browse)
				r.Put("/", catalogHandler.LoadBrowse)
				r.Post("/search", catalogHandler.Search)
				r.Post("/filter", catalogHandler.SetFilter)
				r.Post("/refresh", catalogHandler.RefreshBrowse)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Get("/", cartHandler.GetCart)

			r.Group(func(r chi.Router) {
				r.Use(consumer)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.UpdateQuantity)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
				r.Post("/checkout", cartHandler.Checkout)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(consumer)
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{id}", orderHandler.GetOrder)
		})

		r.Route("/producer", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(producer)

			r.Get("/products", producerHandler.ListProducts)
			r.Post("/products", producerHandler.CreateProduct)
			r.Put("/products/{id}", producerHandler.UpdateProduct)
			r.Patch("/products/{id}", producerHandler.PatchProduct)
			r.Delete("/products/{id}", producerHandler.DeleteProduct)
			r.Put("/products/{id}/published", producerHandler.PublishProduct)
			r.Get("/orders", producerHandler.ListOrders)
			r.Get("/stats", producerHandler.Stats)
		})
	})

	return r
}
