package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ToolCatalog/internal/domain"
	"github.com/utafrali/ToolCatalog/internal/service"
	"github.com/utafrali/ToolCatalog/pkg/health"
	"github.com/utafrali/ToolCatalog/pkg/middleware"
)

// Services are the application services the router exposes.
type Services struct {
	Auth    *service.AuthService
	Access  *service.AccessControl
	Tools   *service.ToolService
	Reviews *service.ReviewService
	Stats   *service.StatsService
}

// RouterConfig holds the cross-cutting pieces of the HTTP surface.
type RouterConfig struct {
	Logger          *slog.Logger
	Health          *health.Handler
	HTTPMetrics     *middleware.HTTPMetrics
	MetricsHandler  http.Handler
	AuthRateLimiter *middleware.RateLimiter
	CORS            middleware.CORSConfig
	RequestTimeout  time.Duration
}

const enumCacheAge = time.Hour

// NewRouter creates a chi router with every catalog route registered.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.CORS(cfg.CORS))

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	authHandler := NewAuthHandler(svc.Auth, cfg.Logger)
	toolHandler := NewToolHandler(svc.Tools, cfg.Logger)
	reviewHandler := NewReviewHandler(svc.Reviews, cfg.Logger)
	catalogHandler := NewCatalogHandler(svc.Stats, cfg.Logger)

	requireAuth := middleware.Auth(svc.Access.ValidateToken)
	optionalAuth := middleware.OptionalAuth(svc.Access.ValidateToken)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	withUser := middleware.RequestLogger(cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthRateLimiter != nil {
					r.Use(cfg.AuthRateLimiter.Middleware)
				}
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, withUser)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/tools", func(r chi.Router) {
			r.Get("/", toolHandler.List)
			r.Get("/{id}", toolHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, withUser, adminOnly)
				r.Post("/", toolHandler.Create)
				r.Put("/{id}", toolHandler.Update)
				r.Delete("/{id}", toolHandler.Delete)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth, withUser)
				r.Get("/", reviewHandler.List)
				r.Get("/{id}", reviewHandler.Get)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, withUser)
				r.Post("/", reviewHandler.Submit)
				r.With(adminOnly).Patch("/{id}", reviewHandler.Moderate)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(enumCacheAge))
			r.Get("/categories", catalogHandler.Categories)
			r.Get("/pricing-models", catalogHandler.PricingModels)
		})

		r.With(requireAuth, withUser, adminOnly).Get("/stats", catalogHandler.Stats)
	})

	return r
}
