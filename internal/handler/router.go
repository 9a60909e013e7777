package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jobshare/sharetrack/internal/emailshare"
	"github.com/jobshare/sharetrack/internal/middleware"
	"github.com/jobshare/sharetrack/internal/sharing"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Registry *sharing.Registry
	Email    *emailshare.Service // nil disables POST /shares/email
	URLs     sharing.URLBuilder
	Health   *HealthHandler
	Metrics  http.Handler // nil disables /metrics
	Security middleware.SecurityConfig
	CORS     middleware.CORSConfig
	Logger   *slog.Logger
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := New()
	shares := NewShareHandler(cfg.Registry, cfg.Email, cfg.Logger)
	analytics := NewAnalyticsHandler(cfg.Registry, cfg.URLs, cfg.Logger)

	maxBody := cfg.Security.MaxRequestBodySize
	if maxBody <= 0 {
		maxBody = middleware.DefaultSecurityConfig().MaxRequestBodySize
	}

	health := cfg.Health
	if health == nil {
		health = NewHealthHandler()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Get("/", h.Hello)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(maxBody))
		r.Use(middleware.Profile)

		r.Route("/shares", func(r chi.Router) {
			r.Get("/", shares.History)
			r.Post("/", shares.Record)
			r.Delete("/", shares.Clear)
			r.Get("/export", shares.Export)
			r.Post("/email", shares.EmailShare)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/", analytics.UserAnalytics)
			r.Get("/index", analytics.Index)
			r.Get("/optimal-hours", analytics.OptimalHours)
		})

		r.Route("/jobs/{jobID}", func(r chi.Router) {
			r.Get("/share-stats", analytics.JobStats)
			r.Post("/suggestions", analytics.Suggestions)
			r.Get("/tracking-url", analytics.TrackingURL)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
