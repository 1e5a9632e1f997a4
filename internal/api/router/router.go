package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/faysalsarker-dev/piercing-cms/internal/appstate"
	"github.com/faysalsarker-dev/piercing-cms/internal/http/handlers"
	httpmiddleware "github.com/faysalsarker-dev/piercing-cms/internal/http/middleware"
	"github.com/faysalsarker-dev/piercing-cms/internal/identity"
	"github.com/faysalsarker-dev/piercing-cms/internal/labels"
	"github.com/faysalsarker-dev/piercing-cms/internal/preferences"
	"github.com/faysalsarker-dev/piercing-cms/internal/resources"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger      *logging.Logger
	Identity    *identity.Service
	Workspaces  *appstate.Registry
	Preferences *preferences.Store
	Catalog     resources.Catalog
	Labels      *labels.Renderer
	AdminRole   string

	// Verifier lets API callers use a bearer token instead of the cookie.
	Verifier identity.Verifier

	MetricsHandler     http.Handler
	Gatherer           prometheus.Gatherer
	HealthCheck        func(ctx context.Context) error
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.Health(cfg.HealthCheck))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	auth := handlers.NewAuthHandler(cfg.Identity, cfg.Workspaces, cfg.Logger)
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = resources.DefaultCatalog()
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}

		// Login page calls
		api.Post("/auth/sign-in", auth.SignIn)
		api.Post("/auth/sign-up", auth.SignUp)

		// Guarded layout
		api.Group(func(guarded chi.Router) {
			guarded.Use(httpmiddleware.RequireSession(httpmiddleware.SessionConfig{
				Sessions:   cfg.Identity,
				Verifier:   cfg.Verifier,
				Workspaces: cfg.Workspaces,
				Logger:     cfg.Logger,
			}))

			guarded.Post("/auth/sign-out", auth.SignOut)
			guarded.Get("/auth/session", auth.Session)

			shell := handlers.NewShellHandler(cfg.Preferences, catalog, cfg.AdminRole, cfg.Logger)
			guarded.Get("/shell", shell.Shell)
			guarded.Get("/preferences", shell.GetPreferences)
			guarded.Put("/preferences", shell.PutPreferences)

			guarded.With(httpmiddleware.RequireRole(cfg.AdminRole, cfg.Logger)).
				Get("/status", handlers.Status(cfg.Gatherer, cfg.Workspaces))

			guarded.Route("/schedule", handlers.NewScheduleHandler(cfg.Logger).Routes)
			guarded.Route("/bookings", handlers.NewBookingsHandler(cfg.Logger).Routes)
			handlers.NewResourcesHandler(catalog, cfg.Labels, cfg.AdminRole, cfg.Logger).Routes(guarded)
		})
	})

	return r
}
