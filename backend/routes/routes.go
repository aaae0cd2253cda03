package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/unified-workspace/backend/app"
	"github.com/upb/unified-workspace/backend/handlers"
	"github.com/upb/unified-workspace/backend/internal/observability"
	"github.com/upb/unified-workspace/backend/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.API.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.Repositories.Health, deps.KeyResolver, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)
	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", observability.Handler(deps.Registry))
	}

	auth := handlers.NewAuthHandler(deps.Logger)
	dashboard := handlers.NewDashboardHandler(deps.Profiles)
	tasks := handlers.NewTaskHandler(deps.Tasks, deps.Logger)
	quickLinks := handlers.NewQuickLinkHandler(deps.QuickLinks, deps.Logger)

	// Dashboard data is readable anonymously unless API_REQUIRE_AUTH is set.
	// A presented bearer token is always verified.
	gate := deps.AuthMiddleware.OptionalAuth
	if deps.Config.API.RequireAuth {
		gate = deps.AuthMiddleware.RequireAuth
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/validate", auth.HandleValidate)
			r.Get("/me", auth.HandleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(gate)

			r.Get("/user/profile", dashboard.HandleProfile)
			r.Get("/jobs/summary", dashboard.HandleJobSummary)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", tasks.HandleList)
				r.Post("/", tasks.HandleCreate)
				r.Patch("/{id}", tasks.HandleUpdate)
				r.Delete("/{id}", tasks.HandleDelete)
			})

			r.Route("/quick-links", func(r chi.Router) {
				r.Get("/", quickLinks.HandleList)
				r.Post("/", quickLinks.HandleCreate)
				r.Delete("/{id}", quickLinks.HandleDelete)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
