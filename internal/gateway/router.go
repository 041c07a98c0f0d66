package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rathod-sahaab/elide/internal/auth"
	"github.com/rathod-sahaab/elide/internal/config"
	"github.com/rathod-sahaab/elide/internal/httputil"
	"github.com/rathod-sahaab/elide/internal/logging"
	"github.com/rathod-sahaab/elide/internal/metrics"
)

// NewRouter wires every route. The slug catch-all is registered last so the
// API and operational routes win.
func NewRouter(
	cfg *config.Config,
	authService *auth.Service,
	authHandler *auth.Handler,
	links *LinkHandler,
	redirects *RedirectHandler,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(metrics.Middleware)

	// Operational routes
	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(authService.RequireAuth)
				r.Get("/me", authHandler.Me)
				r.Put("/update", authHandler.Update)
				r.Delete("/delete", authHandler.Delete)
			})
		})

		r.Route("/links", func(r chi.Router) {
			// Anonymous creation keeps OptionalAuth so a live session is
			// detected and rejected rather than silently ignored.
			r.With(authService.OptionalAuth).Post("/orphan", links.CreateOrphan)

			r.Group(func(r chi.Router) {
				r.Use(authService.RequireAuth)
				r.Post("/", links.Create)
				r.Get("/", links.List)
				r.Get("/{id}", links.Get)
				r.Put("/{id}", links.Update)
				r.Delete("/{id}", links.Delete)
			})
		})

		r.Route("/availability", func(r chi.Router) {
			r.Get("/slug", links.SlugAvailability)
			r.Get("/username", authHandler.UsernameAvailability)
			r.Get("/email", authHandler.EmailAvailability)
		})
	})

	// Redirect surface
	r.Get("/", redirects.Root)
	r.Get("/{slug}", redirects.Resolve)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
