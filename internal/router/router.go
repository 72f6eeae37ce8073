// Package router sets up all HTTP routes and middleware chains for the
// storefront admin API. Auth routes are open or session-only; category
// routes require a session with completed 2FA.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/session"
)

// Deps holds everything the router wires into routes.
type Deps struct {
	Sessions     *session.Store
	Metrics      *metrics.Metrics
	LoginLimiter *middleware.RateLimiter // optional
	Auth         *handlers.Auth
	Categories   *handlers.Categories
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.LoadSession(d.Sessions))

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.LoginLimiter != nil {
				r.Use(d.LoginLimiter.Middleware)
			}
			r.Post("/auth/login", d.Auth.Login)
		})
		r.Post("/auth/logout", d.Auth.Logout)

		// 2FA requires a session but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/auth/2fa/setup", d.Auth.TwoFASetup)
			r.Post("/auth/2fa/verify", d.Auth.TwoFAVerify)
			r.Get("/me", d.Auth.Me)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/", d.Categories.List)
			r.Post("/", d.Categories.Create)
			r.Get("/tree", d.Categories.Tree)
			r.Get("/stats", d.Categories.Stats)
			r.Get("/events", d.Categories.Events)
			r.With(middleware.RequireOwner).Get("/check", d.Categories.Check)
			r.Post("/drop", d.Categories.Drop)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Categories.Get)
				r.Patch("/", d.Categories.Rename)
				r.Delete("/", d.Categories.Delete)
				r.Post("/children", d.Categories.Attach)
				r.Delete("/parent", d.Categories.Detach)
				r.Put("/parent", d.Categories.Reparent)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not found"}`))
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"error":"method not allowed"}`))
}
