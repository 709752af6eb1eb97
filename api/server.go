/*
server.go - HTTP server setup and routing

PURPOSE:
  Configures the chi router, middleware stack, and CORS policy, and maps
  URL paths to handlers.

MIDDLEWARE STACK (applied in order):
  1. RequestID - tags each request for log correlation
  2. Logger    - request logging
  3. Recoverer - panic recovery
  4. CORS      - cross-origin requests from the configured frontends

SEE ALSO:
  - handlers.go: Handler implementations
  - notifier.go: Background subscription sweep
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the full route tree over the handler.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.CreateMember)
			r.Get("/{id}", h.GetMember)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/shifts", h.ListShifts)
			r.Get("/{id}/transactions", h.GetTransactions)
			r.Get("/{id}/notifications", h.GetNotifications)
			r.Post("/{id}/recalculate", h.RecalculateMember)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.CreateShift)
			r.Delete("/{id}", h.DeleteShift)
		})

		r.Route("/volunteering", func(r chi.Router) {
			r.Get("/actions", h.ListActions)
			r.Post("/actions", h.CreateAction)
			r.Post("/declarations", h.CreateDeclaration)
			r.Delete("/declarations/{id}", h.DeleteDeclaration)
		})

		r.Post("/transfers", h.CreateTransfer)

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", h.ListSubscriptions)
			r.Post("/", h.CreateSubscription)
		})

		r.Post("/admin/recalculate", h.RecalculateAll)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
