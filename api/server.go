/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. Auth:       JWT actor resolution (API routes only)

ROUTE GROUPS:
  /api/requests/*       Leave request workflow
  /api/persons/*        Balances and per-person queries
  /api/leave-types      Catalog
  /api/admin/*          Batches, adjustments, audit trail
  /healthz              Liveness probe (unauthenticated)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: AuthMiddleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries router-level settings.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Person-ID", "X-Role"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes (authenticated)
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SubmitRequest)
			r.Get("/pending", h.ListPendingRequests)
			r.Get("/{id}", h.GetRequest)
			r.Put("/{id}", h.EditRequest)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/reject", h.RejectRequest)
			r.Post("/{id}/cancel", h.CancelRequest)
		})

		r.Route("/persons/{id}", func(r chi.Router) {
			r.Get("/requests", h.ListPersonRequests)
			r.Get("/balances", h.GetBalanceSummary)
			r.Get("/balances/{type}", h.GetBalance)
			r.Get("/overlaps", h.FindOverlaps)
		})

		r.Get("/leave-types", h.ListLeaveTypes)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/accruals", h.TriggerAccruals)
			r.Post("/carryover", h.TriggerCarryOver)
			r.Post("/init-year", h.InitializeYear)
			r.Post("/adjustments", h.AdjustBalance)
			r.Get("/history", h.GetHistory)
		})
	})

	return r
}
