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
  Under /api additionally:
  5. WithActor:  Resolve the acting user from X-Actor-ID
  6. RateLimit:  Per-actor token bucket
  7. Status:     Prometheus response counters

ROUTE GROUPS:
  /healthz              Liveness probe (no actor required)
  /metrics              Prometheus scrape endpoint (no actor required)
  /api/employees/*      Employee management
  /api/departments/*    Department management
  /api/leaves/*         Leave lifecycle

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Actor resolution and role gates
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
// limiter may be nil to disable rate limiting (tests).
func NewRouter(h *Handler, gatherer prometheus.Gatherer, limiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-ID"},
		AllowCredentials: true,
	}))

	// Probes and metrics sit outside the actor gate
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(WithActor(h.Stores))
		if limiter != nil {
			r.Use(limiter.Middleware())
		}
		r.Use(h.statusMiddleware)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.With(RequireAdmin).Post("/", h.CreateEmployee)
			r.With(RequireAdmin).Get("/", h.ListEmployees)
			r.Patch("/own", h.UpdateOwn)
			r.Get("/{id}", h.GetEmployee)
			r.With(RequireAdmin).Patch("/{id}", h.UpdateEmployee)
			r.With(RequireAdmin).Delete("/{id}", h.DeleteEmployee)
		})

		// Department routes
		r.Route("/departments", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/", h.CreateDepartment)
			r.Get("/", h.ListDepartments)
			r.Get("/{id}", h.GetDepartment)
			r.Patch("/{id}", h.UpdateDepartment)
			r.Delete("/{id}", h.DeleteDepartment)
		})

		// Leave routes
		r.Route("/leaves", func(r chi.Router) {
			r.Post("/", h.SubmitLeave)
			r.With(RequireManagerOrAdmin).Get("/", h.ListLeaves)
			r.Get("/own", h.ListOwnLeaves)
			r.Get("/{id}", h.GetLeave)
			r.Patch("/{id}/withdraw", h.WithdrawLeave)
			r.With(RequireManagerOrAdmin).Patch("/{id}/manager-review", h.ManagerReview)
			r.With(RequireAdmin).Patch("/{id}/hr-review", h.HRReview)
		})
	})

	return r
}

// statusMiddleware counts responses by status code.
func (h *Handler) statusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.Metrics.RecordHTTPStatus(ww.Status())
	})
}
