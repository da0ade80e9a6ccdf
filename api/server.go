/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend (ALLOWED_ORIGINS)

ROUTE GROUPS:
  /api/stores/*                      Directory, roster, activity, exceptions per store
  /api/shifts/*                      Shift edits
  /api/repeating-shift-templates/*   Template edits
  /api/clock/*                       Clock in / out
  /api/exceptions/*                  Approval
  /api/holidays/*                    Holiday removal
  /api/reconciliation/*              Scheduler runs
  /api/scenarios/*                   Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. allowedOrigins
// defaults to the local frontend dev servers.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultOrigins
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/stores", func(r chi.Router) {
			r.Get("/", h.ListStores)
			r.Post("/", h.CreateStore)

			r.Route("/{storeID}", func(r chi.Router) {
				r.Get("/", h.GetStore)

				r.Get("/roles", h.ListRoles)
				r.Post("/roles", h.CreateRole)
				r.Get("/employees", h.ListEmployees)
				r.Post("/employees", h.CreateEmployee)

				r.Get("/expected-shifts", h.ListExpectedShifts)
				r.Post("/shifts", h.CreateShift)
				r.Get("/repeating-shift-templates", h.ListTemplates)
				r.Post("/repeating-shift-templates", h.CreateTemplate)
				r.Get("/repeating-shifts", h.ListRepeatingShifts)

				r.Get("/activity", h.ListActivity)
				r.Post("/timepunch-import", h.ImportTimePunches)

				r.Post("/reconcile", h.Reconcile)
				r.Get("/exceptions", h.ListExceptions)

				r.Get("/holidays", h.ListHolidays)
				r.Post("/holidays", h.CreateHoliday)
			})
		})

		r.Get("/employees/{id}", h.GetEmployee)

		r.Route("/shifts", func(r chi.Router) {
			r.Put("/{id}", h.UpdateShift)
			r.Delete("/{id}", h.DeleteShift)
		})

		r.Route("/repeating-shift-templates", func(r chi.Router) {
			r.Put("/{id}", h.UpdateTemplate)
			r.Delete("/{id}", h.DeleteTemplate)
		})

		r.Route("/clock", func(r chi.Router) {
			r.Post("/in", h.ClockIn)
			r.Post("/out", h.ClockOut)
		})

		r.Route("/exceptions", func(r chi.Router) {
			r.Get("/{id}", h.GetException)
			r.Post("/{id}/approve", h.ApproveException)
			r.Patch("/{id}/approve-with-edits", h.ApproveExceptionWithEdits)
		})

		r.Delete("/holidays/{id}", h.DeleteHoliday)

		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/runs", h.ListReconciliationRuns)
			r.Post("/process", h.ProcessReconciliations)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
