/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/teams/{team}/*   Everything is team-scoped; the team segment is
                        the isolation boundary, so no cross-team route
                        exists.

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api/teams/{team}", func(r chi.Router) {
		// Uploads
		r.Post("/extract", h.UploadExtract)
		r.Post("/cso", h.UploadCSO)
		r.Post("/tracking", h.UploadTracking)

		// Reconciliation
		r.Post("/process", h.Process)

		// Tables
		r.Get("/tables/{name}", h.GetTable)

		// Config editors
		r.Route("/config", func(r chi.Router) {
			r.Get("/tl", h.GetTLMap)
			r.Put("/tl", h.PutTLMap)
			r.Get("/market", h.GetMarketMap)
			r.Put("/market", h.PutMarketMap)
			r.Get("/sbd", h.GetSBDConfig)
			r.Put("/sbd", h.PutSBDConfig)
		})

		// Clipboard exports
		r.Route("/copy", func(r chi.Router) {
			r.Get("/so", h.CopySOOrders)
			r.Get("/tracking", h.CopyTrackingURLs)
		})
	})

	return r
}
