package routes

import (
	"github.com/go-chi/chi/v5"

	"airspace-analytics/vatwatch/internal/api"
	"airspace-analytics/vatwatch/internal/middleware"
)

// RegisterAPIRoutes mounts the versioned read API and the admin surface
func RegisterAPIRoutes(r chi.Router, deps *Dependencies) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware)

		r.Get("/stats", api.StatsHandler(deps.Status, deps.Buffer))
		r.Get("/controllers", api.ListControllersHandler(deps.CtrlRepo))
		r.Get("/controllers/{callsign}/summaries", api.GetControllerSummariesHandler(deps.SummaryRepo))
		r.Get("/flights/{callsign}/positions", api.GetFlightPositionsHandler(deps.FlightRepo))
		r.Get("/flights/{callsign}/summaries", api.GetFlightSummariesHandler(deps.SummaryRepo))
		r.Get("/matches", api.ListMatchesHandler(deps.MatchRepo))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuthMiddleware(deps.Config.AdminJWTSecret))
			r.Post("/admin/flights/{callsign}/complete", api.CompleteFlightHandler(deps.FlightRepo, deps.Summarizer))
		})
	})
}
