package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airspace-analytics/vatwatch/internal/api"
	"airspace-analytics/vatwatch/internal/common"
	"airspace-analytics/vatwatch/internal/config"
	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/logging"
	"airspace-analytics/vatwatch/internal/metrics"
	"airspace-analytics/vatwatch/internal/middleware"
	"airspace-analytics/vatwatch/internal/services"
)

// Dependencies carries everything the HTTP surface needs
type Dependencies struct {
	Config      *config.Config
	Metrics     *metrics.MetricsRegistry
	Status      *services.StatusService
	Summarizer  *services.Summarizer
	Buffer      *common.ObservationBuffer
	FlightRepo  *repositories.FlightRepository
	CtrlRepo    *repositories.ControllerRepository
	MatchRepo   *repositories.MatchRepository
	SummaryRepo *repositories.SummaryRepository
}

// RegisterRoutes builds the router with global middleware and all endpoints
func RegisterRoutes(deps *Dependencies) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	// health check and Prometheus scrape endpoint
	r.Get("/healthCheck", api.HealthCheckHandler(deps.Status))
	r.Handle("/metrics", promhttp.Handler())

	RegisterAPIRoutes(r, deps)

	return r
}
