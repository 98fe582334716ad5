package api

import (
	"encoding/json"
	"net/http"

	"airspace-analytics/vatwatch/internal/services"
)

// HealthCheckHandler handles GET /healthCheck
func HealthCheckHandler(status *services.StatusService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := status.Health(r.Context())

		code := http.StatusOK
		if resp.Status != "operational" {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
