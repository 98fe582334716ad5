package api

import (
	"net/http"

	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// ListControllersHandler handles GET /api/v1/controllers
func ListControllersHandler(controllers *repositories.ControllerRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := controllers.ListOnline(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to load controllers")
			return
		}
		if out == nil {
			out = []entities.ControllerObs{}
		}
		respondWithSuccess(w, http.StatusOK, &out)
	}
}

// GetControllerSummariesHandler handles GET /api/v1/controllers/{callsign}/summaries
func GetControllerSummariesHandler(summaries *repositories.SummaryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callsign := callsignParam(r)
		if callsign == "" {
			respondWithError(w, http.StatusBadRequest, "callsign is required")
			return
		}
		limit := queryInt(r, "limit", 20, 200)
		offset := queryInt(r, "offset", 0, 0)

		out, err := summaries.ListControllerSummaries(r.Context(), callsign, limit, offset)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to load summaries")
			return
		}
		if out == nil {
			out = []entities.ControllerSummary{}
		}
		respondWithSuccess(w, http.StatusOK, &out)
	}
}
