package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/models/entities"
)

func queryInt(r *http.Request, name string, def, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

func callsignParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "callsign")))
}

// GetFlightPositionsHandler handles GET /api/v1/flights/{callsign}/positions
func GetFlightPositionsHandler(flights *repositories.FlightRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callsign := callsignParam(r)
		if callsign == "" {
			respondWithError(w, http.StatusBadRequest, "callsign is required")
			return
		}
		limit := queryInt(r, "limit", 100, 1000)

		positions, err := flights.ListRecentPositions(r.Context(), callsign, limit)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to load positions")
			return
		}
		if positions == nil {
			positions = []entities.PilotObs{}
		}
		respondWithSuccess(w, http.StatusOK, &positions)
	}
}

// GetFlightSummariesHandler handles GET /api/v1/flights/{callsign}/summaries
func GetFlightSummariesHandler(summaries *repositories.SummaryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callsign := callsignParam(r)
		if callsign == "" {
			respondWithError(w, http.StatusBadRequest, "callsign is required")
			return
		}
		limit := queryInt(r, "limit", 20, 200)
		offset := queryInt(r, "offset", 0, 0)

		out, err := summaries.ListFlightSummaries(r.Context(), callsign, limit, offset)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to load summaries")
			return
		}
		if out == nil {
			out = []entities.FlightSummary{}
		}
		respondWithSuccess(w, http.StatusOK, &out)
	}
}
