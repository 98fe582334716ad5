package api

import (
	"encoding/json"
	"net/http"
	"time"

	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/logging"
	"airspace-analytics/vatwatch/internal/models/entities"
	"airspace-analytics/vatwatch/internal/services"
)

type completeFlightRequest struct {
	LogonTime time.Time `json:"logon_time"`
}

// CompleteFlightHandler handles POST /api/v1/admin/flights/{callsign}/complete.
// It forces a flight into the completed state and summarizes it immediately,
// for flights the automatic detectors cannot close (e.g. a corrupted state row
// or a diversion outside the boundary).
func CompleteFlightHandler(flights *repositories.FlightRepository, summarizer *services.Summarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callsign := callsignParam(r)
		if callsign == "" {
			respondWithError(w, http.StatusBadRequest, "callsign is required")
			return
		}

		var req completeFlightRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LogonTime.IsZero() {
			respondWithError(w, http.StatusBadRequest, "body must include logon_time (RFC3339)")
			return
		}

		now := time.Now().UTC()

		state, err := flights.GetState(r.Context(), callsign, req.LogonTime)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if state == nil {
			respondWithError(w, http.StatusNotFound, "no such flight")
			return
		}

		// Summary first: if it fails nothing has committed and the request
		// can simply be retried.
		summary, err := summarizer.SummarizeFlight(r.Context(), callsign, req.LogonTime,
			now, entities.CompletionManual, 1.0)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "summary failed, flight left unchanged: "+err.Error())
			return
		}

		if err := flights.UpdateStatus(r.Context(), callsign, req.LogonTime,
			entities.FlightCompleted, now, 1.0, entities.CompletionManual); err != nil {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}

		logging.Info("Flight manually completed", "callsign", callsign,
			"logon_time", req.LogonTime.Format(time.RFC3339))

		if summary == nil {
			respondWithError(w, http.StatusConflict, "flight completed but no positions were on record")
			return
		}
		respondWithSuccess(w, http.StatusOK, summary)
	}
}
