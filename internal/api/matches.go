package api

import (
	"net/http"
	"time"

	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// ListMatchesHandler handles GET /api/v1/matches?from=&to=&limit=&offset=
func ListMatchesHandler(matches *repositories.MatchRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		from := now.Add(-1 * time.Hour)
		to := now

		if v := r.URL.Query().Get("from"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "from must be RFC3339")
				return
			}
			from = t
		}
		if v := r.URL.Query().Get("to"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "to must be RFC3339")
				return
			}
			to = t
		}
		if to.Before(from) {
			respondWithError(w, http.StatusBadRequest, "to is before from")
			return
		}

		limit := queryInt(r, "limit", 100, 1000)
		offset := queryInt(r, "offset", 0, 0)

		out, err := matches.ListWindow(r.Context(), from, to, limit, offset)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to load matches")
			return
		}
		if out == nil {
			out = []entities.FrequencyMatch{}
		}
		respondWithSuccess(w, http.StatusOK, &out)
	}
}
