package api

import (
	"net/http"
	"time"

	"airspace-analytics/vatwatch/internal/common"
	"airspace-analytics/vatwatch/internal/services"
)

// StatsResponse summarizes ingestion progress for operators
type StatsResponse struct {
	Cycle           int64      `json:"cycle"`
	LastCycleAt     *time.Time `json:"last_cycle_at,omitempty"`
	BufferedPilots  int        `json:"buffered_pilots"`
	BufferedATC     int        `json:"buffered_controllers"`
}

// StatsHandler handles GET /api/v1/stats
func StatsHandler(status *services.StatusService, buffer *common.ObservationBuffer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cycle, lastAt := status.LastCycle()

		resp := StatsResponse{
			Cycle:          cycle,
			BufferedPilots: buffer.PilotCount(),
			BufferedATC:    buffer.ControllerCount(),
		}
		if !lastAt.IsZero() {
			resp.LastCycleAt = &lastAt
		}
		respondWithSuccess(w, http.StatusOK, &resp)
	}
}
