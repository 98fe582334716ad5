package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"airspace-analytics/vatwatch/internal/models/entities"
)

// SummaryRepository persists the immutable summary records. Reprocessing
// replaces a whole record by natural key; partial updates never happen.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a summary repository
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// InsertFlightSummary writes one summary, replacing any prior record for the
// same (callsign, logon_time).
func (r *SummaryRepository) InsertFlightSummary(ctx context.Context, summary *entities.FlightSummary) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO flight_summaries (
			callsign, logon_time, cid, aircraft_type, departure, arrival, route, cruise_tas,
			first_position, last_position, max_altitude_ft, started_at, completed_at,
			completion_method, completion_confidence, landed_airport, controller_interactions
		) VALUES (
			:callsign, :logon_time, :cid, :aircraft_type, :departure, :arrival, :route, :cruise_tas,
			:first_position, :last_position, :max_altitude_ft, :started_at, :completed_at,
			:completion_method, :completion_confidence, :landed_airport, :controller_interactions
		)
		ON CONFLICT (callsign, logon_time) DO UPDATE SET
			cid = EXCLUDED.cid,
			aircraft_type = EXCLUDED.aircraft_type,
			departure = EXCLUDED.departure,
			arrival = EXCLUDED.arrival,
			route = EXCLUDED.route,
			cruise_tas = EXCLUDED.cruise_tas,
			first_position = EXCLUDED.first_position,
			last_position = EXCLUDED.last_position,
			max_altitude_ft = EXCLUDED.max_altitude_ft,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			completion_method = EXCLUDED.completion_method,
			completion_confidence = EXCLUDED.completion_confidence,
			landed_airport = EXCLUDED.landed_airport,
			controller_interactions = EXCLUDED.controller_interactions
	`, summary)
	if err != nil {
		return fmt.Errorf("insert flight summary %s: %w", summary.Callsign, err)
	}
	return nil
}

// InsertControllerSummary writes one summary, replacing any prior record for
// the same (callsign, online_at).
func (r *SummaryRepository) InsertControllerSummary(ctx context.Context, summary *entities.ControllerSummary) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO controller_summaries (
			callsign, cid, facility, rating, frequency_hz,
			online_at, offline_at, duration_s, aircraft_interactions
		) VALUES (
			:callsign, :cid, :facility, :rating, :frequency_hz,
			:online_at, :offline_at, :duration_s, :aircraft_interactions
		)
		ON CONFLICT (callsign, online_at) DO UPDATE SET
			cid = EXCLUDED.cid,
			facility = EXCLUDED.facility,
			rating = EXCLUDED.rating,
			frequency_hz = EXCLUDED.frequency_hz,
			offline_at = EXCLUDED.offline_at,
			duration_s = EXCLUDED.duration_s,
			aircraft_interactions = EXCLUDED.aircraft_interactions
	`, summary)
	if err != nil {
		return fmt.Errorf("insert controller summary %s: %w", summary.Callsign, err)
	}
	return nil
}

// GetFlightSummary returns the summary for one flight, or nil if absent
func (r *SummaryRepository) GetFlightSummary(ctx context.Context, callsign string, logonTime time.Time) (*entities.FlightSummary, error) {
	var summary entities.FlightSummary
	err := r.db.GetContext(ctx, &summary, `
		SELECT id, callsign, logon_time, cid, aircraft_type, departure, arrival, route, cruise_tas,
		       first_position, last_position, max_altitude_ft, started_at, completed_at,
		       completion_method, completion_confidence, landed_airport, controller_interactions, created_at
		FROM flight_summaries
		WHERE callsign = $1 AND logon_time = $2
	`, callsign, logonTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListFlightSummaries returns summaries for one callsign, newest first
func (r *SummaryRepository) ListFlightSummaries(ctx context.Context, callsign string, limit, offset int) ([]entities.FlightSummary, error) {
	var out []entities.FlightSummary
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, callsign, logon_time, cid, aircraft_type, departure, arrival, route, cruise_tas,
		       first_position, last_position, max_altitude_ft, started_at, completed_at,
		       completion_method, completion_confidence, landed_airport, controller_interactions, created_at
		FROM flight_summaries
		WHERE callsign = $1
		ORDER BY logon_time DESC
		LIMIT $2 OFFSET $3
	`, callsign, limit, offset)
	return out, err
}

// ListControllerSummaries returns summaries for one callsign, newest first
func (r *SummaryRepository) ListControllerSummaries(ctx context.Context, callsign string, limit, offset int) ([]entities.ControllerSummary, error) {
	var out []entities.ControllerSummary
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, callsign, cid, facility, rating, frequency_hz,
		       online_at, offline_at, duration_s, aircraft_interactions, created_at
		FROM controller_summaries
		WHERE callsign = $1
		ORDER BY online_at DESC
		LIMIT $2 OFFSET $3
	`, callsign, limit, offset)
	return out, err
}
