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

// FlightRepository handles flight state transitions and position history
type FlightRepository struct {
	db *sqlx.DB
}

// NewFlightRepository creates a flight repository
func NewFlightRepository(db *sqlx.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// UpsertState creates or refreshes the state row for a flight. A flight
// already in a terminal state is never touched: completed is monotone.
// A landed flight stays landed while the pilot remains connected.
func (r *FlightRepository) UpsertState(ctx context.Context, state *entities.FlightState) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO flight_states (
			callsign, logon_time, status, first_seen, last_seen,
			landed_airport, landed_at, completed_at, completion_method, completion_confidence
		) VALUES (
			:callsign, :logon_time, :status, :first_seen, :last_seen,
			:landed_airport, :landed_at, :completed_at, :completion_method, :completion_confidence
		)
		ON CONFLICT (callsign, logon_time) DO UPDATE SET
			status = CASE WHEN flight_states.status = 'landed'
			              THEN flight_states.status
			              ELSE EXCLUDED.status END,
			last_seen = EXCLUDED.last_seen,
			landed_airport = COALESCE(EXCLUDED.landed_airport, flight_states.landed_airport),
			landed_at = COALESCE(EXCLUDED.landed_at, flight_states.landed_at),
			completed_at = COALESCE(EXCLUDED.completed_at, flight_states.completed_at),
			completion_method = COALESCE(EXCLUDED.completion_method, flight_states.completion_method),
			completion_confidence = GREATEST(EXCLUDED.completion_confidence, flight_states.completion_confidence)
		WHERE flight_states.status != 'completed'
	`, state)
	if err != nil {
		return fmt.Errorf("upsert flight state %s: %w", state.Callsign, err)
	}
	return nil
}

// UpdateStatus transitions a flight to a new status. Terminal states are
// monotone: a completed flight never transitions again.
func (r *FlightRepository) UpdateStatus(
	ctx context.Context,
	callsign string,
	logonTime time.Time,
	newStatus string,
	at time.Time,
	confidence float64,
	method string,
) error {
	var completedAt *time.Time
	var methodPtr *string
	if newStatus == entities.FlightCompleted {
		completedAt = &at
		methodPtr = &method
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE flight_states
		SET status = $3,
		    completed_at = COALESCE($4, completed_at),
		    completion_method = COALESCE($5, completion_method),
		    completion_confidence = GREATEST($6, completion_confidence)
		WHERE callsign = $1 AND logon_time = $2 AND status != 'completed'
	`, callsign, logonTime, newStatus, completedAt, methodPtr, confidence)
	if err != nil {
		return fmt.Errorf("update flight status %s: %w", callsign, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("flight %s (%s) not found or already completed",
			callsign, logonTime.Format(time.RFC3339))
	}
	return nil
}

// RecordLanding applies a landing event to the flight's state
func (r *FlightRepository) RecordLanding(ctx context.Context, event entities.LandingEvent) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE flight_states
		SET status = 'landed',
		    landed_airport = $3,
		    landed_at = $4,
		    completion_confidence = GREATEST($5, completion_confidence)
		WHERE callsign = $1 AND logon_time = $2 AND status IN ('active', 'stale')
	`, event.Callsign, event.LogonTime, event.AirportICAO, event.DetectedAt, event.Confidence)
	if err != nil {
		return fmt.Errorf("record landing %s: %w", event.Callsign, err)
	}
	return nil
}

// ListNonTerminalStates returns every flight that has not completed
func (r *FlightRepository) ListNonTerminalStates(ctx context.Context) ([]entities.FlightState, error) {
	var states []entities.FlightState
	err := r.db.SelectContext(ctx, &states, `
		SELECT callsign, logon_time, status, first_seen, last_seen,
		       landed_airport, landed_at, completed_at, completion_method, completion_confidence
		FROM flight_states
		WHERE status != 'completed'
	`)
	if err != nil {
		return nil, fmt.Errorf("list non-terminal states: %w", err)
	}
	return states, nil
}

// GetState returns one flight's state row
func (r *FlightRepository) GetState(ctx context.Context, callsign string, logonTime time.Time) (*entities.FlightState, error) {
	var state entities.FlightState
	err := r.db.GetContext(ctx, &state, `
		SELECT callsign, logon_time, status, first_seen, last_seen,
		       landed_airport, landed_at, completed_at, completion_method, completion_confidence
		FROM flight_states
		WHERE callsign = $1 AND logon_time = $2
	`, callsign, logonTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// ListPositions loads the position history for one flight, oldest first
func (r *FlightRepository) ListPositions(ctx context.Context, callsign string, logonTime time.Time) ([]entities.PilotObs, error) {
	var positions []entities.PilotObs
	err := r.db.SelectContext(ctx, &positions, `
		SELECT callsign, cid, logon_time, aircraft_type,
		       latitude, longitude, altitude_ft, groundspeed_kt, heading_deg,
		       transponder, departure, arrival, route, cruise_tas,
		       planned_altitude, deptime, remarks, flight_rules,
		       observation_time, observation_time AS last_seen
		FROM flights
		WHERE callsign = $1 AND logon_time = $2
		ORDER BY observation_time ASC
	`, callsign, logonTime)
	if err != nil {
		return nil, fmt.Errorf("list positions %s: %w", callsign, err)
	}
	return positions, nil
}

// DeletePositionsBefore prunes one flight's raw rows older than the cutoff
func (r *FlightRepository) DeletePositionsBefore(ctx context.Context, callsign string, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM flights WHERE callsign = $1 AND observation_time < $2`,
		callsign, cutoff)
	return err
}

// ListRecentPositions serves the read API: latest positions for a callsign
func (r *FlightRepository) ListRecentPositions(ctx context.Context, callsign string, limit int) ([]entities.PilotObs, error) {
	var positions []entities.PilotObs
	err := r.db.SelectContext(ctx, &positions, `
		SELECT callsign, cid, logon_time, aircraft_type,
		       latitude, longitude, altitude_ft, groundspeed_kt, heading_deg,
		       transponder, departure, arrival, route, cruise_tas,
		       planned_altitude, deptime, remarks, flight_rules,
		       observation_time, observation_time AS last_seen
		FROM flights
		WHERE callsign = $1
		ORDER BY observation_time DESC
		LIMIT $2
	`, callsign, limit)
	return positions, err
}
