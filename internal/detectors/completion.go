package detectors

import (
	"context"
	"fmt"
	"time"

	"airspace-analytics/vatwatch/internal/logging"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// FlightStateStore is the slice of the flight repository the completion
// detector drives.
type FlightStateStore interface {
	UpsertState(ctx context.Context, state *entities.FlightState) error
	RecordLanding(ctx context.Context, event entities.LandingEvent) error
	ListNonTerminalStates(ctx context.Context) ([]entities.FlightState, error)
	UpdateStatus(ctx context.Context, callsign string, logonTime time.Time,
		newStatus string, at time.Time, confidence float64, method string) error
}

// CompletedFlight identifies a flight ready for its terminal transition
type CompletedFlight struct {
	Callsign    string
	LogonTime   time.Time
	Method      string
	Confidence  float64
	CompletedAt time.Time
}

// FlightCompletion drives the flight state machine:
//
//	active ──landing──▶ landed ──absent──▶ completed (landing)
//	active ──absent───▶ stale  ──timeout─▶ completed (timeout)
//
// A landing always takes precedence over a timeout for the same flight.
// Run never commits a terminal transition itself: a candidate stays in its
// prior state until Commit, so when the summary write fails the flight is
// re-detected and retried on the next cycle.
type FlightCompletion struct {
	flights       FlightStateStore
	staleAfter    time.Duration
	completeAfter time.Duration
}

// NewFlightCompletion creates the completion detector
func NewFlightCompletion(flights FlightStateStore, staleAfter, completeAfter time.Duration) *FlightCompletion {
	return &FlightCompletion{
		flights:       flights,
		staleAfter:    staleAfter,
		completeAfter: completeAfter,
	}
}

// Run advances every non-terminal flight one step. present holds the pilots
// seen in the latest snapshot keyed by callsign; landings is the landing
// detector's output for this cycle. Returns the flights ready to complete;
// the caller summarizes each one and then calls Commit.
func (c *FlightCompletion) Run(
	ctx context.Context,
	present map[string]entities.PilotObs,
	landings []entities.LandingEvent,
	now time.Time,
) ([]CompletedFlight, error) {
	// Refresh presence first so a pilot observed this cycle can never age out.
	for _, pilot := range present {
		state := &entities.FlightState{
			Callsign:  pilot.Callsign,
			LogonTime: pilot.LogonTime,
			Status:    entities.FlightActive,
			FirstSeen: pilot.ObservationTime,
			LastSeen:  pilot.ObservationTime,
		}
		if err := c.flights.UpsertState(ctx, state); err != nil {
			return nil, fmt.Errorf("refresh flight state: %w", err)
		}
	}

	// Landings apply before absence checks: landing wins over timeout.
	for _, event := range landings {
		if err := c.flights.RecordLanding(ctx, event); err != nil {
			logging.Error("Failed to record landing",
				"callsign", event.Callsign, "airport", event.AirportICAO, "error", err)
		}
	}

	states, err := c.flights.ListNonTerminalStates(ctx)
	if err != nil {
		return nil, err
	}

	var completed []CompletedFlight
	for _, state := range states {
		if _, online := present[state.Callsign]; online {
			continue
		}

		absentFor := now.Sub(state.LastSeen)

		switch state.Status {
		case entities.FlightLanded:
			if absentFor < c.staleAfter {
				continue
			}
			confidence := state.CompletionConfidence
			if confidence == 0 {
				confidence = 1.0
			}
			completed = append(completed, CompletedFlight{
				Callsign:    state.Callsign,
				LogonTime:   state.LogonTime,
				Method:      entities.CompletionLanding,
				Confidence:  confidence,
				CompletedAt: now,
			})

		case entities.FlightActive:
			if absentFor < c.staleAfter {
				continue
			}
			if err := c.flights.UpdateStatus(ctx, state.Callsign, state.LogonTime,
				entities.FlightStale, now, state.CompletionConfidence, ""); err != nil {
				logging.Error("Failed to mark flight stale",
					"callsign", state.Callsign, "error", err)
			}

		case entities.FlightStale:
			if absentFor < c.completeAfter {
				continue
			}
			completed = append(completed, CompletedFlight{
				Callsign:    state.Callsign,
				LogonTime:   state.LogonTime,
				Method:      entities.CompletionTimeout,
				CompletedAt: now,
			})
		}
	}

	return completed, nil
}

// Commit applies the terminal transition for one candidate. Called only after
// the flight's summary is safely stored.
func (c *FlightCompletion) Commit(ctx context.Context, flight CompletedFlight) error {
	return c.flights.UpdateStatus(ctx, flight.Callsign, flight.LogonTime,
		entities.FlightCompleted, flight.CompletedAt, flight.Confidence, flight.Method)
}
