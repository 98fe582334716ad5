package services

import (
	"context"
	"fmt"
	"time"

	"airspace-analytics/vatwatch/internal/common"
	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/logging"
	"airspace-analytics/vatwatch/internal/metrics"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// Store slices the summarizer reads and writes through.
type flightStore interface {
	GetState(ctx context.Context, callsign string, logonTime time.Time) (*entities.FlightState, error)
	ListPositions(ctx context.Context, callsign string, logonTime time.Time) ([]entities.PilotObs, error)
	DeletePositionsBefore(ctx context.Context, callsign string, cutoff time.Time) error
}

type matchStore interface {
	ListForPilot(ctx context.Context, callsign string, from, to time.Time) ([]entities.FrequencyMatch, error)
	ListForController(ctx context.Context, callsign string, from, to time.Time) ([]entities.FrequencyMatch, error)
}

type summaryStore interface {
	InsertFlightSummary(ctx context.Context, summary *entities.FlightSummary) error
	InsertControllerSummary(ctx context.Context, summary *entities.ControllerSummary) error
}

// Summarizer condenses a finished flight or controller session into its
// immutable summary record. Both summary sides derive their interaction
// arrays from the frequency match table, so the two views stay symmetric:
// every controller listed on a flight summary lists that flight back.
type Summarizer struct {
	flights   flightStore
	matches   matchStore
	summaries summaryStore
	dashboard *common.DashboardPublisher
	metrics   *metrics.MetricsRegistry
}

// NewSummarizer creates a summarizer
func NewSummarizer(
	flights flightStore,
	matches matchStore,
	summaries summaryStore,
	dashboard *common.DashboardPublisher,
	registry *metrics.MetricsRegistry,
) *Summarizer {
	return &Summarizer{
		flights:   flights,
		matches:   matches,
		summaries: summaries,
		dashboard: dashboard,
		metrics:   registry,
	}
}

// SummarizeFlight builds and stores the summary for one flight, then prunes
// the flight's raw position rows. Completion metadata comes from the caller
// because the summary is written before the terminal transition commits: on
// a summary failure the flight keeps its prior state and the caller retries
// the whole sequence next cycle. The insert replaces by natural key, so a
// retried write is harmless.
func (s *Summarizer) SummarizeFlight(
	ctx context.Context,
	callsign string,
	logonTime time.Time,
	completedAt time.Time,
	method string,
	confidence float64,
) (*entities.FlightSummary, error) {
	state, err := s.flights.GetState(ctx, callsign, logonTime)
	if err != nil {
		return nil, fmt.Errorf("load flight state %s: %w", callsign, err)
	}
	if state == nil {
		return nil, fmt.Errorf("no state for flight %s at %s", callsign, logonTime.Format(time.RFC3339))
	}

	positions, err := s.flights.ListPositions(ctx, callsign, logonTime)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		// A flight can complete with its raw rows already retention-pruned.
		logging.Warn("Skipping summary: no positions on record",
			"callsign", callsign, "logon_time", logonTime.Format(time.RFC3339))
		return nil, nil
	}

	first := positions[0]
	last := positions[len(positions)-1]

	maxAlt := first.AltitudeFt
	for _, pos := range positions {
		if pos.AltitudeFt > maxAlt {
			maxAlt = pos.AltitudeFt
		}
	}

	interactions, err := s.controllerInteractions(ctx, callsign, state.FirstSeen, completedAt)
	if err != nil {
		return nil, err
	}

	summary := &entities.FlightSummary{
		Callsign:               callsign,
		LogonTime:              logonTime,
		CID:                    last.CID,
		AircraftType:           last.AircraftType,
		Departure:              last.Departure,
		Arrival:                last.Arrival,
		Route:                  last.Route,
		CruiseTAS:              last.CruiseTAS,
		FirstPosition:          positionSample(first),
		LastPosition:           positionSample(last),
		MaxAltitudeFt:          maxAlt,
		StartedAt:              state.FirstSeen,
		CompletedAt:            completedAt,
		CompletionMethod:       method,
		CompletionConfidence:   confidence,
		LandedAirport:          state.LandedAirport,
		ControllerInteractions: interactions,
	}

	if err := s.summaries.InsertFlightSummary(ctx, summary); err != nil {
		return nil, err
	}
	s.metrics.SummariesWrittenTotal.WithLabelValues("flight").Inc()
	s.dashboard.PublishFlightSummary(ctx, summary)

	if err := s.flights.DeletePositionsBefore(ctx, callsign, completedAt); err != nil {
		logging.Warn("Failed to prune positions after summary",
			"callsign", callsign, "error", err.Error())
	}

	logging.Info("Flight summarized",
		"callsign", callsign, "method", method, "interactions", len(interactions))
	return summary, nil
}

// SummarizeController builds and stores the summary for one controller
// session that is going offline. The caller marks the session offline only
// after this returns nil.
func (s *Summarizer) SummarizeController(ctx context.Context, session repositories.ControllerSession) (*entities.ControllerSummary, error) {
	offlineAt := time.Now().UTC()
	if session.OfflineAt != nil {
		offlineAt = *session.OfflineAt
	}

	found, err := s.matches.ListForController(ctx, session.Callsign, session.OnlineAt, offlineAt)
	if err != nil {
		return nil, err
	}

	interactions := make(entities.AircraftInteractions, 0, len(found))
	for _, m := range found {
		interactions = append(interactions, entities.AircraftInteraction{
			PilotCallsign: m.PilotCallsign,
			FrequencyHz:   m.FrequencyHz,
			FirstSeen:     m.FirstSeen,
			LastSeen:      m.LastSeen,
			DurationS:     m.DurationS,
		})
	}

	summary := &entities.ControllerSummary{
		Callsign:             session.Callsign,
		CID:                  session.CID,
		Facility:             session.Facility,
		Rating:               session.Rating,
		FrequencyHz:          session.FrequencyHz,
		OnlineAt:             session.OnlineAt,
		OfflineAt:            offlineAt,
		DurationS:            int(offlineAt.Sub(session.OnlineAt).Seconds()),
		AircraftInteractions: interactions,
	}

	if err := s.summaries.InsertControllerSummary(ctx, summary); err != nil {
		return nil, err
	}
	s.metrics.SummariesWrittenTotal.WithLabelValues("controller").Inc()
	s.dashboard.PublishControllerSummary(ctx, summary)

	logging.Info("Controller session summarized",
		"callsign", session.Callsign, "duration_s", summary.DurationS,
		"interactions", len(interactions))
	return summary, nil
}

func (s *Summarizer) controllerInteractions(ctx context.Context, callsign string, from, to time.Time) (entities.ControllerInteractions, error) {
	found, err := s.matches.ListForPilot(ctx, callsign, from, to)
	if err != nil {
		return nil, err
	}

	interactions := make(entities.ControllerInteractions, 0, len(found))
	for _, m := range found {
		interactions = append(interactions, entities.ControllerInteraction{
			ControllerCallsign: m.ControllerCallsign,
			FrequencyHz:        m.FrequencyHz,
			FirstSeen:          m.FirstSeen,
			LastSeen:           m.LastSeen,
			DurationS:          m.DurationS,
			CommunicationType:  m.CommunicationType,
		})
	}
	return interactions, nil
}

func positionSample(obs entities.PilotObs) entities.PositionSample {
	return entities.PositionSample{
		Latitude:        obs.Latitude,
		Longitude:       obs.Longitude,
		AltitudeFt:      obs.AltitudeFt,
		GroundspeedKt:   obs.GroundspeedKt,
		ObservationTime: obs.ObservationTime,
	}
}
