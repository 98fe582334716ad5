package services

import (
	"context"
	"testing"
	"time"

	"airspace-analytics/vatwatch/internal/common"
	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/metrics"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// One registry per test binary: Prometheus rejects duplicate registration.
var testRegistry = metrics.NewMetricsRegistry()

type stubFlights struct {
	state     *entities.FlightState
	positions []entities.PilotObs
	pruned    []time.Time
}

func (s *stubFlights) GetState(context.Context, string, time.Time) (*entities.FlightState, error) {
	return s.state, nil
}

func (s *stubFlights) ListPositions(context.Context, string, time.Time) ([]entities.PilotObs, error) {
	return s.positions, nil
}

func (s *stubFlights) DeletePositionsBefore(_ context.Context, _ string, cutoff time.Time) error {
	s.pruned = append(s.pruned, cutoff)
	return nil
}

// stubMatches mimics the repository's overlap filtering over one match set,
// so both summary sides read from the same source of truth.
type stubMatches struct {
	matches []entities.FrequencyMatch
}

func overlaps(m entities.FrequencyMatch, from, to time.Time) bool {
	return !m.LastSeen.Before(from) && !m.FirstSeen.After(to)
}

func (s *stubMatches) ListForPilot(_ context.Context, callsign string, from, to time.Time) ([]entities.FrequencyMatch, error) {
	var out []entities.FrequencyMatch
	for _, m := range s.matches {
		if m.PilotCallsign == callsign && overlaps(m, from, to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubMatches) ListForController(_ context.Context, callsign string, from, to time.Time) ([]entities.FrequencyMatch, error) {
	var out []entities.FrequencyMatch
	for _, m := range s.matches {
		if m.ControllerCallsign == callsign && overlaps(m, from, to) {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubSummaries struct {
	flights     []*entities.FlightSummary
	controllers []*entities.ControllerSummary
}

func (s *stubSummaries) InsertFlightSummary(_ context.Context, summary *entities.FlightSummary) error {
	s.flights = append(s.flights, summary)
	return nil
}

func (s *stubSummaries) InsertControllerSummary(_ context.Context, summary *entities.ControllerSummary) error {
	s.controllers = append(s.controllers, summary)
	return nil
}

func testSummarizer(flights *stubFlights, matches *stubMatches, summaries *stubSummaries) *Summarizer {
	return NewSummarizer(flights, matches, summaries, common.NewDashboardPublisher(nil, 0), testRegistry)
}

func TestSummarizeFlightUsesCallerMetadata(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	completedAt := t0.Add(45 * time.Minute)

	flights := &stubFlights{
		state: &entities.FlightState{
			Callsign: "QFA1", LogonTime: t0, Status: entities.FlightLanded,
			FirstSeen: t0, LastSeen: completedAt,
		},
		positions: []entities.PilotObs{
			{Callsign: "QFA1", CID: 1300001, AircraftType: "B738", Departure: "YSSY", Arrival: "YMML",
				AltitudeFt: 1500, ObservationTime: t0},
			{Callsign: "QFA1", CID: 1300001, AircraftType: "B738", Departure: "YSSY", Arrival: "YMML",
				AltitudeFt: 36000, ObservationTime: t0.Add(20 * time.Minute)},
			{Callsign: "QFA1", CID: 1300001, AircraftType: "B738", Departure: "YSSY", Arrival: "YMML",
				AltitudeFt: 800, ObservationTime: completedAt},
		},
	}
	summaries := &stubSummaries{}
	s := testSummarizer(flights, &stubMatches{}, summaries)

	summary, err := s.SummarizeFlight(context.Background(), "QFA1", t0,
		completedAt, entities.CompletionLanding, 0.9)
	if err != nil {
		t.Fatalf("SummarizeFlight: %v", err)
	}
	if summary.CompletionMethod != entities.CompletionLanding || summary.CompletionConfidence != 0.9 {
		t.Errorf("completion = %s/%f, want landing/0.9",
			summary.CompletionMethod, summary.CompletionConfidence)
	}
	if !summary.CompletedAt.Equal(completedAt) {
		t.Errorf("completed_at = %s, want %s", summary.CompletedAt, completedAt)
	}
	if summary.MaxAltitudeFt != 36000 {
		t.Errorf("max altitude = %d, want 36000", summary.MaxAltitudeFt)
	}
	if len(summaries.flights) != 1 {
		t.Fatalf("stored %d flight summaries, want 1", len(summaries.flights))
	}
	if len(flights.pruned) != 1 || !flights.pruned[0].Equal(completedAt) {
		t.Errorf("prune cutoffs = %v, want one at %s", flights.pruned, completedAt)
	}
}

func TestSummarizeFlightNoPositions(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	flights := &stubFlights{
		state: &entities.FlightState{Callsign: "QFA1", LogonTime: t0, FirstSeen: t0},
	}
	summaries := &stubSummaries{}
	s := testSummarizer(flights, &stubMatches{}, summaries)

	summary, err := s.SummarizeFlight(context.Background(), "QFA1", t0,
		t0.Add(time.Hour), entities.CompletionTimeout, 0)
	if err != nil {
		t.Fatalf("SummarizeFlight: %v", err)
	}
	if summary != nil {
		t.Errorf("summary = %v, want nil with no positions on record", summary)
	}
	if len(summaries.flights) != 0 {
		t.Errorf("stored %d summaries, want none", len(summaries.flights))
	}
}

func TestSummarySymmetry(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	completedAt := t0.Add(30 * time.Minute)

	matches := &stubMatches{matches: []entities.FrequencyMatch{
		{
			PilotCallsign: "QFA1", ControllerCallsign: "SY_TWR", FrequencyHz: 124500000,
			FirstSeen: t0.Add(5 * time.Minute), LastSeen: t0.Add(10 * time.Minute),
			DurationS: 300, CommunicationType: entities.CommTower,
		},
		{
			PilotCallsign: "VOZ2", ControllerCallsign: "SY_TWR", FrequencyHz: 124500000,
			FirstSeen: t0.Add(12 * time.Minute), LastSeen: t0.Add(14 * time.Minute),
			DurationS: 120, CommunicationType: entities.CommTower,
		},
		{
			PilotCallsign: "QFA1", ControllerCallsign: "ML_CTR", FrequencyHz: 127200000,
			FirstSeen: t0.Add(15 * time.Minute), LastSeen: t0.Add(25 * time.Minute),
			DurationS: 600, CommunicationType: entities.CommEnroute,
		},
	}}

	flights := &stubFlights{
		state: &entities.FlightState{
			Callsign: "QFA1", LogonTime: t0, Status: entities.FlightLanded,
			FirstSeen: t0, LastSeen: completedAt,
		},
		positions: []entities.PilotObs{
			{Callsign: "QFA1", AltitudeFt: 2000, ObservationTime: t0},
			{Callsign: "QFA1", AltitudeFt: 500, ObservationTime: completedAt},
		},
	}
	summaries := &stubSummaries{}
	s := testSummarizer(flights, matches, summaries)

	flightSummary, err := s.SummarizeFlight(context.Background(), "QFA1", t0,
		completedAt, entities.CompletionLanding, 1.0)
	if err != nil {
		t.Fatalf("SummarizeFlight: %v", err)
	}
	if len(flightSummary.ControllerInteractions) != 2 {
		t.Fatalf("flight interactions = %v, want SY_TWR and ML_CTR", flightSummary.ControllerInteractions)
	}

	offlineAt := t0.Add(time.Hour)
	ctrlSummary, err := s.SummarizeController(context.Background(), repositories.ControllerSession{
		Callsign: "SY_TWR", CID: 900001, Facility: 4, FrequencyHz: 124500000,
		OnlineAt: t0, OfflineAt: &offlineAt,
	})
	if err != nil {
		t.Fatalf("SummarizeController: %v", err)
	}
	if len(ctrlSummary.AircraftInteractions) != 2 {
		t.Fatalf("controller interactions = %v, want QFA1 and VOZ2", ctrlSummary.AircraftInteractions)
	}

	// The QFA1-SY_TWR contact must appear identically on both sides.
	var pilotSide *entities.ControllerInteraction
	for i := range flightSummary.ControllerInteractions {
		if flightSummary.ControllerInteractions[i].ControllerCallsign == "SY_TWR" {
			pilotSide = &flightSummary.ControllerInteractions[i]
		}
	}
	var ctrlSide *entities.AircraftInteraction
	for i := range ctrlSummary.AircraftInteractions {
		if ctrlSummary.AircraftInteractions[i].PilotCallsign == "QFA1" {
			ctrlSide = &ctrlSummary.AircraftInteractions[i]
		}
	}
	if pilotSide == nil || ctrlSide == nil {
		t.Fatalf("missing shared interaction: pilot side %v, controller side %v", pilotSide, ctrlSide)
	}
	if pilotSide.FrequencyHz != ctrlSide.FrequencyHz ||
		!pilotSide.FirstSeen.Equal(ctrlSide.FirstSeen) ||
		!pilotSide.LastSeen.Equal(ctrlSide.LastSeen) ||
		pilotSide.DurationS != ctrlSide.DurationS {
		t.Errorf("asymmetric interaction: pilot side %+v, controller side %+v", pilotSide, ctrlSide)
	}
}
