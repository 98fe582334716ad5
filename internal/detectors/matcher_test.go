package detectors

import (
	"reflect"
	"testing"
	"time"

	"airspace-analytics/vatwatch/internal/models/entities"
)

var testParams = MatchParams{
	FreqToleranceHz: 100,
	TimeTolerance:   180 * time.Second,
	MaxDistanceNm:   100,
	CollapseGap:     60 * time.Second,
	MinDuration:     30 * time.Second,
}

func tObs(entityType, callsign string, freqHz int64, lat, lon float64, at time.Time) entities.TransceiverObs {
	return entities.TransceiverObs{
		EntityType:      entityType,
		Callsign:        callsign,
		TransceiverID:   0,
		FrequencyHz:     freqHz,
		Latitude:        lat,
		Longitude:       lon,
		ObservationTime: at,
	}
}

// series emits one observation per interval over the given span
func series(entityType, callsign string, freqHz int64, lat, lon float64, start time.Time, span, step time.Duration) []entities.TransceiverObs {
	var out []entities.TransceiverObs
	for dt := time.Duration(0); dt <= span; dt += step {
		out = append(out, tObs(entityType, callsign, freqHz, lat, lon, start.Add(dt)))
	}
	return out
}

func TestMatchBasic(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	// Pilot and tower both on 124.500 for two minutes, ~6 nm apart.
	pilots := series(entities.EntityPilot, "QFA1", 124500000, -33.90, 151.18, start, 2*time.Minute, 30*time.Second)
	atc := series(entities.EntityATC, "SY_TWR", 124500000, -33.95, 151.18, start, 2*time.Minute, 30*time.Second)

	matches := MatchTransceivers(pilots, atc, map[string]int{"SY_TWR": 4}, testParams)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.PilotCallsign != "QFA1" || m.ControllerCallsign != "SY_TWR" {
		t.Errorf("pair = %s/%s", m.PilotCallsign, m.ControllerCallsign)
	}
	if m.DurationS != 120 {
		t.Errorf("duration = %d, want 120", m.DurationS)
	}
	if m.CommunicationType != entities.CommTower {
		t.Errorf("communication type = %s, want tower", m.CommunicationType)
	}
	if m.Confidence <= 0 || m.Confidence > 1 {
		t.Errorf("confidence = %f out of range", m.Confidence)
	}
	if m.DistanceNm <= 0 || m.DistanceNm > 10 {
		t.Errorf("distance = %f nm, expected a few nm", m.DistanceNm)
	}
}

func TestMatchOrderIndependent(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	pilots := series(entities.EntityPilot, "QFA1", 124500000, -33.90, 151.18, start, 2*time.Minute, 30*time.Second)
	atc := series(entities.EntityATC, "SY_TWR", 124500000, -33.95, 151.18, start, 2*time.Minute, 30*time.Second)
	facilities := map[string]int{"SY_TWR": 4}

	forward := MatchTransceivers(pilots, atc, facilities, testParams)

	reversedP := make([]entities.TransceiverObs, len(pilots))
	reversedA := make([]entities.TransceiverObs, len(atc))
	for i := range pilots {
		reversedP[len(pilots)-1-i] = pilots[i]
	}
	for i := range atc {
		reversedA[len(atc)-1-i] = atc[i]
	}
	backward := MatchTransceivers(reversedP, reversedA, facilities, testParams)

	if !reflect.DeepEqual(forward, backward) {
		t.Errorf("results differ by input order:\nforward:  %+v\nbackward: %+v", forward, backward)
	}
}

func TestMatchObserverExcluded(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	pilots := series(entities.EntityPilot, "QFA1", 124500000, -33.90, 151.18, start, 2*time.Minute, 30*time.Second)

	t.Run("facility zero", func(t *testing.T) {
		atc := series(entities.EntityATC, "SY_OBSERVER", 124500000, -33.95, 151.18, start, 2*time.Minute, 30*time.Second)
		matches := MatchTransceivers(pilots, atc, map[string]int{"SY_OBSERVER": 0}, testParams)
		if len(matches) != 0 {
			t.Errorf("observer produced %d matches", len(matches))
		}
	})

	t.Run("OBS suffix", func(t *testing.T) {
		atc := series(entities.EntityATC, "SY_OBS", 124500000, -33.95, 151.18, start, 2*time.Minute, 30*time.Second)
		matches := MatchTransceivers(pilots, atc, map[string]int{}, testParams)
		if len(matches) != 0 {
			t.Errorf("observer produced %d matches", len(matches))
		}
	})

	t.Run("callsign missing from facility map is kept", func(t *testing.T) {
		// A controller row can lag the first transceiver observation; absence
		// from the map must not drop the match.
		atc := series(entities.EntityATC, "SY_TWR", 124500000, -33.95, 151.18, start, 2*time.Minute, 30*time.Second)
		matches := MatchTransceivers(pilots, atc, map[string]int{}, testParams)
		if len(matches) != 1 {
			t.Errorf("expected 1 match for unmapped controller, got %d", len(matches))
		}
	})
}

func TestMatchCollapseGap(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	// Two co-occurrence runs separated by a 5 minute silence. Each run lasts
	// 90s, so both survive the minimum duration filter as separate intervals.
	var pilots, atc []entities.TransceiverObs
	for _, offset := range []time.Duration{0, 7 * time.Minute} {
		pilots = append(pilots, series(entities.EntityPilot, "QFA1", 124500000, -33.90, 151.18, start.Add(offset), 90*time.Second, 30*time.Second)...)
		atc = append(atc, series(entities.EntityATC, "SY_TWR", 124500000, -33.95, 151.18, start.Add(offset), 90*time.Second, 30*time.Second)...)
	}

	matches := MatchTransceivers(pilots, atc, map[string]int{"SY_TWR": 4}, testParams)
	if len(matches) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(matches))
	}
	if !matches[0].FirstSeen.Before(matches[1].FirstSeen) {
		t.Errorf("intervals out of order")
	}
	for _, m := range matches {
		if m.DurationS != 90 {
			t.Errorf("duration = %d, want 90", m.DurationS)
		}
	}
}

func TestMatchMinDuration(t *testing.T) {
	at := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	// A single instantaneous co-occurrence has zero duration and is dropped.
	pilots := []entities.TransceiverObs{tObs(entities.EntityPilot, "QFA1", 124500000, -33.90, 151.18, at)}
	atc := []entities.TransceiverObs{tObs(entities.EntityATC, "SY_TWR", 124500000, -33.95, 151.18, at)}

	matches := MatchTransceivers(pilots, atc, map[string]int{"SY_TWR": 4}, testParams)
	if len(matches) != 0 {
		t.Errorf("expected 0 matches, got %d", len(matches))
	}
}

func TestMatchFrequencyTolerance(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	pilots := series(entities.EntityPilot, "QFA1", 124500000, -33.90, 151.18, start, 2*time.Minute, 30*time.Second)

	t.Run("within tolerance", func(t *testing.T) {
		atc := series(entities.EntityATC, "SY_TWR", 124500080, -33.95, 151.18, start, 2*time.Minute, 30*time.Second)
		matches := MatchTransceivers(pilots, atc, map[string]int{"SY_TWR": 4}, testParams)
		if len(matches) != 1 {
			t.Errorf("80 Hz apart: expected 1 match, got %d", len(matches))
		}
	})

	t.Run("outside tolerance", func(t *testing.T) {
		atc := series(entities.EntityATC, "SY_TWR", 124501000, -33.95, 151.18, start, 2*time.Minute, 30*time.Second)
		matches := MatchTransceivers(pilots, atc, map[string]int{"SY_TWR": 4}, testParams)
		if len(matches) != 0 {
			t.Errorf("1 kHz apart: expected 0 matches, got %d", len(matches))
		}
	})
}

func TestMatchDistanceLimit(t *testing.T) {
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	pilots := series(entities.EntityPilot, "QFA1", 124500000, -33.90, 151.18, start, 2*time.Minute, 30*time.Second)
	// ~300 nm away
	atc := series(entities.EntityATC, "ML_TWR", 124500000, -37.67, 144.84, start, 2*time.Minute, 30*time.Second)

	matches := MatchTransceivers(pilots, atc, map[string]int{"ML_TWR": 4}, testParams)
	if len(matches) != 0 {
		t.Errorf("expected 0 matches past the distance limit, got %d", len(matches))
	}
}

func TestMatchEmptyInput(t *testing.T) {
	if m := MatchTransceivers(nil, nil, nil, testParams); m != nil {
		t.Errorf("expected nil, got %+v", m)
	}
}

func TestClassifyFrequency(t *testing.T) {
	cases := []struct {
		freqHz int64
		want   string
	}{
		{119100000, entities.CommApproach},
		{121800000, entities.CommDeparture},
		{124500000, entities.CommTower},
		{125300000, entities.CommGround},
		{132600000, entities.CommEnroute},
		{25000000, entities.CommHFEnroute},
		{99999999, entities.CommUnknown},
	}

	for _, tc := range cases {
		if got := ClassifyFrequency(tc.freqHz); got != tc.want {
			t.Errorf("ClassifyFrequency(%d) = %s, want %s", tc.freqHz, got, tc.want)
		}
	}
}
