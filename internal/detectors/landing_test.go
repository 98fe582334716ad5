package detectors

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"airspace-analytics/vatwatch/internal/common"
	"airspace-analytics/vatwatch/internal/models/entities"
)

func testAirportStore(t *testing.T) *common.AirportStore {
	t.Helper()

	data := `{
		"YSSY": {"name": "Sydney Kingsford Smith", "lat": -33.9461, "lon": 151.1772, "elevation": 21},
		"YMML": {"name": "Melbourne", "lat": -37.6733, "lon": 144.8433, "elevation": 434}
	}`
	path := filepath.Join(t.TempDir(), "airports.json")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := common.LoadAirports(path)
	if err != nil {
		t.Fatalf("LoadAirports: %v", err)
	}
	return store
}

func pilotAt(callsign string, lat, lon float64, altFt, gsKt int) entities.PilotObs {
	return entities.PilotObs{
		Callsign:      callsign,
		LogonTime:     time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		Latitude:      lat,
		Longitude:     lon,
		AltitudeFt:    altFt,
		GroundspeedKt: gsKt,
	}
}

func TestLandingDetected(t *testing.T) {
	d := NewLandingDetector(testAirportStore(t), 15, 1000, 20)
	now := time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC)

	// On the ground at Sydney, taxi speed.
	events := d.Run([]entities.PilotObs{
		pilotAt("QFA1", -33.95, 151.18, 30, 12),
	}, now)

	if len(events) != 1 {
		t.Fatalf("expected 1 landing event, got %d", len(events))
	}
	ev := events[0]
	if ev.AirportICAO != "YSSY" {
		t.Errorf("airport = %s, want YSSY", ev.AirportICAO)
	}
	if ev.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", ev.Confidence)
	}
	if ev.Callsign != "QFA1" {
		t.Errorf("callsign = %s, want QFA1", ev.Callsign)
	}
}

func TestLandingThresholds(t *testing.T) {
	cases := []struct {
		name  string
		pilot entities.PilotObs
	}{
		{"too fast", pilotAt("QFA2", -33.95, 151.18, 30, 150)},
		{"too high", pilotAt("QFA3", -33.95, 151.18, 2500, 10)},
		{"too far from any airport", pilotAt("QFA4", -30.0, 140.0, 30, 10)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewLandingDetector(testAirportStore(t), 15, 1000, 20)
			events := d.Run([]entities.PilotObs{tc.pilot}, time.Now().UTC())
			if len(events) != 0 {
				t.Errorf("expected no events, got %d", len(events))
			}
		})
	}
}

func TestLandingElevationRelative(t *testing.T) {
	// 1200 ft MSL at Melbourne (elevation 434 ft) is under the 1000 ft AGL
	// threshold even though the raw altitude exceeds it.
	d := NewLandingDetector(testAirportStore(t), 15, 1000, 20)
	events := d.Run([]entities.PilotObs{
		pilotAt("JST500", -37.67, 144.84, 1200, 15),
	}, time.Now().UTC())

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].AirportICAO != "YMML" {
		t.Errorf("airport = %s, want YMML", events[0].AirportICAO)
	}
}

func TestLandingDeduplicated(t *testing.T) {
	d := NewLandingDetector(testAirportStore(t), 15, 1000, 20)
	pilots := []entities.PilotObs{pilotAt("QFA1", -33.95, 151.18, 30, 12)}
	now := time.Now().UTC()

	first := d.Run(pilots, now)
	second := d.Run(pilots, now.Add(time.Minute))

	if len(first) != 1 {
		t.Fatalf("first run: expected 1 event, got %d", len(first))
	}
	if len(second) != 0 {
		t.Errorf("second run within dedup window: expected 0 events, got %d", len(second))
	}
}
