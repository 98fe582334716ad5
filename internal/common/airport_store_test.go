package common

import (
	"os"
	"path/filepath"
	"testing"
)

func loadTestAirports(t *testing.T) *AirportStore {
	t.Helper()
	data := `{
		"YSSY": {"name": "Sydney Kingsford Smith", "lat": -33.9461, "lon": 151.1772, "elevation": 21},
		"YSBK": {"name": "Bankstown", "lat": -33.9244, "lon": 150.9883, "elevation": 29},
		"YMML": {"name": "Melbourne", "lat": -37.6733, "lon": 144.8433, "elevation": 434},
		"BAD":  {"name": "Bogus", "lat": 999, "lon": 0, "elevation": 0}
	}`
	path := filepath.Join(t.TempDir(), "airports.json")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := LoadAirports(path)
	if err != nil {
		t.Fatalf("LoadAirports: %v", err)
	}
	return store
}

func TestLoadAirportsSkipsInvalid(t *testing.T) {
	store := loadTestAirports(t)
	if store.Count() != 3 {
		t.Errorf("count = %d, want 3 (out-of-range record skipped)", store.Count())
	}
	if _, ok := store.Get("BAD"); ok {
		t.Errorf("invalid airport was loaded")
	}
}

func TestAirportGet(t *testing.T) {
	store := loadTestAirports(t)

	ap, ok := store.Get("yssy")
	if !ok {
		t.Fatal("YSSY not found (lookup should be case-insensitive)")
	}
	if ap.ElevationFt != 21 {
		t.Errorf("elevation = %d", ap.ElevationFt)
	}
	if _, ok := store.Get("ZZZZ"); ok {
		t.Errorf("unexpected hit for unknown ICAO")
	}
}

func TestAirportNearest(t *testing.T) {
	store := loadTestAirports(t)

	// A point near Sydney: YSSY is closer than YSBK.
	ap, dist, found := store.Nearest(-33.95, 151.17, 15)
	if !found {
		t.Fatal("no airport found")
	}
	if ap.ICAO != "YSSY" {
		t.Errorf("nearest = %s, want YSSY", ap.ICAO)
	}
	if dist > 15 {
		t.Errorf("distance = %.1f nm, outside radius", dist)
	}

	// Mid-Tasman: nothing within 15 nm.
	if _, _, found := store.Nearest(-40, 160, 15); found {
		t.Errorf("found an airport in the open sea")
	}
}
