package jobs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"airspace-analytics/vatwatch/internal/constants"
	"airspace-analytics/vatwatch/internal/geo"
	"airspace-analytics/vatwatch/internal/metrics"
	"airspace-analytics/vatwatch/internal/models/entities"
	"airspace-analytics/vatwatch/internal/providers"
)

// One registry per test binary: Prometheus rejects duplicate registration.
var testRegistry = metrics.NewMetricsRegistry()

func unavailable() error {
	return &providers.ProviderError{
		Code:    constants.ErrCodeFeedUnavailable,
		Message: "connection refused",
	}
}

func TestNextIntervalBackoff(t *testing.T) {
	base := 60 * time.Second

	interval := base
	expected := []time.Duration{
		120 * time.Second,
		240 * time.Second,
		300 * time.Second, // capped
		300 * time.Second,
	}
	for i, want := range expected {
		interval = nextInterval(interval, base, unavailable())
		if interval != want {
			t.Fatalf("step %d: interval = %s, want %s", i, interval, want)
		}
	}

	// First success snaps straight back to the base cadence.
	if got := nextInterval(interval, base, nil); got != base {
		t.Errorf("after success: interval = %s, want %s", got, base)
	}
}

func TestNextIntervalCorruptKeepsCadence(t *testing.T) {
	base := 60 * time.Second
	corrupt := &providers.ProviderError{
		Code:    constants.ErrCodeFeedCorrupt,
		Message: "bad document",
	}

	if got := nextInterval(base, base, corrupt); got != base {
		t.Errorf("corrupt feed: interval = %s, want %s", got, base)
	}
	if got := nextInterval(base, base, errors.New("detector failed")); got != base {
		t.Errorf("generic error: interval = %s, want %s", got, base)
	}
}

func TestFilterPilotsCountsRejections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boundary.geojson")
	boundary := `{"type": "Polygon", "coordinates": [[[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]]]}`
	if err := os.WriteFile(path, []byte(boundary), 0o644); err != nil {
		t.Fatal(err)
	}
	poly, err := geo.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	j := &IngestJob{boundary: poly, metrics: testRegistry}

	pilots := []entities.PilotObs{
		{Callsign: "QFA1", Latitude: 5, Longitude: 5},
		{Callsign: "BAW9", Latitude: 51, Longitude: 0},
		{Callsign: "UAL8", Latitude: 40, Longitude: -74},
	}

	kept, rejected := j.filterPilots(pilots)
	if len(kept) != 1 || kept[0].Callsign != "QFA1" {
		t.Fatalf("kept = %v, want only QFA1", kept)
	}
	if rejected != 2 {
		t.Errorf("rejected = %d, want 2", rejected)
	}

	// The per-cycle count feeds the published stats document; without a
	// boundary nothing is rejected.
	j.boundary = nil
	kept, rejected = j.filterPilots(pilots)
	if len(kept) != 3 || rejected != 0 {
		t.Errorf("unfiltered: kept %d rejected %d, want 3/0", len(kept), rejected)
	}
}
