package common

import (
	"fmt"
	"testing"
	"time"

	"airspace-analytics/vatwatch/internal/models/entities"
)

func bufPilot(callsign string, altFt int) entities.PilotObs {
	return entities.PilotObs{
		Callsign:        callsign,
		LogonTime:       time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC),
		AltitudeFt:      altFt,
		ObservationTime: time.Now().UTC(),
	}
}

func TestBufferLatestWins(t *testing.T) {
	buf, err := NewObservationBuffer(10, 10)
	if err != nil {
		t.Fatal(err)
	}

	buf.PutPilot(bufPilot("QFA1", 10000))
	buf.PutPilot(bufPilot("QFA1", 12000))

	if buf.PilotCount() != 1 {
		t.Fatalf("count = %d, want 1", buf.PilotCount())
	}
	got, ok := buf.GetPilot("QFA1")
	if !ok || got.AltitudeFt != 12000 {
		t.Errorf("got %+v, want latest observation", got)
	}
}

func TestBufferEvictsLeastRecent(t *testing.T) {
	buf, err := NewObservationBuffer(3, 3)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		buf.PutPilot(bufPilot(fmt.Sprintf("QFA%d", i), 10000))
	}
	// Touch QFA0 so QFA1 becomes the eviction candidate.
	buf.GetPilot("QFA0")
	buf.PutPilot(bufPilot("QFA3", 10000))

	if buf.PilotCount() != 3 {
		t.Fatalf("count = %d, want 3", buf.PilotCount())
	}
	if _, ok := buf.GetPilot("QFA1"); ok {
		t.Errorf("QFA1 should have been evicted")
	}
	for _, cs := range []string{"QFA0", "QFA2", "QFA3"} {
		if _, ok := buf.GetPilot(cs); !ok {
			t.Errorf("%s missing", cs)
		}
	}
}

func TestBufferSnapshot(t *testing.T) {
	buf, err := NewObservationBuffer(10, 10)
	if err != nil {
		t.Fatal(err)
	}

	buf.PutPilot(bufPilot("QFA1", 10000))
	buf.PutPilot(bufPilot("QFA2", 20000))
	buf.PutController(entities.ControllerObs{Callsign: "SY_TWR", FrequencyHz: 124500000})

	pilots := buf.SnapshotPilots()
	if len(pilots) != 2 {
		t.Errorf("pilot snapshot = %d, want 2", len(pilots))
	}
	controllers := buf.SnapshotControllers()
	if len(controllers) != 1 || controllers[0].Callsign != "SY_TWR" {
		t.Errorf("controller snapshot = %+v", controllers)
	}

	// Snapshots are copies; the buffer keeps its contents.
	if buf.PilotCount() != 2 || buf.ControllerCount() != 1 {
		t.Errorf("snapshot drained the buffer")
	}
}

func TestBufferRemove(t *testing.T) {
	buf, err := NewObservationBuffer(10, 10)
	if err != nil {
		t.Fatal(err)
	}

	buf.PutPilot(bufPilot("QFA1", 10000))
	buf.PutController(entities.ControllerObs{Callsign: "SY_TWR", FrequencyHz: 124500000})

	buf.RemovePilot("QFA1")
	buf.RemoveController("SY_TWR")

	if buf.PilotCount() != 0 || buf.ControllerCount() != 0 {
		t.Errorf("counts = %d/%d, want 0/0 after removal",
			buf.PilotCount(), buf.ControllerCount())
	}
	if len(buf.SnapshotPilots()) != 0 || len(buf.SnapshotControllers()) != 0 {
		t.Errorf("removed entries still flushable")
	}
}
