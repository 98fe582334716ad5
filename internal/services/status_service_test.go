package services

import (
	"testing"
	"time"
)

func TestRecordCycleLiveness(t *testing.T) {
	s := NewStatusService(nil, nil, time.Minute)
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	s.RecordCycle(1, CycleOK, t0)
	if _, last := s.LastCycle(); !last.Equal(t0) {
		t.Fatalf("last cycle = %s, want %s", last, t0)
	}

	// An unchanged upstream document skips the cycle but proves liveness.
	s.RecordCycle(2, CycleSkipped, t0.Add(time.Minute))
	if _, last := s.LastCycle(); !last.Equal(t0.Add(time.Minute)) {
		t.Errorf("skipped cycle did not refresh liveness: last = %s", last)
	}

	s.RecordCycle(3, CycleError, t0.Add(2*time.Minute))
	if _, last := s.LastCycle(); !last.Equal(t0.Add(time.Minute)) {
		t.Errorf("error cycle refreshed liveness: last = %s", last)
	}
}

func TestIngestionStatus(t *testing.T) {
	s := NewStatusService(nil, nil, time.Minute)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	if status, healthy := s.ingestionStatus(0, time.Time{}, now); status.Status != "starting" || !healthy {
		t.Errorf("status = %s healthy=%t, want starting/true before any cycle", status.Status, healthy)
	}
	if status, healthy := s.ingestionStatus(5, now.Add(-90*time.Second), now); status.Status != "up" || !healthy {
		t.Errorf("status = %s healthy=%t, want up/true within 2x poll", status.Status, healthy)
	}
	if status, healthy := s.ingestionStatus(5, now.Add(-3*time.Minute), now); status.Status != "stalled" || healthy {
		t.Errorf("status = %s healthy=%t, want stalled/false past 2x poll", status.Status, healthy)
	}
}
