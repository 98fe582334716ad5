package common

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"airspace-analytics/vatwatch/internal/models/entities"
)

// ObservationBuffer holds the latest pilot and controller observations between
// flushes. Both maps are bounded: when capacity is exceeded the entry touched
// least recently is evicted. The buffer is owned exclusively by the ingestion
// coordinator; there is no cross-task access.
type ObservationBuffer struct {
	pilots      *lru.Cache[string, entities.PilotObs]
	controllers *lru.Cache[string, entities.ControllerObs]
}

// NewObservationBuffer creates a buffer with the configured capacities
func NewObservationBuffer(pilotCap, controllerCap int) (*ObservationBuffer, error) {
	pilots, err := lru.New[string, entities.PilotObs](pilotCap)
	if err != nil {
		return nil, err
	}
	controllers, err := lru.New[string, entities.ControllerObs](controllerCap)
	if err != nil {
		return nil, err
	}
	return &ObservationBuffer{pilots: pilots, controllers: controllers}, nil
}

// PutPilot stores the latest observation for a callsign
func (b *ObservationBuffer) PutPilot(obs entities.PilotObs) {
	b.pilots.Add(obs.Callsign, obs)
}

// PutController stores the latest observation for a callsign
func (b *ObservationBuffer) PutController(obs entities.ControllerObs) {
	b.controllers.Add(obs.Callsign, obs)
}

// GetPilot returns the buffered observation for a callsign, updating recency
func (b *ObservationBuffer) GetPilot(callsign string) (entities.PilotObs, bool) {
	return b.pilots.Get(callsign)
}

// SnapshotPilots copies the buffered pilot observations for a flush
func (b *ObservationBuffer) SnapshotPilots() []entities.PilotObs {
	keys := b.pilots.Keys()
	out := make([]entities.PilotObs, 0, len(keys))
	for _, k := range keys {
		if obs, ok := b.pilots.Peek(k); ok {
			out = append(out, obs)
		}
	}
	return out
}

// SnapshotControllers copies the buffered controller observations for a flush
func (b *ObservationBuffer) SnapshotControllers() []entities.ControllerObs {
	keys := b.controllers.Keys()
	out := make([]entities.ControllerObs, 0, len(keys))
	for _, k := range keys {
		if obs, ok := b.controllers.Peek(k); ok {
			out = append(out, obs)
		}
	}
	return out
}

// RemovePilot drops a callsign from the buffer, used once its flight has
// completed so the next flush cannot re-append pruned positions.
func (b *ObservationBuffer) RemovePilot(callsign string) {
	b.pilots.Remove(callsign)
}

// RemoveController drops a callsign from the buffer, used once its session
// went offline so the next flush cannot resurrect the closed session.
func (b *ObservationBuffer) RemoveController(callsign string) {
	b.controllers.Remove(callsign)
}

// PilotCount returns the number of buffered pilots
func (b *ObservationBuffer) PilotCount() int {
	return b.pilots.Len()
}

// ControllerCount returns the number of buffered controllers
func (b *ObservationBuffer) ControllerCount() int {
	return b.controllers.Len()
}
