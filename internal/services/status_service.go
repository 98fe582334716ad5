package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"airspace-analytics/vatwatch/internal/models/entities"
)

// Cycle outcomes reported by the ingestion loop
const (
	CycleOK      = "ok"
	CycleSkipped = "skipped"
	CycleError   = "error"
)

// StatusService tracks ingestion liveness for the health endpoint. The
// service is degraded when the last successful cycle is older than twice
// the poll interval.
type StatusService struct {
	db           *sqlx.DB
	redisClient  *redis.Client
	pollInterval time.Duration
	startedAt    time.Time

	mu          sync.RWMutex
	cycle       int64
	lastCycleAt time.Time
	lastOutcome string
}

// NewStatusService creates a status service. redisClient may be nil when
// dashboard publishing is disabled.
func NewStatusService(db *sqlx.DB, redisClient *redis.Client, pollInterval time.Duration) *StatusService {
	return &StatusService{
		db:           db,
		redisClient:  redisClient,
		pollInterval: pollInterval,
		startedAt:    time.Now().UTC(),
	}
}

// RecordCycle notes the completion of one ingestion cycle. A skipped cycle
// still proves the loop is alive: the upstream document just has not
// refreshed, so it counts toward liveness like a successful one.
func (s *StatusService) RecordCycle(cycle int64, outcome string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycle = cycle
	s.lastOutcome = outcome
	if outcome == CycleOK || outcome == CycleSkipped {
		s.lastCycleAt = at
	}
}

// LastCycle returns the cycle counter and the last live cycle time
func (s *StatusService) LastCycle() (int64, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycle, s.lastCycleAt
}

// Health assembles the health response from dependency pings and cycle age
func (s *StatusService) Health(ctx context.Context) entities.HealthCheckResponse {
	services := make(map[string]entities.ServiceStatus)
	healthy := true

	if err := s.db.PingContext(ctx); err != nil {
		services["postgres"] = entities.ServiceStatus{Status: "down", Details: err.Error()}
		healthy = false
	} else {
		services["postgres"] = entities.ServiceStatus{Status: "up", Details: "connected"}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			services["redis"] = entities.ServiceStatus{Status: "down", Details: err.Error()}
		} else {
			services["redis"] = entities.ServiceStatus{Status: "up", Details: "connected"}
		}
	}

	cycle, lastAt := s.LastCycle()
	ingestion, ingestionHealthy := s.ingestionStatus(cycle, lastAt, time.Now())
	services["ingestion"] = ingestion
	if !ingestionHealthy {
		healthy = false
	}

	status := "operational"
	if !healthy {
		status = "degraded"
	}

	return entities.HealthCheckResponse{
		Status:   status,
		Uptime:   time.Since(s.startedAt).Round(time.Second).String(),
		Services: services,
	}
}

// ingestionStatus classifies loop liveness from the last live cycle age
func (s *StatusService) ingestionStatus(cycle int64, lastAt, now time.Time) (entities.ServiceStatus, bool) {
	switch {
	case lastAt.IsZero():
		return entities.ServiceStatus{
			Status:  "starting",
			Details: "no cycle completed yet",
		}, true
	case now.Sub(lastAt) > 2*s.pollInterval:
		return entities.ServiceStatus{
			Status:  "stalled",
			Details: fmt.Sprintf("cycle %d completed %s ago", cycle, now.Sub(lastAt).Round(time.Second)),
		}, false
	default:
		return entities.ServiceStatus{
			Status:  "up",
			Details: fmt.Sprintf("cycle %d", cycle),
		}, true
	}
}
