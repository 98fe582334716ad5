package common

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"airspace-analytics/vatwatch/internal/logging"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// DashboardPublisher pushes pre-computed summary views to Redis for external
// dashboards. The publisher is nil-safe: a nil receiver disables publishing,
// and a publish failure never propagates into the ingestion cycle.
type DashboardPublisher struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDashboardPublisher wraps a Redis client; ttl bounds view staleness
func NewDashboardPublisher(client *redis.Client, ttl time.Duration) *DashboardPublisher {
	return &DashboardPublisher{client: client, ttl: ttl}
}

// PublishFlightSummary writes the latest summary view for a flight
func (d *DashboardPublisher) PublishFlightSummary(ctx context.Context, summary *entities.FlightSummary) {
	if d == nil || d.client == nil {
		return
	}
	key := fmt.Sprintf("vatwatch:flight_summary:%s", summary.Callsign)
	d.publish(ctx, key, summary)
}

// PublishControllerSummary writes the latest summary view for a controller session
func (d *DashboardPublisher) PublishControllerSummary(ctx context.Context, summary *entities.ControllerSummary) {
	if d == nil || d.client == nil {
		return
	}
	key := fmt.Sprintf("vatwatch:controller_summary:%s", summary.Callsign)
	d.publish(ctx, key, summary)
}

// CycleStats is the rolling ingestion status document for dashboards
type CycleStats struct {
	Cycle            int64     `json:"cycle"`
	CompletedAt      time.Time `json:"completed_at"`
	PilotsSeen       int       `json:"pilots_seen"`
	ControllersSeen  int       `json:"controllers_seen"`
	FilterRejections int       `json:"filter_rejections"`
	MatchesEmitted   int       `json:"matches_emitted"`
}

// PublishStats writes the rolling cycle stats document
func (d *DashboardPublisher) PublishStats(ctx context.Context, stats CycleStats) {
	if d == nil || d.client == nil {
		return
	}
	d.publish(ctx, "vatwatch:stats", stats)
}

func (d *DashboardPublisher) publish(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		logging.Warn("Dashboard publish marshal failed", "key", key, "error", err.Error())
		return
	}
	if err := d.client.Set(ctx, key, payload, d.ttl).Err(); err != nil {
		logging.Warn("Dashboard publish failed", "key", key, "error", err.Error())
	}
}
