package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"airspace-analytics/vatwatch/internal/constants"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// MatchRepository stores and serves frequency matches. The match table is the
// single source of truth for both summary interaction arrays.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository creates a match repository
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// InsertMatches bulk-writes one detection run's output. Re-detected intervals
// update in place by natural key, so replays are idempotent.
func (r *MatchRepository) InsertMatches(ctx context.Context, matches []entities.FrequencyMatch) error {
	if len(matches) == 0 {
		return nil
	}
	for start := 0; start < len(matches); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(matches) {
			end = len(matches)
		}
		if _, err := r.db.NamedExecContext(ctx, constants.InsertFrequencyMatches, matches[start:end]); err != nil {
			return fmt.Errorf("insert frequency matches: %w", err)
		}
	}
	return nil
}

// ListForPilot returns matches whose interval overlaps [from, to] for a pilot
func (r *MatchRepository) ListForPilot(ctx context.Context, callsign string, from, to time.Time) ([]entities.FrequencyMatch, error) {
	var out []entities.FrequencyMatch
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, pilot_callsign, controller_callsign, frequency_hz,
		       pilot_latitude, pilot_longitude, controller_latitude, controller_longitude,
		       distance_nm, first_seen, last_seen, duration_s, confidence, communication_type
		FROM frequency_matches
		WHERE pilot_callsign = $1 AND last_seen >= $2 AND first_seen <= $3
		ORDER BY first_seen, controller_callsign, frequency_hz
	`, callsign, from, to)
	if err != nil {
		return nil, fmt.Errorf("list matches for pilot %s: %w", callsign, err)
	}
	return out, nil
}

// ListForController returns matches overlapping [from, to] for a controller
func (r *MatchRepository) ListForController(ctx context.Context, callsign string, from, to time.Time) ([]entities.FrequencyMatch, error) {
	var out []entities.FrequencyMatch
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, pilot_callsign, controller_callsign, frequency_hz,
		       pilot_latitude, pilot_longitude, controller_latitude, controller_longitude,
		       distance_nm, first_seen, last_seen, duration_s, confidence, communication_type
		FROM frequency_matches
		WHERE controller_callsign = $1 AND last_seen >= $2 AND first_seen <= $3
		ORDER BY first_seen, pilot_callsign, frequency_hz
	`, callsign, from, to)
	if err != nil {
		return nil, fmt.Errorf("list matches for controller %s: %w", callsign, err)
	}
	return out, nil
}

// ListWindow serves the read API with limit/offset pagination
func (r *MatchRepository) ListWindow(ctx context.Context, from, to time.Time, limit, offset int) ([]entities.FrequencyMatch, error) {
	var out []entities.FrequencyMatch
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, pilot_callsign, controller_callsign, frequency_hz,
		       pilot_latitude, pilot_longitude, controller_latitude, controller_longitude,
		       distance_nm, first_seen, last_seen, duration_s, confidence, communication_type
		FROM frequency_matches
		WHERE last_seen >= $1 AND first_seen <= $2
		ORDER BY first_seen DESC, id DESC
		LIMIT $3 OFFSET $4
	`, from, to, limit, offset)
	return out, err
}
