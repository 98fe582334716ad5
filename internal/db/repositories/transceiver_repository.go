package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"airspace-analytics/vatwatch/internal/models/entities"
)

// TransceiverRepository reads the append-only transceiver history
type TransceiverRepository struct {
	db *sqlx.DB
}

// NewTransceiverRepository creates a transceiver repository
func NewTransceiverRepository(db *sqlx.DB) *TransceiverRepository {
	return &TransceiverRepository{db: db}
}

// ListWindow returns observations of one entity type inside [from, to],
// ordered by callsign then time so downstream processing is deterministic.
func (r *TransceiverRepository) ListWindow(ctx context.Context, entityType string, from, to time.Time) ([]entities.TransceiverObs, error) {
	var out []entities.TransceiverObs
	err := r.db.SelectContext(ctx, &out, `
		SELECT entity_type, callsign, transceiver_id, frequency_hz,
		       latitude, longitude, height_msl_m, height_agl_m, observation_time
		FROM transceivers
		WHERE entity_type = $1 AND observation_time >= $2 AND observation_time <= $3
		ORDER BY callsign, observation_time, transceiver_id
	`, entityType, from, to)
	if err != nil {
		return nil, fmt.Errorf("list %s transceivers: %w", entityType, err)
	}
	return out, nil
}
