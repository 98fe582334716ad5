package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"airspace-analytics/vatwatch/internal/constants"
	"airspace-analytics/vatwatch/internal/logging"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// Keeps each statement under the Postgres parameter limit
const batchChunkSize = 500

// IngestRepository owns the transactional flush path. Each flush is a single
// transaction: on any failure the whole batch rolls back and the caller's
// buffer keeps its state for the next cycle.
type IngestRepository struct {
	db *sqlx.DB
}

// NewIngestRepository creates the flush repository
func NewIngestRepository(db *sqlx.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

// FlushCounts reports how many records each table received
type FlushCounts struct {
	Pilots       int
	Controllers  int
	Positions    int
	Transceivers int
	Dropped      int
}

// FlushBatch validates and writes one cycle's worth of observations in a
// single transaction. Per-record validation happens before submission so a
// bad record is dropped, never poisoning the batch.
func (r *IngestRepository) FlushBatch(
	ctx context.Context,
	pilots []entities.PilotObs,
	controllers []entities.ControllerObs,
	positions []entities.PilotObs,
	transceivers []entities.TransceiverObs,
) (FlushCounts, error) {
	var counts FlushCounts

	validPilots := pilots[:0:0]
	for _, p := range pilots {
		if err := p.Validate(); err != nil {
			logging.Warn("Dropping invalid pilot record", "error", err.Error())
			counts.Dropped++
			continue
		}
		validPilots = append(validPilots, p)
	}

	validControllers := controllers[:0:0]
	for _, c := range controllers {
		if err := c.Validate(); err != nil {
			logging.Warn("Dropping invalid controller record", "error", err.Error())
			counts.Dropped++
			continue
		}
		validControllers = append(validControllers, c)
	}

	validPositions := positions[:0:0]
	for _, p := range positions {
		if err := p.Validate(); err != nil {
			counts.Dropped++
			continue
		}
		validPositions = append(validPositions, p)
	}

	validTransceivers := transceivers[:0:0]
	for _, t := range transceivers {
		if err := t.Validate(); err != nil {
			logging.Warn("Dropping invalid transceiver record", "error", err.Error())
			counts.Dropped++
			continue
		}
		validTransceivers = append(validTransceivers, t)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return counts, fmt.Errorf("begin flush tx: %w", err)
	}
	defer tx.Rollback()

	if err := execChunked(ctx, tx, constants.UpsertPilots, validPilots); err != nil {
		return counts, fmt.Errorf("upsert pilots: %w", err)
	}
	if err := execChunked(ctx, tx, constants.UpsertControllers, validControllers); err != nil {
		return counts, fmt.Errorf("upsert controllers: %w", err)
	}
	if err := execChunked(ctx, tx, constants.InsertPositions, validPositions); err != nil {
		return counts, fmt.Errorf("insert positions: %w", err)
	}
	if err := execChunked(ctx, tx, constants.InsertTransceivers, validTransceivers); err != nil {
		return counts, fmt.Errorf("insert transceivers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return counts, fmt.Errorf("commit flush tx: %w", err)
	}

	counts.Pilots = len(validPilots)
	counts.Controllers = len(validControllers)
	counts.Positions = len(validPositions)
	counts.Transceivers = len(validTransceivers)
	return counts, nil
}

// CleanupOld deletes position and transceiver history older than the window
func (r *IngestRepository) CleanupOld(ctx context.Context, retentionHours int) (int64, error) {
	var total int64

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM flights WHERE observation_time < NOW() - make_interval(hours => $1)`,
		retentionHours)
	if err != nil {
		return 0, fmt.Errorf("cleanup flights: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = r.db.ExecContext(ctx,
		`DELETE FROM transceivers WHERE observation_time < NOW() - make_interval(hours => $1)`,
		retentionHours)
	if err != nil {
		return total, fmt.Errorf("cleanup transceivers: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	return total, nil
}

func execChunked[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
