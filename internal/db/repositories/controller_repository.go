package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"airspace-analytics/vatwatch/internal/models/entities"
)

// ControllerRepository handles controller state transitions and lookups
type ControllerRepository struct {
	db *sqlx.DB
}

// NewControllerRepository creates a controller repository
func NewControllerRepository(db *sqlx.DB) *ControllerRepository {
	return &ControllerRepository{db: db}
}

// ControllerSession describes one controller's current session row
type ControllerSession struct {
	Callsign    string     `db:"callsign"`
	CID         int        `db:"cid"`
	Facility    int        `db:"facility"`
	Rating      int        `db:"rating"`
	FrequencyHz int64      `db:"frequency_hz"`
	OnlineAt    time.Time  `db:"online_at"`
	OfflineAt   *time.Time `db:"offline_at"`
}

// MarkOffline transitions the given callsigns to offline. The coordinator
// calls this only after each session's summary is stored; the RETURNING
// clause reports which rows actually transitioned.
func (r *ControllerRepository) MarkOffline(ctx context.Context, absent []string, at time.Time) ([]ControllerSession, error) {
	if len(absent) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		UPDATE controllers
		SET status = 'offline', offline_at = ?
		WHERE callsign IN (?) AND status = 'online'
		RETURNING callsign, cid, facility, rating, frequency_hz, online_at, offline_at
	`, at, absent)
	if err != nil {
		return nil, fmt.Errorf("build mark offline query: %w", err)
	}

	query = r.db.Rebind(query)

	var sessions []ControllerSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("mark controllers offline: %w", err)
	}
	return sessions, nil
}

// ListOnlineSessions returns every session still marked online. The
// coordinator diffs this against the latest snapshot to find controllers
// that just went offline; a session left online by a failed summary write
// shows up again next cycle and is retried.
func (r *ControllerRepository) ListOnlineSessions(ctx context.Context) ([]ControllerSession, error) {
	var sessions []ControllerSession
	if err := r.db.SelectContext(ctx, &sessions, `
		SELECT callsign, cid, facility, rating, frequency_hz, online_at, offline_at
		FROM controllers
		WHERE status = 'online'
	`); err != nil {
		return nil, fmt.Errorf("list online sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns the current session row for a callsign
func (r *ControllerRepository) GetSession(ctx context.Context, callsign string) (*ControllerSession, error) {
	var session ControllerSession
	err := r.db.GetContext(ctx, &session, `
		SELECT callsign, cid, facility, rating, frequency_hz, online_at, offline_at
		FROM controllers WHERE callsign = $1
	`, callsign)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetFacilities loads the facility code for every known controller. The
// matcher consults this map before the detection query; filtering by join
// inside the query is forbidden because it silently drops valid ATC whose
// controller row is momentarily missing.
func (r *ControllerRepository) GetFacilities(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Callsign string `db:"callsign"`
		Facility int    `db:"facility"`
	}{}

	if err := r.db.SelectContext(ctx, &rows,
		`SELECT callsign, facility FROM controllers`); err != nil {
		return nil, fmt.Errorf("load controller facilities: %w", err)
	}

	facilities := make(map[string]int, len(rows))
	for _, row := range rows {
		facilities[row.Callsign] = row.Facility
	}
	return facilities, nil
}

// ListOnline returns currently online controllers for the read API
func (r *ControllerRepository) ListOnline(ctx context.Context) ([]entities.ControllerObs, error) {
	var out []entities.ControllerObs
	err := r.db.SelectContext(ctx, &out, `
		SELECT callsign, cid, name, facility, rating, frequency_hz,
		       visual_range_nm, text_atis, online_at, observation_time, last_seen
		FROM controllers
		WHERE status = 'online'
		ORDER BY callsign
	`)
	return out, err
}
