package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ValidateSchema creates any missing tables and indexes defined by the
// canonical schema. Idempotent; runs once at startup. The airports table is
// managed separately by GORM.
func ValidateSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
	-- Latest pilot state, upserted by callsign
	CREATE TABLE IF NOT EXISTS pilots (
		id               BIGSERIAL PRIMARY KEY,
		callsign         TEXT NOT NULL UNIQUE,
		cid              INTEGER NOT NULL,
		logon_time       TIMESTAMPTZ NOT NULL,
		aircraft_type    TEXT NOT NULL DEFAULT '',
		latitude         DOUBLE PRECISION NOT NULL,
		longitude        DOUBLE PRECISION NOT NULL,
		altitude_ft      INTEGER NOT NULL,
		groundspeed_kt   INTEGER NOT NULL,
		heading_deg      INTEGER NOT NULL,
		transponder      TEXT NOT NULL DEFAULT '',
		departure        TEXT NOT NULL DEFAULT '',
		arrival          TEXT NOT NULL DEFAULT '',
		route            TEXT NOT NULL DEFAULT '',
		cruise_tas       TEXT NOT NULL DEFAULT '',
		planned_altitude TEXT NOT NULL DEFAULT '',
		deptime          TEXT NOT NULL DEFAULT '',
		remarks          TEXT NOT NULL DEFAULT '',
		flight_rules     TEXT NOT NULL DEFAULT '',
		observation_time TIMESTAMPTZ NOT NULL,
		last_seen        TIMESTAMPTZ NOT NULL
	);

	-- Position history, append-only, bounded by retention
	CREATE TABLE IF NOT EXISTS flights (
		id               BIGSERIAL PRIMARY KEY,
		callsign         TEXT NOT NULL,
		cid              INTEGER NOT NULL,
		logon_time       TIMESTAMPTZ NOT NULL,
		aircraft_type    TEXT NOT NULL DEFAULT '',
		latitude         DOUBLE PRECISION NOT NULL,
		longitude        DOUBLE PRECISION NOT NULL,
		altitude_ft      INTEGER NOT NULL,
		groundspeed_kt   INTEGER NOT NULL,
		heading_deg      INTEGER NOT NULL,
		transponder      TEXT NOT NULL DEFAULT '',
		departure        TEXT NOT NULL DEFAULT '',
		arrival          TEXT NOT NULL DEFAULT '',
		route            TEXT NOT NULL DEFAULT '',
		cruise_tas       TEXT NOT NULL DEFAULT '',
		planned_altitude TEXT NOT NULL DEFAULT '',
		deptime          TEXT NOT NULL DEFAULT '',
		remarks          TEXT NOT NULL DEFAULT '',
		flight_rules     TEXT NOT NULL DEFAULT '',
		observation_time TIMESTAMPTZ NOT NULL,
		UNIQUE (callsign, observation_time)
	);

	CREATE INDEX IF NOT EXISTS idx_flights_callsign_time
		ON flights (callsign, observation_time DESC);

	CREATE TABLE IF NOT EXISTS controllers (
		id               BIGSERIAL PRIMARY KEY,
		callsign         TEXT NOT NULL UNIQUE,
		cid              INTEGER NOT NULL,
		name             TEXT NOT NULL DEFAULT '',
		facility         INTEGER NOT NULL,
		rating           INTEGER NOT NULL,
		frequency_hz     BIGINT NOT NULL,
		visual_range_nm  INTEGER NOT NULL DEFAULT 0,
		text_atis        TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'online',
		online_at        TIMESTAMPTZ NOT NULL,
		offline_at       TIMESTAMPTZ,
		observation_time TIMESTAMPTZ NOT NULL,
		last_seen        TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_controllers_facility
		ON controllers (facility, callsign);

	-- Transceiver history, append-only, bounded by retention
	CREATE TABLE IF NOT EXISTS transceivers (
		id               BIGSERIAL PRIMARY KEY,
		entity_type      TEXT NOT NULL,
		callsign         TEXT NOT NULL,
		transceiver_id   INTEGER NOT NULL,
		frequency_hz     BIGINT NOT NULL,
		latitude         DOUBLE PRECISION NOT NULL,
		longitude        DOUBLE PRECISION NOT NULL,
		height_msl_m     DOUBLE PRECISION NOT NULL DEFAULT 0,
		height_agl_m     DOUBLE PRECISION NOT NULL DEFAULT 0,
		observation_time TIMESTAMPTZ NOT NULL,
		UNIQUE (entity_type, callsign, transceiver_id, observation_time)
	);

	CREATE INDEX IF NOT EXISTS idx_transceivers_freq
		ON transceivers (entity_type, frequency_hz, observation_time);

	CREATE TABLE IF NOT EXISTS flight_states (
		id                    BIGSERIAL PRIMARY KEY,
		callsign              TEXT NOT NULL,
		logon_time            TIMESTAMPTZ NOT NULL,
		status                TEXT NOT NULL DEFAULT 'active',
		first_seen            TIMESTAMPTZ NOT NULL,
		last_seen             TIMESTAMPTZ NOT NULL,
		landed_airport        TEXT,
		landed_at             TIMESTAMPTZ,
		completed_at          TIMESTAMPTZ,
		completion_method     TEXT,
		completion_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		UNIQUE (callsign, logon_time)
	);

	CREATE INDEX IF NOT EXISTS idx_flight_states_status
		ON flight_states (status, last_seen);

	CREATE TABLE IF NOT EXISTS frequency_matches (
		id                   BIGSERIAL PRIMARY KEY,
		pilot_callsign       TEXT NOT NULL,
		controller_callsign  TEXT NOT NULL,
		frequency_hz         BIGINT NOT NULL,
		pilot_latitude       DOUBLE PRECISION NOT NULL,
		pilot_longitude      DOUBLE PRECISION NOT NULL,
		controller_latitude  DOUBLE PRECISION NOT NULL,
		controller_longitude DOUBLE PRECISION NOT NULL,
		distance_nm          DOUBLE PRECISION NOT NULL,
		first_seen           TIMESTAMPTZ NOT NULL,
		last_seen            TIMESTAMPTZ NOT NULL,
		duration_s           INTEGER NOT NULL,
		confidence           DOUBLE PRECISION NOT NULL,
		communication_type   TEXT NOT NULL,
		UNIQUE (pilot_callsign, controller_callsign, frequency_hz, first_seen)
	);

	CREATE INDEX IF NOT EXISTS idx_matches_pilot
		ON frequency_matches (pilot_callsign, first_seen);
	CREATE INDEX IF NOT EXISTS idx_matches_controller
		ON frequency_matches (controller_callsign, first_seen);

	CREATE TABLE IF NOT EXISTS flight_summaries (
		id                      BIGSERIAL PRIMARY KEY,
		callsign                TEXT NOT NULL,
		logon_time              TIMESTAMPTZ NOT NULL,
		cid                     INTEGER NOT NULL,
		aircraft_type           TEXT NOT NULL DEFAULT '',
		departure               TEXT NOT NULL DEFAULT '',
		arrival                 TEXT NOT NULL DEFAULT '',
		route                   TEXT NOT NULL DEFAULT '',
		cruise_tas              TEXT NOT NULL DEFAULT '',
		first_position          JSONB NOT NULL,
		last_position           JSONB NOT NULL,
		max_altitude_ft         INTEGER NOT NULL,
		started_at              TIMESTAMPTZ NOT NULL,
		completed_at            TIMESTAMPTZ NOT NULL,
		completion_method       TEXT NOT NULL,
		completion_confidence   DOUBLE PRECISION NOT NULL,
		landed_airport          TEXT,
		controller_interactions JSONB NOT NULL DEFAULT '[]',
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (callsign, logon_time)
	);

	CREATE TABLE IF NOT EXISTS controller_summaries (
		id                    BIGSERIAL PRIMARY KEY,
		callsign              TEXT NOT NULL,
		cid                   INTEGER NOT NULL,
		facility              INTEGER NOT NULL,
		rating                INTEGER NOT NULL,
		frequency_hz          BIGINT NOT NULL,
		online_at             TIMESTAMPTZ NOT NULL,
		offline_at            TIMESTAMPTZ NOT NULL,
		duration_s            INTEGER NOT NULL,
		aircraft_interactions JSONB NOT NULL DEFAULT '[]',
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (callsign, online_at)
	);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}
