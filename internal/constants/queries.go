package constants

// Canonical SQL for the hot ingestion paths. Bulk statements are bound with
// sqlx named parameters and executed once per batch, never per record.

const (
	UpsertPilots = `
	INSERT INTO pilots (
		callsign, cid, logon_time, aircraft_type,
		latitude, longitude, altitude_ft, groundspeed_kt, heading_deg,
		transponder, departure, arrival, route, cruise_tas,
		planned_altitude, deptime, remarks, flight_rules,
		observation_time, last_seen
	) VALUES (
		:callsign, :cid, :logon_time, :aircraft_type,
		:latitude, :longitude, :altitude_ft, :groundspeed_kt, :heading_deg,
		:transponder, :departure, :arrival, :route, :cruise_tas,
		:planned_altitude, :deptime, :remarks, :flight_rules,
		:observation_time, :last_seen
	)
	ON CONFLICT (callsign) DO UPDATE SET
		cid = EXCLUDED.cid,
		logon_time = EXCLUDED.logon_time,
		aircraft_type = EXCLUDED.aircraft_type,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		altitude_ft = EXCLUDED.altitude_ft,
		groundspeed_kt = EXCLUDED.groundspeed_kt,
		heading_deg = EXCLUDED.heading_deg,
		transponder = EXCLUDED.transponder,
		departure = EXCLUDED.departure,
		arrival = EXCLUDED.arrival,
		route = EXCLUDED.route,
		cruise_tas = EXCLUDED.cruise_tas,
		planned_altitude = EXCLUDED.planned_altitude,
		deptime = EXCLUDED.deptime,
		remarks = EXCLUDED.remarks,
		flight_rules = EXCLUDED.flight_rules,
		observation_time = EXCLUDED.observation_time,
		last_seen = EXCLUDED.last_seen
	`

	UpsertControllers = `
	INSERT INTO controllers (
		callsign, cid, name, facility, rating, frequency_hz,
		visual_range_nm, text_atis, status, online_at, observation_time, last_seen
	) VALUES (
		:callsign, :cid, :name, :facility, :rating, :frequency_hz,
		:visual_range_nm, :text_atis, 'online', :online_at, :observation_time, :last_seen
	)
	ON CONFLICT (callsign) DO UPDATE SET
		cid = EXCLUDED.cid,
		name = EXCLUDED.name,
		facility = EXCLUDED.facility,
		rating = EXCLUDED.rating,
		frequency_hz = EXCLUDED.frequency_hz,
		visual_range_nm = EXCLUDED.visual_range_nm,
		text_atis = EXCLUDED.text_atis,
		status = 'online',
		online_at = CASE
			WHEN controllers.status = 'offline' THEN EXCLUDED.online_at
			ELSE controllers.online_at
		END,
		offline_at = CASE
			WHEN controllers.status = 'offline' THEN NULL
			ELSE controllers.offline_at
		END,
		observation_time = EXCLUDED.observation_time,
		last_seen = EXCLUDED.last_seen
	`

	InsertPositions = `
	INSERT INTO flights (
		callsign, cid, logon_time, aircraft_type,
		latitude, longitude, altitude_ft, groundspeed_kt, heading_deg,
		transponder, departure, arrival, route, cruise_tas,
		planned_altitude, deptime, remarks, flight_rules, observation_time
	) VALUES (
		:callsign, :cid, :logon_time, :aircraft_type,
		:latitude, :longitude, :altitude_ft, :groundspeed_kt, :heading_deg,
		:transponder, :departure, :arrival, :route, :cruise_tas,
		:planned_altitude, :deptime, :remarks, :flight_rules, :observation_time
	)
	ON CONFLICT (callsign, observation_time) DO NOTHING
	`

	InsertTransceivers = `
	INSERT INTO transceivers (
		entity_type, callsign, transceiver_id, frequency_hz,
		latitude, longitude, height_msl_m, height_agl_m, observation_time
	) VALUES (
		:entity_type, :callsign, :transceiver_id, :frequency_hz,
		:latitude, :longitude, :height_msl_m, :height_agl_m, :observation_time
	)
	ON CONFLICT (entity_type, callsign, transceiver_id, observation_time) DO NOTHING
	`

	InsertFrequencyMatches = `
	INSERT INTO frequency_matches (
		pilot_callsign, controller_callsign, frequency_hz,
		pilot_latitude, pilot_longitude, controller_latitude, controller_longitude,
		distance_nm, first_seen, last_seen, duration_s, confidence, communication_type
	) VALUES (
		:pilot_callsign, :controller_callsign, :frequency_hz,
		:pilot_latitude, :pilot_longitude, :controller_latitude, :controller_longitude,
		:distance_nm, :first_seen, :last_seen, :duration_s, :confidence, :communication_type
	)
	ON CONFLICT (pilot_callsign, controller_callsign, frequency_hz, first_seen) DO UPDATE SET
		last_seen = EXCLUDED.last_seen,
		duration_s = EXCLUDED.duration_s,
		distance_nm = EXCLUDED.distance_nm,
		confidence = EXCLUDED.confidence,
		communication_type = EXCLUDED.communication_type
	`
)
