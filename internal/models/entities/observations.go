package entities

import (
	"fmt"
	"strings"
	"time"
)

// Entity types for transceiver observations
const (
	EntityPilot = "pilot"
	EntityATC   = "atc"
)

// Flight lifecycle states
const (
	FlightActive    = "active"
	FlightLanded    = "landed"
	FlightStale     = "stale"
	FlightCompleted = "completed"
)

// Completion methods
const (
	CompletionLanding = "landing"
	CompletionTimeout = "timeout"
	CompletionManual  = "manual"
)

// PilotObs is one typed pilot observation. Identity is (Callsign, LogonTime);
// a new logon time for the same callsign is a new flight.
type PilotObs struct {
	Callsign        string    `db:"callsign" json:"callsign"`
	CID             int       `db:"cid" json:"cid"`
	LogonTime       time.Time `db:"logon_time" json:"logon_time"`
	AircraftType    string    `db:"aircraft_type" json:"aircraft_type"`
	Latitude        float64   `db:"latitude" json:"latitude"`
	Longitude       float64   `db:"longitude" json:"longitude"`
	AltitudeFt      int       `db:"altitude_ft" json:"altitude_ft"`
	GroundspeedKt   int       `db:"groundspeed_kt" json:"groundspeed_kt"`
	HeadingDeg      int       `db:"heading_deg" json:"heading_deg"`
	Transponder     string    `db:"transponder" json:"transponder"`
	Departure       string    `db:"departure" json:"departure"`
	Arrival         string    `db:"arrival" json:"arrival"`
	Route           string    `db:"route" json:"route"`
	CruiseTAS       string    `db:"cruise_tas" json:"cruise_tas"`
	PlannedAltitude string    `db:"planned_altitude" json:"planned_altitude"`
	Deptime         string    `db:"deptime" json:"deptime"`
	Remarks         string    `db:"remarks" json:"remarks"`
	FlightRules     string    `db:"flight_rules" json:"flight_rules"`
	ObservationTime time.Time `db:"observation_time" json:"observation_time"`
	LastSeen        time.Time `db:"last_seen" json:"last_seen"`
}

// Validate applies the range checks run before batch submission.
// Out-of-range records are rejected, never clamped.
func (p *PilotObs) Validate() error {
	if p.Callsign == "" {
		return fmt.Errorf("empty callsign")
	}
	if p.LogonTime.IsZero() {
		return fmt.Errorf("%s: missing logon time", p.Callsign)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%s: latitude %f out of range", p.Callsign, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%s: longitude %f out of range", p.Callsign, p.Longitude)
	}
	if p.AltitudeFt < -1000 || p.AltitudeFt > 60000 {
		return fmt.Errorf("%s: altitude %d out of range", p.Callsign, p.AltitudeFt)
	}
	return nil
}

// ControllerObs is one typed controller observation, identified by callsign.
type ControllerObs struct {
	Callsign        string    `db:"callsign" json:"callsign"`
	CID             int       `db:"cid" json:"cid"`
	Name            string    `db:"name" json:"name"`
	Facility        int       `db:"facility" json:"facility"`
	Rating          int       `db:"rating" json:"rating"`
	FrequencyHz     int64     `db:"frequency_hz" json:"frequency_hz"`
	VisualRangeNm   int       `db:"visual_range_nm" json:"visual_range_nm"`
	TextATIS        string    `db:"text_atis" json:"text_atis"`
	OnlineAt        time.Time `db:"online_at" json:"online_at"`
	ObservationTime time.Time `db:"observation_time" json:"observation_time"`
	LastSeen        time.Time `db:"last_seen" json:"last_seen"`
}

// IsObserver reports whether this station is observer/read-only.
// Observers never participate in interaction detection.
func (c *ControllerObs) IsObserver() bool {
	return c.Facility == 0 || strings.HasSuffix(c.Callsign, "_OBS")
}

// Validate applies the range checks run before batch submission
func (c *ControllerObs) Validate() error {
	if c.Callsign == "" {
		return fmt.Errorf("empty callsign")
	}
	if c.FrequencyHz < 0 {
		return fmt.Errorf("%s: negative frequency", c.Callsign)
	}
	return nil
}

// TransceiverObs is one radio endpoint observation. Append-only history and
// the sole source of geo-located frequency data for the matcher.
type TransceiverObs struct {
	EntityType      string    `db:"entity_type" json:"entity_type"`
	Callsign        string    `db:"callsign" json:"callsign"`
	TransceiverID   int       `db:"transceiver_id" json:"transceiver_id"`
	FrequencyHz     int64     `db:"frequency_hz" json:"frequency_hz"`
	Latitude        float64   `db:"latitude" json:"latitude"`
	Longitude       float64   `db:"longitude" json:"longitude"`
	HeightMslM      float64   `db:"height_msl_m" json:"height_msl_m"`
	HeightAglM      float64   `db:"height_agl_m" json:"height_agl_m"`
	ObservationTime time.Time `db:"observation_time" json:"observation_time"`
}

// Validate applies the range checks run before batch submission
func (t *TransceiverObs) Validate() error {
	if t.Callsign == "" {
		return fmt.Errorf("empty callsign")
	}
	if t.EntityType != EntityPilot && t.EntityType != EntityATC {
		return fmt.Errorf("%s: unknown entity type %q", t.Callsign, t.EntityType)
	}
	if t.Latitude < -90 || t.Latitude > 90 {
		return fmt.Errorf("%s: latitude %f out of range", t.Callsign, t.Latitude)
	}
	if t.Longitude < -180 || t.Longitude > 180 {
		return fmt.Errorf("%s: longitude %f out of range", t.Callsign, t.Longitude)
	}
	if t.FrequencyHz <= 0 {
		return fmt.Errorf("%s: non-positive frequency", t.Callsign)
	}
	return nil
}

// Snapshot is one normalized poll of the upstream feed
type Snapshot struct {
	SnapshotTime time.Time
	Pilots       []PilotObs
	Controllers  []ControllerObs
}

// FlightState tracks one flight through the completion state machine
type FlightState struct {
	Callsign             string     `db:"callsign" json:"callsign"`
	LogonTime            time.Time  `db:"logon_time" json:"logon_time"`
	Status               string     `db:"status" json:"status"`
	FirstSeen            time.Time  `db:"first_seen" json:"first_seen"`
	LastSeen             time.Time  `db:"last_seen" json:"last_seen"`
	LandedAirport        *string    `db:"landed_airport" json:"landed_airport,omitempty"`
	LandedAt             *time.Time `db:"landed_at" json:"landed_at,omitempty"`
	CompletedAt          *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletionMethod     *string    `db:"completion_method" json:"completion_method,omitempty"`
	CompletionConfidence float64    `db:"completion_confidence" json:"completion_confidence"`
}

// LandingEvent is emitted by the landing detector and consumed by completion
type LandingEvent struct {
	Callsign    string    `json:"callsign"`
	LogonTime   time.Time `json:"logon_time"`
	AirportICAO string    `json:"airport_icao"`
	DetectedAt  time.Time `json:"detected_at"`
	Confidence  float64   `json:"confidence"`
}
