package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Communication types derived from frequency band
const (
	CommApproach  = "approach"
	CommDeparture = "departure"
	CommTower     = "tower"
	CommGround    = "ground"
	CommEnroute   = "enroute"
	CommHFEnroute = "hf_enroute"
	CommUnknown   = "unknown"
)

// FrequencyMatch records one pilot-controller radio co-occurrence interval
type FrequencyMatch struct {
	ID                  int64     `db:"id" json:"id"`
	PilotCallsign       string    `db:"pilot_callsign" json:"pilot_callsign"`
	ControllerCallsign  string    `db:"controller_callsign" json:"controller_callsign"`
	FrequencyHz         int64     `db:"frequency_hz" json:"frequency_hz"`
	PilotLatitude       float64   `db:"pilot_latitude" json:"pilot_latitude"`
	PilotLongitude      float64   `db:"pilot_longitude" json:"pilot_longitude"`
	ControllerLatitude  float64   `db:"controller_latitude" json:"controller_latitude"`
	ControllerLongitude float64   `db:"controller_longitude" json:"controller_longitude"`
	DistanceNm          float64   `db:"distance_nm" json:"distance_nm"`
	FirstSeen           time.Time `db:"first_seen" json:"first_seen"`
	LastSeen            time.Time `db:"last_seen" json:"last_seen"`
	DurationS           int       `db:"duration_s" json:"duration_s"`
	Confidence          float64   `db:"confidence" json:"confidence"`
	CommunicationType   string    `db:"communication_type" json:"communication_type"`
}

// PositionSample is a single position kept on a summary (first/last/max)
type PositionSample struct {
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	AltitudeFt      int       `json:"altitude_ft"`
	GroundspeedKt   int       `json:"groundspeed_kt"`
	ObservationTime time.Time `json:"observation_time"`
}

// Value implements driver.Valuer for jsonb storage
func (p PositionSample) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for jsonb storage
func (p *PositionSample) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// ControllerInteraction is one entry of a flight summary's interaction array.
// Both summary sides use the same uniform array-of-objects shape.
type ControllerInteraction struct {
	ControllerCallsign string    `json:"controller_callsign"`
	FrequencyHz        int64     `json:"frequency_hz"`
	FirstSeen          time.Time `json:"first_seen"`
	LastSeen           time.Time `json:"last_seen"`
	DurationS          int       `json:"duration_s"`
	CommunicationType  string    `json:"communication_type"`
}

// ControllerInteractions is stored as a jsonb array
type ControllerInteractions []ControllerInteraction

func (c ControllerInteractions) Value() (driver.Value, error) {
	if c == nil {
		c = ControllerInteractions{}
	}
	return json.Marshal(c)
}

func (c *ControllerInteractions) Scan(src interface{}) error {
	return scanJSON(src, c)
}

// AircraftInteraction is one entry of a controller summary's interaction array
type AircraftInteraction struct {
	PilotCallsign string    `json:"pilot_callsign"`
	FrequencyHz   int64     `json:"frequency_hz"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	DurationS     int       `json:"duration_s"`
}

// AircraftInteractions is stored as a jsonb array
type AircraftInteractions []AircraftInteraction

func (a AircraftInteractions) Value() (driver.Value, error) {
	if a == nil {
		a = AircraftInteractions{}
	}
	return json.Marshal(a)
}

func (a *AircraftInteractions) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// FlightSummary is one immutable record per completed flight,
// keyed by (callsign, logon_time). Reprocessing replaces the whole record.
type FlightSummary struct {
	ID                     int64                  `db:"id" json:"id"`
	Callsign               string                 `db:"callsign" json:"callsign"`
	LogonTime              time.Time              `db:"logon_time" json:"logon_time"`
	CID                    int                    `db:"cid" json:"cid"`
	AircraftType           string                 `db:"aircraft_type" json:"aircraft_type"`
	Departure              string                 `db:"departure" json:"departure"`
	Arrival                string                 `db:"arrival" json:"arrival"`
	Route                  string                 `db:"route" json:"route"`
	CruiseTAS              string                 `db:"cruise_tas" json:"cruise_tas"`
	FirstPosition          PositionSample         `db:"first_position" json:"first_position"`
	LastPosition           PositionSample         `db:"last_position" json:"last_position"`
	MaxAltitudeFt          int                    `db:"max_altitude_ft" json:"max_altitude_ft"`
	StartedAt              time.Time              `db:"started_at" json:"started_at"`
	CompletedAt            time.Time              `db:"completed_at" json:"completed_at"`
	CompletionMethod       string                 `db:"completion_method" json:"completion_method"`
	CompletionConfidence   float64                `db:"completion_confidence" json:"completion_confidence"`
	LandedAirport          *string                `db:"landed_airport" json:"landed_airport,omitempty"`
	ControllerInteractions ControllerInteractions `db:"controller_interactions" json:"controller_interactions"`
	CreatedAt              time.Time              `db:"created_at" json:"created_at"`
}

// ControllerSummary is one record per offline transition of a controller
type ControllerSummary struct {
	ID                   int64                `db:"id" json:"id"`
	Callsign             string               `db:"callsign" json:"callsign"`
	CID                  int                  `db:"cid" json:"cid"`
	Facility             int                  `db:"facility" json:"facility"`
	Rating               int                  `db:"rating" json:"rating"`
	FrequencyHz          int64                `db:"frequency_hz" json:"frequency_hz"`
	OnlineAt             time.Time            `db:"online_at" json:"online_at"`
	OfflineAt            time.Time            `db:"offline_at" json:"offline_at"`
	DurationS            int                  `db:"duration_s" json:"duration_s"`
	AircraftInteractions AircraftInteractions `db:"aircraft_interactions" json:"aircraft_interactions"`
	CreatedAt            time.Time            `db:"created_at" json:"created_at"`
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into JSON value", src)
	}
}
