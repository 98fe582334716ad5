package dtos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Wire shapes for the VATSIM v3 data documents. Numeric fields that some
// generators emit as strings are bound to FlexInt so one bad field never
// changes the document shape. Unknown fields are ignored by the decoder.

// FlexInt accepts a JSON number or a numeric string
type FlexInt int

func (fi *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*fi = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*fi = 0
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a numeric string: %q", s)
		}
		*fi = FlexInt(math.Round(n))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*fi = FlexInt(math.Round(f))
	return nil
}

// FeedDocument is the top-level snapshot document
type FeedDocument struct {
	General struct {
		Version         int       `json:"version"`
		UpdateTimestamp time.Time `json:"update_timestamp"`
	} `json:"general"`
	Pilots      []FeedPilot      `json:"pilots"`
	Controllers []FeedController `json:"controllers"`
}

// FeedPilot is one pilot entry as it arrives on the wire
type FeedPilot struct {
	CID         FlexInt  `json:"cid"`
	Name        string   `json:"name"`
	Callsign    string   `json:"callsign"`
	Server      string   `json:"server"`
	PilotRating FlexInt  `json:"pilot_rating"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Altitude    FlexInt  `json:"altitude"`
	Groundspeed FlexInt  `json:"groundspeed"`
	Transponder string   `json:"transponder"`
	Heading     FlexInt  `json:"heading"`
	FlightPlan  *FeedFlightPlan `json:"flight_plan"`
	LogonTime   time.Time `json:"logon_time"`
	LastUpdated time.Time `json:"last_updated"`
}

// FeedFlightPlan is the nested flight plan subdocument
type FeedFlightPlan struct {
	FlightRules string `json:"flight_rules"`
	Aircraft    string `json:"aircraft"`
	AircraftFAA string `json:"aircraft_faa"`
	Departure   string `json:"departure"`
	Arrival     string `json:"arrival"`
	Alternate   string `json:"alternate"`
	CruiseTAS   string `json:"cruise_tas"`
	Altitude    string `json:"altitude"`
	Deptime     string `json:"deptime"`
	EnrouteTime string `json:"enroute_time"`
	Remarks     string `json:"remarks"`
	Route       string `json:"route"`
}

// FeedController is one controller entry as it arrives on the wire
type FeedController struct {
	CID         FlexInt   `json:"cid"`
	Name        string    `json:"name"`
	Callsign    string    `json:"callsign"`
	Frequency   string    `json:"frequency"`
	Facility    FlexInt   `json:"facility"`
	Rating      FlexInt   `json:"rating"`
	Server      string    `json:"server"`
	VisualRange FlexInt   `json:"visual_range"`
	TextATIS    []string  `json:"text_atis"`
	LogonTime   time.Time `json:"logon_time"`
	LastUpdated time.Time `json:"last_updated"`
}

// FeedTransceiverSet groups the transceivers of one callsign
type FeedTransceiverSet struct {
	Callsign     string            `json:"callsign"`
	Transceivers []FeedTransceiver `json:"transceivers"`
}

// FeedTransceiver is one radio endpoint
type FeedTransceiver struct {
	ID        FlexInt `json:"id"`
	Frequency int64   `json:"frequency"`
	LatDeg    float64 `json:"latDeg"`
	LonDeg    float64 `json:"lonDeg"`
	HeightMsl float64 `json:"heightMslM"`
	HeightAgl float64 `json:"heightAglM"`
}

// FrequencyHz converts a controller frequency string ("124.500", MHz) to Hz
func FrequencyHz(freq string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(freq), 64)
	if err != nil {
		return 0, fmt.Errorf("bad frequency %q: %w", freq, err)
	}
	return int64(math.Round(f * 1e6)), nil
}
