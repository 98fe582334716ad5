package detectors

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"airspace-analytics/vatwatch/internal/common"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// LandingDetector classifies active pilots as landed by comparing position,
// speed and altitude against the nearest airport. Stateless apart from the
// recent-event table used for deduplication.
type LandingDetector struct {
	airports   *common.AirportStore
	radiusNm   float64
	maxAltFt   float64
	maxSpeedKt float64
	recent     *cache.Cache
}

// NewLandingDetector creates a landing detector with the configured thresholds
func NewLandingDetector(airports *common.AirportStore, radiusNm, maxAltFt, maxSpeedKt float64) *LandingDetector {
	return &LandingDetector{
		airports:   airports,
		radiusNm:   radiusNm,
		maxAltFt:   maxAltFt,
		maxSpeedKt: maxSpeedKt,
		// one landing per pilot+airport within 5 minutes
		recent: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Run evaluates every active pilot and returns the landing events detected.
// Confidence is binary in this version: 1.0 when all thresholds are met.
func (d *LandingDetector) Run(pilots []entities.PilotObs, now time.Time) []entities.LandingEvent {
	var events []entities.LandingEvent

	for _, pilot := range pilots {
		airport, _, found := d.airports.Nearest(pilot.Latitude, pilot.Longitude, d.radiusNm)
		if !found {
			continue
		}

		altAboveAirport := float64(pilot.AltitudeFt - airport.ElevationFt)
		if altAboveAirport > d.maxAltFt {
			continue
		}
		if float64(pilot.GroundspeedKt) > d.maxSpeedKt {
			continue
		}

		dedupKey := fmt.Sprintf("%s|%s", pilot.Callsign, airport.ICAO)
		if _, seen := d.recent.Get(dedupKey); seen {
			continue
		}
		d.recent.SetDefault(dedupKey, now)

		events = append(events, entities.LandingEvent{
			Callsign:    pilot.Callsign,
			LogonTime:   pilot.LogonTime,
			AirportICAO: airport.ICAO,
			DetectedAt:  now,
			Confidence:  1.0,
		})
	}

	return events
}
