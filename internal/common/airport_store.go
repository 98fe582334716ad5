package common

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"airspace-analytics/vatwatch/internal/geo"
	"airspace-analytics/vatwatch/internal/logging"
)

// Airport is one immutable reference record
type Airport struct {
	ICAO        string  `json:"icao"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	ElevationFt int     `json:"elevation"`
}

// AirportStore is the read-only ICAO lookup loaded once at startup
type AirportStore struct {
	byICAO map[string]Airport
	all    []Airport
}

// LoadAirports reads the bundled airports JSON.
// Expected format: object keyed by ICAO with airport data as values.
func LoadAirports(path string) (*AirportStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read airports %s: %w", path, err)
	}

	var raw map[string]Airport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode airports %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no airport data found in %s", path)
	}

	store := &AirportStore{
		byICAO: make(map[string]Airport, len(raw)),
		all:    make([]Airport, 0, len(raw)),
	}
	for icao, ap := range raw {
		ap.ICAO = strings.ToUpper(strings.TrimSpace(icao))
		if ap.ICAO == "" {
			continue
		}
		if ap.Latitude < -90 || ap.Latitude > 90 || ap.Longitude < -180 || ap.Longitude > 180 {
			continue
		}
		store.byICAO[ap.ICAO] = ap
		store.all = append(store.all, ap)
	}

	logging.Info("Loaded airport reference data", "count", len(store.all), "path", path)
	return store, nil
}

// Get returns the airport for an ICAO code
func (s *AirportStore) Get(icao string) (Airport, bool) {
	ap, ok := s.byICAO[strings.ToUpper(icao)]
	return ap, ok
}

// Count returns the number of loaded airports
func (s *AirportStore) Count() int {
	return len(s.all)
}

// All returns every loaded airport
func (s *AirportStore) All() []Airport {
	return s.all
}

// Nearest returns the closest airport within radiusNm of (lat, lon).
// A cheap bounding-box pass cuts the candidate list before the
// great-circle distance is computed; no spatial index is needed at
// reference-data scale.
func (s *AirportStore) Nearest(lat, lon, radiusNm float64) (Airport, float64, bool) {
	latMargin := radiusNm / 60.0
	lonMargin := radiusNm / (60.0 * math.Max(math.Cos(lat*math.Pi/180), 0.01))

	var (
		best     Airport
		bestDist = math.MaxFloat64
		found    bool
	)

	for _, ap := range s.all {
		if math.Abs(ap.Latitude-lat) > latMargin || math.Abs(ap.Longitude-lon) > lonMargin {
			continue
		}
		d := geo.DistanceNm(lat, lon, ap.Latitude, ap.Longitude)
		if d <= radiusNm && d < bestDist {
			best = ap
			bestDist = d
			found = true
		}
	}

	return best, bestDist, found
}
