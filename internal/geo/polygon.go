package geo

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/patrickmn/go-cache"
)

// Polygon is a simple closed ring of (lat, lon) vertices. Points on an edge
// or vertex are treated as inside.
type Polygon struct {
	lats []float64
	lons []float64
}

// loadedPolygons caches polygons by file path; entries never expire and are
// replaced only on explicit reload.
var loadedPolygons = cache.New(cache.NoExpiration, 0)

// geoJSON is the subset of the GeoJSON document the loader understands:
// a Polygon geometry, a Feature wrapping one, or a FeatureCollection whose
// first feature is one. Coordinates are [lon, lat] per the GeoJSON spec.
type geoJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    *geoJSON        `json:"geometry"`
	Features    []geoJSON       `json:"features"`
}

// Load parses a GeoJSON polygon from path. Idempotent and path-keyed:
// the same path returns the same handle.
func Load(path string) (*Polygon, error) {
	if cached, found := loadedPolygons.Get(path); found {
		return cached.(*Polygon), nil
	}
	return Reload(path)
}

// Reload re-reads the polygon from disk and replaces the cached handle
func Reload(path string) (*Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary %s: %w", path, err)
	}

	poly, err := parseGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse boundary %s: %w", path, err)
	}

	loadedPolygons.Set(path, poly, cache.NoExpiration)
	return poly, nil
}

func parseGeoJSON(data []byte) (*Polygon, error) {
	var doc geoJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	geom := &doc
	switch doc.Type {
	case "FeatureCollection":
		if len(doc.Features) == 0 {
			return nil, fmt.Errorf("empty feature collection")
		}
		geom = doc.Features[0].Geometry
	case "Feature":
		geom = doc.Geometry
	}
	if geom == nil {
		return nil, fmt.Errorf("no geometry found")
	}
	if geom.Type != "Polygon" {
		return nil, fmt.Errorf("unsupported geometry type %q", geom.Type)
	}

	var rings [][][2]float64
	if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
		return nil, fmt.Errorf("bad polygon coordinates: %w", err)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}

	// Outer ring only; holes are not used for airspace boundaries
	ring := rings[0]

	// Drop the GeoJSON closing vertex if present
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}

	poly := &Polygon{}
	seen := make(map[[2]float64]bool, len(ring))
	for _, v := range ring {
		poly.lons = append(poly.lons, v[0])
		poly.lats = append(poly.lats, v[1])
		seen[v] = true
	}

	if len(seen) < 3 {
		return nil, fmt.Errorf("degenerate polygon: %d distinct vertices", len(seen))
	}

	return poly, nil
}

// Contains reports whether (lat, lon) is inside the closed polygon,
// using ray casting with an explicit boundary check.
func (p *Polygon) Contains(lat, lon float64) bool {
	n := len(p.lats)
	inside := false

	j := n - 1
	for i := 0; i < n; i++ {
		if onSegment(lat, lon, p.lats[i], p.lons[i], p.lats[j], p.lons[j]) {
			return true
		}
		if (p.lats[i] > lat) != (p.lats[j] > lat) {
			x := (p.lons[j]-p.lons[i])*(lat-p.lats[i])/(p.lats[j]-p.lats[i]) + p.lons[i]
			if lon < x {
				inside = !inside
			}
		}
		j = i
	}

	return inside
}

const segEpsilon = 1e-9

func onSegment(lat, lon, lat1, lon1, lat2, lon2 float64) bool {
	cross := (lat2-lat1)*(lon-lon1) - (lon2-lon1)*(lat-lat1)
	if cross > segEpsilon || cross < -segEpsilon {
		return false
	}
	dot := (lat-lat1)*(lat2-lat1) + (lon-lon1)*(lon2-lon1)
	if dot < -segEpsilon {
		return false
	}
	sq := (lat2-lat1)*(lat2-lat1) + (lon2-lon1)*(lon2-lon1)
	return dot <= sq+segEpsilon
}
