package geo

import (
	"os"
	"path/filepath"
	"testing"
)

// Unit square in (lat, lon); GeoJSON coordinates are [lon, lat].
const squarePolygon = `{
	"type": "Polygon",
	"coordinates": [[[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]]]
}`

func writeBoundary(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boundary.geojson")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadGeoJSONShapes(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"bare polygon", squarePolygon},
		{"feature", `{"type": "Feature", "geometry": ` + squarePolygon + `}`},
		{"feature collection", `{"type": "FeatureCollection", "features": [{"type": "Feature", "geometry": ` + squarePolygon + `}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			poly, err := Load(writeBoundary(t, tc.doc))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !poly.Contains(5, 5) {
				t.Errorf("center not contained")
			}
		})
	}
}

func TestLoadRejectsDegenerate(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"two vertices", `{"type": "Polygon", "coordinates": [[[0, 0], [10, 0], [0, 0]]]}`},
		{"no rings", `{"type": "Polygon", "coordinates": []}`},
		{"wrong geometry", `{"type": "Point", "coordinates": [0, 0]}`},
		{"not json", `{{{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeBoundary(t, tc.doc)); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestContains(t *testing.T) {
	poly, err := Load(writeBoundary(t, squarePolygon))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"center", 5, 5, true},
		{"outside", 15, 5, false},
		{"outside negative", -1, -1, false},
		{"on edge", 0, 5, true},
		{"on vertex", 0, 0, true},
		{"on vertex far", 10, 10, true},
		{"just inside", 9.999, 9.999, true},
		{"just outside", 10.001, 10.001, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := poly.Contains(tc.lat, tc.lon); got != tc.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
			}
		})
	}
}

func TestReloadReplacesHandle(t *testing.T) {
	path := writeBoundary(t, squarePolygon)
	poly, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !poly.Contains(5, 5) {
		t.Fatal("initial polygon wrong")
	}

	// Shrink the polygon and reload.
	smaller := `{"type": "Polygon", "coordinates": [[[0, 0], [2, 0], [2, 2], [0, 2], [0, 0]]]}`
	if err := os.WriteFile(path, []byte(smaller), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Reload(path)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if reloaded.Contains(5, 5) {
		t.Errorf("reloaded polygon still contains old interior point")
	}
	if !reloaded.Contains(1, 1) {
		t.Errorf("reloaded polygon missing new interior point")
	}
}

func TestDistanceNm(t *testing.T) {
	// Sydney to Melbourne is roughly 382 nm
	d := DistanceNm(-33.9461, 151.1772, -37.6733, 144.8433)
	if d < 370 || d > 395 {
		t.Errorf("YSSY-YMML distance = %.1f nm, want ~382", d)
	}

	if d := DistanceNm(10, 20, 10, 20); d != 0 {
		t.Errorf("zero distance = %f", d)
	}
}
