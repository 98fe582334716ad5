package geo

import "math"

const earthRadiusNm = 3440.065

// DistanceNm returns the great-circle distance between two points in
// nautical miles (haversine).
func DistanceNm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusNm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
