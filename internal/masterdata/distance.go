package masterdata

import "math"

const (
	earthRadiusKM = 6371.0
	// Walking speed in meters per minute and the detour factor applied to
	// straight-line distance.
	walkMetersPerMinute = 80.0
	walkDetourFactor    = 1.3
)

// HaversineKM returns the great-circle distance between two points.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WalkingMinutes converts a straight-line distance to walking minutes,
// never less than one.
func WalkingMinutes(km float64) int {
	minutes := int(math.Round(km * 1000 * walkDetourFactor / walkMetersPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
