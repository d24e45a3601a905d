// sim/routing.go
//
// Great-circle routing approximations. Distances are "as the crow flies";
// real road distances run roughly 1.2-1.5x longer.

package sim

import "math"

// earthRadiusKm is the mean Earth radius used by the Haversine formula.
const earthRadiusKm = 6371.0

// DefaultSpeedKmh is the assumed emergency-vehicle speed, about 1.2x the
// typical urban speed of ~65 km/h.
const DefaultSpeedKmh = 80.0

// kmPerDegree approximates one degree of latitude in kilometers.
const kmPerDegree = 111.0

// DistanceKm returns the Haversine great-circle distance in kilometers
// between two coordinates. Symmetric, never negative, zero for identical
// points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// TravelTimeMinutes returns travel time in minutes at DefaultSpeedKmh.
func TravelTimeMinutes(lat1, lon1, lat2, lon2 float64) float64 {
	return TravelTimeMinutesAtSpeed(lat1, lon1, lat2, lon2, DefaultSpeedKmh)
}

// TravelTimeMinutesAtSpeed returns travel time in minutes at the given speed.
// Non-positive speeds fall back to DefaultSpeedKmh.
func TravelTimeMinutesAtSpeed(lat1, lon1, lat2, lon2, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return DistanceKm(lat1, lon1, lat2, lon2) / speedKmh * 60.0
}

// DistanceMatrix precomputes pairwise distances between all points.
// Element [i][j] is the distance in km from points[i] to points[j];
// the matrix is symmetric with a zero diagonal.
func DistanceMatrix(points []LatLon) [][]float64 {
	n := len(points)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := DistanceKm(points[i].Lat, points[i].Lon, points[j].Lat, points[j].Lon)
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}
	return matrix
}
