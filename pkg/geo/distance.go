package geo

import "math"

// EarthRadiusKm is Earth's radius in kilometers for the Haversine formula.
const EarthRadiusKm = 6371.0

// ValidLatLng reports whether the pair is a usable coordinate.
func ValidLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// HaversineKm calculates the great-circle distance between two points on
// Earth in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// IsWithinKm checks if two coordinates lie within radiusKm of each other.
func IsWithinKm(lat1, lng1, lat2, lng2, radiusKm float64) bool {
	return HaversineKm(lat1, lng1, lat2, lng2) <= radiusKm
}
