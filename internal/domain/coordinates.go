package domain

import "math"

// Mean Earth radius in statute miles.
const EarthRadiusMiles = 3959.0

// MetersPerMile converts between the display unit and the ranking unit.
const MetersPerMile = 1609.34

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineMiles returns the great-circle distance between two points in miles.
func (c Coordinates) HaversineMiles(other Coordinates) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(other.Lat - c.Lat)
	dLng := toRad(other.Lng - c.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(c.Lat))*math.Cos(toRad(other.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// MilesToMeters rounds a mile distance to whole meters.
func MilesToMeters(miles float64) int {
	return int(math.Round(miles * MetersPerMile))
}

// MetersToMiles converts whole meters back to miles.
func MetersToMiles(meters int) float64 {
	return float64(meters) / MetersPerMile
}

// Resolved origin of a search request.
// A Location is created once per request and never mutated afterwards.
type Location struct {
	Coordinates
	// First-level administrative region (US state), empty when unknown.
	State            string
	FormattedAddress string
}
