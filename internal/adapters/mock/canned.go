package mock

import (
	"nicu-finder/internal/domain"
	"nicu-finder/internal/ports"
)

// Canned is the provider set used when the service runs in mock mode: every
// query resolves to the same origin and yields one hospital 1.2 miles away.
type Canned struct {
	Geocoder *Geocoder
	Places   *Places
	Distance *DistanceMatrix
}

func NewCanned() Canned {
	origin := domain.Location{
		Coordinates:      domain.Coordinates{Lat: 40.0, Lng: -73.0},
		State:            "NY",
		FormattedAddress: "Mock City, NY, USA",
	}
	rating := 4.5
	reviews := 12

	return Canned{
		Geocoder: &Geocoder{Default: &origin},
		Places: &Places{
			Nearby: []ports.Place{{
				PlaceID:     "mock-1",
				Name:        "Mock NICU Hospital A",
				Vicinity:    "123 Mock St, Testville",
				Coordinates: &domain.Coordinates{Lat: 40.01, Lng: -73.01},
				Rating:      &rating,
				Reviews:     &reviews,
			}},
			Details: map[string]ports.PlaceDetails{
				"mock-1": {
					Phone:   "555-0101",
					Address: "123 Mock St, Testville",
				},
			},
		},
		Distance: &DistanceMatrix{
			Distances: map[string]ports.DistanceResult{
				"mock-1": {DistanceMeters: 1931, Text: "1.2 mi"},
			},
		},
	}
}
