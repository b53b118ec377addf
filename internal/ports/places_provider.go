package ports

import (
	"context"
	"encoding/json"

	"nicu-finder/internal/domain"
)

// A hospital returned by a nearby search.
type Place struct {
	PlaceID     string
	Name        string
	Vicinity    string
	Coordinates *domain.Coordinates
	Rating      *float64
	Reviews     *int
}

// Contact and descriptive fields of a single place.
type PlaceDetails struct {
	Phone        string          `json:"phone,omitempty"`
	Address      string          `json:"address,omitempty"`
	Website      string          `json:"website,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	OpeningHours json.RawMessage `json:"opening_hours,omitempty"`
}

// Contract for the live places search and details service.
type PlacesProvider interface {
	// Return hospitals near origin matching keyword, in provider relevance order.
	NearbySearch(ctx context.Context, origin domain.Coordinates, radiusMeters float64, keyword string) ([]Place, error)
	// Return contact details for a place id.
	PlaceDetails(ctx context.Context, placeID string) (PlaceDetails, error)
}
