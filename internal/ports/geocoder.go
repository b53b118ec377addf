package ports

import (
	"context"
	"errors"

	"nicu-finder/internal/domain"
)

// ErrNoResults is returned by providers that answered successfully but found nothing.
var ErrNoResults = errors.New("no results")

// Contract for resolving free text or a postal code to a Location.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.Location, error)
}

// Persistent address -> coordinates store used when backfilling the curated dataset.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
