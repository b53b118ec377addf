package ports

import (
	"context"

	"nicu-finder/internal/domain"
)

// Contract for batched distance lookups from one origin to many places.
type DistanceMatrixProvider interface {
	// Return distances keyed by place id. Destinations the provider could not
	// route are absent from the map.
	DistanceMatrix(ctx context.Context, origin domain.Coordinates, placeIDs []string) (map[string]DistanceResult, error)
}
