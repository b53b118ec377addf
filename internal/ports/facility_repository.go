package ports

import (
	"context"

	"nicu-finder/internal/domain"
)

// Port: a boundary for retrieving the curated NICU dataset.
type FacilityRepository interface {
	// Retrieve every curated facility.
	ListFacilities(ctx context.Context) ([]domain.CuratedFacility, error)
}
