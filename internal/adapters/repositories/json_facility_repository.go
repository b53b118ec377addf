package repositories

import (
	"context"

	"nicu-finder/internal/domain"
)

// File-backed implementation of the FacilityRepository port.
// The dataset is read once on construction and served from memory.
type JSONFacilityRepository struct {
	facilities []domain.CuratedFacility
}

func NewJSONFacilityRepository(path string) (*JSONFacilityRepository, error) {
	records, err := ReadDataset(path)
	if err != nil {
		return nil, err
	}

	facilities := make([]domain.CuratedFacility, 0, len(records))
	for _, r := range records {
		facilities = append(facilities, r.Facility())
	}
	return &JSONFacilityRepository{facilities: facilities}, nil
}

// Return every curated facility in file order.
func (r *JSONFacilityRepository) ListFacilities(context.Context) ([]domain.CuratedFacility, error) {
	out := make([]domain.CuratedFacility, len(r.facilities))
	copy(out, r.facilities)
	return out, nil
}
