package services

import (
	"context"
	"fmt"
	"math"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/platform/retry"
	"nicu-finder/internal/ports"
)

const (
	DefaultKeyword       = "NICU neonatal intensive care"
	DefaultMaxCandidates = 20
	// Nearby search rejects larger radii.
	maxNearbyRadiusMeters = 50000.0
)

// CandidateFinder collects facilities near the origin from the live places
// search and from the curated dataset.
type CandidateFinder struct {
	Places        ports.PlacesProvider
	Catalog       *Catalog
	Keyword       string
	MaxCandidates int
	Retry         retry.Policy
}

// FindLive runs one nearby search and keeps the first MaxCandidates results.
// Distances are attached later by the DistanceResolver.
func (f *CandidateFinder) FindLive(ctx context.Context, origin domain.Location, radiusMiles float64) (_ []domain.Candidate, err error) {
	defer obs.Time(ctx, "finder.FindLive")(&err)

	if f.Places == nil {
		return nil, fmt.Errorf("find live: no places provider: %w", domain.ErrConfig)
	}

	keyword := f.Keyword
	if keyword == "" {
		keyword = DefaultKeyword
	}
	limit := f.MaxCandidates
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	radiusMeters := math.Min(radiusMiles*domain.MetersPerMile, maxNearbyRadiusMeters)

	places, err := retry.Value(ctx, f.Retry, func(ctx context.Context) ([]ports.Place, error) {
		return f.Places.NearbySearch(ctx, origin.Coordinates, radiusMeters, keyword)
	})
	if err != nil {
		return nil, fmt.Errorf("find live: nearby search: %w: %w", domain.ErrProvider, err)
	}

	if len(places) > limit {
		places = places[:limit]
	}

	out := make([]domain.Candidate, 0, len(places))
	for _, p := range places {
		out = append(out, domain.Candidate{
			PlaceID:     p.PlaceID,
			Name:        p.Name,
			Address:     p.Vicinity,
			Coordinates: p.Coordinates,
			Rating:      p.Rating,
			Reviews:     p.Reviews,
			Source:      domain.SourceLive,
		})
	}
	return out, nil
}

// FindCurated returns dataset facilities with coordinates within radiusMiles
// of the origin, with great-circle distance attached, in dataset order.
func (f *CandidateFinder) FindCurated(origin domain.Location, radiusMiles float64) []domain.Candidate {
	out := []domain.Candidate{}
	for _, fac := range f.Catalog.Facilities() {
		if fac.Coordinates == nil {
			continue
		}
		miles := origin.HaversineMiles(*fac.Coordinates)
		if miles > radiusMiles {
			continue
		}

		coords := *fac.Coordinates
		out = append(out, domain.Candidate{
			Name:          fac.Name,
			Coordinates:   &coords,
			Phone:         fac.Phone,
			NICULevel:     fac.NICULevel,
			Beds:          fac.Beds,
			Source:        domain.SourceDatabase,
			Distance:      fmt.Sprintf("%.1f", miles),
			DistanceValue: domain.MilesToMeters(miles),
			County:        fac.County,
			State:         fac.State,
			ReferenceURL:  fac.URL,
		})
	}
	return out
}
