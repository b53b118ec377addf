// Package mock provides canned in-process providers for offline runs and tests.
package mock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/ports"
)

// Geocoder answers from a fixed table; any other query returns Default when
// set, otherwise ports.ErrNoResults.
type Geocoder struct {
	Locations map[string]domain.Location
	Default   *domain.Location
	Err       error

	calls atomic.Int64
}

func (g *Geocoder) Geocode(_ context.Context, query string) (domain.Location, error) {
	g.calls.Add(1)
	if g.Err != nil {
		return domain.Location{}, g.Err
	}
	if loc, ok := g.Locations[query]; ok {
		return loc, nil
	}
	if g.Default != nil {
		return *g.Default, nil
	}
	return domain.Location{}, ports.ErrNoResults
}

func (g *Geocoder) Calls() int { return int(g.calls.Load()) }

// Places serves a fixed nearby-search result and per-place details.
type Places struct {
	Nearby     []ports.Place
	Details    map[string]ports.PlaceDetails
	NearbyErr  error
	DetailsErr error

	nearbyCalls  atomic.Int64
	detailsCalls atomic.Int64
}

func (p *Places) NearbySearch(_ context.Context, _ domain.Coordinates, _ float64, _ string) ([]ports.Place, error) {
	p.nearbyCalls.Add(1)
	if p.NearbyErr != nil {
		return nil, p.NearbyErr
	}
	out := make([]ports.Place, len(p.Nearby))
	copy(out, p.Nearby)
	return out, nil
}

func (p *Places) PlaceDetails(_ context.Context, placeID string) (ports.PlaceDetails, error) {
	p.detailsCalls.Add(1)
	if p.DetailsErr != nil {
		return ports.PlaceDetails{}, p.DetailsErr
	}
	d, ok := p.Details[placeID]
	if !ok {
		return ports.PlaceDetails{}, ports.ErrNoResults
	}
	return d, nil
}

func (p *Places) NearbyCalls() int  { return int(p.nearbyCalls.Load()) }
func (p *Places) DetailsCalls() int { return int(p.detailsCalls.Load()) }

// DistanceMatrix returns fixed distances per place id. Unknown ids are
// omitted, as a live provider does for unroutable destinations.
type DistanceMatrix struct {
	Distances map[string]ports.DistanceResult
	Err       error

	mu      sync.Mutex
	batches [][]string
}

func (d *DistanceMatrix) DistanceMatrix(_ context.Context, _ domain.Coordinates, placeIDs []string) (map[string]ports.DistanceResult, error) {
	d.mu.Lock()
	d.batches = append(d.batches, append([]string(nil), placeIDs...))
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	out := make(map[string]ports.DistanceResult, len(placeIDs))
	for _, id := range placeIDs {
		if r, ok := d.Distances[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

// Batches returns the place id lists of every call made so far.
func (d *DistanceMatrix) Batches() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]string(nil), d.batches...)
}

func (d *DistanceMatrix) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.batches)
}

// Pages serves website bodies by URL.
type Pages struct {
	Bodies map[string]string
}

func (p *Pages) FetchText(_ context.Context, url string) (string, error) {
	body, ok := p.Bodies[url]
	if !ok {
		return "", fmt.Errorf("mock page %q not found", url)
	}
	return body, nil
}
