package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/platform/retry"
	"nicu-finder/internal/ports"
)

const DefaultRadiusMiles = 60.0

// Options selects the sources and steps a Pipeline runs.
type Options struct {
	UseLiveSearch     bool
	UseCuratedDataset bool
	// Fetch place details for every request, not only when asked.
	IncludeDetails bool
	ProbeWebsites  bool
	// Requested radii above MaxRadius are clamped; zero disables the cap.
	MaxRadius     float64
	DefaultRadius float64
}

// Dependencies are the adapters a Pipeline is built from. Nil providers
// disable the steps that need them.
type Dependencies struct {
	PrimaryGeocoder  ports.Geocoder
	FallbackGeocoder ports.Geocoder
	Places           ports.PlacesProvider
	Distances        ports.DistanceMatrixProvider
	Facilities       []domain.CuratedFacility
	Cache            ports.Cache
	Limiter          ports.RateLimiter
	Pages            ports.PageFetcher
	Retry            retry.Policy
}

// Query is one search request.
type Query struct {
	Location string
	// Nil uses the pipeline's default radius.
	RadiusMiles    *float64
	IncludeDetails bool
}

// Pipeline turns a location into a ranked list of nearby NICU candidates.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	geocoder   *Geocoder
	finder     *CandidateFinder
	distances  *DistanceResolver
	classifier *Classifier
	enricher   *Enricher
	opts       Options
	liveReady  bool
}

func NewPipeline(deps Dependencies, opts Options) *Pipeline {
	if opts.DefaultRadius <= 0 {
		opts.DefaultRadius = DefaultRadiusMiles
	}

	catalog := NewCatalog(deps.Facilities)

	enricher := &Enricher{
		Places:      deps.Places,
		Cache:       deps.Cache,
		Limiter:     deps.Limiter,
		Retry:       deps.Retry,
		Concurrency: DefaultEnrichConcurrency,
	}
	if opts.ProbeWebsites {
		enricher.Pages = deps.Pages
	}

	return &Pipeline{
		geocoder: &Geocoder{
			Primary:  deps.PrimaryGeocoder,
			Fallback: deps.FallbackGeocoder,
			Retry:    deps.Retry,
		},
		finder: &CandidateFinder{
			Places:  deps.Places,
			Catalog: catalog,
			Retry:   deps.Retry,
		},
		distances: &DistanceResolver{
			Provider: deps.Distances,
			Cache:    deps.Cache,
			Limiter:  deps.Limiter,
			Retry:    deps.Retry,
		},
		classifier: NewClassifier(catalog),
		enricher:   enricher,
		opts:       opts,
		liveReady:  deps.Places != nil && deps.Distances != nil,
	}
}

// Search runs geocode, discovery, distances, radius filter, classification,
// optional enrichment and ranking, in that order.
func (p *Pipeline) Search(ctx context.Context, q Query) (_ []domain.Candidate, err error) {
	defer obs.Time(ctx, "pipeline.Search")(&err)
	start := time.Now()
	defer func() {
		obs.SearchLatency.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
	}()

	if p.opts.UseLiveSearch && !p.liveReady {
		return nil, fmt.Errorf("search: live search enabled without provider credentials: %w", domain.ErrConfig)
	}
	if !p.opts.UseLiveSearch && !p.opts.UseCuratedDataset {
		return nil, fmt.Errorf("search: no candidate source enabled: %w", domain.ErrConfig)
	}

	location := strings.TrimSpace(q.Location)
	if location == "" {
		return nil, fmt.Errorf("search: location is required: %w", domain.ErrInvalidInput)
	}
	radius, err := p.radius(q.RadiusMiles)
	if err != nil {
		return nil, err
	}

	origin, err := p.geocoder.Geocode(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var candidates []domain.Candidate
	if p.opts.UseLiveSearch {
		live, err := p.finder.FindLive(ctx, origin, radius)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		if err := p.distances.Resolve(ctx, origin.Coordinates, live); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		candidates = append(candidates, live...)
	}
	if p.opts.UseCuratedDataset {
		candidates = append(candidates, p.finder.FindCurated(origin, radius)...)
	}

	inRadius := candidates[:0]
	for _, c := range candidates {
		if c.WithinRadius(radius) {
			inRadius = append(inRadius, c)
		}
	}
	candidates = inRadius

	for i := range candidates {
		c := &candidates[i]
		if c.NICULevel != nil {
			continue
		}
		if lvl, _, ok := p.classifier.Classify(*c, origin.State); ok {
			c.NICULevel = lvl.Ptr()
		}
	}

	if q.IncludeDetails || p.opts.IncludeDetails {
		p.enricher.Enrich(ctx, candidates)
	}

	return Rank(candidates, radius), nil
}

func (p *Pipeline) radius(requested *float64) (float64, error) {
	if requested == nil {
		return p.opts.DefaultRadius, nil
	}

	r := *requested
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return 0, fmt.Errorf("search: %w", domain.ErrInvalidRadius)
	}
	if p.opts.MaxRadius > 0 && r > p.opts.MaxRadius {
		r = p.opts.MaxRadius
	}
	return r, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrConfig):
		return "config"
	default:
		return "error"
	}
}
