package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/platform/retry"
	"nicu-finder/internal/platform/workerpool"
	"nicu-finder/internal/ports"
)

const DefaultEnrichConcurrency = 4

var errDetailsQuota = errors.New("place details quota exhausted")

// Enricher fills contact details on live candidates. It is best effort:
// a failure leaves that candidate's fields as they were.
type Enricher struct {
	Places  ports.PlacesProvider
	Cache   ports.Cache
	Limiter ports.RateLimiter
	// Pages enables the website probe when set.
	Pages       ports.PageFetcher
	Retry       retry.Policy
	Concurrency int
}

type enrichment struct {
	details ports.PlaceDetails
	level   *domain.NICULevel
}

// Enrich updates candidates in place and returns once every lookup has
// finished.
func (e *Enricher) Enrich(ctx context.Context, candidates []domain.Candidate) {
	defer obs.Time(ctx, "enricher.Enrich")(nil)

	if e == nil || e.Places == nil {
		return
	}

	idx := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if c.Source == domain.SourceLive && c.PlaceID != "" {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return
	}

	limit := e.Concurrency
	if limit <= 0 {
		limit = DefaultEnrichConcurrency
	}

	results := workerpool.Run(ctx, idx, limit, func(ctx context.Context, i int) (enrichment, error) {
		return e.enrichOne(ctx, candidates[i])
	})

	failed := 0
	for n, r := range results {
		c := &candidates[idx[n]]
		if !r.OK() {
			failed++
			slog.DebugContext(ctx, "enrichment skipped", "req_id", obs.RequestID(ctx), "place_id", c.PlaceID, "err", r.Err)
			continue
		}
		apply(c, r.Value)
	}
	if failed > 0 {
		slog.InfoContext(ctx, "enrichment incomplete", "req_id", obs.RequestID(ctx), "failed", failed, "total", len(idx))
	}
}

func (e *Enricher) enrichOne(ctx context.Context, c domain.Candidate) (enrichment, error) {
	details, err := e.details(ctx, c.PlaceID)
	if err != nil {
		return enrichment{}, err
	}

	out := enrichment{details: details}
	if c.NICULevel != nil {
		return out, nil
	}

	if lvl, ok := LevelFromText(details.Summary); ok {
		out.level = lvl.Ptr()
		return out, nil
	}

	if e.Pages != nil && details.Website != "" {
		text, err := e.Pages.FetchText(ctx, details.Website)
		if err != nil {
			slog.DebugContext(ctx, "website probe failed", "req_id", obs.RequestID(ctx), "place_id", c.PlaceID, "err", err)
			return out, nil
		}
		if lvl, ok := LevelFromText(text); ok {
			out.level = lvl.Ptr()
		}
	}
	return out, nil
}

// details reads through the cache, then the quota, then the provider.
func (e *Enricher) details(ctx context.Context, placeID string) (ports.PlaceDetails, error) {
	var d ports.PlaceDetails
	if e.Cache != nil && e.Cache.GetJSON(ctx, ports.DetailsCacheClass, placeID, &d) {
		return d, nil
	}

	if e.Limiter != nil && !e.Limiter.Allow(ctx, ports.QuotaPlaceDetails) {
		return ports.PlaceDetails{}, errDetailsQuota
	}

	d, err := retry.Value(ctx, e.Retry, func(ctx context.Context) (ports.PlaceDetails, error) {
		return e.Places.PlaceDetails(ctx, placeID)
	})
	if err != nil {
		return ports.PlaceDetails{}, fmt.Errorf("place details %q: %w", placeID, err)
	}

	if e.Cache != nil {
		e.Cache.SetJSON(ctx, ports.DetailsCacheClass, placeID, d)
	}
	return d, nil
}

func apply(c *domain.Candidate, e enrichment) {
	d := e.details
	if d.Phone != "" {
		phone := d.Phone
		c.Phone = &phone
	}
	if d.Address != "" {
		c.Address = d.Address
	}
	if d.Website != "" {
		website := d.Website
		c.Website = &website
	}
	if len(d.OpeningHours) > 0 {
		c.OpeningHours = d.OpeningHours
	}
	if d.Summary != "" {
		c.Summary = d.Summary
	}
	if c.NICULevel == nil && e.level != nil {
		c.NICULevel = e.level
	}
}
