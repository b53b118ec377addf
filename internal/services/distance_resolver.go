package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/platform/retry"
	"nicu-finder/internal/ports"
)

const unknownDistance = "N/A"

// DistanceResolver attaches travel distances to live candidates with one
// batched provider call per origin and destination set.
type DistanceResolver struct {
	Provider ports.DistanceMatrixProvider
	Cache    ports.Cache
	Limiter  ports.RateLimiter
	Retry    retry.Policy
}

// distanceCacheKey identifies a matrix row by origin and destination set;
// destination order does not matter.
func distanceCacheKey(origin domain.Coordinates, placeIDs []string) string {
	return strconv.FormatFloat(origin.Lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(origin.Lng, 'f', -1, 64) + "::" +
		strings.Join(placeIDs, "|")
}

// Resolve fills Distance and DistanceValue on every live candidate in place.
// Curated candidates already carry a distance and are left alone.
// A quota denial fails with domain.ErrRateLimited before any outbound call.
func (d *DistanceResolver) Resolve(ctx context.Context, origin domain.Coordinates, candidates []domain.Candidate) (err error) {
	defer obs.Time(ctx, "distances.Resolve")(&err)

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Source != domain.SourceLive || c.PlaceID == "" {
			continue
		}
		if _, ok := seen[c.PlaceID]; ok {
			continue
		}
		seen[c.PlaceID] = struct{}{}
		ids = append(ids, c.PlaceID)
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	rows, err := d.lookup(ctx, origin, ids)
	if err != nil {
		return err
	}

	for i := range candidates {
		c := &candidates[i]
		if c.Source != domain.SourceLive {
			continue
		}
		r, ok := rows[c.PlaceID]
		if !ok {
			c.Distance = unknownDistance
			c.DistanceValue = 0
			continue
		}
		c.DistanceValue = r.DistanceMeters
		c.Distance = displayMiles(r)
	}
	return nil
}

func (d *DistanceResolver) lookup(ctx context.Context, origin domain.Coordinates, ids []string) (map[string]ports.DistanceResult, error) {
	key := distanceCacheKey(origin, ids)

	var rows map[string]ports.DistanceResult
	if d.Cache != nil && d.Cache.GetJSON(ctx, ports.DistanceCacheClass, key, &rows) {
		return rows, nil
	}

	if d.Provider == nil {
		return nil, fmt.Errorf("resolve distances: no distance provider: %w", domain.ErrConfig)
	}
	if d.Limiter != nil && !d.Limiter.Allow(ctx, ports.QuotaDistanceMatrix) {
		return nil, fmt.Errorf("resolve distances: %w", domain.ErrRateLimited)
	}

	rows, err := retry.Value(ctx, d.Retry, func(ctx context.Context) (map[string]ports.DistanceResult, error) {
		return d.Provider.DistanceMatrix(ctx, origin, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("resolve distances: %w: %w", domain.ErrProvider, err)
	}
	if rows == nil {
		rows = map[string]ports.DistanceResult{}
	}

	if d.Cache != nil {
		d.Cache.SetJSON(ctx, ports.DistanceCacheClass, key, rows)
	}
	slog.DebugContext(ctx, "distance matrix fetched", "req_id", obs.RequestID(ctx), "destinations", len(ids), "routed", len(rows))
	return rows, nil
}

// displayMiles strips the " mi" suffix from the provider text. Other units
// ("ft", "km") are replaced by miles computed from the meter value.
func displayMiles(r ports.DistanceResult) string {
	text := strings.TrimSpace(r.Text)
	if v, ok := strings.CutSuffix(text, " mi"); ok {
		return v
	}
	return fmt.Sprintf("%.1f", domain.MetersToMiles(r.DistanceMeters))
}
