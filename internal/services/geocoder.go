package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/platform/retry"
	"nicu-finder/internal/ports"
)

var postalCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Geocoder resolves a search location with a primary provider and falls
// back to a second one on error or empty answer.
type Geocoder struct {
	Primary  ports.Geocoder
	Fallback ports.Geocoder
	Retry    retry.Policy
}

// Geocode returns domain.ErrNotFound when no provider matched and
// domain.ErrProvider when every provider that was tried failed.
func (g *Geocoder) Geocode(ctx context.Context, query string) (_ domain.Location, err error) {
	defer obs.Time(ctx, "geocoder.Geocode")(&err)

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Location{}, fmt.Errorf("geocode: empty location: %w", domain.ErrInvalidInput)
	}

	type attempt struct {
		name     string
		provider ports.Geocoder
		query    string
	}
	attempts := []attempt{
		{"primary", g.Primary, query},
		{"fallback", g.Fallback, fallbackQuery(query)},
	}

	tried, failed := 0, 0
	var lastErr error
	for _, a := range attempts {
		if a.provider == nil {
			continue
		}
		tried++

		loc, err := retry.Value(ctx, g.Retry, func(ctx context.Context) (domain.Location, error) {
			return a.provider.Geocode(ctx, a.query)
		})
		if err == nil {
			return loc, nil
		}
		if errors.Is(err, ports.ErrNoResults) {
			slog.DebugContext(ctx, "geocoder returned no match", "req_id", obs.RequestID(ctx), "provider", a.name)
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Location{}, fmt.Errorf("geocode: %w", ctxErr)
		}

		failed++
		lastErr = err
		slog.WarnContext(ctx, "geocoder failed", "req_id", obs.RequestID(ctx), "provider", a.name, "err", err)
	}

	switch {
	case tried == 0:
		return domain.Location{}, fmt.Errorf("geocode: no geocoder configured: %w", domain.ErrConfig)
	case failed == tried:
		return domain.Location{}, fmt.Errorf("geocode %q: %w: %w", query, domain.ErrProvider, lastErr)
	default:
		return domain.Location{}, fmt.Errorf("geocode %q: %w", query, domain.ErrNotFound)
	}
}

// fallbackQuery qualifies a bare US postal code so the fallback does not
// match the same digits abroad.
func fallbackQuery(query string) string {
	if postalCodePattern.MatchString(query) {
		return query + ", USA"
	}
	return query
}
