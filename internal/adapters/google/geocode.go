package google

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/ports"
)

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress  string             `json:"formatted_address"`
		AddressComponents []addressComponent `json:"address_components"`
		Geometry          struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves free text or a postal code to the first matching location.
func (c *Client) Geocode(ctx context.Context, query string) (_ domain.Location, err error) {
	defer obs.Time(ctx, "google.Geocode")(&err)

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Location{}, fmt.Errorf("google geocode: %w", domain.ErrInvalidInput)
	}

	var decoded geocodeResponse
	if err := c.getJSON(ctx, "geocode", "/geocode/json", url.Values{"address": {query}}, &decoded); err != nil {
		return domain.Location{}, fmt.Errorf("google geocode %q: %w", query, err)
	}

	ok, err := checkStatus(decoded.Status, decoded.ErrorMessage)
	if err != nil {
		return domain.Location{}, fmt.Errorf("google geocode %q: %w", query, err)
	}
	if !ok || len(decoded.Results) == 0 {
		return domain.Location{}, ports.ErrNoResults
	}

	first := decoded.Results[0]
	return domain.Location{
		Coordinates: domain.Coordinates{
			Lat: first.Geometry.Location.Lat,
			Lng: first.Geometry.Location.Lng,
		},
		State:            component(first.AddressComponents, "administrative_area_level_1"),
		FormattedAddress: first.FormattedAddress,
	}, nil
}

// component returns the short name of the first component with the given type.
// US states come back as two-letter codes.
func component(components []addressComponent, kind string) string {
	for _, c := range components {
		for _, t := range c.Types {
			if t == kind {
				if c.ShortName != "" {
					return c.ShortName
				}
				return c.LongName
			}
		}
	}
	return ""
}
