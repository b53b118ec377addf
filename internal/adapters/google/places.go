package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/ports"
)

// Fields requested from Place Details; each one is billed.
const detailFields = "formatted_phone_number,formatted_address,opening_hours,website,editorial_summary"

type nearbyResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID  string   `json:"place_id"`
		Name     string   `json:"name"`
		Vicinity string   `json:"vicinity"`
		Rating   *float64 `json:"rating"`
		Reviews  *int     `json:"user_ratings_total"`
		Geometry struct {
			Location *struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NearbySearch lists hospitals around origin matching keyword.
func (c *Client) NearbySearch(
	ctx context.Context,
	origin domain.Coordinates,
	radiusMeters float64,
	keyword string,
) (_ []ports.Place, err error) {
	defer obs.Time(ctx, "google.NearbySearch")(&err)

	params := url.Values{
		"location": {latLng(origin)},
		"radius":   {strconv.FormatFloat(radiusMeters, 'f', 0, 64)},
		"type":     {"hospital"},
	}
	if keyword != "" {
		params.Set("keyword", keyword)
	}

	var decoded nearbyResponse
	if err := c.getJSON(ctx, "nearbysearch", "/place/nearbysearch/json", params, &decoded); err != nil {
		return nil, fmt.Errorf("google nearby search: %w", err)
	}

	ok, err := checkStatus(decoded.Status, decoded.ErrorMessage)
	if err != nil {
		return nil, fmt.Errorf("google nearby search: %w", err)
	}
	if !ok {
		return []ports.Place{}, nil
	}

	out := make([]ports.Place, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		p := ports.Place{
			PlaceID:  r.PlaceID,
			Name:     r.Name,
			Vicinity: r.Vicinity,
			Rating:   r.Rating,
			Reviews:  r.Reviews,
		}
		if loc := r.Geometry.Location; loc != nil {
			p.Coordinates = &domain.Coordinates{Lat: loc.Lat, Lng: loc.Lng}
		}
		out = append(out, p)
	}
	return out, nil
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Phone            string          `json:"formatted_phone_number"`
		Address          string          `json:"formatted_address"`
		Website          string          `json:"website"`
		OpeningHours     json.RawMessage `json:"opening_hours"`
		EditorialSummary struct {
			Overview string `json:"overview"`
		} `json:"editorial_summary"`
	} `json:"result"`
}

// PlaceDetails fetches contact fields for a single place.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (_ ports.PlaceDetails, err error) {
	defer obs.Time(ctx, "google.PlaceDetails")(&err)

	params := url.Values{
		"place_id": {placeID},
		"fields":   {detailFields},
	}

	var decoded detailsResponse
	if err := c.getJSON(ctx, "placedetails", "/place/details/json", params, &decoded); err != nil {
		return ports.PlaceDetails{}, fmt.Errorf("google place details %q: %w", placeID, err)
	}

	ok, err := checkStatus(decoded.Status, decoded.ErrorMessage)
	if err != nil {
		return ports.PlaceDetails{}, fmt.Errorf("google place details %q: %w", placeID, err)
	}
	if !ok {
		return ports.PlaceDetails{}, ports.ErrNoResults
	}

	r := decoded.Result
	return ports.PlaceDetails{
		Phone:        r.Phone,
		Address:      r.Address,
		Website:      r.Website,
		Summary:      r.EditorialSummary.Overview,
		OpeningHours: r.OpeningHours,
	}, nil
}

func latLng(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
