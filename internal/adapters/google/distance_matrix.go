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

// The distance matrix accepts at most 25 destinations per origin.
const maxMatrixDestinations = 25

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance *struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// DistanceMatrix retrieves driving distances from origin to every place in a
// single request. Places the service could not route are absent from the result.
func (c *Client) DistanceMatrix(
	ctx context.Context,
	origin domain.Coordinates,
	placeIDs []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "google.DistanceMatrix")(&err)

	if len(placeIDs) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}
	if len(placeIDs) > maxMatrixDestinations {
		return nil, fmt.Errorf("google distance matrix: %d destinations exceeds %d", len(placeIDs), maxMatrixDestinations)
	}

	destinations := make([]string, len(placeIDs))
	for i, id := range placeIDs {
		destinations[i] = "place_id:" + id
	}

	params := url.Values{
		"origins":      {latLng(origin)},
		"destinations": {strings.Join(destinations, "|")},
		"units":        {"imperial"},
	}

	var decoded matrixResponse
	if err := c.getJSON(ctx, "distancematrix", "/distancematrix/json", params, &decoded); err != nil {
		return nil, fmt.Errorf("google distance matrix: %w", err)
	}

	if _, err := checkStatus(decoded.Status, decoded.ErrorMessage); err != nil {
		return nil, fmt.Errorf("google distance matrix: %w", err)
	}

	out := make(map[string]ports.DistanceResult, len(placeIDs))
	if len(decoded.Rows) == 0 {
		return out, nil
	}

	elements := decoded.Rows[0].Elements
	for i, id := range placeIDs {
		if i >= len(elements) {
			break
		}
		el := elements[i]
		if el.Status != "OK" || el.Distance == nil {
			continue
		}
		out[id] = ports.DistanceResult{
			DistanceMeters: el.Distance.Value,
			Text:           el.Distance.Text,
		}
	}
	return out, nil
}
