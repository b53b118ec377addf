package dto

import "nicu-finder/internal/domain"

type SearchResult struct {
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	Distance      string   `json:"distance"`
	DistanceValue int      `json:"distanceValue"`
	Rating        *float64 `json:"rating"`
	Reviews       *int     `json:"reviews"`
	PlaceID       *string  `json:"placeId"`
	Phone         *string  `json:"phone"`
	Website       *string  `json:"website"`
	OpeningHours  any      `json:"openingHours"`
	NICULevel     *string  `json:"nicuLevel"`
	Beds          *int     `json:"beds"`
	HasNICU       bool     `json:"hasNicU"`
	Source        string   `json:"source"`
	County        *string  `json:"county"`
	State         *string  `json:"state"`
	ReferenceURL  *string  `json:"referenceUrl"`
	CuratedMatch  bool     `json:"curatedMatch"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewSearchResponse maps ranked candidates onto the wire shape.
// Empty strings become null so clients can test for presence.
func NewSearchResponse(candidates []domain.Candidate) SearchResponse {
	out := SearchResponse{Results: make([]SearchResult, 0, len(candidates))}
	for i := range candidates {
		c := &candidates[i]

		var level *string
		if c.NICULevel != nil {
			s := string(*c.NICULevel)
			level = &s
		}

		out.Results = append(out.Results, SearchResult{
			Name:          c.Name,
			Address:       c.Address,
			Distance:      c.Distance,
			DistanceValue: c.DistanceValue,
			Rating:        c.Rating,
			Reviews:       c.Reviews,
			PlaceID:       optional(c.PlaceID),
			Phone:         c.Phone,
			Website:       c.Website,
			OpeningHours:  c.OpeningHours,
			NICULevel:     level,
			Beds:          c.Beds,
			HasNICU:       c.HasNICU(),
			Source:        string(c.Source),
			County:        optional(c.County),
			State:         optional(c.State),
			ReferenceURL:  optional(c.ReferenceURL),
			CuratedMatch:  c.CuratedMatch,
		})
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
