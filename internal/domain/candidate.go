package domain

// Where a Candidate was discovered.
type Source string

const (
	SourceLive     Source = "live"
	SourceDatabase Source = "database"
)

// Candidate is a facility under consideration for the result set.
// It is built per request, progressively filled by the pipeline stages,
// and discarded once the response is written.
//
// DistanceValue (meters) is the only sort key; Distance is its display form
// in miles without the unit suffix.
type Candidate struct {
	PlaceID      string
	Name         string
	Address      string
	Summary      string
	Coordinates  *Coordinates
	Rating       *float64
	Reviews      *int
	Phone        *string
	Website      *string
	OpeningHours any
	NICULevel    *NICULevel
	Beds         *int
	Source       Source

	Distance      string
	DistanceValue int

	County       string
	State        string
	ReferenceURL string
	// Set when a live record was merged with a curated dataset entry.
	CuratedMatch bool
}

// HasNICU reports whether the facility is known to operate a NICU.
func (c *Candidate) HasNICU() bool {
	return c.NICULevel != nil || c.Source == SourceDatabase || c.CuratedMatch
}

// WithinRadius reports whether the candidate's measured distance is inside radius miles.
// DistanceValue is rounded to whole meters, so the limit allows half a meter.
func (c *Candidate) WithinRadius(radiusMiles float64) bool {
	return float64(c.DistanceValue) <= radiusMiles*MetersPerMile+0.5
}
