package domain

// Entry of the curated NICU reference dataset.
// The set is loaded once at startup and is read-only afterwards.
type CuratedFacility struct {
	Name        string
	State       string
	County      string
	NICULevel   *NICULevel
	Beds        *int
	URL         string
	Coordinates *Coordinates
	Phone       *string
}
