package ports

// Travel distance from the search origin to one destination.
// Text is the provider's display string (e.g. "1.2 mi").
type DistanceResult struct {
	DistanceMeters int    `json:"meters"`
	Text           string `json:"text"`
}
