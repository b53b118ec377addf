package ports

import "context"

// Quota classes tracked per minute.
const (
	QuotaDistanceMatrix = "distancematrix"
	QuotaPlaceDetails   = "placedetails"
)

// Contract for per-class outbound call quotas.
// Implementations fail open: an unavailable counter store allows the call.
type RateLimiter interface {
	Allow(ctx context.Context, class string) bool
}
