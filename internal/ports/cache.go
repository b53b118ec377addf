package ports

import (
	"context"
	"time"
)

// One backend of the tiered cache.
// A zero ttl stores the value without expiry.
type CacheTier interface {
	Name() string
	// Return the value and its remaining lifetime on a hit; zero means no
	// expiry. Expired entries are a miss.
	Get(ctx context.Context, key string) (value []byte, ttl time.Duration, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// A family of cache entries sharing a key namespace and a TTL.
type CacheClass struct {
	Name string
	TTL  time.Duration
}

var (
	// Batched distance matrix rows keyed by origin and destination list.
	DistanceCacheClass = CacheClass{Name: "dist", TTL: time.Hour}
	// Place details keyed by place id.
	DetailsCacheClass = CacheClass{Name: "place", TTL: 24 * time.Hour}
)

// Contract for the tiered read-through cache used by the pipeline.
// Implementations fail open: store errors surface as misses and dropped writes.
type Cache interface {
	// Decode the entry into v and report whether it was found.
	GetJSON(ctx context.Context, class CacheClass, key string, v any) bool
	SetJSON(ctx context.Context, class CacheClass, key string, v any)
}
