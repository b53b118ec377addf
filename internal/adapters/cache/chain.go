package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/ports"
)

type Class = ports.CacheClass

var (
	DistanceClass = ports.DistanceCacheClass
	DetailsClass  = ports.DetailsCacheClass
)

func entryKey(c Class, k string) string { return c.Name + "::" + k }

// Chain consults its tiers in order and returns the first hit.
// A hit in a slower tier is copied into the faster tiers in front of it
// with the entry's remaining lifetime, so promotion never extends it.
// Tier failures are logged and count as a miss, so the chain never fails a caller.
type Chain struct {
	tiers []ports.CacheTier
}

// NewChain builds a chain over tiers, fastest first. Nil tiers are skipped.
func NewChain(tiers ...ports.CacheTier) *Chain {
	c := &Chain{}
	for _, t := range tiers {
		if t != nil {
			c.tiers = append(c.tiers, t)
		}
	}
	return c
}

// Tiers returns the tier names in lookup order.
func (c *Chain) Tiers() []string {
	names := make([]string, 0, len(c.tiers))
	for _, t := range c.tiers {
		names = append(names, t.Name())
	}
	return names
}

// Get returns the raw value for key in class.
func (c *Chain) Get(ctx context.Context, class Class, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	k := entryKey(class, key)

	for i, t := range c.tiers {
		v, ttl, ok, err := t.Get(ctx, k)
		if err != nil {
			slog.WarnContext(ctx, "cache tier read failed", "req_id", obs.RequestID(ctx), "tier", t.Name(), "class", class.Name, "err", err)
			obs.CacheLookups.WithLabelValues(t.Name(), class.Name, "error").Inc()
			continue
		}
		if !ok {
			obs.CacheLookups.WithLabelValues(t.Name(), class.Name, "miss").Inc()
			continue
		}

		obs.CacheLookups.WithLabelValues(t.Name(), class.Name, "hit").Inc()
		c.promote(ctx, class, k, v, ttl, c.tiers[:i])
		return v, true
	}

	return nil, false
}

func (c *Chain) promote(ctx context.Context, class Class, key string, value []byte, ttl time.Duration, faster []ports.CacheTier) {
	for _, t := range faster {
		if err := t.Set(ctx, key, value, ttl); err != nil {
			slog.WarnContext(ctx, "cache promotion failed", "req_id", obs.RequestID(ctx), "tier", t.Name(), "class", class.Name, "err", err)
		}
	}
}

// Set writes value through every tier with the class TTL.
func (c *Chain) Set(ctx context.Context, class Class, key string, value []byte) {
	if c == nil {
		return
	}
	k := entryKey(class, key)

	for _, t := range c.tiers {
		if err := t.Set(ctx, k, value, class.TTL); err != nil {
			slog.WarnContext(ctx, "cache tier write failed", "req_id", obs.RequestID(ctx), "tier", t.Name(), "class", class.Name, "err", err)
			continue
		}
		obs.CacheWrites.WithLabelValues(t.Name(), class.Name).Inc()
	}
}

// GetJSON decodes a cached value into v. Undecodable entries are a miss.
func (c *Chain) GetJSON(ctx context.Context, class Class, key string, v any) bool {
	raw, ok := c.Get(ctx, class, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		slog.WarnContext(ctx, "cache entry undecodable", "req_id", obs.RequestID(ctx), "class", class.Name, "err", err)
		return false
	}
	return true
}

// SetJSON encodes v and writes it through every tier.
func (c *Chain) SetJSON(ctx context.Context, class Class, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "cache entry unencodable", "req_id", obs.RequestID(ctx), "class", class.Name, "err", err)
		return
	}
	c.Set(ctx, class, key, raw)
}
