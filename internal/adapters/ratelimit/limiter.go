// Package ratelimit bounds outbound provider calls per quota class in fixed
// one-minute windows.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"nicu-finder/internal/platform/obs"
)

const (
	window    = time.Minute
	keyExpiry = 61 * time.Second
)

// Counter increments a windowed counter and returns the new value.
// The first increment of a key must arm its expiry.
type Counter interface {
	Incr(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// QuotaLimiter allows at most Limit calls per class per minute.
// A zero Limit disables limiting. Counter failures allow the call.
type QuotaLimiter struct {
	counter Counter
	limit   int64
	now     func() time.Time
}

func NewQuotaLimiter(counter Counter, limitPerMinute int) *QuotaLimiter {
	return &QuotaLimiter{
		counter: counter,
		limit:   int64(limitPerMinute),
		now:     time.Now,
	}
}

func windowKey(class string, t time.Time) string {
	return fmt.Sprintf("quota:google:%s:%d", class, t.Unix()/int64(window/time.Second))
}

// Allow consumes one unit of the class quota for the current window.
func (l *QuotaLimiter) Allow(ctx context.Context, class string) bool {
	if l == nil || l.counter == nil {
		return true
	}

	count, err := l.counter.Incr(ctx, windowKey(class, l.now()), keyExpiry)
	if err != nil {
		slog.WarnContext(ctx, "quota counter unavailable, allowing call", "req_id", obs.RequestID(ctx), "class", class, "err", err)
		return true
	}

	if l.limit > 0 && count > l.limit {
		obs.QuotaDenials.WithLabelValues(class).Inc()
		slog.WarnContext(ctx, "quota exceeded", "req_id", obs.RequestID(ctx), "class", class, "count", count, "limit", l.limit)
		return false
	}
	return true
}

// RedisCounter keeps quota counters in the shared store so every instance
// draws from the same budget.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr bumps the window counter and sets its expiry in one transaction.
// EXPIRE NX only applies to a key without a TTL, so later increments never
// extend the window and a key that lost its TTL gets one back.
func (r *RedisCounter) Incr(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, expiry)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis quota incr %q: %w", key, err)
	}
	return incr.Val(), nil
}

type memoryCount struct {
	n      int64
	expiry time.Time
}

// MemoryCounter is a process-local Counter for single-instance deployments.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]memoryCount
	now    func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		counts: make(map[string]memoryCount),
		now:    time.Now,
	}
}

func (m *MemoryCounter) Incr(_ context.Context, key string, expiry time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, c := range m.counts {
		if now.After(c.expiry) {
			delete(m.counts, k)
		}
	}

	c := m.counts[key]
	if c.n == 0 {
		c.expiry = now.Add(expiry)
	}
	c.n++
	m.counts[key] = c

	return c.n, nil
}
