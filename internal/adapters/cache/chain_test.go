package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fmtInt(n int64) string { return strconv.FormatInt(n, 10) }

// recordingTier wraps a MemoryTier and counts calls; failing tiers return errors.
type recordingTier struct {
	name  string
	inner *MemoryTier
	fail  bool
	gets  int
	sets  int
}

func newRecordingTier(name string) *recordingTier {
	return &recordingTier{name: name, inner: NewMemoryTier()}
}

func (r *recordingTier) Name() string { return r.name }

func (r *recordingTier) Get(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	r.gets++
	if r.fail {
		return nil, 0, false, errors.New("tier down")
	}
	return r.inner.Get(ctx, key)
}

func (r *recordingTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.sets++
	if r.fail {
		return errors.New("tier down")
	}
	return r.inner.Set(ctx, key, value, ttl)
}

func TestChainConsultsTiersInOrder(t *testing.T) {
	ctx := context.Background()
	mem, shared, disk := newRecordingTier("memory"), newRecordingTier("redis"), newRecordingTier("disk")
	chain := NewChain(mem, shared, disk)

	assert.Equal(t, []string{"memory", "redis", "disk"}, chain.Tiers())

	_, ok := chain.Get(ctx, DistanceClass, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, mem.gets)
	assert.Equal(t, 1, shared.gets)
	assert.Equal(t, 1, disk.gets)

	require.NoError(t, mem.inner.Set(ctx, "dist::k", []byte(`1`), time.Minute))
	_, ok = chain.Get(ctx, DistanceClass, "k")
	assert.True(t, ok)
	assert.Equal(t, 2, mem.gets)
	assert.Equal(t, 1, shared.gets, "lower tiers must not be read after a hit")
}

func TestChainPromotesLowerTierHits(t *testing.T) {
	ctx := context.Background()
	mem, shared, disk := newRecordingTier("memory"), newRecordingTier("redis"), newRecordingTier("disk")
	chain := NewChain(mem, shared, disk)

	require.NoError(t, disk.inner.Set(ctx, "place::p1", []byte(`{"phone":"1"}`), 0))

	v, ok := chain.Get(ctx, DetailsClass, "p1")
	require.True(t, ok)
	assert.JSONEq(t, `{"phone":"1"}`, string(v))

	_, _, ok, _ = mem.inner.Get(ctx, "place::p1")
	assert.True(t, ok, "memory should be backfilled")
	_, _, ok, _ = shared.inner.Get(ctx, "place::p1")
	assert.True(t, ok, "shared store should be backfilled")
	assert.Equal(t, 0, disk.sets)
}

func TestChainPromotionKeepsRemainingLifetime(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	mem, disk := newRecordingTier("memory"), newRecordingTier("disk")
	mem.inner.now = clock.now
	disk.inner.now = clock.now
	chain := NewChain(mem, disk)

	require.NoError(t, disk.inner.Set(ctx, "dist::k", []byte(`1`), time.Hour))
	clock.advance(59 * time.Minute)

	_, ok := chain.Get(ctx, DistanceClass, "k")
	require.True(t, ok)
	_, ttl, ok, _ := mem.inner.Get(ctx, "dist::k")
	require.True(t, ok)
	assert.Equal(t, time.Minute, ttl)

	clock.advance(2 * time.Minute)
	_, ok = chain.Get(ctx, DistanceClass, "k")
	assert.False(t, ok, "promoted copy must expire with the original")
}

func TestChainSetWritesEveryTier(t *testing.T) {
	ctx := context.Background()
	mem, shared := newRecordingTier("memory"), newRecordingTier("redis")
	chain := NewChain(mem, nil, shared)

	chain.SetJSON(ctx, DistanceClass, "k", map[string]int{"a": 1})

	assert.Equal(t, 1, mem.sets)
	assert.Equal(t, 1, shared.sets)

	var got map[string]int
	require.True(t, chain.GetJSON(ctx, DistanceClass, "k", &got))
	assert.Equal(t, map[string]int{"a": 1}, got)
}

func TestChainFailsOpen(t *testing.T) {
	ctx := context.Background()
	broken := newRecordingTier("redis")
	broken.fail = true
	mem := newRecordingTier("memory")
	chain := NewChain(broken, mem)

	chain.Set(ctx, DetailsClass, "k", []byte(`"x"`))
	v, ok := chain.Get(ctx, DetailsClass, "k")
	require.True(t, ok)
	assert.Equal(t, `"x"`, string(v))
}

func TestChainTTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	mem := NewMemoryTier()
	mem.now = clock.now
	chain := NewChain(mem)

	chain.Set(ctx, DistanceClass, "k", []byte(`1`))

	clock.advance(DistanceClass.TTL - time.Second)
	_, ok := chain.Get(ctx, DistanceClass, "k")
	assert.True(t, ok)

	clock.advance(2 * time.Second)
	_, ok = chain.Get(ctx, DistanceClass, "k")
	assert.False(t, ok)
}

func TestChainUndecodableEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	chain := NewChain(NewMemoryTier())
	chain.Set(ctx, DetailsClass, "k", []byte(`"string"`))

	var v struct{ Phone string }
	assert.False(t, chain.GetJSON(ctx, DetailsClass, "k", &v))
}

func TestNilChainIsAlwaysMiss(t *testing.T) {
	var chain *Chain
	_, ok := chain.Get(context.Background(), DistanceClass, "k")
	assert.False(t, ok)
	chain.Set(context.Background(), DistanceClass, "k", []byte(`1`))
}
