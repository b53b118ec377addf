package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicu-finder/internal/adapters/cache"
	"nicu-finder/internal/adapters/mock"
	"nicu-finder/internal/domain"
	"nicu-finder/internal/ports"
)

func TestEnricherFillsDetails(t *testing.T) {
	places := &mock.Places{Details: map[string]ports.PlaceDetails{
		"a": {
			Phone:        "(555) 010-0001",
			Address:      "1 Full Address Rd, Town, ST",
			Website:      "https://a.example.org",
			OpeningHours: json.RawMessage(`{"open_now":true}`),
		},
		"b": {Phone: "(555) 010-0002", Summary: "Home of a Level III NICU"},
	}}
	e := &Enricher{Places: places, Cache: cache.NewChain(cache.NewMemoryTier()), Retry: noRetry}

	cands := liveCandidates("a", "b", "missing")
	cands[0].Address = "vicinity"
	cands = append(cands, domain.Candidate{Name: "Curated", Source: domain.SourceDatabase})

	e.Enrich(context.Background(), cands)

	require.NotNil(t, cands[0].Phone)
	assert.Equal(t, "(555) 010-0001", *cands[0].Phone)
	assert.Equal(t, "1 Full Address Rd, Town, ST", cands[0].Address)
	require.NotNil(t, cands[0].Website)
	assert.Equal(t, json.RawMessage(`{"open_now":true}`), cands[0].OpeningHours)
	assert.Nil(t, cands[0].NICULevel)

	require.NotNil(t, cands[1].NICULevel)
	assert.Equal(t, domain.LevelIII, *cands[1].NICULevel)

	// A failed item keeps its fields and does not affect the others.
	assert.Nil(t, cands[2].Phone)
	assert.Equal(t, 3, places.DetailsCalls())

	// Details are cached per place.
	e.Enrich(context.Background(), liveCandidates("a", "b"))
	assert.Equal(t, 3, places.DetailsCalls())
}

func TestEnricherQuotaDenialIsPerItem(t *testing.T) {
	places := &mock.Places{Details: map[string]ports.PlaceDetails{"a": {Phone: "1"}}}
	e := &Enricher{Places: places, Limiter: &fakeLimiter{allow: false}, Retry: noRetry}

	cands := liveCandidates("a")
	e.Enrich(context.Background(), cands)

	assert.Nil(t, cands[0].Phone)
	assert.Equal(t, 0, places.DetailsCalls())
}

func TestEnricherProviderFailureIsSwallowed(t *testing.T) {
	e := &Enricher{Places: &mock.Places{DetailsErr: errors.New("down")}, Retry: noRetry}

	cands := liveCandidates("a", "b")
	e.Enrich(context.Background(), cands)
	assert.Nil(t, cands[0].Phone)
	assert.Nil(t, cands[1].Phone)
}

func TestEnricherWebsiteProbe(t *testing.T) {
	places := &mock.Places{Details: map[string]ports.PlaceDetails{
		"a": {Website: "https://a.example.org"},
		"b": {Website: "https://b.example.org"},
	}}
	pages := &mock.Pages{Bodies: map[string]string{
		"https://a.example.org": "<html><h1>Our Level IV NICU</h1></html>",
	}}
	e := &Enricher{Places: places, Pages: pages, Retry: noRetry}

	cands := liveCandidates("a", "b")
	e.Enrich(context.Background(), cands)

	require.NotNil(t, cands[0].NICULevel)
	assert.Equal(t, domain.LevelIV, *cands[0].NICULevel)
	assert.Nil(t, cands[1].NICULevel)
}

func TestEnricherKeepsKnownLevel(t *testing.T) {
	places := &mock.Places{Details: map[string]ports.PlaceDetails{"a": {Summary: "Level I nursery"}}}
	e := &Enricher{Places: places, Retry: noRetry}

	cands := liveCandidates("a")
	cands[0].NICULevel = domain.LevelIII.Ptr()
	e.Enrich(context.Background(), cands)
	assert.Equal(t, domain.LevelIII, *cands[0].NICULevel)
}
