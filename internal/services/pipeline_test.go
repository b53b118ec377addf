package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicu-finder/internal/adapters/cache"
	"nicu-finder/internal/adapters/mock"
	"nicu-finder/internal/domain"
	"nicu-finder/internal/ports"
)

type pipelineFixture struct {
	geocoder  *mock.Geocoder
	places    *mock.Places
	distances *mock.DistanceMatrix
	limiter   *fakeLimiter
}

func newFixture() *pipelineFixture {
	origin := domain.Location{Coordinates: domain.Coordinates{Lat: 40.0, Lng: -73.0}, State: "NY"}
	return &pipelineFixture{
		geocoder: &mock.Geocoder{Locations: map[string]domain.Location{"10001": origin}},
		places: &mock.Places{
			Nearby: []ports.Place{{PlaceID: "p1", Name: "Mock NICU Hospital A", Vicinity: "123 Mock St"}},
			Details: map[string]ports.PlaceDetails{
				"p1": {Phone: "555-0101"},
			},
		},
		distances: &mock.DistanceMatrix{Distances: map[string]ports.DistanceResult{
			"p1": {DistanceMeters: 1931, Text: "1.2 mi"},
		}},
		limiter: &fakeLimiter{allow: true},
	}
}

func (f *pipelineFixture) pipeline(opts Options, facilities ...domain.CuratedFacility) *Pipeline {
	return NewPipeline(Dependencies{
		PrimaryGeocoder: f.geocoder,
		Places:          f.places,
		Distances:       f.distances,
		Facilities:      facilities,
		Cache:           cache.NewChain(cache.NewMemoryTier()),
		Limiter:         f.limiter,
		Retry:           noRetry,
	}, opts)
}

var liveOnly = Options{UseLiveSearch: true, MaxRadius: 200}

func TestSearchSingleLiveCandidate(t *testing.T) {
	f := newFixture()
	p := f.pipeline(liveOnly)

	got, err := p.Search(context.Background(), Query{Location: "10001", RadiusMiles: ptr(20.0)})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "1.2", got[0].Distance)
	assert.Equal(t, 1931, got[0].DistanceValue)
	assert.Equal(t, "p1", got[0].PlaceID)
	assert.Nil(t, got[0].Phone, "details are only fetched on request")
	assert.Equal(t, 0, f.places.DetailsCalls())
}

func TestSearchWithDetails(t *testing.T) {
	f := newFixture()
	p := f.pipeline(liveOnly)

	got, err := p.Search(context.Background(), Query{Location: "10001", IncludeDetails: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Phone)
	assert.Equal(t, "555-0101", *got[0].Phone)
}

func TestSearchRateLimitedMakesNoDistanceCall(t *testing.T) {
	f := newFixture()
	f.limiter.allow = false
	p := f.pipeline(liveOnly)

	_, err := p.Search(context.Background(), Query{Location: "10001"})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 0, f.distances.Calls())
}

func TestSearchInputAndConfigErrors(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline(liveOnly).Search(context.Background(), Query{Location: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.pipeline(liveOnly).Search(context.Background(), Query{Location: "10001", RadiusMiles: ptr(-5.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidRadius)

	_, err = f.pipeline(liveOnly).Search(context.Background(), Query{Location: "nowhere"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	noCreds := NewPipeline(Dependencies{PrimaryGeocoder: f.geocoder, Retry: noRetry}, liveOnly)
	_, err = noCreds.Search(context.Background(), Query{})
	assert.ErrorIs(t, err, domain.ErrConfig, "configuration is checked before input")

	_, err = f.pipeline(Options{}).Search(context.Background(), Query{Location: "10001"})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestSearchHybridDeduplicatesAndRanks(t *testing.T) {
	f := newFixture()
	f.places.Nearby = []ports.Place{
		{PlaceID: "p1", Name: "Mount Sinai Hospital"},
		{PlaceID: "p2", Name: "Springfield General"},
	}
	f.distances.Distances = map[string]ports.DistanceResult{
		"p1": {DistanceMeters: 12000, Text: "7.5 mi"},
		"p2": {DistanceMeters: 3000, Text: "1.9 mi"},
	}

	p := f.pipeline(Options{UseLiveSearch: true, UseCuratedDataset: true},
		facility("Mount Sinai Hospital", "NY", domain.LevelIII, 40.05, -73.0),
		facility("Bellevue Hospital Center", "NY", domain.LevelIII, 40.02, -73.0),
		facility("Faraway Medical Center", "CA", domain.LevelII, 34.0, -118.0),
	)

	got, err := p.Search(context.Background(), Query{Location: "10001", RadiusMiles: ptr(30.0)})
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Bellevue Hospital Center", "Springfield General", "Mount Sinai Hospital"}, names)

	bellevue := got[0]
	assert.Equal(t, domain.SourceDatabase, bellevue.Source)
	assert.Equal(t, "1.4", bellevue.Distance)

	sinai := got[2]
	assert.Equal(t, domain.SourceLive, sinai.Source)
	assert.True(t, sinai.CuratedMatch)
	assert.Equal(t, domain.LevelIII, *sinai.NICULevel)
	assert.True(t, sinai.HasNICU())

	assert.Nil(t, got[1].NICULevel)
	assert.False(t, got[1].HasNICU())

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceValue, got[i].DistanceValue)
	}
}

func TestSearchCuratedOnlyNeedsNoPlacesProvider(t *testing.T) {
	f := newFixture()
	p := NewPipeline(Dependencies{
		PrimaryGeocoder: f.geocoder,
		Facilities: []domain.CuratedFacility{
			facility("Near Hospital", "NY", domain.LevelIV, 40.01, -73.0),
			{Name: "No Coordinates", State: "NY"},
		},
		Retry: noRetry,
	}, Options{UseCuratedDataset: true, MaxRadius: 10})

	got, err := p.Search(context.Background(), Query{Location: "10001", RadiusMiles: ptr(500.0)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Near Hospital", got[0].Name)
	assert.Equal(t, "0.7", got[0].Distance)
}

func TestSearchDropsCandidatesOutsideRadius(t *testing.T) {
	f := newFixture()
	f.distances.Distances["p1"] = ports.DistanceResult{DistanceMeters: 50000, Text: "31.1 mi"}

	got, err := f.pipeline(liveOnly).Search(context.Background(), Query{Location: "10001", RadiusMiles: ptr(20.0)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchCapsLiveCandidates(t *testing.T) {
	f := newFixture()
	f.places.Nearby = nil
	f.distances.Distances = map[string]ports.DistanceResult{}
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("p%02d", i)
		f.places.Nearby = append(f.places.Nearby, ports.Place{PlaceID: id, Name: fmt.Sprintf("Hospital %02d", i)})
		f.distances.Distances[id] = ports.DistanceResult{DistanceMeters: 1000 + i, Text: "0.6 mi"}
	}

	got, err := f.pipeline(liveOnly).Search(context.Background(), Query{Location: "10001"})
	require.NoError(t, err)
	require.Len(t, got, DefaultMaxCandidates)
	for i, c := range got {
		assert.Equal(t, fmt.Sprintf("p%02d", i), c.PlaceID, "discovery order")
	}

	batches := f.distances.Batches()
	require.Len(t, batches, 1, "one batched distance call")
	assert.Len(t, batches[0], DefaultMaxCandidates)
	assert.NotContains(t, batches[0], "p20")
}

func TestSearchKeepsCuratedEntryOnRadiusBoundary(t *testing.T) {
	f := newFixture()
	near := facility("Boundary Hospital", "NY", domain.LevelII, 40.1234567, -73.0)
	radius := domain.Coordinates{Lat: 40.0, Lng: -73.0}.HaversineMiles(*near.Coordinates)

	p := NewPipeline(Dependencies{
		PrimaryGeocoder: f.geocoder,
		Facilities:      []domain.CuratedFacility{near},
		Retry:           noRetry,
	}, Options{UseCuratedDataset: true})

	got, err := p.Search(context.Background(), Query{Location: "10001", RadiusMiles: ptr(radius)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Boundary Hospital", got[0].Name)
}
