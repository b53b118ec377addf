package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicu-finder/internal/adapters/mock"
	"nicu-finder/internal/domain"
)

var nyc = domain.Location{Coordinates: domain.Coordinates{Lat: 40.75, Lng: -73.99}, State: "NY"}

func TestGeocoderPrimaryWins(t *testing.T) {
	primary := &mock.Geocoder{Locations: map[string]domain.Location{"10001": nyc}}
	fallback := &mock.Geocoder{Default: &domain.Location{}}

	g := &Geocoder{Primary: primary, Fallback: fallback, Retry: noRetry}
	loc, err := g.Geocode(context.Background(), " 10001 ")
	require.NoError(t, err)
	assert.Equal(t, nyc, loc)
	assert.Equal(t, 0, fallback.Calls())
}

func TestGeocoderFallbackQualifiesPostalCodes(t *testing.T) {
	primary := &mock.Geocoder{}
	fallback := &mock.Geocoder{Locations: map[string]domain.Location{"10001-1234, USA": nyc}}

	g := &Geocoder{Primary: primary, Fallback: fallback, Retry: noRetry}
	loc, err := g.Geocode(context.Background(), "10001-1234")
	require.NoError(t, err)
	assert.Equal(t, nyc, loc)
	assert.Equal(t, 1, primary.Calls())
}

func TestFallbackQuery(t *testing.T) {
	assert.Equal(t, "10001, USA", fallbackQuery("10001"))
	assert.Equal(t, "10001-1234, USA", fallbackQuery("10001-1234"))
	assert.Equal(t, "Brooklyn, NY", fallbackQuery("Brooklyn, NY"))
	assert.Equal(t, "1000", fallbackQuery("1000"))
}

func TestGeocoderErrors(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name     string
		primary  *mock.Geocoder
		fallback *mock.Geocoder
		want     error
	}{
		{"both empty", &mock.Geocoder{}, &mock.Geocoder{}, domain.ErrNotFound},
		{"error then empty", &mock.Geocoder{Err: boom}, &mock.Geocoder{}, domain.ErrNotFound},
		{"empty then error", &mock.Geocoder{}, &mock.Geocoder{Err: boom}, domain.ErrNotFound},
		{"both error", &mock.Geocoder{Err: boom}, &mock.Geocoder{Err: boom}, domain.ErrProvider},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := &Geocoder{Primary: tc.primary, Fallback: tc.fallback, Retry: noRetry}
			_, err := g.Geocode(context.Background(), "somewhere")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGeocoderRejectsBlankInput(t *testing.T) {
	g := &Geocoder{Primary: &mock.Geocoder{}, Retry: noRetry}
	_, err := g.Geocode(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGeocoderSkipsMissingFallback(t *testing.T) {
	g := &Geocoder{Primary: &mock.Geocoder{Err: errors.New("down")}, Retry: noRetry}
	_, err := g.Geocode(context.Background(), "somewhere")
	assert.ErrorIs(t, err, domain.ErrProvider)
}
