package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/services"
)

type fakeSearcher struct {
	results []domain.Candidate
	err     error

	last  services.Query
	reqID string
}

func (f *fakeSearcher) Search(ctx context.Context, q services.Query) ([]domain.Candidate, error) {
	f.last = q
	f.reqID = obs.RequestID(ctx)
	return f.results, f.err
}

func serve(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestSearchReturnsResults(t *testing.T) {
	beds := 40
	fs := &fakeSearcher{results: []domain.Candidate{
		{
			PlaceID:       "p1",
			Name:          "Cedars-Sinai Medical Center",
			Address:       "8700 Beverly Blvd",
			Distance:      "1.2",
			DistanceValue: 1931,
			NICULevel:     domain.LevelIII.Ptr(),
			Beds:          &beds,
			Source:        domain.SourceLive,
			State:         "CA",
			CuratedMatch:  true,
		},
		{Name: "Unknown Clinic", Distance: "N/A", Source: domain.SourceLive},
	}}

	rec, body := serve(t, NewRouter(fs), "/api/search-nicus?location=90048&radius=15&includeDetails=1")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "90048", fs.last.Location)
	require.NotNil(t, fs.last.RadiusMiles)
	assert.Equal(t, 15.0, *fs.last.RadiusMiles)
	assert.True(t, fs.last.IncludeDetails)

	results := body["results"].([]any)
	require.Len(t, results, 2)

	first := results[0].(map[string]any)
	assert.Equal(t, "Cedars-Sinai Medical Center", first["name"])
	assert.Equal(t, "1.2", first["distance"])
	assert.Equal(t, 1931.0, first["distanceValue"])
	assert.Equal(t, "p1", first["placeId"])
	assert.Equal(t, "Level III", first["nicuLevel"])
	assert.Equal(t, 40.0, first["beds"])
	assert.Equal(t, true, first["hasNicU"])
	assert.Equal(t, "live", first["source"])
	assert.Equal(t, "CA", first["state"])
	assert.Nil(t, first["county"])
	assert.Equal(t, true, first["curatedMatch"])

	second := results[1].(map[string]any)
	assert.Nil(t, second["nicuLevel"])
	assert.Equal(t, false, second["hasNicU"])
	assert.Nil(t, second["placeId"])
}

func TestSearchEmptyResultsIsArray(t *testing.T) {
	rec, body := serve(t, NewRouter(&fakeSearcher{}), "/api/search-nicus?location=x")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["results"])
}

func TestSearchParameterParsing(t *testing.T) {
	fs := &fakeSearcher{}
	router := NewRouter(fs)

	serve(t, router, "/api/search-nicus?location=x")
	assert.Nil(t, fs.last.RadiusMiles)
	assert.False(t, fs.last.IncludeDetails)

	serve(t, router, "/api/search-nicus?location=x&radius=abc&includeDetails=true")
	require.NotNil(t, fs.last.RadiusMiles)
	assert.True(t, math.IsNaN(*fs.last.RadiusMiles))
	assert.False(t, fs.last.IncludeDetails, "only 1 enables details")
}

func TestSearchErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("search: %w", domain.ErrInvalidInput), http.StatusBadRequest, "Location parameter is required"},
		{fmt.Errorf("search: %w", domain.ErrInvalidRadius), http.StatusBadRequest, "Radius must be a positive number"},
		{fmt.Errorf("search: %w", domain.ErrNotFound), http.StatusNotFound, "Location not found"},
		{fmt.Errorf("search: %w", domain.ErrConfig), http.StatusInternalServerError, "API key not configured"},
		{fmt.Errorf("search: %w", domain.ErrRateLimited), http.StatusServiceUnavailable, "Rate limit exceeded, try again later"},
		{fmt.Errorf("search: %w: upstream said REQUEST_DENIED", domain.ErrProvider), http.StatusInternalServerError, "Failed to search for NICU facilities"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			rec, body := serve(t, NewRouter(&fakeSearcher{err: tt.err}), "/api/search-nicus?location=x")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestRequestID(t *testing.T) {
	fs := &fakeSearcher{}
	router := NewRouter(fs)

	rec, _ := serve(t, router, "/api/search-nicus?location=x")
	id := rec.Header().Get(requestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, fs.reqID)

	req := httptest.NewRequest(http.MethodGet, "/api/search-nicus?location=x", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	assert.Equal(t, "abc-123", fs.reqID)
}

func TestHealthAndMetrics(t *testing.T) {
	router := NewRouter(&fakeSearcher{})

	rec, body := serve(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	for _, path := range []string{"/metrics", "/api/metrics"} {
		rec, _ := serve(t, router, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "go_goroutines", path)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search-nicus", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
