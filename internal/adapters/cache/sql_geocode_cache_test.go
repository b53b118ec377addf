package cache

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicu-finder/internal/domain"
)

// arrayConverter lets slice arguments through, as the pgx driver does.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	switch v.(type) {
	case []string, []float64:
		return v, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func TestSQLGeocodeCacheGetMany(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM geocode_cache")).
		WithArgs([]string{"mount sinai, new york, ny", "unknown place"}).
		WillReturnRows(sqlmock.NewRows([]string{"address", "lat", "lng"}).
			AddRow("mount sinai, new york, ny", 40.79, -73.95))

	c := NewSQLGeocodeCache(db)
	got, err := c.GetMany(context.Background(), []string{
		"Mount Sinai,  New York, NY",
		"mount sinai, new york, ny",
		"Unknown Place",
		"   ",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{
		"Mount Sinai,  New York, NY": {Lat: 40.79, Lng: -73.95},
		"mount sinai, new york, ny":  {Lat: 40.79, Lng: -73.95},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLGeocodeCachePutMany(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO geocode_cache")).
		WithArgs([]string{"bellevue hospital center, new york, ny"}, []float64{40.74}, []float64{-73.97}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := NewSQLGeocodeCache(db)
	err = c.PutMany(context.Background(), map[string]domain.Coordinates{
		"Bellevue Hospital Center, New York, NY": {Lat: 40.74, Lng: -73.97},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.NoError(t, c.PutMany(context.Background(), nil))
}
