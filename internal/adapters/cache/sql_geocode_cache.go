package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
)

// SQLGeocodeCache is a Postgres-backed store of facility address -> coordinates,
// used by the curated dataset backfill so reruns skip addresses already resolved.
// Keys are compared after whitespace collapsing and lower-casing.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

func geocodeKey(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Fetch cached coordinates for the given addresses, keyed by the caller's spelling.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	byKey := make(map[string][]string, len(addresses))
	keys := make([]string, 0, len(addresses))
	for _, a := range addresses {
		k := geocodeKey(a)
		if k == "" {
			continue
		}
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], a)
	}

	out := make(map[string]domain.Coordinates, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT address, lat, lng
	FROM geocode_cache
	WHERE address = ANY($1::text[]);
	`, keys)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var c domain.Coordinates
		if err := rows.Scan(&key, &c.Lat, &c.Lng); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan row: %w", err)
		}
		for _, original := range byKey[key] {
			out[original] = c
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store address -> coordinate mappings in one upsert.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if len(results) == 0 {
		return nil
	}

	// Distinct keys only: one upsert may not touch the same row twice.
	byKey := make(map[string]domain.Coordinates, len(results))
	for addr, c := range results {
		k := geocodeKey(addr)
		if k == "" {
			return errors.New("insert geocode cache: empty address key")
		}
		byKey[k] = c
	}

	addrs := make([]string, 0, len(byKey))
	lats := make([]float64, 0, len(byKey))
	lngs := make([]float64, 0, len(byKey))
	for k, c := range byKey {
		addrs = append(addrs, k)
		lats = append(lats, c.Lat)
		lngs = append(lngs, c.Lng)
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lng)
	SELECT * FROM unnest($1::text[], $2::float8[], $3::float8[])
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		updated_at = now();
	`, addrs, lats, lngs)
	if err != nil {
		return fmt.Errorf("insert geocode cache: %w", err)
	}

	return nil
}
