package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
)

// Postgres-backed implementation of the FacilityRepository port.
type PostgresFacilityRepository struct{ DB *sql.DB }

func NewPostgresFacilityRepository(db *sql.DB) *PostgresFacilityRepository {
	return &PostgresFacilityRepository{DB: db}
}

// Return all curated facilities ordered by id (dataset order).
func (p *PostgresFacilityRepository) ListFacilities(ctx context.Context) (_ []domain.CuratedFacility, err error) {
	defer obs.Time(ctx, "facilities.List")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres facility repository: DB is nil")
	}

	query := `
	SELECT
		name, state, county, nicu_level, beds, url, lat, lng, phone
	FROM curated_facilities
	ORDER BY id;
	`
	rows, err := p.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list facilities: query curated_facilities: %w", err)
	}
	defer rows.Close()

	facilities := make([]domain.CuratedFacility, 0, 256)
	for rows.Next() {
		var (
			f            domain.CuratedFacility
			county, url  sql.NullString
			level, phone sql.NullString
			beds         sql.NullInt64
			lat, lng     sql.NullFloat64
		)
		if err := rows.Scan(&f.Name, &f.State, &county, &level, &beds, &url, &lat, &lng, &phone); err != nil {
			return nil, fmt.Errorf("list facilities: scan row: %w", err)
		}

		f.County = county.String
		f.URL = url.String
		if lvl, ok := domain.ParseNICULevel(level.String); ok {
			f.NICULevel = lvl.Ptr()
		}
		if beds.Valid {
			n := int(beds.Int64)
			f.Beds = &n
		}
		if lat.Valid && lng.Valid {
			f.Coordinates = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
		}
		if phone.Valid {
			s := phone.String
			f.Phone = &s
		}
		facilities = append(facilities, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list facilities: row iteration: %w", err)
	}

	return facilities, nil
}

// Facility awaiting coordinates, identified by its natural key.
type UngeocodedFacility struct {
	Name   string
	County string
	State  string
}

// List facilities that have no coordinates yet.
func (p *PostgresFacilityRepository) ListUngeocoded(ctx context.Context) ([]UngeocodedFacility, error) {
	rows, err := p.DB.QueryContext(ctx, `
	SELECT name, COALESCE(county, ''), state
	FROM curated_facilities
	WHERE lat IS NULL OR lng IS NULL
	ORDER BY id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list ungeocoded: %w", err)
	}
	defer rows.Close()

	var out []UngeocodedFacility
	for rows.Next() {
		var f UngeocodedFacility
		if err := rows.Scan(&f.Name, &f.County, &f.State); err != nil {
			return nil, fmt.Errorf("list ungeocoded: scan row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ungeocoded: row iteration: %w", err)
	}
	return out, nil
}

// Store coordinates for the facility with the given name and state.
func (p *PostgresFacilityRepository) UpdateCoordinates(ctx context.Context, name, state string, c domain.Coordinates) error {
	res, err := p.DB.ExecContext(ctx, `
	UPDATE curated_facilities
	SET lat = $1, lng = $2
	WHERE name = $3 AND state = $4;
	`, c.Lat, c.Lng, name, state)
	if err != nil {
		return fmt.Errorf("update coordinates %q/%q: %w", name, state, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update coordinates %q/%q: no such facility", name, state)
	}
	return nil
}
