package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema for the curated dataset and the facility
// geocode cache.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createFacilitiesQuery := `
	CREATE TABLE IF NOT EXISTS curated_facilities (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		county TEXT,
		nicu_level TEXT,
		beds INTEGER,
		url TEXT,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		phone TEXT,
		UNIQUE (name, state)
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_curated_facilities_state
	ON curated_facilities(state);
	`

	statements := []string{
		createFacilitiesQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate curated_facilities from the dataset file, updating rows that
// already exist. Coordinates already in the table survive a re-seed from a
// file that lacks them. Returns the number of rows written.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) (int, error) {
	records, err := ReadDataset(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed facilities: %w", err)
	}
	for i, r := range records {
		if r.State == "" {
			return 0, fmt.Errorf("seed facilities: entry %d (%q): state cannot be empty", i+1, r.Name)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed facilities: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO curated_facilities (
		name, state, county, nicu_level, beds, url, lat, lng, phone
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (name, state) DO UPDATE
	SET county = EXCLUDED.county,
		nicu_level = EXCLUDED.nicu_level,
		beds = EXCLUDED.beds,
		url = EXCLUDED.url,
		lat = COALESCE(EXCLUDED.lat, curated_facilities.lat),
		lng = COALESCE(EXCLUDED.lng, curated_facilities.lng),
		phone = COALESCE(EXCLUDED.phone, curated_facilities.phone);
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("seed facilities: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		f := r.Facility()

		var level, county, url sql.NullString
		if f.NICULevel != nil {
			level = sql.NullString{String: string(*f.NICULevel), Valid: true}
		}
		if f.County != "" {
			county = sql.NullString{String: f.County, Valid: true}
		}
		if f.URL != "" {
			url = sql.NullString{String: f.URL, Valid: true}
		}
		var beds sql.NullInt64
		if f.Beds != nil {
			beds = sql.NullInt64{Int64: int64(*f.Beds), Valid: true}
		}
		var lat, lng sql.NullFloat64
		if f.Coordinates != nil {
			lat = sql.NullFloat64{Float64: f.Coordinates.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: f.Coordinates.Lng, Valid: true}
		}
		var phone sql.NullString
		if f.Phone != nil {
			phone = sql.NullString{String: *f.Phone, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, f.Name, f.State, county, level, beds, url, lat, lng, phone); err != nil {
			return 0, fmt.Errorf("seed facilities: insert %q/%q: %w", f.Name, f.State, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed facilities: commit tx: %w", err)
	}

	return len(records), nil
}
