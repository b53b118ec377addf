package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"nicu-finder/internal/adapters/cache"
	"nicu-finder/internal/adapters/google"
	"nicu-finder/internal/adapters/nominatim"
	"nicu-finder/internal/adapters/repositories"
	"nicu-finder/internal/config"
	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/db"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/platform/retry"
	"nicu-finder/internal/services"
)

// Nominatim allows one request per second from a single client.
const geocodeInterval = time.Second

func main() {
	geocode := flag.Bool("geocode", false, "geocode curated facilities that have no coordinates")
	skipSeed := flag.Bool("skip-seed", false, "do not import the seed dataset")
	flag.Parse()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	obs.NewLogger(os.Stderr, obs.ParseLevel(cfg.LogLevel))
	if envErr != nil {
		slog.Info("no .env file found, using environment variables")
	}

	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect failed", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := initAndSeed(ctx, conn, cfg.SeedPath, *skipSeed); err != nil {
		slog.Error("init failed", "err", err)
		os.Exit(1)
	}

	if *geocode {
		if err := backfillCoordinates(ctx, conn, cfg); err != nil {
			slog.Error("geocode backfill failed", "err", err)
			os.Exit(1)
		}
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string, skipSeed bool) error {
	slog.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if skipSeed {
		return nil
	}

	slog.Info("seeding curated facilities", "path", seedPath)
	n, err := repositories.SeedFromJSON(ctx, conn, seedPath)
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	slog.Info("seeding complete", "facilities", n)
	return nil
}

// backfillCoordinates geocodes "name, county, state, USA" for every facility
// without coordinates. Results are kept in the geocode_cache table so reruns
// only look up what is still missing.
func backfillCoordinates(ctx context.Context, conn *sql.DB, cfg config.Config) error {
	repo := repositories.NewPostgresFacilityRepository(conn)
	geoCache := cache.NewSQLGeocodeCache(conn)

	geocoder := &services.Geocoder{
		Fallback: nominatim.New(cfg.NominatimURL, "", nil),
		Retry:    retry.DefaultPolicy,
	}
	if cfg.GoogleAPIKey != "" {
		client, err := google.NewClient(cfg.GoogleAPIKey)
		if err != nil {
			return err
		}
		geocoder.Primary = client
	}

	pending, err := repo.ListUngeocoded(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		slog.Info("all facilities have coordinates")
		return nil
	}

	addresses := make([]string, len(pending))
	for i, f := range pending {
		addresses[i] = facilityAddress(f)
	}

	known, err := geoCache.GetMany(ctx, addresses)
	if err != nil {
		return err
	}

	fresh := make(map[string]domain.Coordinates)
	updated, missed := 0, 0
	// Lookups already paid for are cached even when a later one fails.
	defer func() {
		if err := geoCache.PutMany(ctx, fresh); err != nil {
			slog.Error("store geocode results failed", "err", err)
		}
	}()

	pace := newPacer(geocodeInterval)
	for i, f := range pending {
		addr := addresses[i]

		coords, ok := known[addr]
		if !ok {
			pace.wait()
			loc, err := geocoder.Geocode(ctx, addr)
			if errors.Is(err, domain.ErrNotFound) {
				slog.Warn("facility not found", "name", f.Name, "state", f.State)
				missed++
				continue
			}
			if err != nil {
				return err
			}
			coords = loc.Coordinates
			fresh[addr] = coords
		}

		if err := repo.UpdateCoordinates(ctx, f.Name, f.State, coords); err != nil {
			return err
		}
		updated++
	}

	slog.Info("geocode backfill complete", "updated", updated, "not_found", missed, "looked_up", len(fresh))
	return nil
}

// pacer spaces outbound lookups at least interval apart, whatever their outcome.
type pacer struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	sleep    func(time.Duration)
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{interval: interval, now: time.Now, sleep: time.Sleep}
}

func (p *pacer) wait() {
	if !p.last.IsZero() {
		if d := p.interval - p.now().Sub(p.last); d > 0 {
			p.sleep(d)
		}
	}
	p.last = p.now()
}

func facilityAddress(f repositories.UngeocodedFacility) string {
	parts := []string{f.Name}
	if f.County != "" {
		parts = append(parts, f.County)
	}
	if f.State != "" {
		parts = append(parts, f.State)
	}
	parts = append(parts, "USA")
	return strings.Join(parts, ", ")
}
