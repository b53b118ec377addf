package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"nicu-finder/internal/adapters/cache"
	"nicu-finder/internal/adapters/google"
	"nicu-finder/internal/adapters/mock"
	"nicu-finder/internal/adapters/nominatim"
	"nicu-finder/internal/adapters/ratelimit"
	"nicu-finder/internal/adapters/repositories"
	"nicu-finder/internal/adapters/web"
	"nicu-finder/internal/api"
	"nicu-finder/internal/config"
	"nicu-finder/internal/platform/db"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/platform/redis"
	"nicu-finder/internal/platform/retry"
	"nicu-finder/internal/ports"
	"nicu-finder/internal/services"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	rdb, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		// The shared store is optional; continue with process-local state.
		slog.Warn("redis unavailable, using local cache and quota only", "err", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	deps, opts, cleanup, err := buildPipeline(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer cleanup()

	router := api.NewRouter(services.NewPipeline(deps, opts))

	// Timeouts are sized for cold-cache searches with details enrichment.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "mock", cfg.MockMode,
			"live", opts.UseLiveSearch, "curated", opts.UseCuratedDataset)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildPipeline(ctx context.Context, cfg config.Config, rdb *goredis.Client) (services.Dependencies, services.Options, func(), error) {
	cleanup := func() {}

	opts := services.Options{
		UseLiveSearch:     cfg.UseLiveSearch,
		UseCuratedDataset: cfg.UseCuratedDataset,
		IncludeDetails:    cfg.IncludePlaceDetails,
		ProbeWebsites:     cfg.ProbeWebsites,
		MaxRadius:         cfg.MaxRadiusMiles,
	}

	tiers := []ports.CacheTier{cache.NewMemoryTier()}
	if rdb != nil {
		tiers = append(tiers, cache.NewRedisTier(rdb))
	}
	if cfg.PersistCache {
		tiers = append(tiers, cache.NewDiskTier(cfg.CacheDir))
	}
	chain := cache.NewChain(tiers...)

	var counter ratelimit.Counter = ratelimit.NewMemoryCounter()
	if rdb != nil {
		counter = ratelimit.NewRedisCounter(rdb)
	}

	deps := services.Dependencies{
		Cache:   chain,
		Limiter: ratelimit.NewQuotaLimiter(counter, cfg.GoogleMaxPerMinute),
		Pages:   web.NewFetcher(),
		Retry:   retry.DefaultPolicy,
	}

	if cfg.MockMode {
		canned := mock.NewCanned()
		deps.PrimaryGeocoder = canned.Geocoder
		deps.Places = canned.Places
		deps.Distances = canned.Distance
		opts.UseLiveSearch = true
		opts.UseCuratedDataset = false
		opts.ProbeWebsites = false
		slog.Info("mock mode enabled, external providers disabled")
		return deps, opts, cleanup, nil
	}

	if cfg.GoogleAPIKey != "" {
		client, err := google.NewClient(cfg.GoogleAPIKey)
		if err != nil {
			return deps, opts, cleanup, err
		}
		deps.PrimaryGeocoder = client
		deps.Places = client
		deps.Distances = client
	} else {
		// Searches fail with a configuration error until a key is set.
		slog.Warn("GOOGLE_MAPS_API_KEY not set")
	}
	deps.FallbackGeocoder = nominatim.New(cfg.NominatimURL, "", nil)

	if cfg.UseCuratedDataset {
		repo, closeRepo, err := facilityRepository(ctx, cfg)
		if err != nil {
			return deps, opts, cleanup, err
		}
		cleanup = closeRepo

		facilities, err := repo.ListFacilities(ctx)
		if err != nil {
			cleanup()
			return deps, opts, func() {}, err
		}
		deps.Facilities = facilities
		slog.Info("curated dataset loaded", "facilities", len(facilities))
	}

	return deps, opts, cleanup, nil
}

// facilityRepository prefers Postgres when DATABASE_URL is set and falls
// back to the bundled JSON dataset.
func facilityRepository(ctx context.Context, cfg config.Config) (ports.FacilityRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		repo, err := repositories.NewJSONFacilityRepository(cfg.DataPath)
		return repo, func() {}, err
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	return repositories.NewPostgresFacilityRepository(conn), func() { conn.Close() }, nil
}
