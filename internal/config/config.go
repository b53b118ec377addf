// Package config reads service settings from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config holds every setting the server and dbtool read at startup.
type Config struct {
	Port string

	GoogleAPIKey string
	MockMode     bool

	IncludePlaceDetails bool
	UseLiveSearch       bool
	UseCuratedDataset   bool
	ProbeWebsites       bool
	MaxRadiusMiles      float64

	PersistCache bool
	CacheDir     string
	RedisURL     string
	DatabaseURL  string

	GoogleMaxPerMinute int
	NominatimURL       string

	DataPath string
	SeedPath string
	LogLevel string
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Flag reads "1" or "true" (any case) as true. Unset uses fallback.
func Flag(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Load reads the configuration from the process environment. Callers load
// any .env file beforehand.
func Load() (Config, error) {
	cfg := Config{
		Port:                Get("PORT", "8080"),
		GoogleAPIKey:        Get("GOOGLE_MAPS_API_KEY", ""),
		MockMode:            Flag("MOCK_MODE", false),
		IncludePlaceDetails: Flag("INCLUDE_PLACE_DETAILS", false),
		UseLiveSearch:       Flag("USE_LIVE_SEARCH", true),
		UseCuratedDataset:   Flag("USE_CURATED_DATASET", true),
		ProbeWebsites:       Flag("PROBE_WEBSITES", false),
		PersistCache:        Flag("PERSIST_CACHE", false),
		CacheDir:            Get("CACHE_DIR", ".cache"),
		RedisURL:            Get("REDIS_URL", Get("REDIS_TLS_URL", "")),
		DatabaseURL:         Get("DATABASE_URL", ""),
		NominatimURL:        Get("NOMINATIM_URL", ""),
		DataPath:            Get("NICU_DATA_PATH", "data/nicu-database.json"),
		SeedPath:            Get("SEED_PATH", "data/nicu-database.json"),
		LogLevel:            Get("LOG_LEVEL", "info"),
	}

	maxPerMinute, err := strconv.Atoi(Get("GOOGLE_API_MAX_PER_MINUTE", "0"))
	if err != nil || maxPerMinute < 0 {
		return Config{}, errors.New("GOOGLE_API_MAX_PER_MINUTE must be a non-negative integer")
	}
	cfg.GoogleMaxPerMinute = maxPerMinute

	maxRadius, err := strconv.ParseFloat(Get("MAX_RADIUS_MILES", "200"), 64)
	if err != nil || maxRadius < 0 {
		return Config{}, errors.New("MAX_RADIUS_MILES must be a non-negative number")
	}
	cfg.MaxRadiusMiles = maxRadius

	return cfg, nil
}
