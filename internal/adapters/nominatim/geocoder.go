// Package nominatim is a keyless fallback geocoder backed by OpenStreetMap.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/obs"
	"nicu-finder/internal/ports"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "nicu-finder/1.0"
	providerName     = "nominatim"
)

// searchResponse is shaped for the /search?format=json answer.
type searchResponse []struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		State       string `json:"state"`
		ISO3166Lvl4 string `json:"ISO3166-2-lvl4"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

type Geocoder struct {
	session   *http.Client
	baseURL   string
	userAgent string
}

// New returns a geocoder for baseURL; an empty baseURL uses the public endpoint.
// Nominatim's usage policy requires an identifying User-Agent.
func New(baseURL, userAgent string, session *http.Client) *Geocoder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if session == nil {
		session = &http.Client{Timeout: 8 * time.Second}
	}
	return &Geocoder{
		session:   session,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// Geocode returns the best match for query.
func (g *Geocoder) Geocode(ctx context.Context, query string) (_ domain.Location, err error) {
	defer obs.Time(ctx, "nominatim.Geocode")(&err)
	obs.ProviderCalls.WithLabelValues(providerName, "geocode").Inc()

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return domain.Location{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.session.Do(req)
	if err != nil {
		obs.ProviderErrors.WithLabelValues(providerName, "geocode").Inc()
		return domain.Location{}, fmt.Errorf("nominatim search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		obs.ProviderErrors.WithLabelValues(providerName, "geocode").Inc()
		return domain.Location{}, &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var results searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		obs.ProviderErrors.WithLabelValues(providerName, "geocode").Inc()
		return domain.Location{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return domain.Location{}, ports.ErrNoResults
	}

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("parse nominatim lat %q: %w", first.Lat, err)
	}
	lng, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("parse nominatim lon %q: %w", first.Lon, err)
	}

	return domain.Location{
		Coordinates:      domain.Coordinates{Lat: lat, Lng: lng},
		State:            stateCode(first.Address.ISO3166Lvl4, first.Address.State),
		FormattedAddress: first.DisplayName,
	}, nil
}

// stateCode prefers the ISO subdivision suffix ("US-NY" -> "NY") so states
// compare equal to the primary geocoder's short names.
func stateCode(iso, name string) string {
	if _, code, ok := strings.Cut(iso, "-"); ok && code != "" {
		return code
	}
	return name
}

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("nominatim status %d: %s", e.Code, e.Body)
}

func (e *statusError) StatusCode() int { return e.Code }
