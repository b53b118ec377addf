// Package google adapts the Google Maps web services (geocoding, places and
// distance matrix) to the provider ports.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"nicu-finder/internal/platform/obs"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"
	defaultTimeout = 10 * time.Second
	providerName   = "google"
)

// Client talks to the Google Maps JSON APIs. It performs a single attempt per
// call; retries and quotas are applied by the callers.
//
// The client is safe for concurrent use.
type Client struct {
	session *http.Client
	apiKey  string
	baseURL string
	breaker *gobreaker.CircuitBreaker
}

func NewClient(apiKey string) (*Client, error) {
	return NewClientWithOptions(apiKey, DefaultBaseURL, nil)
}

// NewClientWithOptions allows overriding the base URL and HTTP client (used for tests).
func NewClientWithOptions(apiKey, baseURL string, session *http.Client) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google maps api key is empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if session == nil {
		session = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		session: session,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: newBreaker(),
	}, nil
}

// newBreaker opens after five consecutive transport failures and probes
// again after 30s. Body-level statuses do not count as failures.
func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        providerName,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// httpStatusError carries a non-2xx transport status so the retry executor
// can classify it.
type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (e *httpStatusError) StatusCode() int { return e.Code }

// apiStatusError is a 200 response whose body status is not OK.
type apiStatusError struct {
	Status  string
	Message string
}

func (e *apiStatusError) Error() string {
	if e.Message == "" {
		return "google status " + e.Status
	}
	return fmt.Sprintf("google status %s: %s", e.Status, e.Message)
}

// StatusCode maps body statuses onto HTTP codes for retry classification.
func (e *apiStatusError) StatusCode() int {
	switch e.Status {
	case "OVER_QUERY_LIMIT":
		return http.StatusTooManyRequests
	case "UNKNOWN_ERROR":
		return http.StatusServiceUnavailable
	case "REQUEST_DENIED":
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// getJSON issues GET <baseURL><path>?<params>&key=... and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	obs.ProviderCalls.WithLabelValues(providerName, op).Inc()

	params.Set("key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	_, err = c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", op, err)
		}
		return nil, nil
	})
	if err != nil {
		obs.ProviderErrors.WithLabelValues(providerName, op).Inc()
		return err
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// checkStatus turns a body status into an error. ZERO_RESULTS is reported
// as ok=false with a nil error.
func checkStatus(status, message string) (ok bool, err error) {
	switch status {
	case "OK":
		return true, nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return false, nil
	default:
		return false, &apiStatusError{Status: status, Message: message}
	}
}
