// Package web fetches the leading text of public hospital websites.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nicu-finder/internal/platform/obs"
)

const (
	defaultTimeout      = 3 * time.Second
	defaultMaxRedirects = 3
	defaultMaxBytes     = 5000
)

var (
	ErrUnsupportedScheme  = errors.New("unsupported url scheme")
	ErrUnsupportedContent = errors.New("unsupported content type")
	errTooManyRedirects   = errors.New("too many redirects")
)

// Fetcher reads at most MaxBytes of a text page. Only http(s) targets are
// followed, including across redirects.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher() *Fetcher {
	return NewFetcherWithClient(nil)
}

// NewFetcherWithClient wraps base with the redirect and timeout limits. Nil
// uses a fresh client.
func NewFetcherWithClient(base *http.Client) *Fetcher {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	c.Timeout = defaultTimeout
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > defaultMaxRedirects {
			return errTooManyRedirects
		}
		if !allowedScheme(req.URL) {
			return ErrUnsupportedScheme
		}
		return nil
	}

	return &Fetcher{client: c, maxBytes: defaultMaxBytes}
}

func allowedScheme(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

func textual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "text/") || mt == "application/xhtml+xml"
}

// FetchText returns the first bytes of the page body as a string.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (_ string, err error) {
	defer obs.Time(ctx, "web.FetchText")(&err)

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if !allowedScheme(u) || u.Host == "" {
		return "", fmt.Errorf("%q: %w", rawURL, ErrUnsupportedScheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html, text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %q: status %d", rawURL, resp.StatusCode)
	}
	if !textual(resp.Header.Get("Content-Type")) {
		return "", fmt.Errorf("%q: %w", resp.Header.Get("Content-Type"), ErrUnsupportedContent)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return strings.ToValidUTF8(string(b), ""), nil
}
