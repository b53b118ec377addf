package ports

import "context"

// Fetch the leading text of a public web page.
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}
