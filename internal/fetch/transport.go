// Package fetch retrieves contact-page HTML through an ordered chain of
// transports, starting with a plain HTTP GET and falling back to hosted
// readers when the source blocks direct access.
package fetch

import (
	"context"
	"fmt"
)

// Result holds a fetched page with its source transport.
type Result struct {
	URL        string
	Title      string
	HTML       string
	StatusCode int
	Source     string // e.g. "direct", "jina", "firecrawl"
}

// Transport fetches a single URL and returns its raw HTML.
type Transport interface {
	Fetch(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}

// FetchError is returned when every transport in the chain has failed.
// Attempts records one line per transport tried, in order.
type FetchError struct {
	URL      string
	Attempts []string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch: all transports failed for %s (%d attempts): %v", e.URL, len(e.Attempts), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
