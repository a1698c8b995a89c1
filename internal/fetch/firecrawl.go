package fetch

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/dineshlahiru/contactsync/pkg/firecrawl"
)

// FirecrawlTransport wraps a Firecrawl client as the last-resort Transport.
// Firecrawl renders JavaScript, so it handles the portals nothing else can,
// at the highest per-page cost.
type FirecrawlTransport struct {
	client firecrawl.Client
}

// NewFirecrawlTransport creates a FirecrawlTransport from a Firecrawl client.
func NewFirecrawlTransport(client firecrawl.Client) *FirecrawlTransport {
	return &FirecrawlTransport{client: client}
}

func (f *FirecrawlTransport) Name() string           { return "firecrawl" }
func (f *FirecrawlTransport) Supports(_ string) bool { return true }

// Fetch retrieves a URL via Firecrawl's scrape endpoint.
func (f *FirecrawlTransport) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{"html"},
	})
	if err != nil {
		return nil, err
	}

	if !resp.Success || resp.Data.HTML == "" {
		return nil, eris.Errorf("firecrawl: no content for %s", targetURL)
	}

	return &Result{
		URL:        targetURL,
		Title:      resp.Data.Title,
		HTML:       resp.Data.HTML,
		StatusCode: resp.Data.StatusCode,
		Source:     "firecrawl",
	}, nil
}
