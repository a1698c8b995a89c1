package fetch

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dineshlahiru/contactsync/pkg/firecrawl"
)

// fakeFirecrawl is a scriptable firecrawl.Client.
type fakeFirecrawl struct {
	resp *firecrawl.ScrapeResponse
	err  error
	got  firecrawl.ScrapeRequest
}

func (f *fakeFirecrawl) Scrape(_ context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	f.got = req
	return f.resp, f.err
}

func TestFirecrawlTransport(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := &fakeFirecrawl{resp: &firecrawl.ScrapeResponse{
			Success: true,
			Data: firecrawl.PageData{
				URL:        "https://example.lk/contact",
				HTML:       "<html><body>Regional Manager</body></html>",
				Title:      "Contact",
				StatusCode: 200,
			},
		}}
		tr := NewFirecrawlTransport(client)

		got, err := tr.Fetch(context.Background(), "https://example.lk/contact")

		require.NoError(t, err)
		assert.Equal(t, "firecrawl", got.Source)
		assert.Contains(t, got.HTML, "Regional Manager")
		assert.Equal(t, []string{"html"}, client.got.Formats)
	})

	t.Run("EmptyContent", func(t *testing.T) {
		client := &fakeFirecrawl{resp: &firecrawl.ScrapeResponse{Success: true}}
		tr := NewFirecrawlTransport(client)

		_, err := tr.Fetch(context.Background(), "https://example.lk/contact")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no content")
	})

	t.Run("APIError", func(t *testing.T) {
		client := &fakeFirecrawl{err: eris.New("firecrawl: HTTP 402")}
		tr := NewFirecrawlTransport(client)

		_, err := tr.Fetch(context.Background(), "https://example.lk/contact")

		require.Error(t, err)
	})
}
