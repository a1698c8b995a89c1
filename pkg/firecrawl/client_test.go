package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrape_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-test", r.Header.Get("Authorization"))

		var req ScrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://www.boc.lk/contact", req.URL)
		assert.Equal(t, []string{"html"}, req.Formats)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ScrapeResponse{
			Success: true,
			Data: PageData{
				URL:        "https://www.boc.lk/contact",
				HTML:       "<html><body>General Manager</body></html>",
				StatusCode: 200,
			},
		})
	}))
	defer srv.Close()

	client := NewClient("fc-test", WithBaseURL(srv.URL))
	resp, err := client.Scrape(context.Background(), ScrapeRequest{
		URL:     "https://www.boc.lk/contact",
		Formats: []string{"html"},
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Data.HTML, "General Manager")
}

func TestScrape_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"insufficient credits"}`))
	}))
	defer srv.Close()

	client := NewClient("fc-test", WithBaseURL(srv.URL))
	_, err := client.Scrape(context.Background(), ScrapeRequest{URL: "https://example.lk"})

	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "insufficient credits")
}

func TestScrape_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewClient("fc-test", WithBaseURL(srv.URL))
	_, err := client.Scrape(context.Background(), ScrapeRequest{URL: "https://example.lk"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestScrape_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("fc-test", WithBaseURL(srv.URL))
	_, err := client.Scrape(ctx, ScrapeRequest{URL: "https://example.lk"})

	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClient("fc-key")
	hc := c.(*httpClient)
	assert.Equal(t, "fc-key", hc.apiKey)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	assert.NotNil(t, hc.http)
}
