package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// maxBodyBytes caps how much of a contact page we read. Directory pages are
// small; anything past this is boilerplate.
const maxBodyBytes = 512 * 1024

// DirectTransport fetches HTML via net/http and detects blocks. Free, no
// API calls. Falls through to Jina/Firecrawl when blocked.
type DirectTransport struct {
	client *http.Client
}

// NewDirectTransport creates a DirectTransport with sensible defaults.
func NewDirectTransport() *DirectTransport {
	return &DirectTransport{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (d *DirectTransport) Name() string           { return "direct" }
func (d *DirectTransport) Supports(_ string) bool { return true }

// Fetch retrieves a URL and returns the raw HTML after block detection.
func (d *DirectTransport) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "direct: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ContactSyncBot/1.0)")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "direct: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "direct: read body")
	}

	blocked, blockType := DetectBlock(resp, body)
	if blocked {
		return nil, eris.Errorf("direct: blocked (%s)", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("direct: status %d", resp.StatusCode)
	}

	if len(body) < 100 {
		return nil, eris.New("direct: empty page")
	}

	return &Result{
		URL:        targetURL,
		Title:      extractTitle(body),
		HTML:       string(body),
		StatusCode: resp.StatusCode,
		Source:     "direct",
	}, nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}
