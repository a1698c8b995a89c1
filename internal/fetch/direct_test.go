package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactPage() string {
	return `<html><head><title>Bank of Ceylon - Contact Us</title></head><body>
<h1>Head Office</h1>
<p>General Manager: Mr. W.P.R. Fernando, Tel: 011-2446790</p>
<p>Chief Financial Officer: Mrs. S. Jayawardena, Tel: 011-2446791</p>
</body></html>`
}

func TestDirectTransport(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.Header.Get("User-Agent"), "ContactSyncBot")
			w.Write([]byte(contactPage()))
		}))
		defer srv.Close()

		tr := NewDirectTransport()
		got, err := tr.Fetch(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, "Bank of Ceylon - Contact Us", got.Title)
		assert.Contains(t, got.HTML, "General Manager")
		assert.Equal(t, "direct", got.Source)
		assert.Equal(t, 200, got.StatusCode)
	})

	t.Run("BlockedCloudflare", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("cf-ray", "abc")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("forbidden"))
		}))
		defer srv.Close()

		tr := NewDirectTransport()
		_, err := tr.Fetch(context.Background(), srv.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "blocked (cloudflare)")
	})

	t.Run("HTTPError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(strings.Repeat("not found ", 20)))
		}))
		defer srv.Close()

		tr := NewDirectTransport()
		_, err := tr.Fetch(context.Background(), srv.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("EmptyPage", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html></html>"))
		}))
		defer srv.Close()

		tr := NewDirectTransport()
		_, err := tr.Fetch(context.Background(), srv.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty page")
	})
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Contact", extractTitle([]byte(`<html><title>Contact</title></html>`)))
	assert.Equal(t, "Contact", extractTitle([]byte(`<TITLE> Contact </TITLE>`)))
	assert.Empty(t, extractTitle([]byte(`<html><body>no title</body></html>`)))
}
