package fetch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dineshlahiru/contactsync/pkg/jina"
)

// fakeJina is a scriptable jina.Client.
type fakeJina struct {
	resp  *jina.ReadResponse
	err   error
	calls int
}

func (f *fakeJina) Read(_ context.Context, _ string) (*jina.ReadResponse, error) {
	f.calls++
	return f.resp, f.err
}

func htmlResponse(html string) *jina.ReadResponse {
	return &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			Title: "Contact Us",
			URL:   "https://example.lk/contact",
			HTML:  html,
		},
	}
}

func TestJinaTransport(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := &fakeJina{resp: htmlResponse(strings.Repeat("<p>Director General: 011-2345678</p>", 10))}
		tr := NewJinaTransport(client)

		got, err := tr.Fetch(context.Background(), "https://example.lk/contact")

		require.NoError(t, err)
		assert.Equal(t, "jina", got.Source)
		assert.Contains(t, got.HTML, "Director General")
	})

	t.Run("ShortContentNeedsFallback", func(t *testing.T) {
		client := &fakeJina{resp: htmlResponse("<p>hi</p>")}
		tr := NewJinaTransport(client)

		_, err := tr.Fetch(context.Background(), "https://example.lk/contact")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "needs fallback")
	})

	t.Run("ChallengePageNeedsFallback", func(t *testing.T) {
		client := &fakeJina{resp: htmlResponse(strings.Repeat(" ", 50) + "Just a moment... checking your browser before accessing the site")}
		tr := NewJinaTransport(client)

		_, err := tr.Fetch(context.Background(), "https://example.lk/contact")

		require.Error(t, err)
	})

	t.Run("CircuitBreakerOpensAfterThreeFailures", func(t *testing.T) {
		client := &fakeJina{err: eris.New("jina: status 500")}
		tr := NewJinaTransport(client)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := tr.Fetch(ctx, "https://example.lk/contact")
			require.Error(t, err)
		}

		assert.False(t, tr.Supports("https://example.lk/contact"))

		// Open circuit short-circuits without calling the client.
		_, err := tr.Fetch(ctx, "https://example.lk/contact")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circuit breaker open")
		assert.Equal(t, 3, client.calls)
	})

	t.Run("SuccessResetsFailureCount", func(t *testing.T) {
		cb := newCircuitBreaker(3, 30*time.Second, 60*time.Second)
		cb.recordFailure()
		cb.recordFailure()
		cb.recordSuccess()
		cb.recordFailure()
		cb.recordFailure()
		assert.False(t, cb.isOpen())
		cb.recordFailure()
		assert.True(t, cb.isOpen())
	})
}

func TestNeedsFallback(t *testing.T) {
	assert.True(t, needsFallback(nil))
	assert.True(t, needsFallback(&jina.ReadResponse{Code: 451}))

	long := htmlResponse(strings.Repeat("<p>District Secretariat Colombo 011-2369134</p>", 30))
	assert.False(t, needsFallback(long))

	// Content field used when html is absent.
	contentOnly := &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: strings.Repeat("District Secretariat Colombo 011-2369134 ", 10)},
	}
	assert.False(t, needsFallback(contentOnly))
}
