package extract

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dineshlahiru/contactsync/internal/cost"
	"github.com/dineshlahiru/contactsync/pkg/anthropic"
)

// fakeClient returns a scripted response and captures the request.
type fakeClient struct {
	resp *anthropic.MessageResponse
	err  error
	got  anthropic.MessageRequest
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.got = req
	return f.resp, f.err
}

func textResponse(text string, in, out int64) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: in, OutputTokens: out},
	}
}

func testCalc() *cost.Calculator {
	return cost.NewCalculator(cost.Rates{
		Anthropic: map[string]cost.ModelRate{
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
	})
}

const samplePage = `<html><body>
<h2>Head Office</h2>
<p>General Manager: Mr. W.P.R. Fernando, Tel: 011-2446790, gm@boc.lk</p>
<h2>Kandy District Office</h2>
<p>Regional Manager, Tel: 081-2234567</p>
</body></html>`

func TestEngineExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client := &fakeClient{resp: textResponse("```json\n"+`{
			"headOffice": [{"name": "Mr. W.P.R. Fernando", "position": "General Manager", "phones": ["011-2446790"], "email": "gm@boc.lk"}],
			"branches": [],
			"districtOffices": [{"district": "Kandy", "contacts": [{"position": "Regional Manager", "phones": ["081-2234567"]}]}],
			"divisions": []
		}`+"\n```", 10_000, 2_000)}

		engine := NewEngine(client, "claude-sonnet-4-5-20250929", testCalc())
		got, err := engine.Extract(ctx, "Bank of Ceylon", "https://www.boc.lk/contact", samplePage)

		require.NoError(t, err)
		require.NotNil(t, got.Data)
		assert.Equal(t, "https://www.boc.lk/contact", got.Data.Source)
		require.Len(t, got.Data.HeadOffice, 1)
		assert.Equal(t, "General Manager", got.Data.HeadOffice[0].Position)
		require.Len(t, got.Data.DistrictOffices, 1)
		assert.Equal(t, "Kandy", got.Data.DistrictOffices[0].District)
		// Divisions normalized: district offices contribute synthetic names.
		assert.Contains(t, got.Data.Divisions, "District Office - Kandy")

		assert.Equal(t, int64(10_000), got.InputTokens)
		assert.Equal(t, int64(2_000), got.OutputTokens)
		assert.InDelta(t, 0.06, got.CostUSD, 1e-9)

		// Prompt carries the cleaned page text, not raw HTML.
		assert.Contains(t, client.got.Messages[0].Content, "General Manager: Mr. W.P.R. Fernando")
		assert.NotContains(t, client.got.Messages[0].Content, "<h2>")
	})

	t.Run("ParseErrorKeepsTokenUsage", func(t *testing.T) {
		client := &fakeClient{resp: textResponse("I could not find any contacts on this page.", 5_000, 50)}

		engine := NewEngine(client, "claude-sonnet-4-5-20250929", testCalc())
		got, err := engine.Extract(ctx, "Bank of Ceylon", "https://www.boc.lk/contact", samplePage)

		require.Error(t, err)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, pe.Raw, "could not find")

		// Tokens were spent; result still reports them.
		require.NotNil(t, got)
		assert.Nil(t, got.Data)
		assert.Equal(t, int64(5_000), got.InputTokens)
		assert.Equal(t, int64(50), got.OutputTokens)
		assert.Greater(t, got.CostUSD, 0.0)
	})

	t.Run("APIError", func(t *testing.T) {
		client := &fakeClient{err: eris.New("anthropic: create message: overloaded")}

		engine := NewEngine(client, "claude-sonnet-4-5-20250929", testCalc())
		got, err := engine.Extract(ctx, "Bank of Ceylon", "https://www.boc.lk/contact", samplePage)

		require.Error(t, err)
		assert.Nil(t, got)
	})

	t.Run("EmptyContent", func(t *testing.T) {
		engine := NewEngine(&fakeClient{}, "claude-sonnet-4-5-20250929", testCalc())
		_, err := engine.Extract(ctx, "Bank of Ceylon", "https://www.boc.lk/contact", "<body><script>x()</script></body>")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})
}
