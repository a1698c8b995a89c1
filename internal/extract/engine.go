// Package extract turns fetched contact-page HTML into structured contact
// data via a single LLM call.
package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dineshlahiru/contactsync/internal/cost"
	"github.com/dineshlahiru/contactsync/internal/model"
	"github.com/dineshlahiru/contactsync/pkg/anthropic"
)

const systemText = `You are a data extraction assistant for a contact directory of Sri Lankan institutions. You read the text of an institution's contact page and return structured JSON. Extract only what the page states; never invent names, positions, or numbers. Return valid JSON and nothing else.`

const promptTemplate = `Extract every contact listed on this page for %s.

Return a JSON object with exactly this shape:
{
  "headOffice": [{"name": "", "position": "", "division": "", "phones": [""], "email": "", "fax": ""}],
  "branches": [{"name": "", "position": "", "division": "", "phones": [""], "email": "", "fax": ""}],
  "districtOffices": [{"district": "", "address": "", "location": "", "phones": [""], "fax": "", "email": "", "contacts": [{"name": "", "position": "", "phones": [""], "email": ""}]}],
  "divisions": [""]
}

Rules:
- "position" is required for every contact; use the role text as printed.
- Omit fields that are not on the page rather than guessing.
- Phone numbers keep their printed formatting (e.g. "011-2345678").
- "divisions" lists the department or unit names the page groups contacts under.
- District offices are geographically separate offices (e.g. "Kandy", "Matara"); put their own contact people under "contacts".

Page URL: %s
Page content:
%s`

// maxOutputTokens bounds the extraction response. Directory pages with a few
// hundred contacts fit well inside this.
const maxOutputTokens = 8192

// Result is the outcome of one extraction call. Token counts are populated
// even when parsing fails, so the caller can still record spend.
type Result struct {
	Data         *model.ExtractedData
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// ParseError is returned when the model response is not valid JSON.
// Raw carries the response text for operator inspection.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extract: response is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Engine runs structured contact extraction against a Claude model.
type Engine struct {
	client anthropic.Client
	model  string
	calc   *cost.Calculator
}

// NewEngine creates an Engine using the given model name and pricing.
func NewEngine(client anthropic.Client, modelName string, calc *cost.Calculator) *Engine {
	return &Engine{
		client: client,
		model:  modelName,
		calc:   calc,
	}
}

// Extract cleans the HTML and runs one extraction call. On a parse failure
// it returns a *Result carrying token usage alongside a *ParseError, since
// tokens were consumed regardless.
func (e *Engine) Extract(ctx context.Context, institutionName, sourceURL, html string) (*Result, error) {
	content := CleanHTML(html)
	if content == "" {
		return nil, eris.New("extract: page content empty after cleaning")
	}

	prompt := fmt.Sprintf(promptTemplate, institutionName, sourceURL, content)

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: maxOutputTokens,
		System:    systemText,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: create message")
	}

	result := &Result{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD:      e.calc.Claude(e.model, resp.Usage.InputTokens, resp.Usage.OutputTokens),
	}

	text := resp.Text()
	cleaned := cleanJSON(text)

	var data model.ExtractedData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		zap.L().Warn("extract: failed to parse response",
			zap.String("institution", institutionName),
			zap.String("model", e.model),
			zap.Error(err),
		)
		return result, &ParseError{Raw: text, Err: err}
	}

	data.Source = sourceURL
	data.NormalizeDivisions()
	result.Data = &data

	zap.L().Info("extract: complete",
		zap.String("institution", institutionName),
		zap.Int("contacts", data.ContactsFound()),
		zap.Int("divisions", len(data.Divisions)),
		zap.Int64("input_tokens", result.InputTokens),
		zap.Int64("output_tokens", result.OutputTokens),
		zap.Float64("cost_usd", result.CostUSD),
	)

	return result, nil
}
