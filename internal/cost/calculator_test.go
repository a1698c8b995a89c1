package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaude(t *testing.T) {
	calc := NewCalculator(Rates{
		Anthropic: map[string]ModelRate{
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
	})

	t.Run("KnownModel", func(t *testing.T) {
		// 10K input + 2K output = 0.03 + 0.03 = 0.06
		got := calc.Claude("claude-sonnet-4-5-20250929", 10_000, 2_000)
		assert.InDelta(t, 0.06, got, 1e-9)
	})

	t.Run("RoundsToThreeDecimals", func(t *testing.T) {
		// 1234 input tokens = 0.003702 → 0.004
		got := calc.Claude("claude-sonnet-4-5-20250929", 1234, 0)
		assert.InDelta(t, 0.004, got, 1e-9)
	})

	t.Run("UnknownModelIsFree", func(t *testing.T) {
		assert.Zero(t, calc.Claude("unknown-model", 1_000_000, 1_000_000))
	})
}

func TestJina(t *testing.T) {
	calc := NewCalculator(DefaultRates())
	assert.InDelta(t, 0.0, calc.Jina(1000), 1e-9) // 0.00002 rounds to 0
	assert.InDelta(t, 0.02, calc.Jina(1_000_000), 1e-9)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.123, Round3(0.1234))
	assert.Equal(t, 0.124, Round3(0.1235))
	assert.Equal(t, 0.0, Round3(0.0004))
}
