package budget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dineshlahiru/contactsync/internal/model"
	"github.com/dineshlahiru/contactsync/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func defaults() model.BudgetSettings {
	return model.BudgetSettings{
		MonthlyLimitUSD:       5.00,
		AlertThresholdPercent: 80,
		PauseOnExhausted:      true,
	}
}

func TestGuardCheckAllowed(t *testing.T) {
	ctx := context.Background()

	t.Run("FreshMonthAllows", func(t *testing.T) {
		g := NewGuard(newTestStore(t), defaults(), nil)

		d, err := g.CheckAllowed(ctx)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Reason)
		assert.Equal(t, 5.00, d.Usage.LimitUSD)
		assert.Zero(t, d.Usage.PercentUsed)
	})

	t.Run("ExactLimitDenies", func(t *testing.T) {
		g := NewGuard(newTestStore(t), defaults(), nil)
		g.Record(ctx, "anthropic", "extract", "inst-1", 1_000_000, 5.00)

		d, err := g.CheckAllowed(ctx)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, "exhausted")
		assert.Contains(t, d.Reason, "$5.00")
		assert.Equal(t, 100, d.Usage.PercentUsed)
	})

	t.Run("JustUnderLimitAllows", func(t *testing.T) {
		g := NewGuard(newTestStore(t), defaults(), nil)
		g.Record(ctx, "anthropic", "extract", "inst-1", 900_000, 4.99)

		d, err := g.CheckAllowed(ctx)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.InDelta(t, 4.99, d.Usage.UsedUSD, 1e-9)
	})

	t.Run("PauseDisabledAllowsOverLimit", func(t *testing.T) {
		cfg := defaults()
		cfg.PauseOnExhausted = false
		g := NewGuard(newTestStore(t), cfg, nil)
		g.Record(ctx, "anthropic", "extract", "inst-1", 0, 9.00)

		d, err := g.CheckAllowed(ctx)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 180, d.Usage.PercentUsed)
	})

	t.Run("ZeroLimitAllowsUnmetered", func(t *testing.T) {
		cfg := defaults()
		cfg.MonthlyLimitUSD = 0
		g := NewGuard(newTestStore(t), cfg, nil)
		g.Record(ctx, "anthropic", "extract", "inst-1", 0, 42.00)

		d, err := g.CheckAllowed(ctx)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Zero(t, d.Usage.PercentUsed)
	})

	t.Run("StoredSettingsOverrideDefaults", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.SetBudgetSettings(ctx, model.BudgetSettings{
			MonthlyLimitUSD:       2.00,
			AlertThresholdPercent: 50,
			PauseOnExhausted:      true,
		}))
		g := NewGuard(s, defaults(), nil)
		g.Record(ctx, "anthropic", "extract", "inst-1", 0, 3.00)

		d, err := g.CheckAllowed(ctx)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 2.00, d.Usage.LimitUSD)
	})
}

func TestGuardThresholdAlert(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewGuard(newTestStore(t), defaults(), NewAlerter(srv.URL))

	// Below threshold: no alert.
	g.Record(ctx, "anthropic", "extract", "inst-1", 0, 1.00)
	assert.Equal(t, int32(0), hits.Load())

	// Crosses 80%: exactly one alert, repeated recordings stay silent.
	g.Record(ctx, "anthropic", "extract", "inst-1", 0, 3.50)
	g.Record(ctx, "anthropic", "extract", "inst-2", 0, 0.10)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExceededError(t *testing.T) {
	err := &ExceededError{UsedUSD: 5.00, LimitUSD: 5.00}
	assert.Contains(t, err.Error(), "$5.00")
	assert.Contains(t, err.Error(), "exhausted")
}

func TestPercentUsed(t *testing.T) {
	assert.Equal(t, 0, percentUsed(1, 0))
	assert.Equal(t, 50, percentUsed(2.5, 5))
	assert.Equal(t, 100, percentUsed(5, 5))
	assert.Equal(t, 33, percentUsed(1, 3))
}
