// Package budget gates paid API work behind a monthly spend limit and keeps
// the append-only usage ledger current. The guard is advisory storage-side:
// every caller checks before spending and records after.
package budget

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dineshlahiru/contactsync/internal/model"
	"github.com/dineshlahiru/contactsync/internal/store"
)

// Usage summarizes the current month's position against the limit.
type Usage struct {
	UsedUSD     float64 `json:"used_usd"`
	LimitUSD    float64 `json:"limit_usd"`
	PercentUsed int     `json:"percent_used"`
}

// Decision is the outcome of a budget check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Usage   Usage  `json:"usage"`
}

// ExceededError signals that the monthly budget is exhausted.
type ExceededError struct {
	UsedUSD  float64
	LimitUSD float64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("budget: monthly limit exhausted ($%.2f used of $%.2f)", e.UsedUSD, e.LimitUSD)
}

// Guard enforces the monthly budget. Settings stored by the operator
// override the configured defaults.
type Guard struct {
	store    store.Store
	defaults model.BudgetSettings
	alerter  *Alerter

	mu           sync.Mutex
	alertedMonth string
}

// NewGuard creates a Guard. alerter may be nil to disable webhook alerts.
func NewGuard(s store.Store, defaults model.BudgetSettings, alerter *Alerter) *Guard {
	return &Guard{store: s, defaults: defaults, alerter: alerter}
}

func (g *Guard) settings(ctx context.Context) (model.BudgetSettings, error) {
	stored, err := g.store.GetBudgetSettings(ctx)
	if err != nil {
		return model.BudgetSettings{}, eris.Wrap(err, "budget: load settings")
	}
	if stored != nil {
		return *stored, nil
	}
	return g.defaults, nil
}

// CheckAllowed reports whether paid work may proceed this month.
func (g *Guard) CheckAllowed(ctx context.Context) (*Decision, error) {
	settings, err := g.settings(ctx)
	if err != nil {
		return nil, err
	}

	monthKey := model.MonthKey(time.Now())
	usage, err := g.store.GetMonthlyUsage(ctx, monthKey)
	if err != nil {
		return nil, eris.Wrap(err, "budget: load monthly usage")
	}

	d := &Decision{
		Allowed: true,
		Usage: Usage{
			UsedUSD:     usage.CostUSD,
			LimitUSD:    settings.MonthlyLimitUSD,
			PercentUsed: percentUsed(usage.CostUSD, settings.MonthlyLimitUSD),
		},
	}

	if settings.PauseOnExhausted && settings.MonthlyLimitUSD > 0 && usage.CostUSD >= settings.MonthlyLimitUSD {
		d.Allowed = false
		d.Reason = fmt.Sprintf("monthly budget exhausted: $%.2f used of $%.2f limit (resumes %s)",
			usage.CostUSD, settings.MonthlyLimitUSD, nextMonth(time.Now()).Format("2006-01-02"))
	}
	return d, nil
}

// Record appends one usage ledger row. Recording is best-effort: a failed
// write must never abort a sync that already spent the money, so errors are
// logged and swallowed.
func (g *Guard) Record(ctx context.Context, service, operation, institutionID string, tokens int, costUSD float64) {
	err := g.store.RecordUsage(ctx, model.UsageRecord{
		Service:       service,
		Operation:     operation,
		InstitutionID: institutionID,
		TokensUsed:    tokens,
		CostUSD:       costUSD,
	})
	if err != nil {
		zap.L().Warn("budget: failed to record usage",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Float64("cost_usd", costUSD),
			zap.Error(err),
		)
		return
	}
	g.maybeAlert(ctx)
}

// maybeAlert fires the threshold alert at most once per calendar month.
func (g *Guard) maybeAlert(ctx context.Context) {
	settings, err := g.settings(ctx)
	if err != nil || settings.AlertThresholdPercent <= 0 || settings.MonthlyLimitUSD <= 0 {
		return
	}

	monthKey := model.MonthKey(time.Now())
	usage, err := g.store.GetMonthlyUsage(ctx, monthKey)
	if err != nil {
		return
	}

	percent := percentUsed(usage.CostUSD, settings.MonthlyLimitUSD)
	if percent < settings.AlertThresholdPercent {
		return
	}

	g.mu.Lock()
	if g.alertedMonth == monthKey {
		g.mu.Unlock()
		return
	}
	g.alertedMonth = monthKey
	g.mu.Unlock()

	zap.L().Warn("budget: monthly spend crossed alert threshold",
		zap.String("month", monthKey),
		zap.Int("percent_used", percent),
		zap.Int("threshold_percent", settings.AlertThresholdPercent),
		zap.Float64("used_usd", usage.CostUSD),
		zap.Float64("limit_usd", settings.MonthlyLimitUSD),
	)

	if g.alerter != nil {
		g.alerter.Send(ctx, Alert{
			Type:     AlertBudgetThreshold,
			Severity: "warning",
			Message: fmt.Sprintf("Monthly API spend at %d%% of budget ($%.2f of $%.2f)",
				percent, usage.CostUSD, settings.MonthlyLimitUSD),
			Details: map[string]any{
				"month":        monthKey,
				"used_usd":     usage.CostUSD,
				"limit_usd":    settings.MonthlyLimitUSD,
				"percent_used": percent,
			},
			Timestamp: time.Now().UTC(),
		})
	}
}

func percentUsed(used, limit float64) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Round(used / limit * 100))
}

func nextMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
