package model

import "time"

// BudgetSettings is the singleton monthly spend configuration.
type BudgetSettings struct {
	MonthlyLimitUSD       float64 `json:"monthly_limit_usd"`
	AlertThresholdPercent int     `json:"alert_threshold_percent"`
	PauseOnExhausted      bool    `json:"pause_on_exhausted"`
}

// UsageRecord is one append-only ledger row of API spend. Aggregated by
// MonthKey to compute the running monthly total.
type UsageRecord struct {
	ID            string    `json:"id"`
	Service       string    `json:"service"`
	Operation     string    `json:"operation"`
	InstitutionID string    `json:"institution_id,omitempty"`
	TokensUsed    int       `json:"tokens_used"`
	CostUSD       float64   `json:"cost_usd"`
	MonthKey      string    `json:"month_key"`
	CreatedAt     time.Time `json:"created_at"`
}

// MonthlyUsage is the aggregate of a month's ledger rows.
type MonthlyUsage struct {
	MonthKey   string  `json:"month_key"`
	TokensUsed int     `json:"tokens_used"`
	CostUSD    float64 `json:"cost_usd"`
	Records    int     `json:"records"`
}

// MonthKey formats t as the calendar-month ledger key, e.g. "2026-08".
// Always UTC so a sync near midnight lands in one deterministic month.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
