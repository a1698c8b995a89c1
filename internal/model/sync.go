package model

import "time"

// SyncFrequency controls how often an institution is due for an automatic sync.
type SyncFrequency string

const (
	SyncDaily   SyncFrequency = "daily"
	SyncWeekly  SyncFrequency = "weekly"
	SyncMonthly SyncFrequency = "monthly"
)

// Interval returns the wall-clock duration between automatic syncs.
// Unknown values fall back to weekly.
func (f SyncFrequency) Interval() time.Duration {
	switch f {
	case SyncDaily:
		return 24 * time.Hour
	case SyncMonthly:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// SyncSettings is the per-institution sync configuration and bookkeeping.
// ContentHash is the fingerprint of the source content as of the last
// successful import; it signals change to the operator, it never skips work.
type SyncSettings struct {
	InstitutionID   string        `json:"institution_id"`
	SourceURL       string        `json:"source_url,omitempty"`
	ContentHash     string        `json:"content_hash,omitempty"`
	LastSyncedAt    *time.Time    `json:"last_synced_at,omitempty"`
	AutoSyncEnabled bool          `json:"auto_sync_enabled"`
	SyncFrequency   SyncFrequency `json:"sync_frequency"`
}

// Due reports whether the institution is due for an automatic sync at now.
// Never-synced institutions are always due.
func (s *SyncSettings) Due(now time.Time) bool {
	if s.LastSyncedAt == nil {
		return true
	}
	return !now.Before(s.LastSyncedAt.Add(s.SyncFrequency.Interval()))
}

// SyncPhase is the orchestrator state of one sync run. The happy path is
// idle, fetching, extracting, preview, importing, complete, strictly in that
// order; error is reachable from any phase.
type SyncPhase string

const (
	PhaseIdle       SyncPhase = "idle"
	PhaseFetching   SyncPhase = "fetching"
	PhaseExtracting SyncPhase = "extracting"
	PhasePreview    SyncPhase = "preview"
	PhaseImporting  SyncPhase = "importing"
	PhaseComplete   SyncPhase = "complete"
	PhaseError      SyncPhase = "error"
)

var nextPhase = map[SyncPhase]SyncPhase{
	PhaseIdle:       PhaseFetching,
	PhaseFetching:   PhaseExtracting,
	PhaseExtracting: PhasePreview,
	PhasePreview:    PhaseImporting,
	PhaseImporting:  PhaseComplete,
}

// CanTransition reports whether to is a legal next phase from p.
func (p SyncPhase) CanTransition(to SyncPhase) bool {
	if to == PhaseError {
		return true
	}
	return nextPhase[p] == to
}

// Terminal reports whether the run is over.
func (p SyncPhase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// SyncStatus is the terminal status of a sync attempt.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// SyncLogEntry is one append-only audit row per orchestrator run, recorded
// for successes and failures alike, always carrying whatever cost was
// actually consumed.
type SyncLogEntry struct {
	ID               string     `json:"id"`
	InstitutionID    string     `json:"institution_id"`
	SourceURL        string     `json:"source_url"`
	ContentHash      string     `json:"content_hash,omitempty"`
	Status           SyncStatus `json:"status"`
	ContactsFound    int        `json:"contacts_found"`
	ContactsImported int        `json:"contacts_imported"`
	DivisionsCreated int        `json:"divisions_created"`
	ChangesDetected  bool       `json:"changes_detected"`
	TokensUsed       int        `json:"tokens_used"`
	CostUSD          float64    `json:"cost_usd"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	SyncedAt         time.Time  `json:"synced_at"`
}
