// Package syncer orchestrates a sync run: budget gate, fetch, extraction,
// change detection, operator preview, reconciliation, and the audit log.
// The orchestrator stops at preview; importing is a separate explicit step.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dineshlahiru/contactsync/internal/budget"
	"github.com/dineshlahiru/contactsync/internal/extract"
	"github.com/dineshlahiru/contactsync/internal/fetch"
	"github.com/dineshlahiru/contactsync/internal/model"
	"github.com/dineshlahiru/contactsync/internal/reconcile"
	"github.com/dineshlahiru/contactsync/internal/store"
)

// Phase aliases the model's sync phase; the transition table lives there.
type Phase = model.SyncPhase

const (
	PhaseIdle       = model.PhaseIdle
	PhaseFetching   = model.PhaseFetching
	PhaseExtracting = model.PhaseExtracting
	PhasePreview    = model.PhasePreview
	PhaseImporting  = model.PhaseImporting
	PhaseComplete   = model.PhaseComplete
	PhaseError      = model.PhaseError
)

// Progress is the advisory event emitted at each phase transition.
type Progress struct {
	Phase       Phase                `json:"phase"`
	Progress    int                  `json:"progress"`
	CurrentStep string               `json:"current_step"`
	Data        *model.ExtractedData `json:"extracted_data,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// ProgressFunc receives progress events synchronously. It must not block.
type ProgressFunc func(Progress)

// Fetcher retrieves a page. Satisfied by *fetch.Chain.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// Extractor turns page HTML into structured contacts. Satisfied by
// *extract.Engine.
type Extractor interface {
	Extract(ctx context.Context, institutionName, sourceURL, html string) (*extract.Result, error)
}

// Syncer coordinates sync runs. Per-institution locks ensure a second
// concurrent run for the same institution fails fast instead of
// double-spending budget and racing on reconciliation.
type Syncer struct {
	store      store.Store
	guard      *budget.Guard
	fetcher    Fetcher
	extractor  Extractor
	engine     *reconcile.Engine
	onProgress ProgressFunc

	mu     sync.Mutex
	active map[string]bool
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Syncer) { s.onProgress = fn }
}

// WithReconcileEngine substitutes the reconciliation engine, e.g. with a
// custom position classifier.
func WithReconcileEngine(e *reconcile.Engine) Option {
	return func(s *Syncer) { s.engine = e }
}

// New creates a Syncer.
func New(st store.Store, guard *budget.Guard, fetcher Fetcher, extractor Extractor, opts ...Option) *Syncer {
	s := &Syncer{
		store:     st,
		guard:     guard,
		fetcher:   fetcher,
		extractor: extractor,
		engine:    reconcile.NewEngine(st, nil),
		active:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tryLock reserves the institution for one run.
func (s *Syncer) tryLock(institutionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[institutionID] {
		return false
	}
	s.active[institutionID] = true
	return true
}

func (s *Syncer) unlock(institutionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, institutionID)
}

// Begin starts a sync session for the institution, acquiring its lock.
func (s *Syncer) Begin(ctx context.Context, institutionID string) (*Sync, error) {
	inst, err := s.store.GetInstitution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	if !s.tryLock(institutionID) {
		return nil, eris.Errorf("syncer: sync already in progress for institution %s", institutionID)
	}

	run := &Sync{s: s, institution: inst, phase: PhaseIdle}
	run.emit(0, "ready")
	return run, nil
}

// DueInstitutions returns the institutions whose auto-sync schedule has
// elapsed at now. A predicate, not a scheduler.
func (s *Syncer) DueInstitutions(ctx context.Context, now time.Time) ([]model.Institution, error) {
	all, err := s.store.ListSyncSettings(ctx)
	if err != nil {
		return nil, err
	}

	var due []model.Institution
	for _, settings := range all {
		if !settings.AutoSyncEnabled || !settings.Due(now) {
			continue
		}
		inst, err := s.store.GetInstitution(ctx, settings.InstitutionID)
		if err != nil {
			zap.L().Warn("syncer: skipping due institution with missing record",
				zap.String("institution_id", settings.InstitutionID),
				zap.Error(err),
			)
			continue
		}
		due = append(due, *inst)
	}
	return due, nil
}

// Summary is the outcome of an unattended FullSync run.
type Summary struct {
	InstitutionID    string  `json:"institution_id"`
	Success          bool    `json:"success"`
	Changed          bool    `json:"changed"`
	ContentHash      string  `json:"content_hash,omitempty"`
	ContactsFound    int     `json:"contacts_found"`
	ContactsImported int     `json:"contacts_imported"`
	DivisionsCreated int     `json:"divisions_created"`
	ContactsSkipped  int     `json:"contacts_skipped"`
	TokensUsed       int     `json:"tokens_used"`
	CostUSD          float64 `json:"cost_usd"`
	Error            string  `json:"error,omitempty"`
}

// FullSync runs the whole chain unattended: precheck, fetch+extract, import.
// Fetch/extract failures are reported in the summary, not as an error, so a
// batch over many institutions keeps going; budget denial and lock
// contention are errors because no work was attempted.
func (s *Syncer) FullSync(ctx context.Context, institutionID, sourceURL string, opts reconcile.Options) (*Summary, error) {
	run, err := s.Begin(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	defer run.Release()

	pre, err := run.PreCheck(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	if !pre.Allowed {
		if pre.BudgetExceeded && pre.Usage != nil {
			return nil, &budget.ExceededError{UsedUSD: pre.Usage.UsedUSD, LimitUSD: pre.Usage.LimitUSD}
		}
		return nil, eris.New("syncer: " + pre.Reason)
	}

	fe := run.FetchAndExtract(ctx)
	summary := &Summary{
		InstitutionID: institutionID,
		Changed:       fe.Changed,
		ContentHash:   fe.ContentHash,
		TokensUsed:    int(fe.InputTokens + fe.OutputTokens),
		CostUSD:       fe.CostUSD,
		Error:         fe.Error,
	}
	if !fe.Success {
		return summary, nil
	}
	summary.ContactsFound = fe.Data.ContactsFound()

	imp, err := run.ImportContacts(ctx, opts)
	if err != nil {
		summary.Error = err.Error()
		return summary, nil
	}
	summary.Success = true
	summary.ContactsImported = imp.ContactsImported
	summary.DivisionsCreated = imp.DivisionsCreated
	summary.ContactsSkipped = imp.ContactsSkipped
	return summary, nil
}
