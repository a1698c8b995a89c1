package syncer

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dineshlahiru/contactsync/internal/budget"
	"github.com/dineshlahiru/contactsync/internal/fingerprint"
	"github.com/dineshlahiru/contactsync/internal/model"
	"github.com/dineshlahiru/contactsync/internal/reconcile"
)

// Sync is one run's state: idle → fetching → extracting → preview →
// importing → complete, with error reachable from any phase. The session
// holds the institution lock until Release.
type Sync struct {
	s           *Syncer
	institution *model.Institution
	phase       Phase
	sourceURL   string

	data         *model.ExtractedData
	contentHash  string
	previousHash string

	inputTokens  int64
	outputTokens int64
	costUSD      float64

	releaseOnce sync.Once
}

// Phase returns the current phase.
func (r *Sync) Phase() Phase { return r.phase }

// Institution returns the institution this run belongs to.
func (r *Sync) Institution() *model.Institution { return r.institution }

// Release frees the institution lock. Safe to call more than once; always
// call it when abandoning a run before import.
func (r *Sync) Release() {
	r.releaseOnce.Do(func() { r.s.unlock(r.institution.ID) })
}

// advance moves the run to the next phase, rejecting anything the
// transition table forbids. It is the only mutator besides fail.
func (r *Sync) advance(to Phase) error {
	if !r.phase.CanTransition(to) {
		return eris.Errorf("syncer: invalid phase transition %s -> %s", r.phase, to)
	}
	r.phase = to
	return nil
}

func (r *Sync) emit(progress int, step string) {
	if r.s.onProgress == nil {
		return
	}
	r.s.onProgress(Progress{
		Phase:       r.phase,
		Progress:    progress,
		CurrentStep: step,
		Data:        r.data,
	})
}

func (r *Sync) fail(step string, err error) {
	r.phase = PhaseError
	if r.s.onProgress != nil {
		r.s.onProgress(Progress{
			Phase:       PhaseError,
			CurrentStep: step,
			Error:       err.Error(),
		})
	}
}

// PreCheckResult is the outcome of the budget-and-URL gate. BudgetExceeded
// distinguishes a spend denial from other denials such as a missing URL;
// Usage is informational and present either way.
type PreCheckResult struct {
	Allowed        bool          `json:"allowed"`
	Reason         string        `json:"reason,omitempty"`
	BudgetExceeded bool          `json:"budget_exceeded,omitempty"`
	SourceURL      string        `json:"source_url,omitempty"`
	Usage          *budget.Usage `json:"usage,omitempty"`
}

// PreCheck gates the run on budget and resolves the source URL: the
// argument wins, stored settings are the fallback, neither means no run.
func (r *Sync) PreCheck(ctx context.Context, sourceURL string) (*PreCheckResult, error) {
	decision, err := r.s.guard.CheckAllowed(ctx)
	if err != nil {
		r.fail("budget check", err)
		return nil, err
	}
	if !decision.Allowed {
		return &PreCheckResult{Reason: decision.Reason, BudgetExceeded: true, Usage: &decision.Usage}, nil
	}

	if sourceURL == "" {
		settings, err := r.s.store.GetSyncSettings(ctx, r.institution.ID)
		if err != nil {
			r.fail("load sync settings", err)
			return nil, err
		}
		if settings != nil {
			sourceURL = settings.SourceURL
			r.previousHash = settings.ContentHash
		}
	} else if settings, err := r.s.store.GetSyncSettings(ctx, r.institution.ID); err == nil && settings != nil {
		r.previousHash = settings.ContentHash
	}

	if sourceURL == "" {
		return &PreCheckResult{
			Reason: "no source URL: pass one or configure it in sync settings",
			Usage:  &decision.Usage,
		}, nil
	}

	r.sourceURL = sourceURL
	return &PreCheckResult{Allowed: true, SourceURL: sourceURL, Usage: &decision.Usage}, nil
}

// FetchExtractResult reports the fetch+extract leg. Failure is reported in
// the result, not panics or bare errors, because the unattended path
// inspects it: tokens actually consumed are always present.
type FetchExtractResult struct {
	Success      bool                 `json:"success"`
	Data         *model.ExtractedData `json:"data,omitempty"`
	ContentHash  string               `json:"content_hash,omitempty"`
	PreviousHash string               `json:"previous_hash,omitempty"`
	Changed      bool                 `json:"changed"`
	InputTokens  int64                `json:"input_tokens"`
	OutputTokens int64                `json:"output_tokens"`
	CostUSD      float64              `json:"cost_usd"`
	Error        string               `json:"error,omitempty"`
}

// FetchAndExtract fetches the page, fingerprints the raw content, and runs
// extraction, stopping at preview. It never advances to import. On failure
// a failed SyncLogEntry is appended with whatever cost was consumed.
func (r *Sync) FetchAndExtract(ctx context.Context) *FetchExtractResult {
	if err := r.advance(PhaseFetching); err != nil {
		return &FetchExtractResult{Error: err.Error()}
	}
	r.emit(10, "fetching "+r.sourceURL)

	page, err := r.s.fetcher.Fetch(ctx, r.sourceURL)
	if err != nil {
		r.fail("fetch", err)
		r.logFailure(ctx, err)
		return &FetchExtractResult{Error: err.Error()}
	}

	r.contentHash = fingerprint.Fingerprint(page.HTML)
	changed := fingerprint.Changed(r.previousHash, r.contentHash)

	if err := r.advance(PhaseExtracting); err != nil {
		return &FetchExtractResult{Error: err.Error()}
	}
	r.emit(40, "extracting contacts via "+page.Source)

	extracted, err := r.s.extractor.Extract(ctx, r.institution.Name, r.sourceURL, page.HTML)
	if extracted != nil {
		r.inputTokens = extracted.InputTokens
		r.outputTokens = extracted.OutputTokens
		r.costUSD = extracted.CostUSD
		// Tokens were spent whether or not the response parsed.
		if r.costUSD > 0 {
			r.s.guard.Record(ctx, "anthropic", "extract", r.institution.ID,
				int(r.inputTokens+r.outputTokens), r.costUSD)
		}
	}
	result := &FetchExtractResult{
		ContentHash:  r.contentHash,
		PreviousHash: r.previousHash,
		Changed:      changed,
		InputTokens:  r.inputTokens,
		OutputTokens: r.outputTokens,
		CostUSD:      r.costUSD,
	}
	if err != nil {
		r.fail("extract", err)
		r.logFailure(ctx, err)
		result.Error = err.Error()
		return result
	}

	r.data = extracted.Data
	if err := r.advance(PhasePreview); err != nil {
		result.Error = err.Error()
		return result
	}
	r.emit(70, "preview ready")

	result.Success = true
	result.Data = extracted.Data
	return result
}

// ImportResult reports the import leg.
type ImportResult struct {
	ContactsImported int `json:"contacts_imported"`
	DivisionsCreated int `json:"divisions_created"`
	ContactsSkipped  int `json:"contacts_skipped"`
}

// ImportContacts runs reconciliation for a previewed run. It must be
// invoked explicitly; preview never auto-advances. The run's lock is
// released on completion either way.
func (r *Sync) ImportContacts(ctx context.Context, opts reconcile.Options) (*ImportResult, error) {
	defer r.Release()

	if r.data == nil {
		err := eris.New("syncer: nothing to import, run fetch and extract first")
		r.fail("import", err)
		return nil, err
	}
	// A completed or errored run cannot re-import; terminal phases stay put.
	if err := r.advance(PhaseImporting); err != nil {
		return nil, err
	}
	r.emit(80, "reconciling contacts")

	res, err := r.s.engine.Import(ctx, r.data, r.institution.ID, r.contentHash, opts)
	if err != nil {
		r.fail("import", err)
		r.logFailure(ctx, err)
		return nil, err
	}

	entry := model.SyncLogEntry{
		InstitutionID:    r.institution.ID,
		SourceURL:        r.sourceURL,
		ContentHash:      r.contentHash,
		Status:           model.SyncStatusSuccess,
		ContactsFound:    r.data.ContactsFound(),
		ContactsImported: res.ContactsImported,
		DivisionsCreated: res.DivisionsCreated,
		ChangesDetected:  fingerprint.Changed(r.previousHash, r.contentHash),
		TokensUsed:       int(r.inputTokens + r.outputTokens),
		CostUSD:          r.costUSD,
	}
	if _, err := r.s.store.AppendSyncLog(ctx, entry); err != nil {
		// Import already succeeded; a missing audit row is worth a loud log
		// but not a failed run.
		zap.L().Error("syncer: failed to append sync log",
			zap.String("institution_id", r.institution.ID),
			zap.Error(err),
		)
	}

	if err := r.advance(PhaseComplete); err != nil {
		return nil, err
	}
	r.emit(100, "complete")
	return &ImportResult{
		ContactsImported: res.ContactsImported,
		DivisionsCreated: res.DivisionsCreated,
		ContactsSkipped:  res.ContactsSkipped,
	}, nil
}

// logFailure appends the failed-attempt audit row with consumed cost.
func (r *Sync) logFailure(ctx context.Context, cause error) {
	entry := model.SyncLogEntry{
		InstitutionID: r.institution.ID,
		SourceURL:     r.sourceURL,
		ContentHash:   r.contentHash,
		Status:        model.SyncStatusFailed,
		TokensUsed:    int(r.inputTokens + r.outputTokens),
		CostUSD:       r.costUSD,
		ErrorMessage:  cause.Error(),
	}
	if _, err := r.s.store.AppendSyncLog(ctx, entry); err != nil {
		zap.L().Error("syncer: failed to append sync log",
			zap.String("institution_id", r.institution.ID),
			zap.Error(err),
		)
	}
}
