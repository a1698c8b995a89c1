package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"github.com/dineshlahiru/contactsync/internal/budget"
	"github.com/dineshlahiru/contactsync/internal/cost"
	"github.com/dineshlahiru/contactsync/internal/extract"
	"github.com/dineshlahiru/contactsync/internal/fetch"
	"github.com/dineshlahiru/contactsync/internal/reconcile"
	"github.com/dineshlahiru/contactsync/internal/store"
	"github.com/dineshlahiru/contactsync/internal/syncer"
	"github.com/dineshlahiru/contactsync/pkg/anthropic"
	"github.com/dineshlahiru/contactsync/pkg/firecrawl"
	"github.com/dineshlahiru/contactsync/pkg/jina"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "contactsync.db"
		}
		s, err = store.NewSQLite(path)
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func initGuard(s store.Store) *budget.Guard {
	var alerter *budget.Alerter
	if cfg.Budget.AlertWebhookURL != "" {
		alerter = budget.NewAlerter(cfg.Budget.AlertWebhookURL)
	}
	return budget.NewGuard(s, cfg.Budget.Defaults(), alerter)
}

// initFetchChain builds the ordered transport chain: direct HTTP first,
// then Jina Reader, then Firecrawl, each enabled only when its key is set.
func initFetchChain() *fetch.Chain {
	transports := []fetch.Transport{fetch.NewDirectTransport()}
	if cfg.Jina.Key != "" {
		transports = append(transports,
			fetch.NewJinaTransport(jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))))
	}
	if cfg.Firecrawl.Key != "" {
		transports = append(transports,
			fetch.NewFirecrawlTransport(firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))))
	}
	chain := fetch.NewChain(transports...)
	if cfg.Fetch.FallbackRPS > 0 {
		chain = chain.WithFallbackLimit(cfg.Fetch.FallbackRPS, cfg.Fetch.FallbackBurst)
	}
	return chain
}

func initClassifier() (*reconcile.Classifier, error) {
	if cfg.Sync.ClassifierRules == "" {
		return reconcile.NewClassifier(nil), nil
	}
	raw, err := os.ReadFile(cfg.Sync.ClassifierRules)
	if err != nil {
		return nil, eris.Wrap(err, "read classifier rules")
	}
	rules, err := reconcile.LoadRules(raw)
	if err != nil {
		return nil, err
	}
	return reconcile.NewClassifier(rules), nil
}

func initSyncer(s store.Store, opts ...syncer.Option) (*syncer.Syncer, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic key is required (CONTACTSYNC_ANTHROPIC_KEY)")
	}

	classifier, err := initClassifier()
	if err != nil {
		return nil, err
	}

	calc := cost.NewCalculator(cfg.Pricing)
	engine := extract.NewEngine(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, calc)

	opts = append(opts, syncer.WithReconcileEngine(reconcile.NewEngine(s, classifier)))
	return syncer.New(s, initGuard(s), initFetchChain(), engine, opts...), nil
}
