// Package reconcile merges extracted contact data into the persistent
// institution/division/contact graph. Imports are partial-failure tolerant:
// a contact that cannot be placed is skipped and counted, never fatal.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dineshlahiru/contactsync/internal/model"
	"github.com/dineshlahiru/contactsync/internal/store"
)

const (
	divisionHeadOffice = "Head Office"
	divisionBranches   = "Branches"
)

// Options controls reconciliation behavior.
type Options struct {
	CreateDivisionsAutomatically bool `json:"create_divisions_automatically"`
	UpdateExistingContacts       bool `json:"update_existing_contacts"`
	ReplaceAllContacts           bool `json:"replace_all_contacts"`
}

// DefaultOptions creates divisions, updates on email match, never replaces.
func DefaultOptions() Options {
	return Options{CreateDivisionsAutomatically: true, UpdateExistingContacts: true}
}

// Result summarizes one import.
type Result struct {
	ContactsImported int `json:"contacts_imported"`
	DivisionsCreated int `json:"divisions_created"`
	ContactsSkipped  int `json:"contacts_skipped"`
}

// ImportError wraps a persistence failure during reconciliation.
type ImportError struct {
	Step string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("reconcile: %s: %v", e.Step, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Engine reconciles ExtractedData into the store.
type Engine struct {
	store      store.Store
	classifier *Classifier
	titleCaser cases.Caser
}

// NewEngine creates an Engine; a nil classifier uses the default rules.
func NewEngine(s store.Store, classifier *Classifier) *Engine {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &Engine{
		store:      s,
		classifier: classifier,
		titleCaser: cases.Title(language.English, cases.NoLower),
	}
}

// Import merges the extracted data into the institution's directory and, on
// success only, stamps the sync settings with contentHash and a fresh
// lastSyncedAt before recomputing division contact counts.
func (e *Engine) Import(ctx context.Context, data *model.ExtractedData, institutionID, contentHash string, opts Options) (*Result, error) {
	if data == nil {
		return nil, eris.New("reconcile: nil extracted data")
	}

	res := &Result{}
	divisions, err := e.resolveDivisions(ctx, data, institutionID, opts, res)
	if err != nil {
		return nil, err
	}

	if opts.ReplaceAllContacts {
		n, err := e.store.DeleteContactsByInstitution(ctx, institutionID)
		if err != nil {
			return nil, &ImportError{Step: "replace contacts", Err: err}
		}
		zap.L().Info("reconcile: replaced existing contacts",
			zap.String("institution_id", institutionID),
			zap.Int("deleted", n),
		)
	}

	order := 0
	for _, c := range data.HeadOffice {
		if err := e.importContact(ctx, c, institutionID, divisionHeadOffice, DefaultLevelHeadOffice, order, divisions, opts, res); err != nil {
			return nil, err
		}
		order++
	}
	for _, c := range data.Branches {
		if err := e.importContact(ctx, c, institutionID, divisionBranches, DefaultLevelBranch, order, divisions, opts, res); err != nil {
			return nil, err
		}
		order++
	}
	for _, office := range data.DistrictOffices {
		defaultDiv := model.DistrictDivisionName(office.District)
		for _, c := range office.Contacts {
			if err := e.importContact(ctx, c, institutionID, defaultDiv, DefaultLevelDistrict, order, divisions, opts, res); err != nil {
				return nil, err
			}
			order++
		}
	}

	if err := e.stampSettings(ctx, institutionID, contentHash); err != nil {
		return nil, err
	}
	if err := e.store.RecomputeContactCounts(ctx, institutionID); err != nil {
		return nil, &ImportError{Step: "recompute contact counts", Err: err}
	}

	zap.L().Info("reconcile: import complete",
		zap.String("institution_id", institutionID),
		zap.Int("contacts_imported", res.ContactsImported),
		zap.Int("divisions_created", res.DivisionsCreated),
		zap.Int("contacts_skipped", res.ContactsSkipped),
	)
	return res, nil
}

// resolveDivisions builds the name → division map the contact loop binds
// against, creating divisions per the options.
func (e *Engine) resolveDivisions(ctx context.Context, data *model.ExtractedData, institutionID string, opts Options, res *Result) (map[string]*model.Division, error) {
	existing, err := e.store.ListDivisions(ctx, institutionID)
	if err != nil {
		return nil, &ImportError{Step: "list divisions", Err: err}
	}
	byName := make(map[string]*model.Division, len(existing))
	for i := range existing {
		byName[existing[i].Name] = &existing[i]
	}

	// District synthetic names get created through the metadata path below,
	// never the generic one.
	districtNames := make(map[string]bool, len(data.DistrictOffices))
	for _, office := range data.DistrictOffices {
		districtNames[model.DistrictDivisionName(office.District)] = true
	}

	create := func(in model.CreateDivisionInput) error {
		div, err := e.store.CreateDivision(ctx, in)
		if err != nil {
			return &ImportError{Step: fmt.Sprintf("create division %q", in.Name), Err: err}
		}
		byName[div.Name] = div
		res.DivisionsCreated++
		return nil
	}

	if opts.CreateDivisionsAutomatically {
		wanted := []string{divisionHeadOffice}
		if len(data.Branches) > 0 {
			wanted = append(wanted, divisionBranches)
		}
		for _, name := range data.Divisions {
			// Synthetic district names are generated, never cased; casing
			// one here would split it from its metadata-path twin.
			if districtNames[name] {
				continue
			}
			wanted = append(wanted, e.canonicalName(name))
		}
		for _, name := range wanted {
			if name == "" || byName[name] != nil || districtNames[name] {
				continue
			}
			if err := create(model.CreateDivisionInput{InstitutionID: institutionID, Name: name}); err != nil {
				return nil, err
			}
		}

		for _, office := range data.DistrictOffices {
			name := model.DistrictDivisionName(office.District)
			if byName[name] != nil {
				continue
			}
			div, err := e.store.GetDivisionByName(ctx, institutionID, name)
			if err != nil {
				return nil, &ImportError{Step: "lookup district division", Err: err}
			}
			if div != nil {
				byName[name] = div
				continue
			}
			if err := create(model.CreateDivisionInput{
				InstitutionID: institutionID,
				Name:          name,
				Address:       office.Address,
				Phones:        office.Phones,
				Fax:           office.Fax,
				Email:         office.Email,
				LocationType:  model.LocationTypeDistrictOffice,
				District:      office.District,
			}); err != nil {
				return nil, err
			}
		}
		return byName, nil
	}

	// Non-auto mode: reuse whatever exists, synthesize only Head Office.
	if byName[divisionHeadOffice] == nil {
		if err := create(model.CreateDivisionInput{InstitutionID: institutionID, Name: divisionHeadOffice}); err != nil {
			return nil, err
		}
	}
	return byName, nil
}

// importContact converts one extracted contact and inserts or updates it.
// An unresolved division name skips the contact, it never aborts the batch.
func (e *Engine) importContact(ctx context.Context, c model.ExtractedContact, institutionID, defaultDivision string, defaultLevel, order int, divisions map[string]*model.Division, opts Options, res *Result) error {
	div := divisions[defaultDivision]
	if c.Division != "" {
		named := divisions[c.Division]
		if named == nil {
			named = divisions[e.canonicalName(c.Division)]
		}
		if named != nil {
			div = named
		}
	}
	if div == nil {
		zap.L().Warn("reconcile: skipping contact, division not found",
			zap.String("institution_id", institutionID),
			zap.String("position", c.Position),
			zap.String("division", c.Division),
			zap.String("fallback_division", defaultDivision),
		)
		res.ContactsSkipped++
		return nil
	}

	level, isHead := e.classifier.Classify(c.Position, defaultLevel)

	if opts.UpdateExistingContacts && !opts.ReplaceAllContacts && c.Email != "" {
		existing, err := e.store.GetContactByEmail(ctx, institutionID, c.Email)
		if err != nil {
			return &ImportError{Step: "lookup contact by email", Err: err}
		}
		if existing != nil {
			err := e.store.UpdateContact(ctx, existing.ID, model.UpdateContactInput{
				DivisionID:     div.ID,
				Name:           c.Name,
				Position:       c.Position,
				Fax:            c.Fax,
				Phones:         c.Phones,
				IsHead:         isHead,
				HierarchyLevel: level,
			})
			if err != nil {
				return &ImportError{Step: "update contact", Err: err}
			}
			res.ContactsImported++
			return nil
		}
	}

	_, err := e.store.CreateContact(ctx, model.CreateContactInput{
		DivisionID:     div.ID,
		InstitutionID:  institutionID,
		Name:           c.Name,
		Position:       c.Position,
		Email:          c.Email,
		Fax:            c.Fax,
		Phones:         c.Phones,
		IsHead:         isHead,
		HierarchyLevel: level,
		DisplayOrder:   order,
	})
	if err != nil {
		return &ImportError{Step: "create contact", Err: err}
	}
	res.ContactsImported++
	return nil
}

// stampSettings records the content hash and sync time, preserving the
// operator's URL and schedule if settings already exist.
func (e *Engine) stampSettings(ctx context.Context, institutionID, contentHash string) error {
	settings, err := e.store.GetSyncSettings(ctx, institutionID)
	if err != nil {
		return &ImportError{Step: "load sync settings", Err: err}
	}
	if settings == nil {
		settings = &model.SyncSettings{
			InstitutionID: institutionID,
			SyncFrequency: model.SyncWeekly,
		}
	}
	now := time.Now().UTC()
	settings.ContentHash = contentHash
	settings.LastSyncedAt = &now
	if err := e.store.UpsertSyncSettings(ctx, settings); err != nil {
		return &ImportError{Step: "persist sync settings", Err: err}
	}
	return nil
}

func (e *Engine) canonicalName(name string) string {
	return e.titleCaser.String(name)
}
