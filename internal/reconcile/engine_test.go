package reconcile

import (
	"context"
	"path/filepath"
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

func newInstitution(t *testing.T, s store.Store) *model.Institution {
	t.Helper()
	inst, err := s.CreateInstitution(context.Background(), "Department of Agriculture")
	require.NoError(t, err)
	return inst
}

func sampleData() *model.ExtractedData {
	d := &model.ExtractedData{
		HeadOffice: []model.ExtractedContact{
			{Name: "Mr. S. Bandara", Position: "Director General", Email: "dg@agri.gov.lk", Phones: []string{"011-2696561"}},
			{Position: "Chief Accountant"},
		},
		Branches: []model.ExtractedContact{
			{Position: "Officer In Charge", Phones: []string{"037-2222345"}},
		},
		DistrictOffices: []model.ExtractedDistrictOffice{
			{
				District: "Kandy",
				Address:  "123 Peradeniya Rd, Kandy",
				Phones:   []string{"081-2388201"},
				Contacts: []model.ExtractedContact{{Position: "District Head"}},
			},
		},
	}
	d.NormalizeDivisions()
	return d
}

func TestEngineImport(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesDivisionsAndContacts", func(t *testing.T) {
		s := newTestStore(t)
		inst := newInstitution(t, s)
		engine := NewEngine(s, nil)

		res, err := engine.Import(ctx, sampleData(), inst.ID, "hash-1", DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 4, res.ContactsImported)
		assert.Equal(t, 3, res.DivisionsCreated) // Head Office, Branches, District Office - Kandy
		assert.Zero(t, res.ContactsSkipped)

		divs, err := s.ListDivisions(ctx, inst.ID)
		require.NoError(t, err)
		require.Len(t, divs, 3)

		// District office carries its location metadata.
		kandy, err := s.GetDivisionByName(ctx, inst.ID, "District Office - Kandy")
		require.NoError(t, err)
		require.NotNil(t, kandy)
		assert.Equal(t, model.LocationTypeDistrictOffice, kandy.LocationType)
		assert.Equal(t, "Kandy", kandy.District)
		assert.Equal(t, "123 Peradeniya Rd, Kandy", kandy.Address)
		assert.Equal(t, 1, kandy.ContactCount)

		// Leadership title classified as head of institution.
		dg, err := s.GetContactByEmail(ctx, inst.ID, "dg@agri.gov.lk")
		require.NoError(t, err)
		require.NotNil(t, dg)
		assert.True(t, dg.IsHead)
		assert.Equal(t, 1, dg.HierarchyLevel)

		// Settings stamped on success.
		settings, err := s.GetSyncSettings(ctx, inst.ID)
		require.NoError(t, err)
		require.NotNil(t, settings)
		assert.Equal(t, "hash-1", settings.ContentHash)
		require.NotNil(t, settings.LastSyncedAt)
	})

	t.Run("SecondImportCreatesNoDuplicateDivisions", func(t *testing.T) {
		s := newTestStore(t)
		inst := newInstitution(t, s)
		engine := NewEngine(s, nil)

		_, err := engine.Import(ctx, sampleData(), inst.ID, "hash-1", DefaultOptions())
		require.NoError(t, err)

		res, err := engine.Import(ctx, sampleData(), inst.ID, "hash-2", DefaultOptions())
		require.NoError(t, err)
		assert.Zero(t, res.DivisionsCreated)

		divs, err := s.ListDivisions(ctx, inst.ID)
		require.NoError(t, err)
		assert.Len(t, divs, 3)
	})

	t.Run("MisCasedDistrictCreatesOneDivision", func(t *testing.T) {
		s := newTestStore(t)
		inst := newInstitution(t, s)
		engine := NewEngine(s, nil)

		data := &model.ExtractedData{
			DistrictOffices: []model.ExtractedDistrictOffice{
				{
					District: "nuwara eliya",
					Address:  "45 Badulla Rd, Nuwara Eliya",
					Contacts: []model.ExtractedContact{{Position: "District Head"}},
				},
			},
		}
		data.NormalizeDivisions()

		res, err := engine.Import(ctx, data, inst.ID, "hash-1", DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 1, res.ContactsImported)
		assert.Equal(t, 2, res.DivisionsCreated) // Head Office + the district

		divs, err := s.ListDivisions(ctx, inst.ID)
		require.NoError(t, err)
		require.Len(t, divs, 2)

		// The lone district division keeps the extracted casing and carries
		// its location metadata; no cased twin without metadata exists.
		ne, err := s.GetDivisionByName(ctx, inst.ID, "District Office - nuwara eliya")
		require.NoError(t, err)
		require.NotNil(t, ne)
		assert.Equal(t, model.LocationTypeDistrictOffice, ne.LocationType)
		assert.Equal(t, "45 Badulla Rd, Nuwara Eliya", ne.Address)
		assert.Equal(t, 1, ne.ContactCount)
	})

	t.Run("DedupByEmailUpdatesInPlace", func(t *testing.T) {
		s := newTestStore(t)
		inst := newInstitution(t, s)
		engine := NewEngine(s, nil)

		first := &model.ExtractedData{HeadOffice: []model.ExtractedContact{
			{Position: "Officer", Email: "a@b.gov"},
		}}
		first.NormalizeDivisions()
		_, err := engine.Import(ctx, first, inst.ID, "h1", DefaultOptions())
		require.NoError(t, err)

		second := &model.ExtractedData{HeadOffice: []model.ExtractedContact{
			{Position: "Senior Officer", Email: "a@b.gov"},
		}}
		second.NormalizeDivisions()
		res, err := engine.Import(ctx, second, inst.ID, "h2", DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 1, res.ContactsImported)

		got, err := s.GetContactByEmail(ctx, inst.ID, "a@b.gov")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Senior Officer", got.Position)

		ho, err := s.GetDivisionByName(ctx, inst.ID, "Head Office")
		require.NoError(t, err)
		contacts, err := s.ListContacts(ctx, ho.ID)
		require.NoError(t, err)
		assert.Len(t, contacts, 1)
	})

	t.Run("ReplaceAllDropsPreExistingContacts", func(t *testing.T) {
		s := newTestStore(t)
		inst := newInstitution(t, s)
		engine := NewEngine(s, nil)

		_, err := engine.Import(ctx, sampleData(), inst.ID, "h1", DefaultOptions())
		require.NoError(t, err)

		replacement := &model.ExtractedData{HeadOffice: []model.ExtractedContact{
			{Position: "Commissioner General", Email: "cg@agri.gov.lk"},
		}}
		replacement.NormalizeDivisions()

		opts := DefaultOptions()
		opts.ReplaceAllContacts = true
		res, err := engine.Import(ctx, replacement, inst.ID, "h2", opts)
		require.NoError(t, err)
		assert.Equal(t, 1, res.ContactsImported)

		// Only the new contact survives; divisions are preserved.
		divs, err := s.ListDivisions(ctx, inst.ID)
		require.NoError(t, err)
		assert.Len(t, divs, 3)

		total := 0
		for _, d := range divs {
			contacts, err := s.ListContacts(ctx, d.ID)
			require.NoError(t, err)
			total += len(contacts)
		}
		assert.Equal(t, 1, total)
	})

	t.Run("NoUpdateInsertsUnconditionally", func(t *testing.T) {
		s := newTestStore(t)
		inst := newInstitution(t, s)
		engine := NewEngine(s, nil)

		data := &model.ExtractedData{HeadOffice: []model.ExtractedContact{
			{Position: "Officer", Email: "a@b.gov"},
		}}
		data.NormalizeDivisions()

		opts := DefaultOptions()
		opts.UpdateExistingContacts = false
		_, err := engine.Import(ctx, data, inst.ID, "h1", opts)
		require.NoError(t, err)
		_, err = engine.Import(ctx, data, inst.ID, "h2", opts)
		require.NoError(t, err)

		ho, err := s.GetDivisionByName(ctx, inst.ID, "Head Office")
		require.NoError(t, err)
		contacts, err := s.ListContacts(ctx, ho.ID)
		require.NoError(t, err)
		assert.Len(t, contacts, 2)
	})

	t.Run("NonAutoModeSkipsUnresolvedDivisions", func(t *testing.T) {
		s := newTestStore(t)
		inst := newInstitution(t, s)
		engine := NewEngine(s, nil)

		data := sampleData()
		opts := DefaultOptions()
		opts.CreateDivisionsAutomatically = false

		res, err := engine.Import(ctx, data, inst.ID, "h1", opts)
		require.NoError(t, err)

		// Head office contacts land in the synthesized Head Office; branch
		// and district contacts have nowhere to go.
		assert.Equal(t, 2, res.ContactsImported)
		assert.Equal(t, 2, res.ContactsSkipped)
		assert.Equal(t, 1, res.DivisionsCreated)
	})

	t.Run("NamedDivisionOverridesSectionDefault", func(t *testing.T) {
		s := newTestStore(t)
		inst := newInstitution(t, s)
		engine := NewEngine(s, nil)

		data := &model.ExtractedData{
			HeadOffice: []model.ExtractedContact{
				{Position: "Accountant", Division: "finance division"},
			},
			Divisions: []string{"finance division"},
		}
		data.NormalizeDivisions()

		res, err := engine.Import(ctx, data, inst.ID, "h1", DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 1, res.ContactsImported)

		// Canonicalized via title casing.
		fin, err := s.GetDivisionByName(ctx, inst.ID, "Finance Division")
		require.NoError(t, err)
		require.NotNil(t, fin)
		contacts, err := s.ListContacts(ctx, fin.ID)
		require.NoError(t, err)
		assert.Len(t, contacts, 1)
	})
}

func TestClassifier(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		position string
		level    int
		isHead   bool
	}{
		{"Director General", 1, true},
		{"General Manager", 1, true},
		{"Deputy Director General", 2, false},
		{"Additional Secretary", 2, false},
		{"Assistant Director", 3, false},
		{"Director (Planning)", 2, false},
		{"Commissioner", 2, false},
		{"Development Officer", DefaultLevelBranch, false},
	}
	for _, tt := range tests {
		t.Run(tt.position, func(t *testing.T) {
			level, isHead := c.Classify(tt.position, DefaultLevelBranch)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.isHead, isHead)
		})
	}
}

func TestLoadRules(t *testing.T) {
	t.Run("ValidYAML", func(t *testing.T) {
		rules, err := LoadRules([]byte(`
- keywords: ["head of department"]
  level: 1
  is_head: true
- keywords: ["clerk"]
  level: 9
`))
		require.NoError(t, err)
		require.Len(t, rules, 2)

		c := NewClassifier(rules)
		level, isHead := c.Classify("Head of Department", 10)
		assert.Equal(t, 1, level)
		assert.True(t, isHead)
	})

	t.Run("EmptyRejected", func(t *testing.T) {
		_, err := LoadRules([]byte("[]"))
		require.Error(t, err)
	})

	t.Run("MalformedRejected", func(t *testing.T) {
		_, err := LoadRules([]byte("not: [valid"))
		require.Error(t, err)
	})
}
