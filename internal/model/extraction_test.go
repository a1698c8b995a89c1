package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDivisions(t *testing.T) {
	t.Run("MergesContactAndReportedDivisions", func(t *testing.T) {
		d := &ExtractedData{
			Divisions: []string{"Finance Division"},
			HeadOffice: []ExtractedContact{
				{Position: "Director", Division: "Administration"},
				{Position: "Accountant", Division: "Finance Division"},
			},
			Branches: []ExtractedContact{
				{Position: "Clerk", Division: "Registry"},
			},
		}
		d.NormalizeDivisions()
		assert.ElementsMatch(t, []string{"Administration", "Finance Division", "Registry"}, d.Divisions)
	})

	t.Run("AddsSyntheticDistrictOfficeNames", func(t *testing.T) {
		d := &ExtractedData{
			DistrictOffices: []ExtractedDistrictOffice{
				{District: "Kandy"},
				{District: "Galle", Contacts: []ExtractedContact{{Position: "Head", Division: "Local Unit"}}},
			},
		}
		d.NormalizeDivisions()
		assert.ElementsMatch(t,
			[]string{"District Office - Kandy", "District Office - Galle", "Local Unit"},
			d.Divisions,
		)
	})

	t.Run("DeduplicatesAndDropsEmpty", func(t *testing.T) {
		d := &ExtractedData{
			Divisions: []string{"Planning", "Planning", ""},
			HeadOffice: []ExtractedContact{
				{Position: "Officer", Division: "Planning"},
				{Position: "Officer"},
			},
		}
		d.NormalizeDivisions()
		assert.Equal(t, []string{"Planning"}, d.Divisions)
	})

	t.Run("EmptyData", func(t *testing.T) {
		d := &ExtractedData{}
		d.NormalizeDivisions()
		assert.Empty(t, d.Divisions)
	})
}

func TestContactsFound(t *testing.T) {
	d := &ExtractedData{
		HeadOffice: []ExtractedContact{{Position: "Director"}},
		Branches:   []ExtractedContact{{Position: "Clerk"}, {Position: "Clerk"}},
		DistrictOffices: []ExtractedDistrictOffice{
			{District: "Kandy", Contacts: []ExtractedContact{{Position: "District Head"}}},
			{District: "Matara"},
		},
	}
	assert.Equal(t, 4, d.ContactsFound())
}

func TestDistrictDivisionName(t *testing.T) {
	assert.Equal(t, "District Office - Kandy", DistrictDivisionName("Kandy"))
}
