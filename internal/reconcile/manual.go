package reconcile

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/dineshlahiru/contactsync/internal/model"
)

// Per-section placeholder positions for manual imports missing one.
const (
	positionUnknown        = "Unknown Position"
	positionBranchContact  = "Branch Contact"
	positionDistrictOffice = "District Office Contact"
)

type manualContact struct {
	Name     string   `json:"name"`
	Position string   `json:"position"`
	Division string   `json:"division"`
	Phones   []string `json:"phones"`
	Fax      string   `json:"fax"`
	Email    string   `json:"email"`
}

type manualDistrictOffice struct {
	District string          `json:"district"`
	Address  string          `json:"address"`
	Location string          `json:"location"`
	Phones   []string        `json:"phones"`
	Fax      string          `json:"fax"`
	Email    string          `json:"email"`
	Contacts []manualContact `json:"contacts"`
}

// headOfficeKeys and districtKeys are the accepted spellings for the two
// sections whose key casing varies across operator-supplied files.
var (
	headOfficeKeys = []string{"headOffice", "head_office", "headoffice"}
	districtKeys   = []string{"districtOffices", "district_offices"}
)

// ParseManualImport decodes an operator-supplied JSON file into
// ExtractedData. Top-level keys are accepted in camelCase, snake_case, or
// all-lowercase; at least one contact section must be present.
func ParseManualImport(raw []byte) (*model.ExtractedData, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, eris.Wrap(err, "reconcile: parse manual import")
	}

	data := &model.ExtractedData{}
	sections := 0

	for _, key := range headOfficeKeys {
		if msg, ok := top[key]; ok {
			sections++
			var contacts []manualContact
			if err := json.Unmarshal(msg, &contacts); err != nil {
				return nil, eris.Wrapf(err, "reconcile: parse manual import key %q", key)
			}
			for _, c := range contacts {
				data.HeadOffice = append(data.HeadOffice, c.toExtracted(positionUnknown))
			}
		}
	}

	if msg, ok := top["branches"]; ok {
		sections++
		var contacts []manualContact
		if err := json.Unmarshal(msg, &contacts); err != nil {
			return nil, eris.Wrap(err, "reconcile: parse manual import key \"branches\"")
		}
		for _, c := range contacts {
			data.Branches = append(data.Branches, c.toExtracted(positionBranchContact))
		}
	}

	for _, key := range districtKeys {
		if msg, ok := top[key]; ok {
			sections++
			var offices []manualDistrictOffice
			if err := json.Unmarshal(msg, &offices); err != nil {
				return nil, eris.Wrapf(err, "reconcile: parse manual import key %q", key)
			}
			for _, o := range offices {
				office := model.ExtractedDistrictOffice{
					District: o.District,
					Address:  o.Address,
					Location: o.Location,
					Phones:   o.Phones,
					Fax:      o.Fax,
					Email:    o.Email,
				}
				for _, c := range o.Contacts {
					office.Contacts = append(office.Contacts, c.toExtracted(positionDistrictOffice))
				}
				data.DistrictOffices = append(data.DistrictOffices, office)
			}
		}
	}

	if sections == 0 {
		return nil, eris.New("reconcile: manual import must contain at least one of headOffice/head_office/headoffice, branches, districtOffices/district_offices")
	}

	data.NormalizeDivisions()
	return data, nil
}

func (c manualContact) toExtracted(defaultPosition string) model.ExtractedContact {
	position := c.Position
	if position == "" {
		position = defaultPosition
	}
	return model.ExtractedContact{
		Name:     c.Name,
		Position: position,
		Division: c.Division,
		Phones:   c.Phones,
		Email:    c.Email,
		Fax:      c.Fax,
	}
}
