package model

import "sort"

// ExtractedContact is a single contact as returned by extraction.
// Position is the only required field; everything else is best-effort.
// Immutable once produced — reconciliation converts it, never edits it.
type ExtractedContact struct {
	Name     string   `json:"name,omitempty"`
	Position string   `json:"position"`
	Division string   `json:"division,omitempty"`
	Phones   []string `json:"phones,omitempty"`
	Email    string   `json:"email,omitempty"`
	Fax      string   `json:"fax,omitempty"`
}

// ExtractedDistrictOffice is a geographically distinct branch with its own
// location details and contact list.
type ExtractedDistrictOffice struct {
	District string             `json:"district"`
	Address  string             `json:"address,omitempty"`
	Location string             `json:"location,omitempty"`
	Phones   []string           `json:"phones,omitempty"`
	Fax      string             `json:"fax,omitempty"`
	Email    string             `json:"email,omitempty"`
	Contacts []ExtractedContact `json:"contacts,omitempty"`
}

// ExtractedData is the unit of a single extraction, tagged by source URL.
type ExtractedData struct {
	Source          string                    `json:"source"`
	HeadOffice      []ExtractedContact        `json:"headOffice"`
	Branches        []ExtractedContact        `json:"branches"`
	DistrictOffices []ExtractedDistrictOffice `json:"districtOffices,omitempty"`
	Divisions       []string                  `json:"divisions"`
}

// DistrictDivisionName returns the synthetic division name for a district
// office, e.g. "District Office - Kandy".
func DistrictDivisionName(district string) string {
	return "District Office - " + district
}

// NormalizeDivisions recomputes Divisions as the de-duplicated set of
// division names implied by the contact lists, merged with whatever the
// extraction already reported. District offices always contribute their
// synthetic "District Office - {district}" name.
func (d *ExtractedData) NormalizeDivisions() {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, n := range d.Divisions {
		add(n)
	}
	for _, c := range d.HeadOffice {
		add(c.Division)
	}
	for _, c := range d.Branches {
		add(c.Division)
	}
	for _, o := range d.DistrictOffices {
		add(DistrictDivisionName(o.District))
		for _, c := range o.Contacts {
			add(c.Division)
		}
	}

	sort.Strings(names)
	d.Divisions = names
}

// ContactsFound counts every contact across all sections.
func (d *ExtractedData) ContactsFound() int {
	n := len(d.HeadOffice) + len(d.Branches)
	for _, o := range d.DistrictOffices {
		n += len(o.Contacts)
	}
	return n
}
