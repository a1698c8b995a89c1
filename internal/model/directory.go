package model

import "time"

// Institution is the organization whose contact directory is maintained.
type Institution struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationType classifies a division's physical presence.
const (
	LocationTypeDistrictOffice = "district_office"
)

// Division is an organizational unit (department, branch, district office)
// within an institution. Name is unique per institution. ContactCount is
// derived and recomputed after each reconciliation.
type Division struct {
	ID            string    `json:"id"`
	InstitutionID string    `json:"institution_id"`
	Name          string    `json:"name"`
	Address       string    `json:"address,omitempty"`
	Phones        []string  `json:"phones,omitempty"`
	Fax           string    `json:"fax,omitempty"`
	Email         string    `json:"email,omitempty"`
	LocationType  string    `json:"location_type,omitempty"`
	District      string    `json:"district,omitempty"`
	ContactCount  int       `json:"contact_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateDivisionInput holds the writable fields for a new division.
type CreateDivisionInput struct {
	InstitutionID string   `json:"institution_id"`
	Name          string   `json:"name"`
	Address       string   `json:"address,omitempty"`
	Phones        []string `json:"phones,omitempty"`
	Fax           string   `json:"fax,omitempty"`
	Email         string   `json:"email,omitempty"`
	LocationType  string   `json:"location_type,omitempty"`
	District      string   `json:"district,omitempty"`
}

// Contact is a persisted directory entry owned by a division.
// HierarchyLevel 1 is the top of the institution; larger is lower rank.
type Contact struct {
	ID             string    `json:"id"`
	DivisionID     string    `json:"division_id"`
	InstitutionID  string    `json:"institution_id"`
	Name           string    `json:"name,omitempty"`
	Position       string    `json:"position"`
	Email          string    `json:"email,omitempty"`
	Fax            string    `json:"fax,omitempty"`
	Phones         []string  `json:"phones,omitempty"`
	IsHead         bool      `json:"is_head"`
	HierarchyLevel int       `json:"hierarchy_level"`
	DisplayOrder   int       `json:"display_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateContactInput holds the writable fields for a new contact.
type CreateContactInput struct {
	DivisionID     string   `json:"division_id"`
	InstitutionID  string   `json:"institution_id"`
	Name           string   `json:"name,omitempty"`
	Position       string   `json:"position"`
	Email          string   `json:"email,omitempty"`
	Fax            string   `json:"fax,omitempty"`
	Phones         []string `json:"phones,omitempty"`
	IsHead         bool     `json:"is_head"`
	HierarchyLevel int      `json:"hierarchy_level"`
	DisplayOrder   int      `json:"display_order"`
}

// UpdateContactInput holds the mutable fields updated on an email match
// during reconciliation. DivisionID moves the contact when the source page
// reassigns it.
type UpdateContactInput struct {
	DivisionID     string   `json:"division_id"`
	Name           string   `json:"name,omitempty"`
	Position       string   `json:"position"`
	Fax            string   `json:"fax,omitempty"`
	Phones         []string `json:"phones,omitempty"`
	IsHead         bool     `json:"is_head"`
	HierarchyLevel int      `json:"hierarchy_level"`
}
