// Package store persists the contact directory, per-institution sync
// settings, the budget ledger, and the append-only sync log. Two backends
// are provided: SQLite for single-operator use and Postgres for shared
// deployments.
package store

import (
	"context"

	"github.com/dineshlahiru/contactsync/internal/model"
)

// Store defines the persistence interface for the directory sync system.
//
// Lookup methods that can legitimately find nothing (GetDivisionByName,
// GetContactByEmail, GetSyncSettings, GetBudgetSettings) return (nil, nil)
// on a miss; errors are reserved for actual failures.
type Store interface {
	// Institutions
	CreateInstitution(ctx context.Context, name string) (*model.Institution, error)
	GetInstitution(ctx context.Context, id string) (*model.Institution, error)
	GetInstitutionByName(ctx context.Context, name string) (*model.Institution, error)
	ListInstitutions(ctx context.Context) ([]model.Institution, error)

	// Divisions
	CreateDivision(ctx context.Context, in model.CreateDivisionInput) (*model.Division, error)
	GetDivisionByName(ctx context.Context, institutionID, name string) (*model.Division, error)
	ListDivisions(ctx context.Context, institutionID string) ([]model.Division, error)
	RecomputeContactCounts(ctx context.Context, institutionID string) error

	// Contacts
	CreateContact(ctx context.Context, in model.CreateContactInput) (*model.Contact, error)
	UpdateContact(ctx context.Context, id string, in model.UpdateContactInput) error
	GetContactByEmail(ctx context.Context, institutionID, email string) (*model.Contact, error)
	ListContacts(ctx context.Context, divisionID string) ([]model.Contact, error)
	DeleteContactsByInstitution(ctx context.Context, institutionID string) (int, error)

	// Sync settings
	GetSyncSettings(ctx context.Context, institutionID string) (*model.SyncSettings, error)
	UpsertSyncSettings(ctx context.Context, settings *model.SyncSettings) error
	ListSyncSettings(ctx context.Context) ([]model.SyncSettings, error)

	// Budget and usage ledger
	GetBudgetSettings(ctx context.Context) (*model.BudgetSettings, error)
	SetBudgetSettings(ctx context.Context, settings model.BudgetSettings) error
	RecordUsage(ctx context.Context, rec model.UsageRecord) error
	GetMonthlyUsage(ctx context.Context, monthKey string) (*model.MonthlyUsage, error)

	// Sync log (append-only)
	AppendSyncLog(ctx context.Context, entry model.SyncLogEntry) (*model.SyncLogEntry, error)
	ListSyncLogs(ctx context.Context, institutionID string, limit int) ([]model.SyncLogEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
