package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dineshlahiru/contactsync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS institutions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS divisions (
	id             TEXT PRIMARY KEY,
	institution_id TEXT NOT NULL REFERENCES institutions(id),
	name           TEXT NOT NULL,
	address        TEXT NOT NULL DEFAULT '',
	phones         TEXT NOT NULL DEFAULT '[]',
	fax            TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	location_type  TEXT NOT NULL DEFAULT '',
	district       TEXT NOT NULL DEFAULT '',
	contact_count  INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (institution_id, name)
);

CREATE TABLE IF NOT EXISTS contacts (
	id              TEXT PRIMARY KEY,
	division_id     TEXT NOT NULL REFERENCES divisions(id),
	institution_id  TEXT NOT NULL REFERENCES institutions(id),
	name            TEXT NOT NULL DEFAULT '',
	position        TEXT NOT NULL,
	email           TEXT NOT NULL DEFAULT '',
	fax             TEXT NOT NULL DEFAULT '',
	phones          TEXT NOT NULL DEFAULT '[]',
	is_head         INTEGER NOT NULL DEFAULT 0,
	hierarchy_level INTEGER NOT NULL DEFAULT 10,
	display_order   INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sync_settings (
	institution_id    TEXT PRIMARY KEY REFERENCES institutions(id),
	source_url        TEXT NOT NULL DEFAULT '',
	content_hash      TEXT NOT NULL DEFAULT '',
	last_synced_at    DATETIME,
	auto_sync_enabled INTEGER NOT NULL DEFAULT 0,
	sync_frequency    TEXT NOT NULL DEFAULT 'weekly'
);

CREATE TABLE IF NOT EXISTS budget_settings (
	id                      INTEGER PRIMARY KEY CHECK (id = 1),
	monthly_limit_usd       REAL NOT NULL,
	alert_threshold_percent INTEGER NOT NULL DEFAULT 80,
	pause_on_exhausted      INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS usage_records (
	id             TEXT PRIMARY KEY,
	service        TEXT NOT NULL,
	operation      TEXT NOT NULL,
	institution_id TEXT NOT NULL DEFAULT '',
	tokens_used    INTEGER NOT NULL DEFAULT 0,
	cost_usd       REAL NOT NULL DEFAULT 0,
	month_key      TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sync_logs (
	id                TEXT PRIMARY KEY,
	institution_id    TEXT NOT NULL REFERENCES institutions(id),
	source_url        TEXT NOT NULL DEFAULT '',
	content_hash      TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	contacts_found    INTEGER NOT NULL DEFAULT 0,
	contacts_imported INTEGER NOT NULL DEFAULT 0,
	divisions_created INTEGER NOT NULL DEFAULT 0,
	changes_detected  INTEGER NOT NULL DEFAULT 0,
	tokens_used       INTEGER NOT NULL DEFAULT 0,
	cost_usd          REAL NOT NULL DEFAULT 0,
	error_message     TEXT NOT NULL DEFAULT '',
	synced_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_divisions_institution ON divisions(institution_id);
CREATE INDEX IF NOT EXISTS idx_contacts_division ON contacts(division_id);
CREATE INDEX IF NOT EXISTS idx_contacts_institution ON contacts(institution_id);
CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(institution_id, email);
CREATE INDEX IF NOT EXISTS idx_usage_month ON usage_records(month_key);
CREATE INDEX IF NOT EXISTS idx_sync_logs_institution ON sync_logs(institution_id, synced_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Institutions

func (s *SQLiteStore) CreateInstitution(ctx context.Context, name string) (*model.Institution, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO institutions (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert institution %q", name)
	}
	return &model.Institution{ID: id, Name: name, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetInstitution(ctx context.Context, id string) (*model.Institution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM institutions WHERE id = ?`, id,
	)
	var inst model.Institution
	if err := row.Scan(&inst.ID, &inst.Name, &inst.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Errorf("institution not found: %s", id)
		}
		return nil, eris.Wrap(err, "sqlite: get institution")
	}
	return &inst, nil
}

func (s *SQLiteStore) GetInstitutionByName(ctx context.Context, name string) (*model.Institution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM institutions WHERE name = ?`, name,
	)
	var inst model.Institution
	if err := row.Scan(&inst.ID, &inst.Name, &inst.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get institution by name")
	}
	return &inst, nil
}

func (s *SQLiteStore) ListInstitutions(ctx context.Context) ([]model.Institution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM institutions ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list institutions")
	}
	defer rows.Close()

	var out []model.Institution
	for rows.Next() {
		var inst model.Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan institution")
		}
		out = append(out, inst)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list institutions iterate")
}

// Divisions

func (s *SQLiteStore) CreateDivision(ctx context.Context, in model.CreateDivisionInput) (*model.Division, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	phonesJSON, err := marshalPhones(in.Phones)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO divisions (id, institution_id, name, address, phones, fax, email, location_type, district, contact_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		id, in.InstitutionID, in.Name, in.Address, phonesJSON, in.Fax, in.Email, in.LocationType, in.District, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert division %q", in.Name)
	}

	return &model.Division{
		ID:            id,
		InstitutionID: in.InstitutionID,
		Name:          in.Name,
		Address:       in.Address,
		Phones:        in.Phones,
		Fax:           in.Fax,
		Email:         in.Email,
		LocationType:  in.LocationType,
		District:      in.District,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *SQLiteStore) GetDivisionByName(ctx context.Context, institutionID, name string) (*model.Division, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, institution_id, name, address, phones, fax, email, location_type, district, contact_count, created_at, updated_at
		 FROM divisions WHERE institution_id = ? AND name = ?`,
		institutionID, name,
	)
	d, err := scanDivision(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get division by name")
	}
	return d, nil
}

func (s *SQLiteStore) ListDivisions(ctx context.Context, institutionID string) ([]model.Division, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, institution_id, name, address, phones, fax, email, location_type, district, contact_count, created_at, updated_at
		 FROM divisions WHERE institution_id = ? ORDER BY name`,
		institutionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list divisions")
	}
	defer rows.Close()

	var out []model.Division
	for rows.Next() {
		d, err := scanDivision(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan division")
		}
		out = append(out, *d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list divisions iterate")
}

func (s *SQLiteStore) RecomputeContactCounts(ctx context.Context, institutionID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE divisions SET contact_count = (
			SELECT COUNT(*) FROM contacts WHERE contacts.division_id = divisions.id
		 ), updated_at = ?
		 WHERE institution_id = ?`,
		time.Now().UTC(), institutionID,
	)
	return eris.Wrap(err, "sqlite: recompute contact counts")
}

// Contacts

func (s *SQLiteStore) CreateContact(ctx context.Context, in model.CreateContactInput) (*model.Contact, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	phonesJSON, err := marshalPhones(in.Phones)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, division_id, institution_id, name, position, email, fax, phones, is_head, hierarchy_level, display_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.DivisionID, in.InstitutionID, in.Name, in.Position, in.Email, in.Fax, phonesJSON,
		boolToInt(in.IsHead), in.HierarchyLevel, in.DisplayOrder, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert contact %q", in.Position)
	}

	return &model.Contact{
		ID:             id,
		DivisionID:     in.DivisionID,
		InstitutionID:  in.InstitutionID,
		Name:           in.Name,
		Position:       in.Position,
		Email:          in.Email,
		Fax:            in.Fax,
		Phones:         in.Phones,
		IsHead:         in.IsHead,
		HierarchyLevel: in.HierarchyLevel,
		DisplayOrder:   in.DisplayOrder,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *SQLiteStore) UpdateContact(ctx context.Context, id string, in model.UpdateContactInput) error {
	phonesJSON, err := marshalPhones(in.Phones)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET division_id = ?, name = ?, position = ?, fax = ?, phones = ?, is_head = ?, hierarchy_level = ?, updated_at = ?
		 WHERE id = ?`,
		in.DivisionID, in.Name, in.Position, in.Fax, phonesJSON,
		boolToInt(in.IsHead), in.HierarchyLevel, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update contact %s", id)
	}
	return checkRowsAffected(res, "contact", id)
}

func (s *SQLiteStore) GetContactByEmail(ctx context.Context, institutionID, email string) (*model.Contact, error) {
	if email == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, division_id, institution_id, name, position, email, fax, phones, is_head, hierarchy_level, display_order, created_at, updated_at
		 FROM contacts WHERE institution_id = ? AND email = ? LIMIT 1`,
		institutionID, email,
	)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get contact by email")
	}
	return c, nil
}

func (s *SQLiteStore) ListContacts(ctx context.Context, divisionID string) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, division_id, institution_id, name, position, email, fax, phones, is_head, hierarchy_level, display_order, created_at, updated_at
		 FROM contacts WHERE division_id = ?
		 ORDER BY hierarchy_level, display_order, position`,
		divisionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

func (s *SQLiteStore) DeleteContactsByInstitution(ctx context.Context, institutionID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE institution_id = ?`, institutionID,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete contacts by institution")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// Sync settings

func (s *SQLiteStore) GetSyncSettings(ctx context.Context, institutionID string) (*model.SyncSettings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT institution_id, source_url, content_hash, last_synced_at, auto_sync_enabled, sync_frequency
		 FROM sync_settings WHERE institution_id = ?`,
		institutionID,
	)

	var ss model.SyncSettings
	var lastSynced sql.NullTime
	var autoSync int
	err := row.Scan(&ss.InstitutionID, &ss.SourceURL, &ss.ContentHash, &lastSynced, &autoSync, &ss.SyncFrequency)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get sync settings")
	}
	if lastSynced.Valid {
		t := lastSynced.Time.UTC()
		ss.LastSyncedAt = &t
	}
	ss.AutoSyncEnabled = autoSync != 0
	return &ss, nil
}

func (s *SQLiteStore) UpsertSyncSettings(ctx context.Context, settings *model.SyncSettings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_settings (institution_id, source_url, content_hash, last_synced_at, auto_sync_enabled, sync_frequency)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (institution_id) DO UPDATE SET
		   source_url = excluded.source_url,
		   content_hash = excluded.content_hash,
		   last_synced_at = excluded.last_synced_at,
		   auto_sync_enabled = excluded.auto_sync_enabled,
		   sync_frequency = excluded.sync_frequency`,
		settings.InstitutionID, settings.SourceURL, settings.ContentHash,
		settings.LastSyncedAt, boolToInt(settings.AutoSyncEnabled), string(settings.SyncFrequency),
	)
	return eris.Wrap(err, "sqlite: upsert sync settings")
}

func (s *SQLiteStore) ListSyncSettings(ctx context.Context) ([]model.SyncSettings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT institution_id, source_url, content_hash, last_synced_at, auto_sync_enabled, sync_frequency
		 FROM sync_settings`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sync settings")
	}
	defer rows.Close()

	var out []model.SyncSettings
	for rows.Next() {
		var ss model.SyncSettings
		var lastSynced sql.NullTime
		var autoSync int
		if err := rows.Scan(&ss.InstitutionID, &ss.SourceURL, &ss.ContentHash, &lastSynced, &autoSync, &ss.SyncFrequency); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sync settings")
		}
		if lastSynced.Valid {
			t := lastSynced.Time.UTC()
			ss.LastSyncedAt = &t
		}
		ss.AutoSyncEnabled = autoSync != 0
		out = append(out, ss)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list sync settings iterate")
}

// Budget and usage ledger

func (s *SQLiteStore) GetBudgetSettings(ctx context.Context) (*model.BudgetSettings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT monthly_limit_usd, alert_threshold_percent, pause_on_exhausted FROM budget_settings WHERE id = 1`,
	)
	var bs model.BudgetSettings
	var pause int
	err := row.Scan(&bs.MonthlyLimitUSD, &bs.AlertThresholdPercent, &pause)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get budget settings")
	}
	bs.PauseOnExhausted = pause != 0
	return &bs, nil
}

func (s *SQLiteStore) SetBudgetSettings(ctx context.Context, settings model.BudgetSettings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budget_settings (id, monthly_limit_usd, alert_threshold_percent, pause_on_exhausted)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   monthly_limit_usd = excluded.monthly_limit_usd,
		   alert_threshold_percent = excluded.alert_threshold_percent,
		   pause_on_exhausted = excluded.pause_on_exhausted`,
		settings.MonthlyLimitUSD, settings.AlertThresholdPercent, boolToInt(settings.PauseOnExhausted),
	)
	return eris.Wrap(err, "sqlite: set budget settings")
}

func (s *SQLiteStore) RecordUsage(ctx context.Context, rec model.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.MonthKey == "" {
		rec.MonthKey = model.MonthKey(rec.CreatedAt)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_records (id, service, operation, institution_id, tokens_used, cost_usd, month_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Service, rec.Operation, rec.InstitutionID, rec.TokensUsed, rec.CostUSD, rec.MonthKey, rec.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: record usage")
}

func (s *SQLiteStore) GetMonthlyUsage(ctx context.Context, monthKey string) (*model.MonthlyUsage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(tokens_used), 0), COALESCE(SUM(cost_usd), 0), COUNT(*)
		 FROM usage_records WHERE month_key = ?`,
		monthKey,
	)
	usage := &model.MonthlyUsage{MonthKey: monthKey}
	if err := row.Scan(&usage.TokensUsed, &usage.CostUSD, &usage.Records); err != nil {
		return nil, eris.Wrap(err, "sqlite: get monthly usage")
	}
	return usage, nil
}

// Sync log

func (s *SQLiteStore) AppendSyncLog(ctx context.Context, entry model.SyncLogEntry) (*model.SyncLogEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SyncedAt.IsZero() {
		entry.SyncedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_logs (id, institution_id, source_url, content_hash, status, contacts_found, contacts_imported, divisions_created, changes_detected, tokens_used, cost_usd, error_message, synced_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.InstitutionID, entry.SourceURL, entry.ContentHash, string(entry.Status),
		entry.ContactsFound, entry.ContactsImported, entry.DivisionsCreated, boolToInt(entry.ChangesDetected),
		entry.TokensUsed, entry.CostUSD, entry.ErrorMessage, entry.SyncedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: append sync log")
	}
	return &entry, nil
}

func (s *SQLiteStore) ListSyncLogs(ctx context.Context, institutionID string, limit int) ([]model.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, institution_id, source_url, content_hash, status, contacts_found, contacts_imported, divisions_created, changes_detected, tokens_used, cost_usd, error_message, synced_at
		 FROM sync_logs WHERE institution_id = ?
		 ORDER BY synced_at DESC LIMIT ?`,
		institutionID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sync logs")
	}
	defer rows.Close()

	var out []model.SyncLogEntry
	for rows.Next() {
		var e model.SyncLogEntry
		var changes int
		if err := rows.Scan(&e.ID, &e.InstitutionID, &e.SourceURL, &e.ContentHash, &e.Status,
			&e.ContactsFound, &e.ContactsImported, &e.DivisionsCreated, &changes,
			&e.TokensUsed, &e.CostUSD, &e.ErrorMessage, &e.SyncedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sync log")
		}
		e.ChangesDetected = changes != 0
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list sync logs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalPhones(phones []string) (string, error) {
	if phones == nil {
		phones = []string{}
	}
	b, err := json.Marshal(phones)
	if err != nil {
		return "", eris.Wrap(err, "marshal phones")
	}
	return string(b), nil
}

func unmarshalPhones(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var phones []string
	if err := json.Unmarshal([]byte(s), &phones); err != nil {
		return nil, eris.Wrap(err, "unmarshal phones")
	}
	if len(phones) == 0 {
		return nil, nil
	}
	return phones, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDivision(row scannable) (*model.Division, error) {
	var d model.Division
	var phonesJSON string
	err := row.Scan(&d.ID, &d.InstitutionID, &d.Name, &d.Address, &phonesJSON, &d.Fax, &d.Email,
		&d.LocationType, &d.District, &d.ContactCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Phones, err = unmarshalPhones(phonesJSON)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanContact(row scannable) (*model.Contact, error) {
	var c model.Contact
	var phonesJSON string
	var isHead int
	err := row.Scan(&c.ID, &c.DivisionID, &c.InstitutionID, &c.Name, &c.Position, &c.Email, &c.Fax,
		&phonesJSON, &isHead, &c.HierarchyLevel, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.IsHead = isHead != 0
	c.Phones, err = unmarshalPhones(phonesJSON)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
