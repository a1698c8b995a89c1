package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dineshlahiru/contactsync/internal/db"
	"github.com/dineshlahiru/contactsync/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations during a sync run.
var preparedStatements = map[string]string{
	"get_division_by_name": `SELECT id, institution_id, name, address, phones, fax, email, location_type, district, contact_count, created_at, updated_at FROM divisions WHERE institution_id = $1 AND name = $2`,
	"get_contact_by_email": `SELECT id, division_id, institution_id, name, position, email, fax, phones, is_head, hierarchy_level, display_order, created_at, updated_at FROM contacts WHERE institution_id = $1 AND email = $2 LIMIT 1`,
	"insert_contact":       `INSERT INTO contacts (id, division_id, institution_id, name, position, email, fax, phones, is_head, hierarchy_level, display_order, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
	"record_usage":         `INSERT INTO usage_records (id, service, operation, institution_id, tokens_used, cost_usd, month_key, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"get_monthly_usage":    `SELECT COALESCE(SUM(tokens_used), 0), COALESCE(SUM(cost_usd), 0), COUNT(*) FROM usage_records WHERE month_key = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; tests pass a pgxmock pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS institutions (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS divisions (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	institution_id TEXT NOT NULL REFERENCES institutions(id),
	name           TEXT NOT NULL,
	address        TEXT NOT NULL DEFAULT '',
	phones         JSONB NOT NULL DEFAULT '[]',
	fax            TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	location_type  TEXT NOT NULL DEFAULT '',
	district       TEXT NOT NULL DEFAULT '',
	contact_count  INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (institution_id, name)
);

CREATE TABLE IF NOT EXISTS contacts (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	division_id     TEXT NOT NULL REFERENCES divisions(id),
	institution_id  TEXT NOT NULL REFERENCES institutions(id),
	name            TEXT NOT NULL DEFAULT '',
	position        TEXT NOT NULL,
	email           TEXT NOT NULL DEFAULT '',
	fax             TEXT NOT NULL DEFAULT '',
	phones          JSONB NOT NULL DEFAULT '[]',
	is_head         BOOLEAN NOT NULL DEFAULT false,
	hierarchy_level INTEGER NOT NULL DEFAULT 10,
	display_order   INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sync_settings (
	institution_id    TEXT PRIMARY KEY REFERENCES institutions(id),
	source_url        TEXT NOT NULL DEFAULT '',
	content_hash      TEXT NOT NULL DEFAULT '',
	last_synced_at    TIMESTAMPTZ,
	auto_sync_enabled BOOLEAN NOT NULL DEFAULT false,
	sync_frequency    TEXT NOT NULL DEFAULT 'weekly'
);

CREATE TABLE IF NOT EXISTS budget_settings (
	id                      INTEGER PRIMARY KEY CHECK (id = 1),
	monthly_limit_usd       DOUBLE PRECISION NOT NULL,
	alert_threshold_percent INTEGER NOT NULL DEFAULT 80,
	pause_on_exhausted      BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS usage_records (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	service        TEXT NOT NULL,
	operation      TEXT NOT NULL,
	institution_id TEXT NOT NULL DEFAULT '',
	tokens_used    INTEGER NOT NULL DEFAULT 0,
	cost_usd       DOUBLE PRECISION NOT NULL DEFAULT 0,
	month_key      TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sync_logs (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	institution_id    TEXT NOT NULL REFERENCES institutions(id),
	source_url        TEXT NOT NULL DEFAULT '',
	content_hash      TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	contacts_found    INTEGER NOT NULL DEFAULT 0,
	contacts_imported INTEGER NOT NULL DEFAULT 0,
	divisions_created INTEGER NOT NULL DEFAULT 0,
	changes_detected  BOOLEAN NOT NULL DEFAULT false,
	tokens_used       INTEGER NOT NULL DEFAULT 0,
	cost_usd          DOUBLE PRECISION NOT NULL DEFAULT 0,
	error_message     TEXT NOT NULL DEFAULT '',
	synced_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_divisions_institution ON divisions(institution_id);
CREATE INDEX IF NOT EXISTS idx_contacts_division ON contacts(division_id);
CREATE INDEX IF NOT EXISTS idx_contacts_institution ON contacts(institution_id);
CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(institution_id, email);
CREATE INDEX IF NOT EXISTS idx_usage_month ON usage_records(month_key);
CREATE INDEX IF NOT EXISTS idx_sync_logs_institution ON sync_logs(institution_id, synced_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Institutions

func (s *PostgresStore) CreateInstitution(ctx context.Context, name string) (*model.Institution, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO institutions (id, name, created_at) VALUES ($1, $2, $3)`,
		id, name, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert institution %q", name)
	}
	return &model.Institution{ID: id, Name: name, CreatedAt: now}, nil
}

func (s *PostgresStore) GetInstitution(ctx context.Context, id string) (*model.Institution, error) {
	var inst model.Institution
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM institutions WHERE id = $1`, id,
	).Scan(&inst.ID, &inst.Name, &inst.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("institution not found: %s", id)
		}
		return nil, eris.Wrap(err, "postgres: get institution")
	}
	return &inst, nil
}

func (s *PostgresStore) GetInstitutionByName(ctx context.Context, name string) (*model.Institution, error) {
	var inst model.Institution
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM institutions WHERE name = $1`, name,
	).Scan(&inst.ID, &inst.Name, &inst.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get institution by name")
	}
	return &inst, nil
}

func (s *PostgresStore) ListInstitutions(ctx context.Context) ([]model.Institution, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at FROM institutions ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list institutions")
	}
	defer rows.Close()

	var out []model.Institution
	for rows.Next() {
		var inst model.Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan institution")
		}
		out = append(out, inst)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list institutions iterate")
}

// Divisions

func (s *PostgresStore) CreateDivision(ctx context.Context, in model.CreateDivisionInput) (*model.Division, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	phones := in.Phones
	if phones == nil {
		phones = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO divisions (id, institution_id, name, address, phones, fax, email, location_type, district, contact_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11)`,
		id, in.InstitutionID, in.Name, in.Address, phones, in.Fax, in.Email, in.LocationType, in.District, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert division %q", in.Name)
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

func (s *PostgresStore) GetDivisionByName(ctx context.Context, institutionID, name string) (*model.Division, error) {
	var d model.Division
	err := s.pool.QueryRow(ctx,
		`SELECT id, institution_id, name, address, phones, fax, email, location_type, district, contact_count, created_at, updated_at
		 FROM divisions WHERE institution_id = $1 AND name = $2`,
		institutionID, name,
	).Scan(&d.ID, &d.InstitutionID, &d.Name, &d.Address, &d.Phones, &d.Fax, &d.Email,
		&d.LocationType, &d.District, &d.ContactCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get division by name")
	}
	return &d, nil
}

func (s *PostgresStore) ListDivisions(ctx context.Context, institutionID string) ([]model.Division, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, institution_id, name, address, phones, fax, email, location_type, district, contact_count, created_at, updated_at
		 FROM divisions WHERE institution_id = $1 ORDER BY name`,
		institutionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list divisions")
	}
	defer rows.Close()

	var out []model.Division
	for rows.Next() {
		var d model.Division
		if err := rows.Scan(&d.ID, &d.InstitutionID, &d.Name, &d.Address, &d.Phones, &d.Fax, &d.Email,
			&d.LocationType, &d.District, &d.ContactCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan division")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list divisions iterate")
}

func (s *PostgresStore) RecomputeContactCounts(ctx context.Context, institutionID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE divisions SET contact_count = (
			SELECT COUNT(*) FROM contacts WHERE contacts.division_id = divisions.id
		 ), updated_at = $1
		 WHERE institution_id = $2`,
		time.Now().UTC(), institutionID,
	)
	return eris.Wrap(err, "postgres: recompute contact counts")
}

// Contacts

func (s *PostgresStore) CreateContact(ctx context.Context, in model.CreateContactInput) (*model.Contact, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	phones := in.Phones
	if phones == nil {
		phones = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO contacts (id, division_id, institution_id, name, position, email, fax, phones, is_head, hierarchy_level, display_order, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, in.DivisionID, in.InstitutionID, in.Name, in.Position, in.Email, in.Fax, phones,
		in.IsHead, in.HierarchyLevel, in.DisplayOrder, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert contact %q", in.Position)
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

func (s *PostgresStore) UpdateContact(ctx context.Context, id string, in model.UpdateContactInput) error {
	phones := in.Phones
	if phones == nil {
		phones = []string{}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET division_id = $1, name = $2, position = $3, fax = $4, phones = $5, is_head = $6, hierarchy_level = $7, updated_at = $8
		 WHERE id = $9`,
		in.DivisionID, in.Name, in.Position, in.Fax, phones, in.IsHead, in.HierarchyLevel, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update contact %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("contact not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) GetContactByEmail(ctx context.Context, institutionID, email string) (*model.Contact, error) {
	if email == "" {
		return nil, nil
	}
	var c model.Contact
	err := s.pool.QueryRow(ctx,
		`SELECT id, division_id, institution_id, name, position, email, fax, phones, is_head, hierarchy_level, display_order, created_at, updated_at
		 FROM contacts WHERE institution_id = $1 AND email = $2 LIMIT 1`,
		institutionID, email,
	).Scan(&c.ID, &c.DivisionID, &c.InstitutionID, &c.Name, &c.Position, &c.Email, &c.Fax,
		&c.Phones, &c.IsHead, &c.HierarchyLevel, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get contact by email")
	}
	return &c, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, divisionID string) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, division_id, institution_id, name, position, email, fax, phones, is_head, hierarchy_level, display_order, created_at, updated_at
		 FROM contacts WHERE division_id = $1
		 ORDER BY hierarchy_level, display_order, position`,
		divisionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.DivisionID, &c.InstitutionID, &c.Name, &c.Position, &c.Email, &c.Fax,
			&c.Phones, &c.IsHead, &c.HierarchyLevel, &c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}

func (s *PostgresStore) DeleteContactsByInstitution(ctx context.Context, institutionID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM contacts WHERE institution_id = $1`, institutionID,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete contacts by institution")
	}
	return int(tag.RowsAffected()), nil
}

// Sync settings

func (s *PostgresStore) GetSyncSettings(ctx context.Context, institutionID string) (*model.SyncSettings, error) {
	var ss model.SyncSettings
	var lastSynced *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT institution_id, source_url, content_hash, last_synced_at, auto_sync_enabled, sync_frequency
		 FROM sync_settings WHERE institution_id = $1`,
		institutionID,
	).Scan(&ss.InstitutionID, &ss.SourceURL, &ss.ContentHash, &lastSynced, &ss.AutoSyncEnabled, &ss.SyncFrequency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get sync settings")
	}
	ss.LastSyncedAt = lastSynced
	return &ss, nil
}

func (s *PostgresStore) UpsertSyncSettings(ctx context.Context, settings *model.SyncSettings) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_settings (institution_id, source_url, content_hash, last_synced_at, auto_sync_enabled, sync_frequency)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (institution_id) DO UPDATE SET
		   source_url = $2, content_hash = $3, last_synced_at = $4, auto_sync_enabled = $5, sync_frequency = $6`,
		settings.InstitutionID, settings.SourceURL, settings.ContentHash,
		settings.LastSyncedAt, settings.AutoSyncEnabled, string(settings.SyncFrequency),
	)
	return eris.Wrap(err, "postgres: upsert sync settings")
}

func (s *PostgresStore) ListSyncSettings(ctx context.Context) ([]model.SyncSettings, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT institution_id, source_url, content_hash, last_synced_at, auto_sync_enabled, sync_frequency
		 FROM sync_settings`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sync settings")
	}
	defer rows.Close()

	var out []model.SyncSettings
	for rows.Next() {
		var ss model.SyncSettings
		var lastSynced *time.Time
		if err := rows.Scan(&ss.InstitutionID, &ss.SourceURL, &ss.ContentHash, &lastSynced, &ss.AutoSyncEnabled, &ss.SyncFrequency); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sync settings")
		}
		ss.LastSyncedAt = lastSynced
		out = append(out, ss)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list sync settings iterate")
}

// Budget and usage ledger

func (s *PostgresStore) GetBudgetSettings(ctx context.Context) (*model.BudgetSettings, error) {
	var bs model.BudgetSettings
	err := s.pool.QueryRow(ctx,
		`SELECT monthly_limit_usd, alert_threshold_percent, pause_on_exhausted FROM budget_settings WHERE id = 1`,
	).Scan(&bs.MonthlyLimitUSD, &bs.AlertThresholdPercent, &bs.PauseOnExhausted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get budget settings")
	}
	return &bs, nil
}

func (s *PostgresStore) SetBudgetSettings(ctx context.Context, settings model.BudgetSettings) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO budget_settings (id, monthly_limit_usd, alert_threshold_percent, pause_on_exhausted)
		 VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET
		   monthly_limit_usd = $1, alert_threshold_percent = $2, pause_on_exhausted = $3`,
		settings.MonthlyLimitUSD, settings.AlertThresholdPercent, settings.PauseOnExhausted,
	)
	return eris.Wrap(err, "postgres: set budget settings")
}

func (s *PostgresStore) RecordUsage(ctx context.Context, rec model.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.MonthKey == "" {
		rec.MonthKey = model.MonthKey(rec.CreatedAt)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_records (id, service, operation, institution_id, tokens_used, cost_usd, month_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Service, rec.Operation, rec.InstitutionID, rec.TokensUsed, rec.CostUSD, rec.MonthKey, rec.CreatedAt,
	)
	return eris.Wrap(err, "postgres: record usage")
}

func (s *PostgresStore) GetMonthlyUsage(ctx context.Context, monthKey string) (*model.MonthlyUsage, error) {
	usage := &model.MonthlyUsage{MonthKey: monthKey}
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(tokens_used), 0), COALESCE(SUM(cost_usd), 0), COUNT(*)
		 FROM usage_records WHERE month_key = $1`,
		monthKey,
	).Scan(&usage.TokensUsed, &usage.CostUSD, &usage.Records)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get monthly usage")
	}
	return usage, nil
}

// Sync log

func (s *PostgresStore) AppendSyncLog(ctx context.Context, entry model.SyncLogEntry) (*model.SyncLogEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SyncedAt.IsZero() {
		entry.SyncedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_logs (id, institution_id, source_url, content_hash, status, contacts_found, contacts_imported, divisions_created, changes_detected, tokens_used, cost_usd, error_message, synced_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID, entry.InstitutionID, entry.SourceURL, entry.ContentHash, string(entry.Status),
		entry.ContactsFound, entry.ContactsImported, entry.DivisionsCreated, entry.ChangesDetected,
		entry.TokensUsed, entry.CostUSD, entry.ErrorMessage, entry.SyncedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: append sync log")
	}
	return &entry, nil
}

func (s *PostgresStore) ListSyncLogs(ctx context.Context, institutionID string, limit int) ([]model.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, institution_id, source_url, content_hash, status, contacts_found, contacts_imported, divisions_created, changes_detected, tokens_used, cost_usd, error_message, synced_at
		 FROM sync_logs WHERE institution_id = $1
		 ORDER BY synced_at DESC LIMIT $2`,
		institutionID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sync logs")
	}
	defer rows.Close()

	var out []model.SyncLogEntry
	for rows.Next() {
		var e model.SyncLogEntry
		if err := rows.Scan(&e.ID, &e.InstitutionID, &e.SourceURL, &e.ContentHash, &e.Status,
			&e.ContactsFound, &e.ContactsImported, &e.DivisionsCreated, &e.ChangesDetected,
			&e.TokensUsed, &e.CostUSD, &e.ErrorMessage, &e.SyncedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sync log")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list sync logs iterate")
}
