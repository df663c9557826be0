package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ppiankov/veridex/internal/model"
)

// Verify interface compliance
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store on PostgreSQL. The UNIQUE constraint on
// authorities.canonical_url is what resolves concurrent insert races.
type PostgresStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS authorities (
	id            TEXT PRIMARY KEY,
	source_tier   TEXT NOT NULL,
	source_type   TEXT NOT NULL,
	domain        TEXT NOT NULL,
	canonical_url TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL DEFAULT '',
	jurisdiction  TEXT NOT NULL DEFAULT '',
	citation      TEXT NOT NULL DEFAULT '',
	decision_date TIMESTAMPTZ,
	act_name      TEXT NOT NULL DEFAULT '',
	section_path  TEXT NOT NULL DEFAULT '',
	license_tag   TEXT NOT NULL DEFAULT '',
	court_name    TEXT NOT NULL DEFAULT '',
	content_hash  TEXT NOT NULL,
	raw_text      TEXT NOT NULL,
	is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS authority_passages (
	id           TEXT PRIMARY KEY,
	authority_id TEXT NOT NULL REFERENCES authorities(id),
	passage_text TEXT NOT NULL,
	para_start   INTEGER NOT NULL DEFAULT 0,
	para_end     INTEGER NOT NULL DEFAULT 0,
	section      TEXT NOT NULL DEFAULT '',
	page         TEXT NOT NULL DEFAULT '',
	snippet_hash TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS missing_authority_log (
	id              TEXT PRIMARY KEY,
	claim_text      TEXT NOT NULL,
	skill_ids       TEXT[] NOT NULL DEFAULT '{}',
	search_query    TEXT NOT NULL DEFAULT '',
	result_snapshot TEXT NOT NULL DEFAULT '',
	error_tag       TEXT NOT NULL,
	session_id      TEXT NOT NULL DEFAULT '',
	asset_id        TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_passages_authority ON authority_passages(authority_id);
`

// NewPostgresStore opens the database and bootstraps the schema
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres store requires a DSN", ErrInvalidInput)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// UpsertAuthority inserts the record or adopts the existing row for its URL
func (s *PostgresStore) UpsertAuthority(ctx context.Context, record *model.AuthorityRecord) (*model.AuthorityRecord, bool, error) {
	if record == nil || record.CanonicalURL == "" {
		return nil, false, fmt.Errorf("%w: authority record requires a canonical URL", ErrInvalidInput)
	}

	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	// DO NOTHING + read-back: a losing concurrent writer transparently
	// adopts the winner's record instead of failing
	query := `
		INSERT INTO authorities (id, source_tier, source_type, domain, canonical_url, title,
			jurisdiction, citation, decision_date, act_name, section_path, license_tag,
			court_name, content_hash, raw_text, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (canonical_url) DO NOTHING
	`
	var decisionDate sql.NullTime
	if record.DecisionDate != nil {
		decisionDate = sql.NullTime{Time: *record.DecisionDate, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, query,
		id,
		string(record.SourceTier),
		string(record.SourceType),
		record.Domain,
		record.CanonicalURL,
		record.Title,
		record.Jurisdiction,
		record.Citation,
		decisionDate,
		record.ActName,
		record.SectionPath,
		record.LicenseTag,
		record.CourtName,
		record.ContentHash,
		record.RawText,
		record.IsVerified,
		createdAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert authority: %w", err)
	}

	// ON CONFLICT DO NOTHING affects zero rows when another writer won
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("upsert authority: %w", err)
	}

	stored, err := s.GetAuthorityByURL(ctx, record.CanonicalURL)
	if err != nil {
		return nil, false, err
	}
	return stored, affected > 0, nil
}

const authorityColumns = `id, source_tier, source_type, domain, canonical_url, title,
	jurisdiction, citation, decision_date, act_name, section_path, license_tag,
	court_name, content_hash, raw_text, is_verified, created_at`

// GetAuthority retrieves a record by id
func (s *PostgresStore) GetAuthority(ctx context.Context, id string) (*model.AuthorityRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+authorityColumns+` FROM authorities WHERE id = $1`, id)
	return scanAuthority(row)
}

// GetAuthorityByURL retrieves a record by canonical URL
func (s *PostgresStore) GetAuthorityByURL(ctx context.Context, canonicalURL string) (*model.AuthorityRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+authorityColumns+` FROM authorities WHERE canonical_url = $1`, canonicalURL)
	return scanAuthority(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuthority(row rowScanner) (*model.AuthorityRecord, error) {
	var record model.AuthorityRecord
	var decisionDate sql.NullTime

	err := row.Scan(
		&record.ID,
		&record.SourceTier,
		&record.SourceType,
		&record.Domain,
		&record.CanonicalURL,
		&record.Title,
		&record.Jurisdiction,
		&record.Citation,
		&decisionDate,
		&record.ActName,
		&record.SectionPath,
		&record.LicenseTag,
		&record.CourtName,
		&record.ContentHash,
		&record.RawText,
		&record.IsVerified,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if decisionDate.Valid {
		record.DecisionDate = &decisionDate.Time
	}
	return &record, nil
}

// SearchAuthorities matches any keyword against title, citation and text
func (s *PostgresStore) SearchAuthorities(ctx context.Context, keywords []string, limit int) ([]*model.AuthorityRecord, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var conditions []string
	var args []any
	for i, kw := range keywords {
		pattern := "%" + kw + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR citation ILIKE $%d OR raw_text ILIKE $%d)", i+1, i+1, i+1))
		args = append(args, pattern)
	}
	args = append(args, limit)

	query := `SELECT ` + authorityColumns + ` FROM authorities WHERE is_verified AND (` +
		strings.Join(conditions, " OR ") + fmt.Sprintf(`) ORDER BY created_at DESC LIMIT $%d`, len(keywords)+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search authorities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*model.AuthorityRecord
	for rows.Next() {
		record, err := scanAuthority(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	return results, rows.Err()
}

// InsertPassages stores verified passages for their authorities
func (s *PostgresStore) InsertPassages(ctx context.Context, passages []*model.AuthorityPassage) error {
	query := `
		INSERT INTO authority_passages (id, authority_id, passage_text, para_start, para_end, section, page, snippet_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, passage := range passages {
		if passage.AuthorityID == "" || passage.Text == "" {
			return fmt.Errorf("%w: passage requires an authority id and text", ErrInvalidInput)
		}
		if passage.ID == "" {
			passage.ID = uuid.NewString()
		}
		createdAt := passage.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		_, err := s.db.ExecContext(ctx, query,
			passage.ID,
			passage.AuthorityID,
			passage.Text,
			passage.Locator.ParaStart,
			passage.Locator.ParaEnd,
			passage.Locator.Section,
			passage.Locator.Page,
			passage.SnippetHash,
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert passage: %w", err)
		}
	}
	return nil
}

// PassagesForAuthority returns all passages owned by an authority
func (s *PostgresStore) PassagesForAuthority(ctx context.Context, authorityID string) ([]*model.AuthorityPassage, error) {
	query := `
		SELECT id, authority_id, passage_text, para_start, para_end, section, page, snippet_hash, created_at
		FROM authority_passages
		WHERE authority_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, authorityID)
	if err != nil {
		return nil, fmt.Errorf("list passages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*model.AuthorityPassage
	for rows.Next() {
		var passage model.AuthorityPassage
		err := rows.Scan(
			&passage.ID,
			&passage.AuthorityID,
			&passage.Text,
			&passage.Locator.ParaStart,
			&passage.Locator.ParaEnd,
			&passage.Locator.Section,
			&passage.Locator.Page,
			&passage.SnippetHash,
			&passage.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, &passage)
	}
	return results, rows.Err()
}

// ExistingAuthorityIDs reports which ids resolve to stored verified records
func (s *PostgresStore) ExistingAuthorityIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM authorities WHERE is_verified AND id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("check authority ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// AppendMissingLog appends one audit entry
func (s *PostgresStore) AppendMissingLog(ctx context.Context, entry *model.MissingAuthorityLogEntry) (string, error) {
	if entry == nil || !entry.ErrorTag.Valid() {
		return "", fmt.Errorf("%w: log entry requires a known error tag", ErrInvalidInput)
	}

	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO missing_authority_log (id, claim_text, skill_ids, search_query, result_snapshot, error_tag, session_id, asset_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		id,
		entry.ClaimText,
		pq.Array(entry.SkillIDs),
		entry.SearchQuery,
		entry.ResultSnapshot,
		string(entry.ErrorTag),
		entry.SessionID,
		entry.AssetID,
		createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("append missing log: %w", err)
	}
	return id, nil
}

// Close releases the database
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
