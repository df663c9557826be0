package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/veridex/internal/model"
)

// Verify interface compliance
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store in process memory with the same dedup
// semantics as the Postgres backend. Used for tests and storeless runs.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]*model.AuthorityRecord
	byURL     map[string]*model.AuthorityRecord
	passages  map[string][]*model.AuthorityPassage // keyed by authority id
	logs      []*model.MissingAuthorityLogEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*model.AuthorityRecord),
		byURL:    make(map[string]*model.AuthorityRecord),
		passages: make(map[string][]*model.AuthorityPassage),
	}
}

// UpsertAuthority inserts the record or returns the existing one for its URL
func (s *MemoryStore) UpsertAuthority(ctx context.Context, record *model.AuthorityRecord) (*model.AuthorityRecord, bool, error) {
	if record == nil || record.CanonicalURL == "" {
		return nil, false, fmt.Errorf("%w: authority record requires a canonical URL", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byURL[record.CanonicalURL]; ok {
		copied := *existing
		return &copied, false, nil
	}

	stored := *record
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	s.byID[stored.ID] = &stored
	s.byURL[stored.CanonicalURL] = &stored

	copied := stored
	return &copied, true, nil
}

// GetAuthority retrieves a record by id
func (s *MemoryStore) GetAuthority(ctx context.Context, id string) (*model.AuthorityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *record
	return &copied, nil
}

// GetAuthorityByURL retrieves a record by canonical URL
func (s *MemoryStore) GetAuthorityByURL(ctx context.Context, canonicalURL string) (*model.AuthorityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byURL[canonicalURL]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *record
	return &copied, nil
}

// SearchAuthorities matches any keyword against title, citation and text
func (s *MemoryStore) SearchAuthorities(ctx context.Context, keywords []string, limit int) ([]*model.AuthorityRecord, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*model.AuthorityRecord
	for _, record := range s.byID {
		if !record.IsVerified {
			continue
		}
		haystack := strings.ToLower(record.Title + " " + record.Citation + " " + record.RawText)
		for _, kw := range keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				copied := *record
				results = append(results, &copied)
				break
			}
		}
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

// InsertPassages stores verified passages for their authorities
func (s *MemoryStore) InsertPassages(ctx context.Context, passages []*model.AuthorityPassage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, passage := range passages {
		if passage.AuthorityID == "" || passage.Text == "" {
			return fmt.Errorf("%w: passage requires an authority id and text", ErrInvalidInput)
		}
		if _, ok := s.byID[passage.AuthorityID]; !ok {
			return fmt.Errorf("%w: authority %s", ErrNotFound, passage.AuthorityID)
		}

		stored := *passage
		if stored.ID == "" {
			stored.ID = uuid.NewString()
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now().UTC()
		}
		s.passages[stored.AuthorityID] = append(s.passages[stored.AuthorityID], &stored)
		passage.ID = stored.ID
	}

	return nil
}

// PassagesForAuthority returns all passages owned by an authority
func (s *MemoryStore) PassagesForAuthority(ctx context.Context, authorityID string) ([]*model.AuthorityPassage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.passages[authorityID]
	results := make([]*model.AuthorityPassage, 0, len(stored))
	for _, p := range stored {
		copied := *p
		results = append(results, &copied)
	}
	return results, nil
}

// ExistingAuthorityIDs reports which ids resolve to stored verified records
func (s *MemoryStore) ExistingAuthorityIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := make(map[string]bool, len(ids))
	for _, id := range ids {
		if record, ok := s.byID[id]; ok && record.IsVerified {
			existing[id] = true
		}
	}
	return existing, nil
}

// AppendMissingLog appends one audit entry
func (s *MemoryStore) AppendMissingLog(ctx context.Context, entry *model.MissingAuthorityLogEntry) (string, error) {
	if entry == nil || !entry.ErrorTag.Valid() {
		return "", fmt.Errorf("%w: log entry requires a known error tag", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, &stored)
	return stored.ID, nil
}

// MissingLogEntries returns a snapshot of the audit log, newest last.
// Memory-backend specific; used by tests and the CLI's memory mode.
func (s *MemoryStore) MissingLogEntries() []*model.MissingAuthorityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*model.MissingAuthorityLogEntry, 0, len(s.logs))
	for _, entry := range s.logs {
		copied := *entry
		results = append(results, &copied)
	}
	return results
}

// Close releases nothing for the memory backend
func (s *MemoryStore) Close() error {
	return nil
}
