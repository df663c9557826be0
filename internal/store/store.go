// Package store persists verified authorities, their passages, and the
// missing-authority audit log. The canonical URL uniqueness constraint is the
// only cross-request coordination point in the system.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/veridex/internal/model"
)

var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a malformed record was submitted
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the persistence boundary for the retrieval and grounding cores
type Store interface {
	// UpsertAuthority inserts the record unless one already exists for its
	// canonical URL, and returns the stored record either way. Two racing
	// writers converge on one record: the loser adopts the winner's row.
	// The bool reports whether this call created the record; only the
	// creator may attach passages verified against its own fetched text.
	UpsertAuthority(ctx context.Context, record *model.AuthorityRecord) (*model.AuthorityRecord, bool, error)

	// GetAuthority retrieves a record by id
	GetAuthority(ctx context.Context, id string) (*model.AuthorityRecord, error)

	// GetAuthorityByURL retrieves a record by canonical URL
	GetAuthorityByURL(ctx context.Context, canonicalURL string) (*model.AuthorityRecord, error)

	// SearchAuthorities returns verified records whose title, citation or text
	// matches any of the keywords (case-insensitive)
	SearchAuthorities(ctx context.Context, keywords []string, limit int) ([]*model.AuthorityRecord, error)

	// InsertPassages stores verified passages for an authority
	InsertPassages(ctx context.Context, passages []*model.AuthorityPassage) error

	// PassagesForAuthority returns all passages owned by an authority
	PassagesForAuthority(ctx context.Context, authorityID string) ([]*model.AuthorityPassage, error)

	// ExistingAuthorityIDs reports which of the given ids resolve to stored,
	// verified records. One batched lookup per content submission.
	ExistingAuthorityIDs(ctx context.Context, ids []string) (map[string]bool, error)

	// AppendMissingLog appends one audit entry and returns its id
	AppendMissingLog(ctx context.Context, entry *model.MissingAuthorityLogEntry) (string, error)

	// Close releases the backend
	Close() error
}

// New creates a store from config
func New(cfg model.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgresStore(cfg.DSN)
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: postgres, memory)", cfg.Driver)
	}
}
