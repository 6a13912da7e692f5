package storage

import (
	"context"

	"github.com/poiesic/noteshelf/core"
)

// SortOrder selects how Find orders its results.
type SortOrder int

const (
	// SortRecent orders by UpdatedAt, newest first.
	SortRecent SortOrder = iota
	// SortRelevance orders by text score, best first. Ties fall back to SortRecent.
	SortRelevance
)

// FieldLabels is the only field supported by Distinct.
const FieldLabels = "labels"

// Filter selects documents of one user.
type Filter struct {
	UserID string
	// Text is matched against the entity's search fields. Empty means no text predicate.
	Text string
	// Labels must all be present on a matching document.
	Labels []string
	Sort   SortOrder
	// Limit caps the number of results after sorting. Zero means no cap.
	Limit int
}

// EntityStore is the read capability consumed by the search engine.
// Implementations must be thread-safe.
type EntityStore[T core.Entity] interface {
	// Find returns the documents matching filter in filter.Sort order.
	// A text filter that yields no indexable terms matches nothing.
	Find(ctx context.Context, filter Filter) ([]T, error)

	// Distinct returns the distinct non-empty values of field across the
	// documents matching filter. Only FieldLabels is supported; other fields
	// return ErrUnsupportedField. Order is unspecified.
	Distinct(ctx context.Context, field string, filter Filter) ([]string, error)
}

// Repository is an EntityStore with a write path.
type Repository[T core.Entity] interface {
	EntityStore[T]

	// Put validates, stamps and upserts documents, keeping the text index in step.
	// Returns the stored copies with IDs and timestamps populated.
	Put(ctx context.Context, docs ...T) ([]T, error)

	// Get retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	Get(ctx context.Context, id core.ID) (T, error)

	// Delete removes documents and their index entries.
	// Returns ErrNotFound if any document doesn't exist.
	Delete(ctx context.Context, ids ...core.ID) error

	// Count returns the number of stored documents across all users.
	Count(ctx context.Context) (int, error)

	// Scan calls fn with batches of at most batchSize documents in ID order.
	// Iteration stops at the first error returned by fn.
	Scan(ctx context.Context, batchSize int, fn func(batch []T) error) error

	// Reindex rebuilds the text index entries of the given documents.
	Reindex(ctx context.Context, docs ...T) error

	// ResetIndex drops the whole text index of this entity type.
	// Documents stay in place and are unsearchable by text until reindexed.
	ResetIndex(ctx context.Context) error

	// Close releases resources held by the repository.
	Close() error
}

// Repositories bundles the three repositories of one backend.
type Repositories struct {
	Notebooks Repository[core.Notebook]
	Sections  Repository[core.Section]
	Notes     Repository[core.Note]

	closer func() error
}

// NewRepositories bundles repositories sharing one backend. closer releases
// the backend and runs after the repositories are closed.
func NewRepositories(nb Repository[core.Notebook], sec Repository[core.Section], notes Repository[core.Note], closer func() error) *Repositories {
	return &Repositories{Notebooks: nb, Sections: sec, Notes: notes, closer: closer}
}

// Close closes the repositories in reverse order, then the shared backend.
// The first error encountered is returned.
func (r *Repositories) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{r.Notes, r.Sections, r.Notebooks} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.closer != nil {
		if err := r.closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
