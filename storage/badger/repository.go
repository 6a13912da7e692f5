// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
	"github.com/timshannon/badgerhold/v4"
)

// ErrBackendRequired is returned when a repository is created without a backend.
var ErrBackendRequired = errors.New("backend is required")

// Repository implements storage.Repository for one entity type on BadgerDB.
type Repository[T core.Document[T]] struct {
	backend *Backend
	kind    core.EntityType
	now     func() time.Time
}

var (
	_ storage.Repository[core.Notebook] = (*Repository[core.Notebook])(nil)
	_ storage.Repository[core.Section]  = (*Repository[core.Section])(nil)
	_ storage.Repository[core.Note]     = (*Repository[core.Note])(nil)
)

// NewRepository creates a new Repository on backend.
func NewRepository[T core.Document[T]](backend *Backend) (*Repository[T], error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	var zero T
	return &Repository[T]{
		backend: backend,
		kind:    zero.Kind(),
		now:     time.Now,
	}, nil
}

// Close releases resources. The shared backend is closed by its owner.
func (r *Repository[T]) Close() error {
	return nil
}

// Put validates, stamps and upserts documents together with their postings.
func (r *Repository[T]) Put(ctx context.Context, docs ...T) ([]T, error) {
	for _, doc := range docs {
		if err := core.Validate(doc); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := r.now()
	stored := make([]T, 0, len(docs))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			d := doc.Stamp(now)
			key := recordKey(d.EntityID())

			// Drop postings of the previous version before writing the new ones
			var old T
			err := r.backend.store.TxGet(tx, key, &old)
			switch {
			case err == nil:
				if err := deletePostings(tx, old); err != nil {
					return err
				}
			case errors.Is(err, badgerhold.ErrNotFound):
			default:
				return err
			}

			if err := r.backend.store.TxUpsert(tx, key, &d); err != nil {
				return err
			}
			if err := writePostings(tx, d); err != nil {
				return err
			}
			stored = append(stored, d)
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Get retrieves a single document by ID.
func (r *Repository[T]) Get(ctx context.Context, id core.ID) (T, error) {
	var result T
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		err := r.backend.store.TxGet(tx, recordKey(id), &result)
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: %s %s", storage.ErrNotFound, r.kind, id)
		}
		return err
	}, false)
	return result, err
}

// Delete removes documents and their postings.
func (r *Repository[T]) Delete(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := recordKey(id)

			var old T
			if err := r.backend.store.TxGet(tx, key, &old); err != nil {
				if errors.Is(err, badgerhold.ErrNotFound) {
					return fmt.Errorf("%w: %s %s", storage.ErrNotFound, r.kind, id)
				}
				return err
			}
			if err := deletePostings(tx, old); err != nil {
				return err
			}

			var zero T
			if err := r.backend.store.TxDelete(tx, key, &zero); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Find returns the documents matching filter.
// Without text, candidates come from the badgerhold UserID index with the
// label containment applied by badgerhold. With text, candidates come from the
// postings and labels are checked on the loaded documents.
func (r *Repository[T]) Find(ctx context.Context, filter storage.Filter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filter.UserID == "" {
		return []T{}, nil
	}
	if filter.Text != "" {
		return r.findText(filter)
	}
	return r.findAll(filter)
}

func (r *Repository[T]) findAll(filter storage.Filter) ([]T, error) {
	query := badgerhold.Where("UserID").Eq(filter.UserID).Index("UserID")
	if len(filter.Labels) > 0 {
		query = query.And("Labels").ContainsAll(toAny(filter.Labels)...)
	}

	var docs []T
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.backend.store.TxFind(tx, &docs, query)
	}, false)
	if err != nil {
		return nil, err
	}

	sortDocuments(docs, nil, storage.SortRecent)
	return limit(docs, filter.Limit), nil
}

func (r *Repository[T]) findText(filter storage.Filter) ([]T, error) {
	terms := core.UniqueTerms(filter.Text)
	if len(terms) == 0 {
		return []T{}, nil
	}

	var docs []T
	var scores map[core.ID]float64
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		scores, err = matchTerms(tx, r.kind, filter.UserID, terms)
		if err != nil {
			return err
		}
		for id := range scores {
			var doc T
			if err := r.backend.store.TxGet(tx, recordKey(id), &doc); err != nil {
				if errors.Is(err, badgerhold.ErrNotFound) {
					r.backend.logger.Warn("posting without document", "kind", r.kind, "id", id)
					continue
				}
				return err
			}
			if doc.Owner() != filter.UserID || !core.HasAllLabels(doc.LabelSet(), filter.Labels) {
				continue
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortDocuments(docs, scores, filter.Sort)
	return limit(docs, filter.Limit), nil
}

// Distinct returns the distinct labels of the documents matching filter.
func (r *Repository[T]) Distinct(ctx context.Context, field string, filter storage.Filter) ([]string, error) {
	if field != storage.FieldLabels {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnsupportedField, field)
	}
	filter.Limit = 0
	docs, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	values := []string{}
	for _, doc := range docs {
		for _, l := range doc.LabelSet() {
			if l != "" && !seen[l] {
				seen[l] = true
				values = append(values, l)
			}
		}
	}
	slices.Sort(values)
	return values, nil
}

// Count returns the number of stored documents.
func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	var zero T
	var n uint64
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		n, err = r.backend.store.TxCount(tx, &zero, allDocuments())
		return err
	}, false)
	return int(n), err
}

// Scan calls fn with consecutive batches in key order.
func (r *Repository[T]) Scan(ctx context.Context, batchSize int, fn func(batch []T) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", storage.ErrInvalidQuery)
	}
	for offset := 0; ; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		var batch []T
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			return r.backend.store.TxFind(tx, &batch, allDocuments().Skip(offset).Limit(batchSize))
		}, false)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
	}
}

// Reindex rewrites the postings of the given documents.
func (r *Repository[T]) Reindex(ctx context.Context, docs ...T) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := deletePostings(tx, doc); err != nil {
				return err
			}
			if err := writePostings(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ResetIndex drops every posting of this entity type.
func (r *Repository[T]) ResetIndex(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	prefix := []byte(textPostingPrefix + ":" + string(r.kind) + ":")
	return r.backend.store.Badger().DropPrefix(prefix)
}

// allDocuments matches every stored document; every stored document has an owner.
func allDocuments() *badgerhold.Query {
	return badgerhold.Where("UserID").Ne("")
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// sortDocuments orders docs by score (when order is SortRelevance) and then by
// last modification, newest first. ID breaks remaining ties.
func sortDocuments[T core.Entity](docs []T, scores map[core.ID]float64, order storage.SortOrder) {
	slices.SortFunc(docs, func(a, b T) int {
		if order == storage.SortRelevance {
			if c := cmp.Compare(scores[b.EntityID()], scores[a.EntityID()]); c != 0 {
				return c
			}
		}
		if c := b.LastModified().Compare(a.LastModified()); c != 0 {
			return c
		}
		return cmp.Compare(a.EntityID().String(), b.EntityID().String())
	})
}

func limit[T any](docs []T, n int) []T {
	if docs == nil {
		return []T{}
	}
	if n > 0 && len(docs) > n {
		return docs[:n]
	}
	return docs
}
