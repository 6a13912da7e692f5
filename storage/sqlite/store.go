package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
)

// Store implements storage.Repository for one entity type on SQLite.
type Store[T core.Document[T]] struct {
	db    *DB
	kind  core.EntityType
	table string
	now   func() time.Time
}

var (
	_ storage.Repository[core.Notebook] = (*Store[core.Notebook])(nil)
	_ storage.Repository[core.Section]  = (*Store[core.Section])(nil)
	_ storage.Repository[core.Note]     = (*Store[core.Note])(nil)
)

// NewStore creates the store for T on db.
func NewStore[T core.Document[T]](db *DB) (*Store[T], error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	var zero T
	return &Store[T]{
		db:    db,
		kind:  zero.Kind(),
		table: tables[zero.Kind()],
		now:   time.Now,
	}, nil
}

// Close is a no-op; the shared DB is closed by its owner.
func (s *Store[T]) Close() error {
	return nil
}

// indexBody is the FTS5 document of e: its search fields reduced to index terms.
func indexBody(e core.Entity) string {
	var terms []string
	for _, field := range e.SearchFields() {
		terms = append(terms, core.Tokenize(field)...)
	}
	return strings.Join(terms, " ")
}

// matchExpression turns query text into an FTS5 OR of quoted terms.
func matchExpression(text string) string {
	terms := core.UniqueTerms(text)
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

func (s *Store[T]) Put(ctx context.Context, docs ...T) ([]T, error) {
	for _, doc := range docs {
		if err := core.Validate(doc); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	stored := make([]T, 0, len(docs))
	for _, doc := range docs {
		d := doc.Stamp(now)
		blob, err := storage.Encode(d)
		if err != nil {
			return nil, err
		}
		labels, err := json.Marshal(nonNil(d.LabelSet()))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		id := d.EntityID().String()

		if err := s.deleteIndex(ctx, tx, id); err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO `+s.table+` (id, user_id, labels, created_at, updated_at, doc)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				labels = excluded.labels,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				doc = excluded.doc`,
			id, d.Owner(), string(labels), createdAt(d).UnixNano(), d.LastModified().UnixNano(), blob)
		if err != nil {
			return nil, fmt.Errorf("storing %s %s: %w", s.kind, id, err)
		}
		if err := s.writeIndex(ctx, tx, id, d); err != nil {
			return nil, err
		}
		stored = append(stored, d)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return stored, nil
}

func (s *Store[T]) deleteIndex(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM `+s.table+`_fts WHERE rowid = (SELECT rowid FROM `+s.table+` WHERE id = ?)`, id)
	if err != nil {
		return fmt.Errorf("deleting index of %s %s: %w", s.kind, id, err)
	}
	return nil
}

func (s *Store[T]) writeIndex(ctx context.Context, tx *sql.Tx, id string, e core.Entity) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO `+s.table+`_fts (rowid, body) VALUES ((SELECT rowid FROM `+s.table+` WHERE id = ?), ?)`,
		id, indexBody(e))
	if err != nil {
		return fmt.Errorf("indexing %s %s: %w", s.kind, id, err)
	}
	return nil
}

func (s *Store[T]) Get(ctx context.Context, id core.ID) (T, error) {
	var result T
	var blob []byte
	err := s.db.db.QueryRowContext(ctx, `SELECT doc FROM `+s.table+` WHERE id = ?`, id.String()).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return result, fmt.Errorf("%w: %s %s", storage.ErrNotFound, s.kind, id)
	}
	if err != nil {
		return result, err
	}
	err = storage.Decode(blob, &result)
	return result, err
}

func (s *Store[T]) Delete(ctx context.Context, ids ...core.ID) error {
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		key := id.String()
		if err := s.deleteIndex(ctx, tx, key); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE id = ?`, key)
		if err != nil {
			return fmt.Errorf("deleting %s %s: %w", s.kind, key, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s %s", storage.ErrNotFound, s.kind, key)
		}
	}
	return tx.Commit()
}

// Find runs one query per call. With text the FTS5 table drives the query and
// rows are ordered by bm25 (lower is better).
func (s *Store[T]) Find(ctx context.Context, filter storage.Filter) ([]T, error) {
	if filter.UserID == "" {
		return []T{}, nil
	}

	var (
		query strings.Builder
		args  []any
	)
	if filter.Text != "" {
		match := matchExpression(filter.Text)
		if match == "" {
			return []T{}, nil
		}
		query.WriteString(`SELECT e.doc FROM ` + s.table + ` e JOIN ` + s.table + `_fts ON ` + s.table + `_fts.rowid = e.rowid
			WHERE ` + s.table + `_fts MATCH ? AND e.user_id = ?`)
		args = append(args, match, filter.UserID)
	} else {
		query.WriteString(`SELECT e.doc FROM ` + s.table + ` e WHERE e.user_id = ?`)
		args = append(args, filter.UserID)
	}

	args = appendLabelFilter(&query, args, filter.Labels)

	if filter.Text != "" && filter.Sort == storage.SortRelevance {
		query.WriteString(` ORDER BY bm25(` + s.table + `_fts), e.updated_at DESC, e.id`)
	} else {
		query.WriteString(` ORDER BY e.updated_at DESC, e.id`)
	}
	if filter.Limit > 0 {
		query.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	return s.queryDocs(ctx, query.String(), args...)
}

// appendLabelFilter requires every label in labels to be present in e.labels.
func appendLabelFilter(query *strings.Builder, args []any, labels []string) []any {
	labels = dedupe(labels)
	if len(labels) == 0 {
		return args
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(labels)), ",")
	query.WriteString(` AND (SELECT COUNT(DISTINCT j.value) FROM json_each(e.labels) j WHERE j.value IN (` + placeholders + `)) = ?`)
	for _, l := range labels {
		args = append(args, l)
	}
	return append(args, len(labels))
}

func (s *Store[T]) queryDocs(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := s.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer rows.Close()

	docs := []T{}
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var doc T
		if err := storage.Decode(blob, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store[T]) Distinct(ctx context.Context, field string, filter storage.Filter) ([]string, error) {
	if field != storage.FieldLabels {
		return nil, fmt.Errorf("%w: %s", storage.ErrUnsupportedField, field)
	}
	if filter.UserID == "" {
		return []string{}, nil
	}
	if filter.Text != "" {
		filter.Limit = 0
		docs, err := s.Find(ctx, filter)
		if err != nil {
			return nil, err
		}
		var values []string
		for _, d := range docs {
			values = append(values, d.LabelSet()...)
		}
		values = dedupe(values)
		slices.Sort(values)
		return values, nil
	}

	var query strings.Builder
	query.WriteString(`SELECT DISTINCT v.value FROM ` + s.table + ` e, json_each(e.labels) v
		WHERE e.user_id = ? AND v.value <> ''`)
	args := appendLabelFilter(&query, []any{filter.UserID}, filter.Labels)
	query.WriteString(` ORDER BY v.value`)

	rows, err := s.db.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s labels: %w", s.table, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (s *Store[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+s.table).Scan(&n)
	return n, err
}

func (s *Store[T]) Scan(ctx context.Context, batchSize int, fn func(batch []T) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", storage.ErrInvalidQuery)
	}
	after := ""
	for {
		batch, err := s.queryDocs(ctx, `SELECT doc FROM `+s.table+` WHERE id > ? ORDER BY id LIMIT ?`, after, batchSize)
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
		after = batch[len(batch)-1].EntityID().String()
	}
}

func (s *Store[T]) Reindex(ctx context.Context, docs ...T) error {
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		id := doc.EntityID().String()
		if err := s.deleteIndex(ctx, tx, id); err != nil {
			return err
		}
		if err := s.writeIndex(ctx, tx, id, doc); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store[T]) ResetIndex(ctx context.Context) error {
	_, err := s.db.db.ExecContext(ctx, `DELETE FROM `+s.table+`_fts`)
	return err
}

// createdAt reads the creation time, which is not part of core.Entity.
func createdAt(e core.Entity) time.Time {
	switch v := e.(type) {
	case core.Notebook:
		return v.CreatedAt
	case core.Section:
		return v.CreatedAt
	case core.Note:
		return v.CreatedAt
	}
	return e.LastModified()
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
