// Package sqlite implements the entity stores on SQLite, using an FTS5 table
// per entity type for text relevance (bm25) and json_each for label filters.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
)

// ErrDBRequired is returned when a store is created without a database.
var ErrDBRequired = errors.New("database is required")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Connection pragmas, applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(wal)",
	"synchronous(normal)",
	"busy_timeout(30000)",
	"cache_size(-64000)", // 64MB cache
	"temp_store(memory)",
	"foreign_keys(on)",
}

// tables maps each entity type to its table name.
var tables = map[core.EntityType]string{
	core.EntityNotebook: "notebooks",
	core.EntitySection:  "sections",
	core.EntityNote:     "notes",
}

// DB wraps the shared SQLite handle used by the stores.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating when needed) the database at path and ensures the schema.
func Open(path string) (*DB, error) {
	inMemory := path == MemoryPath || path == ""
	dsn := "file::memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = "file:" + filepath.ToSlash(path)
	}

	q := url.Values{}
	for _, p := range pragmas {
		if inMemory && strings.HasPrefix(p, "journal_mode") {
			continue
		}
		q.Add("_pragma", p)
	}

	db, err := sql.Open("sqlite3", dsn+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if inMemory {
		// Every connection would see its own empty database otherwise.
		db.SetMaxOpenConns(1)
	}

	d := &DB{db: db, logger: slog.Default().With("component", "sqlite")}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) migrate() error {
	for kind, table := range tables {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				labels TEXT NOT NULL DEFAULT '[]',
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL,
				doc BLOB NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS ` + table + `_user_updated ON ` + table + ` (user_id, updated_at DESC)`,
			`CREATE VIRTUAL TABLE IF NOT EXISTS ` + table + `_fts USING fts5(body)`,
		}
		for _, stmt := range stmts {
			if _, err := d.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating schema for %s: %w", kind, err)
			}
		}
	}
	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Optimize runs ANALYZE and PRAGMA optimize.
func (d *DB) Optimize() error {
	if _, err := d.db.Exec("ANALYZE"); err != nil {
		return err
	}
	_, err := d.db.Exec("PRAGMA optimize")
	return err
}

// OpenRepositories opens the database at path and the three stores on top of it.
// Closing the result closes the database.
func OpenRepositories(path string) (*storage.Repositories, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	notebooks, err := NewStore[core.Notebook](d)
	if err != nil {
		d.Close()
		return nil, err
	}
	sections, err := NewStore[core.Section](d)
	if err != nil {
		d.Close()
		return nil, err
	}
	notes, err := NewStore[core.Note](d)
	if err != nil {
		d.Close()
		return nil, err
	}
	return storage.NewRepositories(notebooks, sections, notes, d.Close), nil
}
