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


package noteshelf

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/noteshelf/config"
	"github.com/poiesic/noteshelf/reindex"
	"github.com/poiesic/noteshelf/search"
	"github.com/poiesic/noteshelf/storage"
	"github.com/poiesic/noteshelf/storage/badger"
	"github.com/poiesic/noteshelf/storage/sqlite"
)

// Database wires the configured storage backend to the search engine and
// the reindexer.
type Database struct {
	repos  *storage.Repositories
	config *config.Config
	logger *slog.Logger
}

// NewDatabase opens the backend named by cfg. A nil cfg selects the defaults.
func NewDatabase(cfg *config.Config) (*Database, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repos, err := openRepositories(cfg.Storage)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "database")
	logger.Debug("storage opened", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path, "in_memory", cfg.Storage.InMemory)

	return &Database{
		repos:  repos,
		config: cfg,
		logger: logger,
	}, nil
}

func openRepositories(cfg config.StorageConfig) (*storage.Repositories, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		return badger.OpenRepositories(cfg.Path, cfg.InMemory)
	case config.BackendSQLite:
		path := cfg.Path
		if cfg.InMemory {
			path = sqlite.MemoryPath
		}
		return sqlite.OpenRepositories(path)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

func (db *Database) Close() error {
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// Repositories returns the notebook, section and note repositories.
func (db *Database) Repositories() *storage.Repositories {
	return db.repos
}

func (db *Database) Config() *config.Config {
	return db.config
}

// NewEngine creates a search engine over this database. The configured pool
// size applies unless opts override it. Call Release on the result when done.
func (db *Database) NewEngine(opts ...search.Option) (*search.Engine, error) {
	opts = append([]search.Option{search.WithPoolSize(db.config.Search.PoolSize)}, opts...)
	return search.NewEngine(db.repos.Notebooks, db.repos.Sections, db.repos.Notes, opts...)
}

// NewReindexer creates a reindexer using the configured batch and retry settings.
func (db *Database) NewReindexer(progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(db.repos, db.config.ReindexerConfig(), progress)
}
