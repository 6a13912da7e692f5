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


// Package storage provides the storage abstraction layer for noteshelf.
//
// This package defines the entity store interfaces that decouple the search
// engine from the storage implementation. Two backends are provided: a
// BadgerDB backend (storage/badger) built on badgerhold with its own text
// postings, and a SQLite backend (storage/sqlite) built on FTS5.
//
// # Architecture
//
// The storage layer follows the Repository pattern, split by capability:
//
//   - EntityStore[T]: the read capability the search engine consumes
//     (Find with a Filter, Distinct over a field)
//   - Repository[T]: EntityStore plus the write path used by the seeder,
//     the reindexer and tests
//   - Repositories: the three repositories of one backend, opened together
//
// # Filters
//
// A Filter always scopes by UserID. A non-empty Text adds a relevance
// predicate over the entity's search fields and, with SortRelevance, orders
// by descending score. Labels require every listed label to be present on
// the document. Limit caps the result after sorting; zero means unbounded.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
