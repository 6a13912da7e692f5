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
	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
)

// OpenRepositories opens a backend and the notebook, section and note
// repositories on top of it. Closing the result closes the backend.
func OpenRepositories(filePath string, inMemory bool) (*storage.Repositories, error) {
	backend, err := OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	notebooks, err := NewRepository[core.Notebook](backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	sections, err := NewRepository[core.Section](backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	notes, err := NewRepository[core.Note](backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return storage.NewRepositories(notebooks, sections, notes, backend.Close), nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the result when done.
func NewMemoryRepositories() (*storage.Repositories, error) {
	return OpenRepositories("", true)
}
