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


package search

import (
	"errors"
	"fmt"

	"github.com/poiesic/noteshelf/core"
)

var (
	// ErrNotebookStoreRequired is returned when a notebook store is not provided.
	ErrNotebookStoreRequired = errors.New("notebook store required")

	// ErrSectionStoreRequired is returned when a section store is not provided.
	ErrSectionStoreRequired = errors.New("section store required")

	// ErrNoteStoreRequired is returned when a note store is not provided.
	ErrNoteStoreRequired = errors.New("note store required")

	// ErrInvalidPoolSize is returned when the worker pool size is not positive.
	ErrInvalidPoolSize = errors.New("pool size must be positive")

	// ErrInvalidRequest matches every *InvalidRequestError.
	ErrInvalidRequest = errors.New("invalid search request")

	// ErrStoreFailure matches every *StoreError.
	ErrStoreFailure = errors.New("store failure")
)

// Validation messages returned to callers.
const (
	MsgCriteriaRequired = "Search query or labels must be provided"
	MsgQueryTooShort    = "Search query must be at least 2 characters"
	MsgUserRequired     = "User id is required"
)

// InvalidRequestError reports a request rejected before any store was queried.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return e.Message
}

func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// StoreError wraps a failure of the store of one entity type.
type StoreError struct {
	Kind core.EntityType
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}
