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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidNotebook indicates a Notebook failed validation.
	ErrInvalidNotebook = errors.New("invalid notebook")

	// ErrInvalidSection indicates a Section failed validation.
	ErrInvalidSection = errors.New("invalid section")

	// ErrInvalidNote indicates a Note failed validation.
	ErrInvalidNote = errors.New("invalid note")

	// ErrEmptyUserID indicates the owning user is missing.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrEmptyName indicates a notebook has no name.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyTitle indicates a section or note has no title.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyLabel indicates a label set contains an empty string.
	ErrEmptyLabel = errors.New("labels cannot contain empty values")
)
