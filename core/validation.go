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

import "fmt"

// ValidateNotebook validates a Notebook according to domain rules.
//
// Validation rules:
//   - UserID must not be empty
//   - Name must not be empty
//   - Labels must not contain empty strings
//
// NOT validated (assigned when stored):
//   - ID
//   - CreatedAt, UpdatedAt
func ValidateNotebook(nb *Notebook) error {
	if nb == nil {
		return fmt.Errorf("%w: notebook is nil", ErrInvalidNotebook)
	}
	if nb.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNotebook, ErrEmptyUserID)
	}
	if nb.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNotebook, ErrEmptyName)
	}
	if err := ValidateLabels(nb.Labels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidNotebook, err)
	}
	return nil
}

// ValidateSection validates a Section according to domain rules.
//
// Validation rules:
//   - UserID must not be empty
//   - Title must not be empty
//   - Labels must not contain empty strings
//
// The parent notebook is not checked; ownership is the only relation the
// store enforces.
func ValidateSection(s *Section) error {
	if s == nil {
		return fmt.Errorf("%w: section is nil", ErrInvalidSection)
	}
	if s.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptyUserID)
	}
	if s.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptyTitle)
	}
	if err := ValidateLabels(s.Labels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSection, err)
	}
	return nil
}

// ValidateNote validates a Note according to domain rules.
//
// Validation rules:
//   - UserID must not be empty
//   - Title must not be empty
//   - Labels must not contain empty strings
//
// Content may be empty.
func ValidateNote(n *Note) error {
	if n == nil {
		return fmt.Errorf("%w: note is nil", ErrInvalidNote)
	}
	if n.UserID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNote, ErrEmptyUserID)
	}
	if n.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNote, ErrEmptyTitle)
	}
	if err := ValidateLabels(n.Labels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidNote, err)
	}
	return nil
}

// ValidateLabels rejects empty label values.
func ValidateLabels(labels []string) error {
	for i, l := range labels {
		if l == "" {
			return fmt.Errorf("%w: index %d", ErrEmptyLabel, i)
		}
	}
	return nil
}

// Validate dispatches to the validator for the concrete entity type.
func Validate(e Entity) error {
	switch v := e.(type) {
	case Notebook:
		return ValidateNotebook(&v)
	case *Notebook:
		return ValidateNotebook(v)
	case Section:
		return ValidateSection(&v)
	case *Section:
		return ValidateSection(v)
	case Note:
		return ValidateNote(&v)
	case *Note:
		return ValidateNote(v)
	default:
		return fmt.Errorf("unsupported entity type %T", e)
	}
}
