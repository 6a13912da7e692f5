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


package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
)

// Config holds configuration for a reindex run.
type Config struct {
	// BatchSize is the number of documents read and reindexed together
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.ReportInterval <= 0 {
		return ErrInvalidReportInterval
	}
	if c.MaxRetries <= 0 {
		return ErrInvalidMaxAttempts
	}
	return nil
}

// Result summarizes a completed run.
type Result struct {
	Notebooks int
	Sections  int
	Notes     int
	Elapsed   time.Duration
}

// Total returns the number of reindexed documents.
func (r Result) Total() int {
	return r.Notebooks + r.Sections + r.Notes
}

// Reindexer rebuilds the text index of all three repositories.
type Reindexer struct {
	repos    *storage.Repositories
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReindexer creates a reindexer. A nil config selects DefaultConfig.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(repos *storage.Repositories, config *Config, progress io.Writer) (*Reindexer, error) {
	if repos == nil {
		return nil, ErrRepositoriesRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reindexer{
		repos:    repos,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reindexer"),
	}, nil
}

// Run drops and rebuilds the text index of every entity type in turn.
func (r *Reindexer) Run(ctx context.Context) (Result, error) {
	var result Result

	nb, err := r.repos.Notebooks.Count(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to count notebooks: %w", err)
	}
	sec, err := r.repos.Sections.Count(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to count sections: %w", err)
	}
	notes, err := r.repos.Notes.Count(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to count notes: %w", err)
	}

	total := nb + sec + notes
	fmt.Fprintf(r.progress, "Starting reindex of %d documents (batch size: %d)\n", total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	if result.Notebooks, err = reindexType(ctx, r, r.repos.Notebooks, core.EntityNotebook, tracker); err != nil {
		return result, err
	}
	if result.Sections, err = reindexType(ctx, r, r.repos.Sections, core.EntitySection, tracker); err != nil {
		return result, err
	}
	if result.Notes, err = reindexType(ctx, r, r.repos.Notes, core.EntityNote, tracker); err != nil {
		return result, err
	}

	tracker.Finish()
	result.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d documents in %v\n",
		result.Total(), result.Elapsed.Round(time.Millisecond))
	r.logger.Info("reindex complete",
		"notebooks", result.Notebooks, "sections", result.Sections, "notes", result.Notes,
		"elapsed", result.Elapsed)

	return result, nil
}

func reindexType[T core.Entity](
	ctx context.Context,
	r *Reindexer,
	repo storage.Repository[T],
	kind core.EntityType,
	tracker *ProgressTracker,
) (int, error) {
	if err := repo.ResetIndex(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset %s index: %w", kind, err)
	}

	count := 0
	err := repo.Scan(ctx, r.config.BatchSize, func(batch []T) error {
		err := RetryWithBackoff(ctx, func() error {
			return repo.Reindex(ctx, batch...)
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("failed to reindex %s batch after %d attempts: %w", kind, r.config.MaxRetries, err)
		}
		count += len(batch)
		tracker.Add(len(batch))
		return nil
	})
	if err != nil {
		return count, err
	}

	r.logger.Debug("entity type reindexed", "kind", kind, "count", count)
	return count, nil
}
