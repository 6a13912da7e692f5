// Package seed loads notebooks, sections and notes from a TOML fixture.
//
// IDs are derived from the owner and the names along the notebook path, so
// loading the same fixture twice updates the documents instead of duplicating them.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
)

//go:embed sample.toml
var sampleFixture []byte

// DefaultBatchSize is the number of documents written per Put call.
const DefaultBatchSize = 50

var (
	// ErrEmptyFixture is returned when a fixture contains no notebooks.
	ErrEmptyFixture = errors.New("fixture contains no notebooks")

	// ErrMissingUserID is returned when a notebook has no owner.
	ErrMissingUserID = errors.New("notebook has no user_id")
)

// Fixture is the root of a seed file.
type Fixture struct {
	Notebooks []NotebookFixture `toml:"notebooks"`
}

type NotebookFixture struct {
	UserID   string           `toml:"user_id"`
	Name     string           `toml:"name"`
	Labels   []string         `toml:"labels"`
	Sections []SectionFixture `toml:"sections"`
}

type SectionFixture struct {
	Title  string        `toml:"title"`
	Labels []string      `toml:"labels"`
	Notes  []NoteFixture `toml:"notes"`
}

type NoteFixture struct {
	Title   string   `toml:"title"`
	Content string   `toml:"content"`
	Labels  []string `toml:"labels"`
}

// Result counts the documents written.
type Result struct {
	Notebooks int
	Sections  int
	Notes     int
}

// Sample returns the built-in demo fixture.
func Sample() (*Fixture, error) {
	return Parse(sampleFixture)
}

// Load reads a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes a TOML fixture and checks every notebook has an owner.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshaling fixture: %w", err)
	}
	if len(f.Notebooks) == 0 {
		return nil, ErrEmptyFixture
	}
	for i, nb := range f.Notebooks {
		if nb.UserID == "" {
			return nil, fmt.Errorf("%w: notebook %d (%q)", ErrMissingUserID, i, nb.Name)
		}
	}
	return &f, nil
}

// Apply writes the fixture into repos in batches of batchSize.
// A batchSize <= 0 selects DefaultBatchSize.
func Apply(ctx context.Context, repos *storage.Repositories, f *Fixture, batchSize int) (Result, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var result Result
	var err error
	if result.Notebooks, err = putBatched(ctx, repos.Notebooks, f.notebooks(), batchSize); err != nil {
		return result, fmt.Errorf("seeding notebooks: %w", err)
	}
	if result.Sections, err = putBatched(ctx, repos.Sections, f.sections(), batchSize); err != nil {
		return result, fmt.Errorf("seeding sections: %w", err)
	}
	if result.Notes, err = putBatched(ctx, repos.Notes, f.notes(), batchSize); err != nil {
		return result, fmt.Errorf("seeding notes: %w", err)
	}
	return result, nil
}

func notebookID(nb NotebookFixture) core.ID {
	return core.IDFromContent(nb.UserID + "/" + nb.Name)
}

func sectionID(nb NotebookFixture, s SectionFixture) core.ID {
	return core.IDFromContent(notebookID(nb).String() + "/" + s.Title)
}

func noteID(nb NotebookFixture, s SectionFixture, n NoteFixture) core.ID {
	return core.IDFromContent(sectionID(nb, s).String() + "/" + n.Title)
}

func (f *Fixture) notebooks() iter.Seq[core.Notebook] {
	return func(yield func(core.Notebook) bool) {
		for _, nb := range f.Notebooks {
			doc := core.Notebook{ID: notebookID(nb), UserID: nb.UserID, Name: nb.Name, Labels: nb.Labels}
			if !yield(doc) {
				return
			}
		}
	}
}

func (f *Fixture) sections() iter.Seq[core.Section] {
	return func(yield func(core.Section) bool) {
		for _, nb := range f.Notebooks {
			for _, s := range nb.Sections {
				doc := core.Section{
					ID:         sectionID(nb, s),
					UserID:     nb.UserID,
					NotebookID: notebookID(nb),
					Title:      s.Title,
					Labels:     s.Labels,
				}
				if !yield(doc) {
					return
				}
			}
		}
	}
}

func (f *Fixture) notes() iter.Seq[core.Note] {
	return func(yield func(core.Note) bool) {
		for _, nb := range f.Notebooks {
			for _, s := range nb.Sections {
				for _, n := range s.Notes {
					doc := core.Note{
						ID:         noteID(nb, s, n),
						UserID:     nb.UserID,
						NotebookID: notebookID(nb),
						SectionID:  sectionID(nb, s),
						Title:      n.Title,
						Content:    n.Content,
						Labels:     n.Labels,
					}
					if !yield(doc) {
						return
					}
				}
			}
		}
	}
}

// putBatched reads from source and writes documents in batches.
func putBatched[T core.Entity](ctx context.Context, repo storage.Repository[T], source iter.Seq[T], batchSize int) (int, error) {
	batch := make([]T, 0, batchSize)
	written := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := repo.Put(ctx, batch...); err != nil {
			return err
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for doc := range source {
		batch = append(batch, doc)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}

	// Write any remaining documents
	if err := flush(); err != nil {
		return written, err
	}
	return written, nil
}
