package core

import (
	"slices"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is the identifier of a notebook, section or note.
// Its display form is the canonical hyphenated UUID string.
type ID = uuid.UUID

// NilID is the zero ID. Documents carrying it get a fresh ID when stored.
var NilID = uuid.Nil

// NewID returns a random ID.
func NewID() ID {
	return uuid.New()
}

// ParseID parses the display form of an ID.
func ParseID(s string) (ID, error) {
	return uuid.Parse(s)
}

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always yields the identical ID, which lets fixtures be
// loaded repeatedly without creating duplicates.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(16, nil) // 16 bytes = one UUID
	h.Write([]byte(text))
	var id ID
	copy(id[:], h.Sum(nil))
	// Mark as an RFC 4122 name-based UUID so the display form is well formed.
	id[6] = (id[6] & 0x0f) | 0x50
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// EntityType discriminates the three searchable collections.
type EntityType string

const (
	EntityNotebook EntityType = "notebook"
	EntitySection  EntityType = "section"
	EntityNote     EntityType = "note"
)

// EntityTypes lists every entity type in response order.
var EntityTypes = []EntityType{EntityNotebook, EntitySection, EntityNote}

// Entity is implemented by every stored document.
type Entity interface {
	EntityID() ID
	Owner() string
	LabelSet() []string
	LastModified() time.Time
	Kind() EntityType
	// SearchFields returns the text fields covered by the text index.
	SearchFields() []string
}

// Document is an Entity that can produce a stamped copy of itself for storage.
type Document[T any] interface {
	Entity
	// Stamp returns a copy with a fresh ID when unset, CreatedAt set when unset
	// and UpdatedAt set to now.
	Stamp(now time.Time) T
}

// Notebook is the top level container owned by a user.
type Notebook struct {
	ID        ID
	UserID    string `badgerhold:"index"`
	Name      string
	Labels    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Section groups notes inside a notebook.
type Section struct {
	ID         ID
	UserID     string `badgerhold:"index"`
	NotebookID ID
	Title      string
	Labels     []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Note holds the actual text written by a user.
type Note struct {
	ID         ID
	UserID     string `badgerhold:"index"`
	NotebookID ID
	SectionID  ID
	Title      string
	Content    string
	Labels     []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (n Notebook) EntityID() ID            { return n.ID }
func (n Notebook) Owner() string           { return n.UserID }
func (n Notebook) LabelSet() []string      { return n.Labels }
func (n Notebook) LastModified() time.Time { return n.UpdatedAt }
func (n Notebook) Kind() EntityType        { return EntityNotebook }
func (n Notebook) SearchFields() []string  { return []string{n.Name} }

func (n Notebook) Stamp(now time.Time) Notebook {
	n.ID, n.CreatedAt, n.UpdatedAt = stamp(n.ID, n.CreatedAt, now)
	n.Labels = slices.Clone(n.Labels)
	return n
}

func (s Section) EntityID() ID            { return s.ID }
func (s Section) Owner() string           { return s.UserID }
func (s Section) LabelSet() []string      { return s.Labels }
func (s Section) LastModified() time.Time { return s.UpdatedAt }
func (s Section) Kind() EntityType        { return EntitySection }
func (s Section) SearchFields() []string  { return []string{s.Title} }

func (s Section) Stamp(now time.Time) Section {
	s.ID, s.CreatedAt, s.UpdatedAt = stamp(s.ID, s.CreatedAt, now)
	s.Labels = slices.Clone(s.Labels)
	return s
}

func (n Note) EntityID() ID            { return n.ID }
func (n Note) Owner() string           { return n.UserID }
func (n Note) LabelSet() []string      { return n.Labels }
func (n Note) LastModified() time.Time { return n.UpdatedAt }
func (n Note) Kind() EntityType        { return EntityNote }
func (n Note) SearchFields() []string  { return []string{n.Title, n.Content} }

func (n Note) Stamp(now time.Time) Note {
	n.ID, n.CreatedAt, n.UpdatedAt = stamp(n.ID, n.CreatedAt, now)
	n.Labels = slices.Clone(n.Labels)
	return n
}

func stamp(id ID, created, now time.Time) (ID, time.Time, time.Time) {
	if id == NilID {
		id = NewID()
	}
	now = now.UTC()
	if created.IsZero() {
		created = now
	}
	return id, created.UTC(), now
}

// HasAllLabels reports whether labels contains every value in required.
// An empty required set matches everything.
func HasAllLabels(labels, required []string) bool {
	for _, r := range required {
		if !slices.Contains(labels, r) {
			return false
		}
	}
	return true
}

var (
	_ Document[Notebook] = Notebook{}
	_ Document[Section]  = Section{}
	_ Document[Note]     = Note{}
)
