package search

import (
	"time"

	"github.com/poiesic/noteshelf/core"
)

// Response is the aggregated result of one search.
// Query and Labels echo the request only when they were supplied.
type Response struct {
	TotalResults int      `json:"total_results"`
	Results      Results  `json:"results"`
	Query        string   `json:"query,omitempty"`
	Labels       []string `json:"labels,omitempty"`
}

// Results holds the ranked hits per entity type. All three lists are always non-nil.
type Results struct {
	Notebooks []NotebookHit `json:"notebooks"`
	Sections  []SectionHit  `json:"sections"`
	Notes     []NoteHit     `json:"notes"`
}

// NotebookHit is the display form of a matching notebook.
type NotebookHit struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Labels    []string        `json:"labels"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Type      core.EntityType `json:"type"`
}

// SectionHit is the display form of a matching section.
type SectionHit struct {
	ID         string          `json:"_id"`
	UserID     string          `json:"user_id"`
	NotebookID string          `json:"notebook_id,omitempty"`
	Title      string          `json:"title"`
	Labels     []string        `json:"labels"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Type       core.EntityType `json:"type"`
}

// NoteHit is the display form of a matching note. The full content is
// replaced by ContentPreview.
type NoteHit struct {
	ID             string          `json:"_id"`
	UserID         string          `json:"user_id"`
	NotebookID     string          `json:"notebook_id,omitempty"`
	SectionID      string          `json:"section_id,omitempty"`
	Title          string          `json:"title"`
	ContentPreview string          `json:"content_preview"`
	Labels         []string        `json:"labels"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Type           core.EntityType `json:"type"`
}

// displayID renders an ID for output. The nil ID renders as "".
func displayID(id core.ID) string {
	if id == core.NilID {
		return ""
	}
	return id.String()
}

func displayLabels(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

func notebookHit(nb core.Notebook, _ Request) NotebookHit {
	return NotebookHit{
		ID:        displayID(nb.ID),
		UserID:    nb.UserID,
		Name:      nb.Name,
		Labels:    displayLabels(nb.Labels),
		CreatedAt: nb.CreatedAt,
		UpdatedAt: nb.UpdatedAt,
		Type:      core.EntityNotebook,
	}
}

func sectionHit(s core.Section, _ Request) SectionHit {
	return SectionHit{
		ID:         displayID(s.ID),
		UserID:     s.UserID,
		NotebookID: displayID(s.NotebookID),
		Title:      s.Title,
		Labels:     displayLabels(s.Labels),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		Type:       core.EntitySection,
	}
}

func noteHit(n core.Note, req Request) NoteHit {
	return NoteHit{
		ID:             displayID(n.ID),
		UserID:         n.UserID,
		NotebookID:     displayID(n.NotebookID),
		SectionID:      displayID(n.SectionID),
		Title:          n.Title,
		ContentPreview: Preview(n.Content, req.Query),
		Labels:         displayLabels(n.Labels),
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
		Type:           core.EntityNote,
	}
}

// newResponse aggregates the per-type hits.
func newResponse(req Request, notebooks []NotebookHit, sections []SectionHit, notes []NoteHit) *Response {
	resp := &Response{
		TotalResults: len(notebooks) + len(sections) + len(notes),
		Results: Results{
			Notebooks: nonNil(notebooks),
			Sections:  nonNil(sections),
			Notes:     nonNil(notes),
		},
		Query: req.Query,
	}
	if len(req.Labels) > 0 {
		resp.Labels = displayLabels(req.Labels)
	}
	return resp
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
