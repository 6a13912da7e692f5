package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepos(t *testing.T, path string) *storage.Repositories {
	t.Helper()
	repos, err := OpenRepositories(path)
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		ts = ts.Add(time.Minute)
		return ts
	}
	repos.Notebooks.(*Store[core.Notebook]).now = clock
	repos.Sections.(*Store[core.Section]).now = clock
	repos.Notes.(*Store[core.Note]).now = clock
	return repos
}

func newTestRepos(t *testing.T) *storage.Repositories {
	return openTestRepos(t, filepath.Join(t.TempDir(), "noteshelf.db"))
}

func TestNewStore_NilDB(t *testing.T) {
	_, err := NewStore[core.Note](nil)
	assert.ErrorIs(t, err, ErrDBRequired)
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, `"dna" OR "helix"`, matchExpression("DNA, the helix; dna"))
	assert.Equal(t, "", matchExpression("the of"))
}

func TestIndexBody(t *testing.T) {
	n := core.Note{Title: "DNA Structure", Content: "It is a double helix."}
	assert.Equal(t, "dna structure double helix", indexBody(n))
}

func TestInMemory(t *testing.T) {
	repos := openTestRepos(t, MemoryPath)
	ctx := context.Background()

	_, err := repos.Notebooks.Put(ctx, core.Notebook{UserID: "u1", Name: "Scratch"})
	require.NoError(t, err)

	n, err := repos.Notebooks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPutGetDelete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	stored, err := repos.Notes.Put(ctx, core.Note{
		UserID:     "u1",
		NotebookID: core.NewID(),
		SectionID:  core.NewID(),
		Title:      "DNA Structure",
		Content:    "DNA is a double helix structure that contains genetic information.",
		Labels:     []string{"biology"},
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	got, err := repos.Notes.Get(ctx, stored[0].ID)
	require.NoError(t, err)
	assert.Equal(t, stored[0].NotebookID, got.NotebookID)
	assert.Equal(t, stored[0].Content, got.Content)

	require.NoError(t, repos.Notes.Delete(ctx, stored[0].ID))
	_, err = repos.Notes.Get(ctx, stored[0].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	found, err := repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "helix"})
	require.NoError(t, err)
	assert.Empty(t, found)

	assert.ErrorIs(t, repos.Notes.Delete(ctx, stored[0].ID), storage.ErrNotFound)
}

func TestPut_Validation(t *testing.T) {
	repos := newTestRepos(t)
	_, err := repos.Sections.Put(context.Background(), core.Section{UserID: "u1"})
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
}

func TestFind_TextRelevance(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for _, n := range []core.Note{
		{UserID: "u1", Title: "Lab notes", Content: "Extracted DNA today, then went home and did the dishes and other chores."},
		{UserID: "u1", Title: "DNA Structure", Content: "DNA DNA double helix."},
		{UserID: "u1", Title: "Genetics", Content: "Mendel studied peas."},
		{UserID: "u2", Title: "DNA", Content: "Another user's DNA note."},
	} {
		_, err := repos.Notes.Put(ctx, n)
		require.NoError(t, err)
	}

	found, err := repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "dna", Sort: storage.SortRelevance})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "DNA Structure", found[0].Title)
	assert.Equal(t, "Lab notes", found[1].Title)

	found, err = repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "dna", Sort: storage.SortRecent})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "DNA Structure", found[0].Title)

	found, err = repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "xyznonexistent"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFind_UpdateReplacesIndex(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	stored, err := repos.Notebooks.Put(ctx, core.Notebook{UserID: "u1", Name: "Chemistry"})
	require.NoError(t, err)
	nb := stored[0]
	nb.Name = "Physics"
	_, err = repos.Notebooks.Put(ctx, nb)
	require.NoError(t, err)

	found, err := repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Text: "chemistry"})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Text: "physics"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	n, err := repos.Notebooks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFind_Labels(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for _, nb := range []core.Notebook{
		{UserID: "u1", Name: "Biology 101", Labels: []string{"biology", "course"}},
		{UserID: "u1", Name: "Go", Labels: []string{"tech"}},
		{UserID: "u1", Name: "Field work", Labels: []string{"biology"}},
	} {
		_, err := repos.Notebooks.Put(ctx, nb)
		require.NoError(t, err)
	}

	found, err := repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Labels: []string{"biology", "course"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Biology 101", found[0].Name)

	found, err = repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Labels: []string{"biology", "biology"}})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Field work", found[0].Name)

	found, err = repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Text: "biology", Labels: []string{"tech"}})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFind_Limit(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for i := range 5 {
		_, err := repos.Sections.Put(ctx, core.Section{UserID: "u1", Title: fmt.Sprintf("Topic %d", i)})
		require.NoError(t, err)
	}

	found, err := repos.Sections.Find(ctx, storage.Filter{UserID: "u1", Text: "topic", Sort: storage.SortRelevance, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestDistinct(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Notes.Put(ctx,
		core.Note{UserID: "u1", Title: "a", Labels: []string{"shared", "b"}},
		core.Note{UserID: "u1", Title: "b", Labels: []string{"shared"}},
		core.Note{UserID: "u2", Title: "c", Labels: []string{"private"}},
	)
	require.NoError(t, err)

	labels, err := repos.Notes.Distinct(ctx, storage.FieldLabels, storage.Filter{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "shared"}, labels)

	labels, err = repos.Notes.Distinct(ctx, storage.FieldLabels, storage.Filter{UserID: "u1", Text: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, labels)

	labels, err = repos.Notes.Distinct(ctx, storage.FieldLabels, storage.Filter{UserID: "empty_user"})
	require.NoError(t, err)
	assert.Empty(t, labels)

	_, err = repos.Notes.Distinct(ctx, "user_id", storage.Filter{UserID: "u1"})
	assert.ErrorIs(t, err, storage.ErrUnsupportedField)
}

func TestScanResetReindex(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for i := range 5 {
		_, err := repos.Notes.Put(ctx, core.Note{UserID: "u1", Title: fmt.Sprintf("Ribosome %d", i)})
		require.NoError(t, err)
	}

	require.NoError(t, repos.Notes.ResetIndex(ctx))
	found, err := repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "ribosome"})
	require.NoError(t, err)
	assert.Empty(t, found)

	var batches int
	err = repos.Notes.Scan(ctx, 2, func(batch []core.Note) error {
		batches++
		return repos.Notes.Reindex(ctx, batch...)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, batches)

	found, err = repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "ribosome"})
	require.NoError(t, err)
	assert.Len(t, found, 5)
}
