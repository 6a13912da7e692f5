package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock returns a time source advancing one minute per call.
func steppingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestRepos(t *testing.T) *storage.Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	clock := steppingClock()
	repos.Notebooks.(*Repository[core.Notebook]).now = clock
	repos.Sections.(*Repository[core.Section]).now = clock
	repos.Notes.(*Repository[core.Note]).now = clock
	return repos
}

func TestNewRepository_NilBackend(t *testing.T) {
	_, err := NewRepository[core.Note](nil)
	assert.ErrorIs(t, err, ErrBackendRequired)
}

func TestPutAndGet(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	stored, err := repos.Notes.Put(ctx, core.Note{
		UserID:  "u1",
		Title:   "DNA Structure",
		Content: "DNA is a double helix structure that contains genetic information.",
		Labels:  []string{"biology"},
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEqual(t, core.NilID, stored[0].ID)
	assert.False(t, stored[0].CreatedAt.IsZero())

	got, err := repos.Notes.Get(ctx, stored[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "DNA Structure", got.Title)
	assert.Equal(t, []string{"biology"}, got.Labels)
	assert.True(t, stored[0].UpdatedAt.Equal(got.UpdatedAt))
}

func TestPut_Validation(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.Notebooks.Put(context.Background(), core.Notebook{Name: "no owner"})
	assert.ErrorIs(t, err, core.ErrEmptyUserID)

	n, err := repos.Notebooks.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGet_NotFound(t *testing.T) {
	repos := newTestRepos(t)
	_, err := repos.Sections.Get(context.Background(), core.NewID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	stored, err := repos.Notes.Put(ctx, core.Note{UserID: "u1", Title: "Photosynthesis", Content: "chlorophyll"})
	require.NoError(t, err)

	require.NoError(t, repos.Notes.Delete(ctx, stored[0].ID))

	_, err = repos.Notes.Get(ctx, stored[0].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	found, err := repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "chlorophyll", Sort: storage.SortRelevance})
	require.NoError(t, err)
	assert.Empty(t, found, "postings must be removed with the document")

	err = repos.Notes.Delete(ctx, stored[0].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFind_TextRelevance(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Notes.Put(ctx,
		core.Note{UserID: "u1", Title: "Genetics", Content: "Mendel studied peas."},
		core.Note{UserID: "u1", Title: "DNA Structure", Content: "DNA is a double helix structure."},
		core.Note{UserID: "u1", Title: "Lab notes", Content: "Extracted DNA today."},
		core.Note{UserID: "u2", Title: "DNA", Content: "Another user's DNA note."},
	)
	require.NoError(t, err)

	found, err := repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "dna", Sort: storage.SortRelevance})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "DNA Structure", found[0].Title, "title and content matches rank first")
	assert.Equal(t, "Lab notes", found[1].Title)
	for _, n := range found {
		assert.Equal(t, "u1", n.UserID)
	}
}

func TestFind_TextUpdatesReplacePostings(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	stored, err := repos.Notebooks.Put(ctx, core.Notebook{UserID: "u1", Name: "Chemistry"})
	require.NoError(t, err)

	updated := stored[0]
	updated.Name = "Physics"
	_, err = repos.Notebooks.Put(ctx, updated)
	require.NoError(t, err)

	found, err := repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Text: "chemistry"})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Text: "physics"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stored[0].ID, found[0].ID)
}

func TestFind_StopWordsOnly(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Sections.Put(ctx, core.Section{UserID: "u1", Title: "The end"})
	require.NoError(t, err)

	found, err := repos.Sections.Find(ctx, storage.Filter{UserID: "u1", Text: "the"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFind_LabelsAllOf(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for _, nb := range []core.Notebook{
		{UserID: "u1", Name: "Biology 101", Labels: []string{"biology", "course"}},
		{UserID: "u1", Name: "Go", Labels: []string{"tech"}},
		{UserID: "u1", Name: "Field work", Labels: []string{"biology"}},
		{UserID: "u2", Name: "Other", Labels: []string{"biology", "course"}},
	} {
		_, err := repos.Notebooks.Put(ctx, nb)
		require.NoError(t, err)
	}

	t.Run("without text", func(t *testing.T) {
		found, err := repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Labels: []string{"biology", "course"}})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Biology 101", found[0].Name)
	})

	t.Run("single label", func(t *testing.T) {
		found, err := repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Labels: []string{"biology"}})
		require.NoError(t, err)
		require.Len(t, found, 2)
		// most recently updated first
		assert.Equal(t, "Field work", found[0].Name)
		assert.Equal(t, "Biology 101", found[1].Name)
	})

	t.Run("with text", func(t *testing.T) {
		found, err := repos.Notebooks.Find(ctx, storage.Filter{UserID: "u1", Text: "biology", Labels: []string{"course"}})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Biology 101", found[0].Name)
	})
}

func TestFind_RecentOrderAndLimit(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for i := range 5 {
		_, err := repos.Sections.Put(ctx, core.Section{UserID: "u1", Title: fmt.Sprintf("Section %d", i), Labels: []string{"x"}})
		require.NoError(t, err)
	}

	found, err := repos.Sections.Find(ctx, storage.Filter{UserID: "u1", Labels: []string{"x"}, Limit: 3})
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "Section 4", found[0].Title)
	assert.Equal(t, "Section 3", found[1].Title)
	assert.Equal(t, "Section 2", found[2].Title)
}

func TestFind_EmptyUser(t *testing.T) {
	repos := newTestRepos(t)
	found, err := repos.Notes.Find(context.Background(), storage.Filter{UserID: "nobody", Text: "anything"})
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestDistinctLabels(t *testing.T) {
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

	labels, err = repos.Notes.Distinct(ctx, storage.FieldLabels, storage.Filter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, labels)

	_, err = repos.Notes.Distinct(ctx, "title", storage.Filter{UserID: "u1"})
	assert.ErrorIs(t, err, storage.ErrUnsupportedField)
}

func TestScanAndCount(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for i := range 7 {
		_, err := repos.Notes.Put(ctx, core.Note{UserID: "u1", Title: fmt.Sprintf("n%d", i)})
		require.NoError(t, err)
	}

	n, err := repos.Notes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	var sizes []int
	seen := make(map[core.ID]bool)
	err = repos.Notes.Scan(ctx, 3, func(batch []core.Note) error {
		sizes = append(sizes, len(batch))
		for _, n := range batch {
			seen[n.ID] = true
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Len(t, seen, 7)

	err = repos.Notes.Scan(ctx, 0, func([]core.Note) error { return nil })
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestResetIndexAndReindex(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	stored, err := repos.Notes.Put(ctx, core.Note{UserID: "u1", Title: "Mitochondria", Content: "powerhouse of the cell"})
	require.NoError(t, err)

	require.NoError(t, repos.Notes.ResetIndex(ctx))
	found, err := repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "powerhouse"})
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, repos.Notes.Reindex(ctx, stored...))
	found, err = repos.Notes.Find(ctx, storage.Filter{UserID: "u1", Text: "powerhouse"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stored[0].ID, found[0].ID)
}
