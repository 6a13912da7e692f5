package noteshelf

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/noteshelf/config"
	"github.com/poiesic/noteshelf/core"
	"github.com/poiesic/noteshelf/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	backends := map[string]*config.Config{
		"badger on disk":   config.NewConfig(config.WithStoragePath(filepath.Join(t.TempDir(), "db"))),
		"badger in memory": config.NewConfig(config.WithInMemory()),
		"sqlite on disk": config.NewConfig(
			config.WithBackend(config.BackendSQLite),
			config.WithStoragePath(filepath.Join(t.TempDir(), "notes.db")),
		),
		"sqlite in memory": config.NewConfig(config.WithBackend(config.BackendSQLite), config.WithInMemory()),
	}

	for name, cfg := range backends {
		t.Run(name, func(t *testing.T) {
			db, err := NewDatabase(cfg)
			require.NoError(t, err)
			defer db.Close()

			repos := db.Repositories()
			require.NotNil(t, repos)
			assert.Same(t, cfg, db.Config())

			ctx := context.Background()
			_, err = repos.Notes.Put(ctx, core.Note{UserID: "u1", Title: "Photosynthesis", Labels: []string{"biology"}})
			require.NoError(t, err)

			engine, err := db.NewEngine()
			require.NoError(t, err)
			defer engine.Release()

			resp, err := engine.Search(ctx, search.Request{UserID: "u1", Query: "photosynthesis"})
			require.NoError(t, err)
			assert.Equal(t, 1, resp.TotalResults)

			labels, err := engine.Labels(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, []string{"biology"}, labels)

			r, err := db.NewReindexer(io.Discard)
			require.NoError(t, err)
			result, err := r.Run(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, result.Notes)
		})
	}
}

func TestNewDatabase_Errors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		db, err := NewDatabase(config.NewConfig(config.WithBackend("mongo")))
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Nil(t, db)
	})

	t.Run("badger path is a file", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		db, err := NewDatabase(config.NewConfig(config.WithStoragePath(tmpFile)))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_EngineOptionsOverrideConfig(t *testing.T) {
	db, err := NewDatabase(config.NewConfig(config.WithInMemory(), config.WithPoolSize(2)))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.NewEngine(search.WithPoolSize(0))
	assert.ErrorIs(t, err, search.ErrInvalidPoolSize)

	engine, err := db.NewEngine(search.WithPoolSize(8))
	require.NoError(t, err)
	engine.Release()
}
