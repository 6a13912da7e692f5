package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/noteshelf/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// run executes the CLI against a private config path and database directory.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard

	base := []string{"noteshelf",
		"--log-level", "error",
		"--config", filepath.Join(dir, "noteshelf.toml"),
		"--db", filepath.Join(dir, "db"),
	}
	err := app.Run(append(base, args...))
	return out.String(), err
}

func TestSeedSearchLabels(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 3 notebooks")

	out, err = run(t, dir, "search", "--user", "demo", "--query", "DNA", "--json")
	require.NoError(t, err)
	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Results.Notes)
	assert.Equal(t, "DNA Structure", resp.Results.Notes[0].Title)
	assert.Contains(t, resp.Results.Notes[0].ContentPreview, "DNA")

	out, err = run(t, dir, "search", "-u", "demo", "--label", "biology", "--label", "course")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 hits")
	assert.Contains(t, out, "Biology 101")

	out, err = run(t, dir, "labels", "--user", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "biology\n")
	assert.Contains(t, out, "tech\n")
}

func TestSearch_InvalidRequest(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "search", "--user", "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), search.MsgCriteriaRequired)

	_, err = run(t, dir, "search", "--query", "dna")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
}

func TestSeed_FromFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "fixture.toml")
	require.NoError(t, os.WriteFile(src, []byte(`
[[notebooks]]
user_id = "u9"
name = "Travel"
labels = ["trips"]
`), 0644))

	out, err := run(t, dir, "seed", "--src", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 1 notebooks, 0 sections, 0 notes")

	_, err = run(t, dir, "seed", "--src", filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestReindex(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "seed")
	require.NoError(t, err)

	_, err = run(t, dir, "reindex", "--batch-size", "2")
	require.NoError(t, err)

	out, err := run(t, dir, "search", "--user", "demo", "--query", "goroutines")
	require.NoError(t, err)
	assert.Contains(t, out, "Channels")
}

func TestReindex_FlagValidation(t *testing.T) {
	dir := t.TempDir()
	for _, flag := range []string{"--batch-size", "--report-interval", "--max-retries"} {
		t.Run(flag, func(t *testing.T) {
			_, err := run(t, dir, "reindex", flag, "0")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must be greater than 0")
		})
	}
}

func TestInitConfig(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "init-config")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	assert.FileExists(t, filepath.Join(dir, "noteshelf.toml"))

	_, err = run(t, dir, "init-config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInvalidBackend(t *testing.T) {
	_, err := run(t, t.TempDir(), "--backend", "mongo", "labels", "--user", "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				require.NoError(t, newLoggerApp().Run([]string{"test", "-l", level}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestCommandDefaults(t *testing.T) {
	app := newApp()
	byName := map[string]*cli.Command{}
	for _, cmd := range app.Commands {
		byName[cmd.Name] = cmd
	}
	for _, name := range []string{"serve", "search", "labels", "reindex", "seed", "init-config"} {
		assert.Contains(t, byName, name)
	}

	var batch *cli.IntFlag
	for _, flag := range byName["reindex"].Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == "batch-size" {
			batch = f
		}
	}
	require.NotNil(t, batch)
	assert.Equal(t, 100, batch.Value)
}
