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


package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/noteshelf"
	"github.com/poiesic/noteshelf/api"
	"github.com/poiesic/noteshelf/config"
	"github.com/poiesic/noteshelf/search"
	"github.com/poiesic/noteshelf/seed"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "noteshelf",
		Usage: "Search notebooks, sections and notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML config file (defaults are used when it does not exist)",
				Value:   "noteshelf.toml",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Storage backend (badger, sqlite); overrides the config file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Database path; overrides the config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the search API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Listen address; overrides the config file",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Search a user's notebooks, sections and notes",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User id",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Text to search for",
					},
					&cli.StringSliceFlag{
						Name:  "label",
						Usage: "Required label (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the response as JSON",
					},
				},
			},
			{
				Name:   "labels",
				Usage:  "List the labels a user has applied",
				Action: labelsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User id",
						Required: true,
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the text index of every stored document",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load notebooks, sections and notes from a TOML fixture",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "src",
						Usage: "Fixture file (the built-in sample is used when omitted)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents written together",
						Value: seed.DefaultBatchSize,
					},
				},
			},
			{
				Name:   "init-config",
				Usage:  "Write the default configuration to the config path",
				Action: initConfigCommand,
			},
		},
	}
}

// openDatabase loads the config file and applies the global overrides.
func openDatabase(c *cli.Context, opts ...config.ConfigOption) (*noteshelf.Database, error) {
	if c.IsSet("backend") {
		opts = append(opts, config.WithBackend(c.String("backend")))
	}
	if c.IsSet("db") {
		opts = append(opts, config.WithStoragePath(c.String("db")))
	}

	cfg, err := config.Load(c.String("config"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := noteshelf.NewDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func serveCommand(c *cli.Context) error {
	var opts []config.ConfigOption
	if c.IsSet("listen") {
		opts = append(opts, config.WithListen(c.String("listen")))
	}
	db, err := openDatabase(c, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}
	defer engine.Release()

	server, err := api.NewServer(engine)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := db.Config()
	return server.ListenAndServe(ctx, cfg.Server.Listen, cfg.Server.ShutdownTimeout.Duration)
}

func searchCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}
	defer engine.Release()

	req := search.Request{
		UserID: c.String("user"),
		Query:  c.String("query"),
		Labels: c.StringSlice("label"),
	}
	resp, err := engine.SearchWithMonitor(c.Context, req, &search.LogMonitor{})
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, resp)
	}
	printResponse(c.App.Writer, resp)
	return nil
}

func labelsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := db.NewEngine()
	if err != nil {
		return fmt.Errorf("failed to create search engine: %w", err)
	}
	defer engine.Release()

	labels, err := engine.Labels(c.Context, c.String("user"))
	if err != nil {
		return err
	}
	for _, l := range labels {
		fmt.Fprintln(c.App.Writer, l)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	// Validate flags
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg := db.Config()
	cfg.Reindex.BatchSize = c.Int("batch-size")
	cfg.Reindex.ReportInterval = c.Int("report-interval")
	cfg.Reindex.MaxRetries = c.Int("max-retries")
	cfg.Reindex.RetryDelay = config.Duration{Duration: c.Duration("retry-delay")}

	r, err := db.NewReindexer(c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Backend: %s\n", cfg.Storage.Backend)
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := r.Run(c.Context); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

func seedCommand(c *cli.Context) error {
	var (
		fixture *seed.Fixture
		err     error
	)
	if src := c.String("src"); src != "" {
		fixture, err = seed.Load(src)
	} else {
		fixture, err = seed.Sample()
	}
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := seed.Apply(c.Context, db.Repositories(), fixture, c.Int("batch-size"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Seeded %d notebooks, %d sections, %d notes\n",
		result.Notebooks, result.Sections, result.Notes)
	return nil
}

func initConfigCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func printJSON(w io.Writer, resp *search.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func printResponse(w io.Writer, resp *search.Response) {
	fmt.Fprintf(w, "Found %d hits\n", resp.TotalResults)
	for _, hit := range resp.Results.Notebooks {
		fmt.Fprintf(w, "notebook %s  %s %v\n", hit.ID, hit.Name, hit.Labels)
	}
	for _, hit := range resp.Results.Sections {
		fmt.Fprintf(w, "section  %s  %s %v\n", hit.ID, hit.Title, hit.Labels)
	}
	for _, hit := range resp.Results.Notes {
		fmt.Fprintf(w, "note     %s  %s %v\n         %s\n", hit.ID, hit.Title, hit.Labels, hit.ContentPreview)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
