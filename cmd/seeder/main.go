package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/poiesic/noteshelf"
	"github.com/poiesic/noteshelf/config"
	"github.com/poiesic/noteshelf/seed"
)

var (
	seedFileName = flag.String("src", "", "TOML fixture of seed data")
	dbPath       = flag.String("db", "./noteshelf_db", "badger database directory")
	batchSize    = flag.Int("batch", 5, "documents written per batch")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	db, err := noteshelf.NewDatabase(config.NewConfig(config.WithStoragePath(*dbPath)))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	// Determine source of seed data
	var fixture *seed.Fixture
	if *seedFileName != "" {
		fixture, err = seed.Load(*seedFileName)
	} else {
		fixture, err = seed.Sample()
	}
	if err != nil {
		panic(err)
	}

	result, err := seed.Apply(context.Background(), db.Repositories(), fixture, *batchSize)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded", "notebooks", result.Notebooks, "sections", result.Sections, "notes", result.Notes)
}
