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
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/noteshelf"
	"github.com/poiesic/noteshelf/config"
	"github.com/poiesic/noteshelf/search"
)

var (
	dbPath = flag.String("db", "./noteshelf_db", "badger database directory")
	userID = flag.String("user", "demo", "user id to search as")
	labels = flag.String("labels", "", "comma separated labels every hit must carry")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
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
	engine, err := db.NewEngine()
	if err != nil {
		panic(err)
	}
	defer engine.Release()

	req := search.Request{UserID: *userID, Query: "genetics"}
	if flag.NArg() > 0 {
		req.Query = strings.Join(flag.Args(), " ")
	}
	if *labels != "" {
		req.Labels = strings.Split(*labels, ",")
	}

	resp, err := engine.SearchWithMonitor(context.Background(), req, &search.LogMonitor{})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", resp.TotalResults)
	for i, hit := range resp.Results.Notebooks {
		fmt.Printf("notebook %d: '%s' (%s)\n", i, hit.Name, hit.ID)
	}
	for i, hit := range resp.Results.Sections {
		fmt.Printf("section %d: '%s' (%s)\n", i, hit.Title, hit.ID)
	}
	for i, hit := range resp.Results.Notes {
		fmt.Printf("note %d: '%s' (%s) %s\n", i, hit.Title, hit.ID, hit.ContentPreview)
	}
}
