// Command import runs one import source, or all of them, from the registry
// and prints what each run stored.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/namsral/flag"

	"github.com/david/scholarhub/internal/config"
	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/ingest"
)

func main() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	sourceID := fs.String("source", "", "source ID to import (e.g. daad_scholarships)")
	all := fs.Bool("all", false, "import every registered source")
	list := fs.Bool("list", false, "list registered sources and exit")
	_ = fs.Parse(os.Args[1:])

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Parse(nil)
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger()

	registry, err := ingest.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("Failed to load import sources: %v", err)
	}

	if *list {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Type", "Country", "Pages", "URL"})
		for _, src := range registry.Sources {
			t.AppendRow(table.Row{src.ID, src.Name, src.Type, src.Country, src.MaxPages, src.BaseURL})
		}
		t.Render()
		return
	}

	if *sourceID == "" && !*all {
		log.Fatal("Please provide a source ID using -source, or -all")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, logger); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	importer := ingest.NewImporter(db.NewStore(pool), registry, logger)

	var results []*ingest.Result
	if *all {
		results, err = importer.ImportAll(ctx)
	} else {
		var res *ingest.Result
		res, err = importer.Import(ctx, *sourceID)
		if res != nil {
			results = append(results, res)
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Status", "Pages", "Found", "Saved", "Skipped", "Errors"})
	for _, r := range results {
		t.AppendRow(table.Row{r.SourceID, r.Status, r.Pages, r.Found, r.Saved, r.Skipped, r.Errors})
	}
	t.Render()

	if err != nil {
		log.Fatalf("Import finished with errors: %v", err)
	}
}
