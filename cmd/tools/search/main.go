// Command search is a terminal version of a list page. Every line read from
// stdin replaces the query; once typing pauses for the debounce delay the
// query runs against the loaded set and the results are printed.
//
// A line is free text plus optional facet=value pairs, for example
//
//	oxford country=united funding_type=fully_funded
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/namsral/flag"

	"github.com/david/scholarhub/internal/config"
	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/deadline"
	"github.com/david/scholarhub/internal/listfilter"
	"github.com/david/scholarhub/internal/models"
)

func main() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	typeName := fs.String("type", "scholarship", "list page to emulate; empty for the cross-type listing")
	delay := fs.Duration("delay", listfilter.DefaultDelay, "debounce delay")
	showExpired := fs.Bool("show-expired", false, "include expired opportunities")
	_ = fs.Parse(os.Args[1:])

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Parse(nil)
	if err != nil {
		log.Fatal(err)
	}

	var typ models.OpportunityType
	if *typeName != "" {
		if typ, err = models.ParseOpportunityType(*typeName); err != nil {
			log.Fatal(err)
		}
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	loaded, err := db.NewStore(pool).ListOpportunities(ctx, db.OpportunityFilter{
		Type:       typ,
		ActiveOnly: true,
		Limit:      cfg.ListLimit,
	})
	if err != nil {
		log.Fatal(err)
	}

	page := listfilter.OpportunityPage(typ)
	r := &runner{
		out:         os.Stdout,
		items:       loaded,
		spec:        page,
		classifier:  deadline.New(cfg.DeadlineTZ),
		showExpired: *showExpired,
	}

	fmt.Fprintf(os.Stderr, "%d opportunities loaded. Facets: %s\n", len(loaded), facetNames(page))
	d := listfilter.NewDebouncer(*delay, r.run)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		d.Set(parseLine(scanner.Text(), page))
	}
	d.Flush()
	d.Stop()
}

type runner struct {
	mu          sync.Mutex
	out         io.Writer
	items       []models.Opportunity
	spec        listfilter.Spec[models.Opportunity]
	classifier  *deadline.Classifier
	showExpired bool
}

func (r *runner) run(q listfilter.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := deadline.Sort(r.classifier, listfilter.Apply(r.items, r.spec, q), r.showExpired)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(describe(q))
	t.AppendHeader(table.Row{"Title", "Organization", "Country", "Deadline"})
	for _, o := range matched {
		t.AppendRow(table.Row{o.Title, o.Organization, o.Country, r.classifier.Format(o.Deadline)})
	}
	t.AppendFooter(table.Row{"", "", "Matches", len(matched)})
	t.Render()
}

// parseLine splits a line into facet=value pairs the page declares and free
// search text.
func parseLine(line string, spec listfilter.Spec[models.Opportunity]) listfilter.Query {
	q := listfilter.Query{Facets: map[string]string{}}
	var words []string
	for _, tok := range strings.Fields(line) {
		name, value, ok := strings.Cut(tok, "=")
		if ok {
			if _, known := spec.Facet(name); known {
				q.Facets[name] = value
				continue
			}
		}
		words = append(words, tok)
	}
	q.Search = strings.Join(words, " ")
	return q
}

func describe(q listfilter.Query) string {
	if q.Empty() {
		return "all"
	}
	parts := []string{}
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("%q", q.Search))
	}
	for _, name := range slices.Sorted(maps.Keys(q.Facets)) {
		parts = append(parts, name+"="+q.Facets[name])
	}
	return strings.Join(parts, " ")
}

func facetNames(spec listfilter.Spec[models.Opportunity]) string {
	names := make([]string, len(spec.Facets))
	for i, f := range spec.Facets {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}
