// Command deadlines prints active opportunities in deadline order with the
// days left and the status badge each one would show.
package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/namsral/flag"

	"github.com/david/scholarhub/internal/config"
	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/deadline"
	"github.com/david/scholarhub/internal/models"
)

func main() {
	fs := flag.NewFlagSet("deadlines", flag.ExitOnError)
	typeName := fs.String("type", "", "opportunity type; empty lists every type")
	showExpired := fs.Bool("show-expired", false, "include expired opportunities at the bottom")
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

	opps, err := db.NewStore(pool).ListOpportunities(ctx, db.OpportunityFilter{
		Type:       typ,
		ActiveOnly: true,
		Limit:      cfg.ListLimit,
	})
	if err != nil {
		log.Fatal(err)
	}

	c := deadline.New(cfg.DeadlineTZ)
	sorted := deadline.Sort(c, opps, *showExpired)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Title", "Type", "Country", "Deadline", "Days", "Status"})
	for _, o := range sorted {
		days, status := "-", "-"
		if n := c.DaysRemaining(o.Deadline); n != nil {
			days = strconv.Itoa(*n)
		}
		if b := c.Status(o.Deadline); b != nil {
			status = b.Label
		}
		t.AppendRow(table.Row{o.Title, o.Type, o.Country, c.Format(o.Deadline), days, status})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(sorted)})
	t.Render()
}
