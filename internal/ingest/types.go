package ingest

import (
	"github.com/google/uuid"
)

// Item is one entry scraped from a listing page, before normalisation.
type Item struct {
	Title        string
	Link         string
	Organization string
	DeadlineText string
	Summary      string
}

// Stats holds counters for a single import run.
type Stats struct {
	Pages   int `json:"pages"`
	Found   int `json:"found"`
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Result is the outcome of importing one source.
type Result struct {
	RunID    uuid.UUID `json:"run_id"`
	SourceID string    `json:"source_id"`
	Status   string    `json:"status"`
	Stats
}
