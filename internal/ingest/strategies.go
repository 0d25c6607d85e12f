package ingest

import (
	"context"
	"fmt"
)

// Scraper walks a source's listing pages and hands every item to emit.
// It returns the number of pages visited.
type Scraper interface {
	Scrape(ctx context.Context, src SourceConfig, emit func(Item)) (int, error)
}

const StrategyHTMLGeneric = "html_generic"

// StrategyFactory maps strategy IDs (from sources.yaml) to scrapers.
type StrategyFactory struct {
	scrapers map[string]Scraper
}

func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{scrapers: make(map[string]Scraper)}
}

func (f *StrategyFactory) Register(id string, s Scraper) {
	f.scrapers[id] = s
}

func (f *StrategyFactory) Get(id string) (Scraper, error) {
	s, ok := f.scrapers[id]
	if !ok {
		return nil, fmt.Errorf("strategy not found: %s", id)
	}
	return s, nil
}
