package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/models"
)

var ErrUnknownSource = errors.New("unknown import source")

// DraftStore is the part of the database the importer writes to.
type DraftStore interface {
	OpportunityURLExists(ctx context.Context, url string) (bool, error)
	CreateOpportunity(ctx context.Context, o models.Opportunity) (*models.Opportunity, error)
	StartImportRun(ctx context.Context, sourceID string) (uuid.UUID, error)
	FinishImportRun(ctx context.Context, runID uuid.UUID, status string, found, saved, errs int) error
}

// Importer pulls opportunity drafts from the sources in a Registry.
type Importer struct {
	store      DraftStore
	registry   *Registry
	strategies *StrategyFactory
	logger     *slog.Logger
}

func NewImporter(store DraftStore, registry *Registry, logger *slog.Logger) *Importer {
	strategies := NewStrategyFactory()
	strategies.Register(StrategyHTMLGeneric, NewCollyScraper(logger))
	return &Importer{
		store:      store,
		registry:   registry,
		strategies: strategies,
		logger:     logger,
	}
}

// Register overrides or adds the scraper used for a strategy ID.
func (im *Importer) Register(strategy string, s Scraper) {
	im.strategies.Register(strategy, s)
}

// Sources lists the configured sources sorted by ID.
func (im *Importer) Sources() []SourceConfig {
	out := append([]SourceConfig(nil), im.registry.Sources...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Import runs one source end to end and records the run. The returned
// Result is non-nil whenever a run was started, even if the import failed.
func (im *Importer) Import(ctx context.Context, sourceID string) (*Result, error) {
	src, ok := im.registry.Source(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, sourceID)
	}
	scraper, err := im.strategies.Get(src.Strategy)
	if err != nil {
		return nil, err
	}

	runID, err := im.store.StartImportRun(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	res := &Result{RunID: runID, SourceID: src.ID}
	log := im.logger.With("source", src.ID, "run_id", runID)
	log.Info("import started", "base_url", src.BaseURL)

	seen := make(map[string]bool)
	emit := func(it Item) {
		res.Found++

		draft, err := Normalize(src, it)
		if err != nil {
			if errors.Is(err, ErrResultsPage) {
				res.Skipped++
				return
			}
			log.Warn("item rejected", "title", it.Title, "error", err)
			res.Errors++
			return
		}

		opp := draft.Opportunity
		if seen[opp.ApplicationURL] {
			res.Skipped++
			return
		}
		seen[opp.ApplicationURL] = true

		exists, err := im.store.OpportunityURLExists(ctx, opp.ApplicationURL)
		if err != nil {
			log.Error("duplicate check failed", "url", opp.ApplicationURL, "error", err)
			res.Errors++
			return
		}
		if exists {
			res.Skipped++
			return
		}

		if draft.DeadlineUnparsed {
			log.Warn("deadline not understood, saving without one", "title", opp.Title, "text", it.DeadlineText)
		}
		if _, err := im.store.CreateOpportunity(ctx, opp); err != nil {
			log.Error("failed to save draft", "title", opp.Title, "error", err)
			res.Errors++
			return
		}
		res.Saved++
	}

	pages, scrapeErr := scraper.Scrape(ctx, src, emit)
	res.Pages = pages

	switch {
	case scrapeErr != nil && res.Found == 0:
		res.Status = db.RunFailed
	case scrapeErr != nil || res.Errors > 0:
		res.Status = db.RunPartial
	default:
		res.Status = db.RunSuccess
	}

	// The run row is closed even when ctx was cancelled mid-import.
	if err := im.store.FinishImportRun(context.WithoutCancel(ctx), runID, res.Status, res.Found, res.Saved, res.Errors); err != nil {
		log.Error("failed to record import run", "error", err)
	}

	log.Info("import finished",
		"status", res.Status, "pages", res.Pages, "found", res.Found,
		"saved", res.Saved, "skipped", res.Skipped, "errors", res.Errors)

	if res.Status == db.RunFailed {
		return res, fmt.Errorf("import %s failed: %w", src.ID, scrapeErr)
	}
	if scrapeErr != nil {
		log.Warn("import stopped early", "error", scrapeErr)
	}
	return res, nil
}

// ImportAll imports every source in ID order. A failing source does not stop
// the others; the joined error lists every failure.
func (im *Importer) ImportAll(ctx context.Context) ([]*Result, error) {
	var (
		results []*Result
		errs    []error
	)
	for _, src := range im.Sources() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := im.Import(ctx, src.ID)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}
