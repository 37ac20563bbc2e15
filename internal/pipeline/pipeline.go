// Package pipeline orchestrates one full acquisition run: both category
// scrapes, enrichment, the reference join and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bondpulse/config"
	"bondpulse/internal/cbr"
	"bondpulse/internal/domain/models"
	"bondpulse/internal/enrich"
	"bondpulse/internal/logger"
	"bondpulse/internal/moex"
	"bondpulse/internal/refdata"
	"bondpulse/internal/scrape"
	"bondpulse/internal/storage"
)

// Category plans. The portal renders both watchlists behind the same
// portfolio menu; they differ in the list item, the sub-view entry and the
// positional checkbox that enables the extra display column.
var (
	mfoPlan = scrape.Plan{
		Category:       models.CategoryMFO,
		CategoryXPath:  `//*[@id="__layout"]/div/div/main/div/div/div[1]/section/div/ul/li[2]`,
		WatchlistXPath: `//*[@id="__layout"]/div/div/main/div/div/div[2]/section/div/ul/li[2]/div/div/span`,
		FieldIndex:     90,
	}
	collectorsPlan = scrape.Plan{
		Category:       models.CategoryCollectors,
		CategoryXPath:  `//*[@id="__layout"]/div/div/main/div/div/div[1]/section/div/ul/li[1]`,
		WatchlistXPath: `//*[@id="__layout"]/div/div/main/div/div/div[2]/section/div/ul/li[2]/a`,
		FieldIndex:     74,
	}
)

// portalSession is what a category scrape needs from the browser: the shared
// Session verbs plus authentication.
type portalSession interface {
	scrape.Session
	Login(portal config.PortalConfig) error
}

// newPortalSession is an indirection for tests; defaults to a real Chrome
// session.
var newPortalSession = func(ctx context.Context, cfg config.Config) (portalSession, func(), error) {
	return scrape.NewChromeSession(ctx, cfg.Scrape)
}

// Runner wires the full run. Construct with NewRunner; repo may be nil when
// persistence is not configured (the dataset is still built and summarized).
type Runner struct {
	cfg       config.Config
	ref       *config.Reference
	collector *scrape.Collector
	enricher  *enrich.Enricher
	repo      storage.SnapshotsRepository

	now func() time.Time
}

func NewRunner(cfg config.Config, ref *config.Reference, repo storage.SnapshotsRepository) *Runner {
	overlays := make(map[string]enrich.OverlayPolicy, len(ref.Overlays))
	for _, o := range ref.Overlays {
		overlays[o.ISIN] = enrich.OverlayPolicy{Currency: o.Currency, Board: o.Board}
	}

	return &Runner{
		cfg:       cfg,
		ref:       ref,
		collector: scrape.NewCollector(cfg.Scrape),
		enricher:  enrich.NewEnricher(moex.NewClient(cfg.Moex), cbr.NewClient(cfg.Cbr), overlays),
		repo:      repo,
		now:       time.Now,
	}
}

// Run executes one acquisition. The two categories are scraped sequentially
// in isolated browser sessions; a failure in one category never aborts the
// other. Run fails only when both categories fail, or when persistence of a
// non-empty dataset fails.
func (r *Runner) Run(ctx context.Context) (models.FinalDataset, error) {
	start := r.now()
	log := logger.L()
	log.Info().Msg("acquisition run starting")

	mfoRaw, mfoErr := r.collectCategory(ctx, mfoPlan)
	colRaw, colErr := r.collectCategory(ctx, collectorsPlan)
	if mfoErr != nil && colErr != nil {
		return nil, fmt.Errorf("both categories failed: %w", errors.Join(mfoErr, colErr))
	}

	mfo := r.enricher.Enrich(ctx, mfoRaw, models.CategoryMFO)
	collectors := r.enricher.Enrich(ctx, colRaw, models.CategoryCollectors)

	dataset := refdata.Join(mfo, collectors, r.ref)

	if err := r.persist(start, dataset); err != nil {
		return nil, fmt.Errorf("persist dataset: %w", err)
	}

	log.Info().
		Int("mfo_rows", len(mfo)).
		Int("collector_rows", len(collectors)).
		Int("total_rows", len(dataset)).
		Dur("elapsed", r.now().Sub(start)).
		Msg("acquisition run finished")

	return dataset, nil
}

// collectCategory owns the session lifetime for one category: a fresh
// browser, login, collection, guaranteed teardown. Teardown runs even when
// collection errors mid-pagination.
func (r *Runner) collectCategory(ctx context.Context, plan scrape.Plan) ([]models.RawRecord, error) {
	log := logger.L()

	session, cleanup, err := newPortalSession(ctx, r.cfg)
	if err != nil {
		log.Error().Str("category", string(plan.Category)).Err(err).Msg("browser session failed")
		return nil, fmt.Errorf("category %s: session: %w", plan.Category, err)
	}
	defer cleanup()

	if err := session.Navigate(r.cfg.Portal.BaseURL); err != nil {
		log.Error().Str("category", string(plan.Category)).Err(err).Msg("portal unreachable")
		return nil, fmt.Errorf("category %s: navigate: %w", plan.Category, err)
	}
	if err := session.Login(r.cfg.Portal); err != nil {
		log.Error().Str("category", string(plan.Category)).Err(err).Msg("portal login failed")
		return nil, fmt.Errorf("category %s: login: %w", plan.Category, err)
	}

	records, err := r.collector.Collect(session, plan)
	if err != nil {
		log.Error().Str("category", string(plan.Category)).Err(err).Msg("collection failed")
		return nil, fmt.Errorf("category %s: collect: %w", plan.Category, err)
	}
	return records, nil
}

func (r *Runner) persist(startedAt time.Time, dataset models.FinalDataset) error {
	if r.repo == nil {
		logger.L().Debug().Msg("no repository configured, skipping persistence")
		return nil
	}

	runID, err := r.repo.CreateRun(startedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	if err := r.repo.InsertSnapshotBatch(runID, dataset); err != nil {
		if ferr := r.repo.FinishRun(runID, 0, "failed"); ferr != nil {
			logger.L().Error().Int64("run_id", runID).Err(ferr).Msg("could not mark run failed")
		}
		return fmt.Errorf("insert batch: %w", err)
	}

	if err := r.repo.FinishRun(runID, len(dataset), "completed"); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	logger.L().Info().Int64("run_id", runID).Int("rows", len(dataset)).Msg("dataset persisted")
	return nil
}
