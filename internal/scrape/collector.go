package scrape

import (
	"fmt"

	"bondpulse/config"
	"bondpulse/internal/domain/models"
	"bondpulse/internal/logger"
)

// Portal-wide selectors shared by both category plans.
const (
	navMenuXPath      = `//*[@id="navbar"]/section/div/div/div[1]/nav/div[4]`
	fieldChooserCSS   = "div.select-fields div.view"
	fieldGroupXPath   = `//div[contains(text(), "Основные")]`
	checkboxClass     = "el-checkbox"
	applyButtonXPath  = `//button[contains(@class, "el-button--primary")]`
	nextButtonCSS     = "button.btn-next"
)

// Plan describes how to reach one category's table: the portfolio item and
// watchlist entries to click, and which positional checkbox enables the extra
// display field in the column chooser.
type Plan struct {
	Category       models.Category
	CategoryXPath  string
	WatchlistXPath string
	FieldIndex     int
}

// Collector drives a Session through navigation, field configuration and the
// page loop, returning the merged deduplicated record set for one category.
type Collector struct {
	cfg config.ScrapeConfig
}

func NewCollector(cfg config.ScrapeConfig) *Collector {
	return &Collector{cfg: cfg}
}

// Collect runs the full acquisition for one plan.
//
// The page loop terminates only when the next-page control cannot be found or
// clicked within the bounded wait; there is no total-page-count check. Any
// failure while locating the control — including transient render issues — is
// treated as end of data, after cfg.NextRetries extra bounded attempts.
//
// Errors returned from here are session-level (navigation or markup read
// failed); they must propagate far enough to trigger session teardown.
func (c *Collector) Collect(s Session, plan Plan) ([]models.RawRecord, error) {
	log := logger.L()

	// Fixed menu path into the portfolio section, then the category and
	// sub-view. Each click is followed by a settle delay because the portal
	// renders asynchronously.
	for _, step := range []struct {
		name     string
		selector string
		by       By
	}{
		{"open portfolio menu", navMenuXPath, ByXPath},
		{"select category", plan.CategoryXPath, ByXPath},
		{"open watchlist", plan.WatchlistXPath, ByXPath},
	} {
		if err := s.Click(step.selector, step.by); err != nil {
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
		s.Settle(c.cfg.Settle)
	}

	if err := c.configureFields(s, plan.FieldIndex); err != nil {
		return nil, fmt.Errorf("configure table fields: %w", err)
	}

	var all []models.RawRecord
	page := 0
	for {
		page++
		markup, err := s.Markup()
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", page, err)
		}
		records, err := ParsePage(markup)
		if err != nil {
			return nil, fmt.Errorf("parse page %d: %w", page, err)
		}
		log.Debug().Str("category", string(plan.Category)).Int("page", page).Int("rows", len(records)).Msg("page parsed")
		all = append(all, records...)

		if !c.nextPage(s, plan.Category, page) {
			break
		}
	}

	deduped := dedupe(all)
	log.Info().
		Str("category", string(plan.Category)).
		Int("pages", page).
		Int("rows", len(all)).
		Int("unique", len(deduped)).
		Msg("collection finished")

	return deduped, nil
}

// configureFields opens the column chooser, selects the field group, toggles
// the positional checkbox and applies. The chooser lists checkboxes only by
// document position, so the index comes from the plan.
func (c *Collector) configureFields(s Session, fieldIndex int) error {
	if err := s.Click(fieldChooserCSS, ByQuery); err != nil {
		return fmt.Errorf("open chooser: %w", err)
	}
	s.Settle(c.cfg.Settle)

	if err := s.Click(fieldGroupXPath, ByXPath); err != nil {
		return fmt.Errorf("select field group: %w", err)
	}
	s.Settle(c.cfg.Settle)

	if err := s.ToggleIndexed(checkboxClass, fieldIndex); err != nil {
		return err
	}
	s.Settle(c.cfg.Settle)

	if err := s.Click(applyButtonXPath, ByXPath); err != nil {
		return fmt.Errorf("apply fields: %w", err)
	}
	s.Settle(c.cfg.Settle)
	return nil
}

// nextPage tries to advance to the next page. It reports false when the
// control is absent or never becomes clickable — the sole termination signal.
// This deliberately conflates real end-of-data with persistent render
// failures; the bounded retries reduce false termination but cannot rule it
// out.
func (c *Collector) nextPage(s Session, category models.Category, page int) bool {
	for attempt := 0; attempt <= c.cfg.NextRetries; attempt++ {
		if err := s.WaitClickable(nextButtonCSS, ByQuery, c.cfg.WaitTimeout); err != nil {
			logger.L().Debug().
				Str("category", string(category)).
				Int("page", page).
				Int("attempt", attempt+1).
				Err(err).
				Msg("next-page control not clickable")
			continue
		}
		if err := s.Click(nextButtonCSS, ByQuery); err != nil {
			logger.L().Debug().
				Str("category", string(category)).
				Int("page", page).
				Int("attempt", attempt+1).
				Err(err).
				Msg("next-page click failed")
			continue
		}
		s.Settle(c.cfg.Settle)
		return true
	}
	return false
}

// dedupe removes exact-duplicate rows keeping the first occurrence. Duplicates
// arise when pagination re-renders an overlapping row set.
func dedupe(records []models.RawRecord) []models.RawRecord {
	seen := make(map[models.RawRecord]struct{}, len(records))
	out := make([]models.RawRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
