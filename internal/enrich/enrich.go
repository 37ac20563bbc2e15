// Package enrich turns raw scraped rows into typed normalized records:
// locale numeric coercion, derived ratios, percent rescaling and the
// per-instrument weekly overlay.
package enrich

import (
	"context"
	"time"

	"bondpulse/internal/cbr"
	"bondpulse/internal/domain/models"
	"bondpulse/internal/logger"
	"bondpulse/internal/numeric"
)

// AggregateFetcher is the secondary-source boundary (see internal/moex).
type AggregateFetcher interface {
	FetchWeeklyAggregate(ctx context.Context, secID, board string, from, till time.Time) (*models.WeeklyAggregate, error)
}

// RateResolver is the rate-feed boundary (see internal/cbr).
type RateResolver interface {
	ResolveRate(ctx context.Context, code string, date time.Time) (float64, cbr.Outcome)
}

// OverlayPolicy configures the weekly correction for one instrument. The
// overlay is table-driven (ISIN → policy), not hard-coded, so adding another
// special-case instrument is a configuration change.
type OverlayPolicy struct {
	Currency string
	Board    string
}

// Enricher applies the normalization steps in fixed order. One Enricher is
// safe to reuse across categories within a run.
type Enricher struct {
	fetcher  AggregateFetcher
	rates    RateResolver
	overlays map[string]OverlayPolicy

	now func() time.Time // injectable clock for tests
}

func NewEnricher(fetcher AggregateFetcher, rates RateResolver, overlays map[string]OverlayPolicy) *Enricher {
	return &Enricher{
		fetcher:  fetcher,
		rates:    rates,
		overlays: overlays,
		now:      time.Now,
	}
}

// Enrich normalizes one category's record set. Steps, in order:
//
//  1. Volume fields (outstanding_volume, trading_volume, amount_of_deals)
//     through the locale normalizer: absent/empty → 0.
//  2. Measure fields (duration, yield_rate, coupon_rate, price, nac) through
//     strict coercion: failure → missing, never zero. The asymmetry with
//     step 1 is intentional and load-bearing.
//  3. share_of_trading_volume where both operands are present.
//  4. yield_rate and coupon_rate rescaled from percentage points to
//     fractions. Applied exactly once; records entering here carry raw
//     percent text, never pre-rescaled values.
//  5. Weekly overlay for instruments with a configured policy.
//
// Coercion failures never abort the batch; they are logged per field.
func (e *Enricher) Enrich(ctx context.Context, records []models.RawRecord, category models.Category) []models.NormalizedRecord {
	now := e.now()
	defaultStart := DefaultStartWeek(now)

	out := make([]models.NormalizedRecord, 0, len(records))
	for _, raw := range records {
		rec := models.NormalizedRecord{
			Name:      raw.Name.Text,
			ISIN:      raw.ISIN.Text,
			Issuer:    raw.Issuer.Text,
			StartWeek: defaultStart,
		}

		rec.OutstandingVolume = volume(raw.OutstandingVolume, "outstanding_volume", rec.ISIN)
		rec.TradingVolume = volume(raw.TradingVolume, "trading_volume", rec.ISIN)
		rec.AmountOfDeals = volume(raw.AmountOfDeals, "amount_of_deals", rec.ISIN)

		rec.Duration = measure(raw.Duration, "duration", rec.ISIN)
		rec.YieldRate = measure(raw.YieldRate, "yield_rate", rec.ISIN)
		rec.CouponRate = measure(raw.CouponRate, "coupon_rate", rec.ISIN)
		rec.Price = measure(raw.Price, "price", rec.ISIN)
		rec.NAC = measure(raw.NAC, "nac", rec.ISIN)

		rec.ShareOfTradingVolume = share(rec.TradingVolume, rec.OutstandingVolume)

		// Percent → fraction, single pass. Missing stays missing.
		rec.YieldRate /= 100
		rec.CouponRate /= 100

		if policy, ok := e.overlays[rec.ISIN]; ok {
			e.applyOverlay(ctx, &rec, policy, now)
		}

		out = append(out, rec)
	}

	logger.L().Info().Str("category", string(category)).Int("records", len(out)).Msg("enrichment finished")
	return out
}

// applyOverlay replaces the scraped weekly figures with the secondary
// source's prior-week aggregate. When the secondary source has no data the
// overlay is skipped and the scraped values stand.
func (e *Enricher) applyOverlay(ctx context.Context, rec *models.NormalizedRecord, policy OverlayPolicy, now time.Time) {
	monday, friday := PriorWeek(now)

	agg, err := e.fetcher.FetchWeeklyAggregate(ctx, rec.ISIN, policy.Board, monday, friday)
	if err != nil {
		logger.L().Warn().Str("isin", rec.ISIN).Err(err).Msg("overlay fetch failed, keeping scraped values")
		return
	}
	if agg == nil {
		logger.L().Info().Str("isin", rec.ISIN).Msg("no secondary data for window, keeping scraped values")
		return
	}

	// Rate for the window's Friday. A defaulted rate means the converted
	// share is computed with identity conversion — a known precision risk,
	// logged rather than fatal.
	rate, outcome := e.rates.ResolveRate(ctx, policy.Currency, friday)
	if outcome == cbr.OutcomeDefaulted {
		logger.L().Warn().
			Str("isin", rec.ISIN).
			Str("currency", policy.Currency).
			Msg("rate defaulted to identity, share_of_trading_volume is unconverted")
	}

	if !models.IsMissing(rec.OutstandingVolume) {
		rec.ShareOfTradingVolume = agg.TotalValue / rate / rec.OutstandingVolume
	}
	rec.TradingVolume = agg.TotalValue
	rec.AmountOfDeals = agg.TotalTrades
	rec.StartWeek = monday

	logger.L().Info().
		Str("isin", rec.ISIN).
		Float64("total_value", agg.TotalValue).
		Float64("total_trades", agg.TotalTrades).
		Float64("rate", rate).
		Str("rate_outcome", outcome.String()).
		Str("start_week", monday.Format("2006-01-02")).
		Msg("weekly overlay applied")
}

func volume(cell models.OptText, field, isin string) float64 {
	v, outcome := numeric.Volume(cell)
	if outcome == numeric.OutcomeInvalid {
		logger.L().Warn().Str("field", field).Str("isin", isin).Str("text", cell.Text).Msg("volume cell unparsable, excluded from arithmetic")
	}
	return v
}

func measure(cell models.OptText, field, isin string) float64 {
	v, ok := numeric.Measure(cell)
	if !ok && cell.Valid {
		logger.L().Debug().Str("field", field).Str("isin", isin).Str("text", cell.Text).Msg("measure cell unparsable, kept missing")
	}
	return v
}

// share computes trading volume as a fraction of outstanding volume. Missing
// operands make the share missing; they never coerce to zero here.
func share(trading, outstanding float64) float64 {
	if models.IsMissing(trading) || models.IsMissing(outstanding) {
		return models.Missing()
	}
	return trading / outstanding
}
