package models

import (
	"math"
	"time"
)

// Category identifies one of the two scraped instrument watchlists.
type Category string

const (
	CategoryMFO        Category = "mfo"
	CategoryCollectors Category = "collectors"
)

// OptText is an optional table cell value. A cell is absent when the row
// rendered without the matching sub-element; absent is distinct from empty.
//
// OptText is comparable, which keeps RawRecord comparable and makes
// first-occurrence deduplication a plain map lookup.
type OptText struct {
	Text  string
	Valid bool
}

// Text wraps a present cell value.
func Text(s string) OptText { return OptText{Text: s, Valid: true} }

// RawRecord is one scraped table row before any typing. Field order matches
// the portal's column layout after the two leading non-data columns:
//
//	 0 name
//	 1 isin
//	 2 nac
//	 3 issuer
//	 4 duration
//	 5 yield_rate
//	 6 price
//	 7 outstanding_volume
//	 8 amount_of_deals
//	 9 trading_volume
//	10 coupon_rate
//
// Partial rows are valid: cells that failed to render are simply absent.
type RawRecord struct {
	Name              OptText
	ISIN              OptText
	NAC               OptText
	Issuer            OptText
	Duration          OptText
	YieldRate         OptText
	Price             OptText
	OutstandingVolume OptText
	AmountOfDeals     OptText
	TradingVolume     OptText
	CouponRate        OptText
}

// Missing is the sentinel for a numeric field whose source cell was absent
// or failed strict coercion. Derived arithmetic must skip missing operands.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v carries the missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// NormalizedRecord is a RawRecord with numeric fields coerced and derived
// measures computed.
//
// Coercion policies (deliberately asymmetric):
//   - OutstandingVolume, TradingVolume, AmountOfDeals: locale normalizer,
//     absent/empty → 0, unparsable → missing.
//   - Duration, YieldRate, CouponRate, Price, NAC: strict parse,
//     absent or unparsable → missing, never zero.
//
// YieldRate and CouponRate are stored in fractional form (percentage points
// divided by 100); the rescale is applied exactly once.
type NormalizedRecord struct {
	Name   string
	ISIN   string
	Issuer string

	NAC       float64
	Duration  float64
	YieldRate float64
	Price     float64

	OutstandingVolume float64
	AmountOfDeals     float64
	TradingVolume     float64
	CouponRate        float64

	// ShareOfTradingVolume = TradingVolume / OutstandingVolume when both
	// operands are present, missing otherwise.
	ShareOfTradingVolume float64

	// StartWeek is the Monday used for the weekly overlay, or the
	// per-category default when no overlay applies.
	StartWeek time.Time
}
