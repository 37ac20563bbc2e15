// Package numeric converts the portal's locale-formatted cell text into
// float64 values. The portal renders numbers with a space as the thousands
// separator and a comma as the decimal separator ("1 234,56").
//
// Two policies exist and must not be mixed up:
//   - Volume: absent/empty input defaults to zero.
//   - Measure: absent or unparsable input stays missing, never zero.
package numeric

import (
	"strconv"
	"strings"

	"bondpulse/internal/domain/models"
)

// Outcome tags which path produced a numeric value, so callers can log and
// tests can assert on the path taken rather than just the number.
type Outcome int

const (
	// OutcomeParsed means the input text parsed cleanly.
	OutcomeParsed Outcome = iota
	// OutcomeDefaulted means the input was absent or empty and the policy
	// default was substituted.
	OutcomeDefaulted
	// OutcomeInvalid means the input was present but unparsable; the value
	// is the missing sentinel and must be excluded from derived arithmetic.
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeParsed:
		return "parsed"
	case OutcomeDefaulted:
		return "defaulted"
	default:
		return "invalid"
	}
}

// Volume normalizes a volume-style cell: thousands separators stripped,
// decimal comma converted. Absent or empty cells become 0. Unparsable text
// never panics or errors; it yields the missing sentinel with OutcomeInvalid.
func Volume(cell models.OptText) (float64, Outcome) {
	if !cell.Valid || strings.TrimSpace(cell.Text) == "" {
		return 0, OutcomeDefaulted
	}
	v, err := parseLocale(cell.Text)
	if err != nil {
		return models.Missing(), OutcomeInvalid
	}
	return v, OutcomeParsed
}

// Measure coerces a measure-style cell (rates, price, duration). Unlike
// Volume there is no zero default: absent, empty or unparsable input is
// reported as not ok and the value is the missing sentinel.
func Measure(cell models.OptText) (float64, bool) {
	if !cell.Valid || strings.TrimSpace(cell.Text) == "" {
		return models.Missing(), false
	}
	v, err := parseLocale(cell.Text)
	if err != nil {
		return models.Missing(), false
	}
	return v, true
}

func parseLocale(s string) (float64, error) {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "") // the portal mixes NBSP into separators
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
