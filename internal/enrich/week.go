package enrich

import "time"

// PriorWeek returns the Monday and Friday of the calendar week before the
// week containing now. This is the fixed lookback window for the weekly
// overlay: secondary aggregates are summed over [monday, friday].
func PriorWeek(now time.Time) (monday, friday time.Time) {
	d := truncateToDate(now)

	// time.Weekday counts Sunday as 0; shift so Monday is the week start.
	offset := int(d.Weekday())
	if offset == 0 {
		offset = 7
	}
	thisMonday := d.AddDate(0, 0, -(offset - 1))

	monday = thisMonday.AddDate(0, 0, -7)
	friday = monday.AddDate(0, 0, 4)
	return monday, friday
}

// DefaultStartWeek is the start-of-week marker for rows without an overlay:
// seven days before now, date-truncated.
func DefaultStartWeek(now time.Time) time.Time {
	return truncateToDate(now).AddDate(0, 0, -7)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
