package models

// WeeklyAggregate is the summed trading activity for one instrument over a
// prior-week window, restricted to a single trading board on the secondary
// source. Computed on demand for the overlay; never persisted on its own.
//
// Fields:
//   - SecID: instrument identifier (ISIN) the aggregate was requested for.
//   - TotalValue: sum of the VALUE column over the window, in the board's
//     quote currency.
//   - TotalTrades: sum of the NUMTRADES column over the window.
type WeeklyAggregate struct {
	SecID       string
	TotalValue  float64
	TotalTrades float64
}
