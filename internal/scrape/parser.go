package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bondpulse/internal/domain/models"
)

const (
	rowSelector  = "tbody tr.el-table__row"
	cellSelector = "td.el-table__cell"

	// The first two table columns are selection/expansion controls, not data.
	leadingCells = 2
)

// columnSpec binds one data cell to a RawRecord field. The portal nests every
// cell value inside the same div/span chain; linked cells (name, issuer) add
// an anchor level.
type columnSpec struct {
	selector string
	assign   func(*models.RawRecord, models.OptText)
}

// columns is the fixed column→field mapping, in table order after the two
// leading non-data cells.
var columns = []columnSpec{
	{"div div span div a span", func(r *models.RawRecord, v models.OptText) { r.Name = v }},
	{"div div span div span", func(r *models.RawRecord, v models.OptText) { r.ISIN = v }},
	{"div div span div span", func(r *models.RawRecord, v models.OptText) { r.NAC = v }},
	{"div div span div a span", func(r *models.RawRecord, v models.OptText) { r.Issuer = v }},
	{"div div span div span", func(r *models.RawRecord, v models.OptText) { r.Duration = v }},
	{"div div span div span", func(r *models.RawRecord, v models.OptText) { r.YieldRate = v }},
	{"div div span div span", func(r *models.RawRecord, v models.OptText) { r.Price = v }},
	{"div div span div span", func(r *models.RawRecord, v models.OptText) { r.OutstandingVolume = v }},
	{"div div span div span", func(r *models.RawRecord, v models.OptText) { r.AmountOfDeals = v }},
	{"div div span div span", func(r *models.RawRecord, v models.OptText) { r.TradingVolume = v }},
	{"div div span div span", func(r *models.RawRecord, v models.OptText) { r.CouponRate = v }},
}

// ParsePage extracts one RawRecord per visible table row from a single page's
// rendered markup. Row order is preserved. A missing sub-element leaves the
// field absent; it never fails the row, and a bad row never fails the page.
func ParsePage(markup string) ([]models.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	var records []models.RawRecord
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(cellSelector)

		var rec models.RawRecord
		for i, col := range columns {
			idx := i + leadingCells
			if idx >= cells.Length() {
				break
			}
			el := cells.Eq(idx).Find(col.selector).First()
			if el.Length() == 0 {
				continue
			}
			col.assign(&rec, models.Text(strings.TrimSpace(el.Text())))
		}
		records = append(records, rec)
	})

	return records, nil
}
