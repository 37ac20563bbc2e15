package scrape

import (
	"strings"
	"testing"

	"bondpulse/internal/domain/models"
)

// dataCell renders one table cell with the portal's nested div/span chain.
// Linked columns (name, issuer) wrap the value in an anchor.
func dataCell(linked bool, text string) string {
	inner := "<span>" + text + "</span>"
	if linked {
		inner = "<a>" + inner + "</a>"
	}
	return `<td class="el-table__cell"><div><div><span><div>` + inner + `</div></span></div></div></td>`
}

// emptyCell renders a cell whose value sub-element failed to render.
func emptyCell() string {
	return `<td class="el-table__cell"><div></div></td>`
}

func leadCells() string {
	return `<td class="el-table__cell"></td><td class="el-table__cell"></td>`
}

func row(cells ...string) string {
	return `<tr class="el-table__row">` + strings.Join(cells, "") + `</tr>`
}

func table(rows ...string) string {
	return `<html><body><table><tbody>` + strings.Join(rows, "") + `</tbody></table></body></html>`
}

func fullRow(values [11]string) string {
	cells := []string{leadCells()}
	for i, v := range values {
		cells = append(cells, dataCell(i == 0 || i == 3, v))
	}
	return row(cells...)
}

func TestParsePage_FullRow(t *testing.T) {
	values := [11]string{
		"Займер-01", "RU000A100XXX", "12,3", "МФК Займер", "200",
		"15,5", "99,8", "500 000 000", "120", "1 234 567,89", "18,0",
	}
	records, err := ParsePage(table(fullRow(values)))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("want 1 record got %d", len(records))
	}

	got := records[0]
	want := models.RawRecord{
		Name:              models.Text("Займер-01"),
		ISIN:              models.Text("RU000A100XXX"),
		NAC:               models.Text("12,3"),
		Issuer:            models.Text("МФК Займер"),
		Duration:          models.Text("200"),
		YieldRate:         models.Text("15,5"),
		Price:             models.Text("99,8"),
		OutstandingVolume: models.Text("500 000 000"),
		AmountOfDeals:     models.Text("120"),
		TradingVolume:     models.Text("1 234 567,89"),
		CouponRate:        models.Text("18,0"),
	}
	if got != want {
		t.Fatalf("record mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestParsePage_MissingCellKeepsOthers(t *testing.T) {
	// Price cell (index 6) has no matching sub-element.
	cells := []string{leadCells()}
	values := [11]string{"A", "B", "1", "C", "2", "3", "ignored", "4", "5", "6", "7"}
	for i, v := range values {
		if i == 6 {
			cells = append(cells, emptyCell())
			continue
		}
		cells = append(cells, dataCell(i == 0 || i == 3, v))
	}

	records, err := ParsePage(table(row(cells...)))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("want 1 record got %d", len(records))
	}
	rec := records[0]
	if rec.Price.Valid {
		t.Fatalf("price should be absent, got %+v", rec.Price)
	}
	if rec.YieldRate != models.Text("3") || rec.OutstandingVolume != models.Text("4") {
		t.Fatalf("neighbors affected: %+v", rec)
	}
}

func TestParsePage_NoRows(t *testing.T) {
	records, err := ParsePage(`<html><body><p>no table here</p></body></html>`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("want no records got %d", len(records))
	}
}

func TestParsePage_PreservesRowOrder(t *testing.T) {
	r1 := fullRow([11]string{"first", "I1", "", "", "", "", "", "", "", "", ""})
	r2 := fullRow([11]string{"second", "I2", "", "", "", "", "", "", "", "", ""})
	records, err := ParsePage(table(r1, r2))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("want 2 records got %d", len(records))
	}
	if records[0].Name.Text != "first" || records[1].Name.Text != "second" {
		t.Fatalf("order not preserved: %+v", records)
	}
}
