// Package moex fetches weekly trade summaries from the MOEX ISS historical
// endpoint. The endpoint serves a server-rendered HTML table; required columns
// are identified by the first whitespace-delimited token of each header cell.
package moex

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"bondpulse/config"
	"bondpulse/internal/domain/models"
	"bondpulse/internal/logger"
)

const historyPathTemplate = "/iss/history/engines/stock/markets/bonds/securities/%s.html?from=%s&till=%s"

var requiredColumns = []string{"BOARDID", "TRADEDATE", "SECID", "VALUE", "NUMTRADES"}

// Client queries the MOEX ISS historical data source.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg config.FeedConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchWeeklyAggregate sums traded value and trade count for one instrument
// over [from, till], restricted to rows whose board column equals board.
//
// It returns (nil, nil) — "no data" — on any network, parse or
// missing-required-column failure. Those failures are logged, not raised; the
// caller must treat "no data" as "skip overlay, keep scraped values".
func (c *Client) FetchWeeklyAggregate(ctx context.Context, secID, board string, from, till time.Time) (*models.WeeklyAggregate, error) {
	url := c.baseURL + fmt.Sprintf(historyPathTemplate, secID,
		from.Format("2006-01-02"), till.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.L().Warn().Str("secid", secID).Err(err).Msg("moex request failed, overlay will be skipped")
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		logger.L().Warn().Str("secid", secID).Int("status", resp.StatusCode).Msg("moex bad status, overlay will be skipped")
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		logger.L().Warn().Str("secid", secID).Err(err).Msg("moex response unparsable, overlay will be skipped")
		return nil, nil
	}

	agg, ok := sumTable(doc, secID, board)
	if !ok {
		return nil, nil
	}
	return agg, nil
}

// sumTable extracts the table, validates required columns and sums the board's
// rows. Reports false when the table is empty or a required column is absent.
func sumTable(doc *goquery.Document, secID, board string) (*models.WeeklyAggregate, bool) {
	rows := doc.Find("tr")
	if rows.Length() == 0 {
		logger.L().Warn().Str("secid", secID).Msg("moex response has no table rows")
		return nil, false
	}

	// Header names are the first whitespace-delimited token of each th.
	colIndex := make(map[string]int)
	rows.First().Find("th").Each(func(i int, th *goquery.Selection) {
		fields := strings.Fields(th.Text())
		if len(fields) > 0 {
			colIndex[fields[0]] = i
		}
	})
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			logger.L().Warn().Str("secid", secID).Str("column", col).Msg("moex table missing required column")
			return nil, false
		}
	}

	boardIdx := colIndex["BOARDID"]
	valueIdx := colIndex["VALUE"]
	tradesIdx := colIndex["NUMTRADES"]

	agg := &models.WeeklyAggregate{SecID: secID}
	matched := 0
	rows.Slice(1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		if cells.Length() <= boardIdx || strings.TrimSpace(cells.Eq(boardIdx).Text()) != board {
			return
		}
		matched++
		// Unparsable numeric cells are skipped, not summed as zero surprises.
		if v, err := strconv.ParseFloat(strings.TrimSpace(cells.Eq(valueIdx).Text()), 64); err == nil {
			agg.TotalValue += v
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(cells.Eq(tradesIdx).Text()), 64); err == nil {
			agg.TotalTrades += n
		}
	})

	if matched == 0 {
		logger.L().Info().Str("secid", secID).Str("board", board).Msg("moex table has no rows for board")
		return nil, false
	}
	return agg, true
}
