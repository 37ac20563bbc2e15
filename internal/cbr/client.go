// Package cbr resolves point-in-time exchange rates from the Bank of Russia
// daily XML feed.
package cbr

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bondpulse/config"
	"bondpulse/internal/logger"
)

const dailyPath = "/scripts/XML_daily.asp?date_req=%s"

// Outcome tags how a rate was produced.
type Outcome int

const (
	// OutcomeResolved means the feed returned a usable rate.
	OutcomeResolved Outcome = iota
	// OutcomeDefaulted means lookup failed and the identity rate was
	// substituted. A deliberate silent-degradation policy: the pipeline
	// keeps running with unconverted values rather than aborting.
	OutcomeDefaulted
)

func (o Outcome) String() string {
	if o == OutcomeResolved {
		return "resolved"
	}
	return "defaulted"
}

// valute mirrors one entry of the feed's <ValCurs> document: <CharCode>
// identifies the currency, <Value> carries a decimal-comma rate.
type valute struct {
	CharCode string `xml:"CharCode"`
	Nominal  int64  `xml:"Nominal"`
	Value    string `xml:"Value"`
}

// Client queries the daily rate feed. Rates are fetched per request; there is
// no caching across calls.
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

// ResolveRate returns the rate for one currency code on the given date.
//
// On any failure — network, parse, missing currency entry — it returns the
// identity rate 1.0 with OutcomeDefaulted. Callers dividing by the rate must
// surface the outcome in logs so a defaulted rate is a visible precision
// risk, not a silent one.
func (c *Client) ResolveRate(ctx context.Context, code string, date time.Time) (float64, Outcome) {
	url := c.baseURL + fmt.Sprintf(dailyPath, date.Format("02/01/2006"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.L().Warn().Str("currency", code).Err(err).Msg("cbr request build failed, using identity rate")
		return 1.0, OutcomeDefaulted
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.L().Warn().Str("currency", code).Err(err).Msg("cbr request failed, using identity rate")
		return 1.0, OutcomeDefaulted
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		logger.L().Warn().Str("currency", code).Int("status", resp.StatusCode).Msg("cbr bad status, using identity rate")
		return 1.0, OutcomeDefaulted
	}

	var doc struct {
		Valutes []valute `xml:"Valute"`
	}
	dec := xml.NewDecoder(resp.Body)
	// The feed declares windows-1251; the entries we need are ASCII, so pass
	// non-UTF8 charsets through unconverted.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := dec.Decode(&doc); err != nil {
		logger.L().Warn().Str("currency", code).Err(err).Msg("cbr response unparsable, using identity rate")
		return 1.0, OutcomeDefaulted
	}

	for _, v := range doc.Valutes {
		if v.CharCode != code {
			continue
		}
		rate, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v.Value), ",", "."), 64)
		if err != nil {
			logger.L().Warn().Str("currency", code).Str("value", v.Value).Msg("cbr rate unparsable, using identity rate")
			return 1.0, OutcomeDefaulted
		}
		return rate, OutcomeResolved
	}

	logger.L().Warn().Str("currency", code).Str("date", date.Format("2006-01-02")).Msg("currency not in cbr feed, using identity rate")
	return 1.0, OutcomeDefaulted
}
