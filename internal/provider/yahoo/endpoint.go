// Package yahoo fetches and decodes Yahoo Finance v8 chart documents.
package yahoo

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"tickertape/internal/calendar"
)

// DefaultBaseURL is the chart endpoint; the symbol is appended to it.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// Endpoint holds the immutable request parameters for the chart API.
type Endpoint struct {
	BaseURL  string
	Interval string
}

// DefaultEndpoint returns the public endpoint with 1-minute bars.
func DefaultEndpoint() Endpoint {
	return Endpoint{BaseURL: DefaultBaseURL, Interval: "1m"}
}

// ChartURL builds the request for one symbol over [period1, period2) epoch seconds.
func (e Endpoint) ChartURL(symbol string, period1, period2 int64) (string, error) {
	base := e.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base + url.PathEscape(symbol))
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	interval := e.Interval
	if interval == "" {
		interval = "1m"
	}
	q := u.Query()
	q.Set("period1", strconv.FormatInt(period1, 10))
	q.Set("period2", strconv.FormatInt(period2, 10))
	q.Set("interval", interval)
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DayURL builds the request covering one local day.
func (e Endpoint) DayURL(symbol string, day calendar.DayRange) (string, error) {
	return e.ChartURL(symbol, day.Start, day.End)
}
