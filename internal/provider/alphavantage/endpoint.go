// Package alphavantage fetches and decodes the Alpha Vantage query API: listing status,
// global quote, daily and intraday time series.
package alphavantage

import (
	"bufio"
	"io"
	"net/url"
)

// DefaultBaseURL is the query endpoint.
const DefaultBaseURL = "https://www.alphavantage.co/query"

// API function names.
const (
	FuncListingStatus = "LISTING_STATUS"
	FuncGlobalQuote   = "GLOBAL_QUOTE"
	FuncDaily         = "TIME_SERIES_DAILY"
	FuncIntraday      = "TIME_SERIES_INTRADAY"
)

// Endpoint holds the immutable request parameters for the query API.
type Endpoint struct {
	BaseURL    string
	APIKey     string
	Interval   string // intraday bar size, e.g. 1min
	OutputSize string // compact | full; empty leaves the upstream default
}

// DefaultEndpoint returns the public endpoint with 1-minute intraday bars.
func DefaultEndpoint(apiKey string) Endpoint {
	return Endpoint{BaseURL: DefaultBaseURL, APIKey: apiKey, Interval: "1min"}
}

func (e Endpoint) build(function, symbol string, set func(q url.Values)) string {
	base := e.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("function", function)
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if set != nil {
		set(q)
	}
	q.Set("apikey", e.APIKey)
	return base + "?" + q.Encode()
}

func (e Endpoint) interval() string {
	if e.Interval == "" {
		return "1min"
	}
	return e.Interval
}

// ListingStatusURL returns the CSV listing of active symbols.
func (e Endpoint) ListingStatusURL() string {
	return e.build(FuncListingStatus, "", nil)
}

// GlobalQuoteURL returns the latest quote request for symbol.
func (e Endpoint) GlobalQuoteURL(symbol string) string {
	return e.build(FuncGlobalQuote, symbol, func(q url.Values) {
		q.Set("datatype", "json")
	})
}

// DailyURL returns the daily series request for symbol.
func (e Endpoint) DailyURL(symbol string) string {
	return e.build(FuncDaily, symbol, func(q url.Values) {
		q.Set("datatype", "json")
	})
}

// IntradayURL returns the intraday series request for symbol.
func (e Endpoint) IntradayURL(symbol string) string {
	return e.build(FuncIntraday, symbol, func(q url.Values) {
		q.Set("interval", e.interval())
		if e.OutputSize != "" {
			q.Set("outputsize", e.OutputSize)
		}
		q.Set("datatype", "json")
	})
}

// WriteURLLog writes the listing URL followed by the quote, daily and intraday URLs of every symbol,
// one per line.
func (e Endpoint) WriteURLLog(w io.Writer, symbols []string) error {
	bw := bufio.NewWriter(w)
	lines := []string{e.ListingStatusURL()}
	for _, s := range symbols {
		lines = append(lines, e.GlobalQuoteURL(s), e.DailyURL(s), e.IntradayURL(s))
	}
	for _, l := range lines {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
