package alphavantage

import (
	"bytes"
	"math"
	"net/url"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickertape/internal/provider"
)

const intradayDoc = `{
    "Meta Data": {
        "1. Information": "Intraday (1min) open, high, low, close prices and volume",
        "2. Symbol": "IBM",
        "3. Last Refreshed": "2025-03-10 19:59:00",
        "4. Interval": "1min",
        "5. Output Size": "Compact",
        "6. Time Zone": "US/Eastern"
    },
    "Time Series (1min)": {
        "2025-03-10 19:59:00": {"1. open": "246.1000", "2. high": "246.2000", "3. low": "246.0000", "4. close": "246.1500", "5. volume": "120"},
        "2025-03-10 09:30:00": {"1. open": "250.0000", "2. high": "251.0000", "3. low": "249.5000", "4. close": "250.5000", "5. volume": "63289"},
        "2025-03-07 15:59:00": {"1. open": "261.0000", "2. high": "261.5000", "3. low": "260.9000", "4. close": "261.2000", "5. volume": "5000"}
    }
}`

const dailyDoc = `{
    "Meta Data": {"1. Information": "Daily Prices", "2. Symbol": "IBM", "5. Time Zone": "US/Eastern"},
    "Time Series (Daily)": {
        "2025-03-07": {"1. open": "261.0", "2. high": "263.0", "3. low": "259.0", "4. close": "261.5", "5. volume": "3000000"},
        "2025-03-10": {"1. open": "250.0", "2. high": "252.0", "3. low": "245.0", "4. close": "246.1", "5. volume": "4000000"},
        "2025-02-28": {"1. open": "255.0", "2. high": "256.0", "3. low": "254.0", "4. close": "255.5", "5. volume": "2000000"}
    }
}`

func TestDecodeSeriesIntraday(t *testing.T) {
	trades, err := DecodeSeries([]byte(intradayDoc))
	require.NoError(t, err)
	require.Len(t, trades, 3)

	// US/Eastern: 2025-03-07 is EST (UTC-5), 2025-03-10 is EDT (UTC-4).
	assert.Equal(t, "2025-03-07 20:59:00", trades[0].Timestamp())
	assert.Equal(t, "2025-03-10 13:30:00", trades[1].Timestamp())
	assert.Equal(t, "2025-03-10 23:59:00", trades[2].Timestamp())

	assert.Equal(t, 250.0, trades[1].Open)
	assert.Equal(t, 251.0, trades[1].High)
	assert.Equal(t, 249.5, trades[1].Low)
	assert.Equal(t, 250.5, trades[1].Close)
	assert.Equal(t, int64(63289), trades[1].Volume)
}

func TestDecodeSeriesDaily(t *testing.T) {
	trades, err := DecodeSeries([]byte(dailyDoc))
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "2025-02-28 05:00:00", trades[0].Timestamp())
	assert.Equal(t, "2025-03-10 04:00:00", trades[2].Timestamp())
}

func TestDecodeSeriesWithoutTimeZoneIsUTC(t *testing.T) {
	doc := `{"Time Series (1min)": {"2025-03-10 09:30:00": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "1.5", "5. volume": "10"}}}`
	trades, err := DecodeSeries([]byte(doc))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "2025-03-10 09:30:00", trades[0].Timestamp())
}

func TestDecodeSeriesEmptyIsZeroRecords(t *testing.T) {
	for name, doc := range map[string]string{
		"empty series": `{"Meta Data": {}, "Time Series (1min)": {}}`,
		"no series":    `{"Error Message": "Invalid API call. Please retry or visit the documentation."}`,
		"throttled":    `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
		"empty object": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			trades, err := DecodeSeries([]byte(doc))
			require.NoError(t, err)
			assert.Empty(t, trades)
		})
	}
}

func TestDecodeSeriesMissingFieldsAreNaN(t *testing.T) {
	doc := `{"Time Series (1min)": {"2025-03-10 09:30:00": {"1. open": "1.5", "5. volume": ""}}}`
	trades, err := DecodeSeries([]byte(doc))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 1.5, trades[0].Open)
	assert.True(t, math.IsNaN(trades[0].Close))
	assert.Equal(t, int64(0), trades[0].Volume)
}

func TestDecodeSeriesMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"not json":   `timestamp,open,high,low,close,volume`,
		"array":      `[1,2,3]`,
		"bad key":    `{"Time Series (1min)": {"yesterday": {"1. open": "1"}}}`,
		"bad number": `{"Time Series (1min)": {"2025-03-10 09:30:00": {"1. open": "n/a"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSeries([]byte(doc))
			assert.ErrorIs(t, err, provider.ErrMalformedPayload)
		})
	}
}

func TestLatestPicksMostRecentEntry(t *testing.T) {
	s, ok, err := Latest([]byte(dailyDoc))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-03-10", s.Date)
	assert.Equal(t, 250.0, s.Open)
	assert.Equal(t, 252.0, s.High)
	assert.Equal(t, 245.0, s.Low)
	assert.Equal(t, 246.1, s.Close)
	assert.Equal(t, int64(4000000), s.Volume)

	s, ok, err = Latest([]byte(intradayDoc))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-03-10 19:59:00", s.Date)
}

func TestLatestWithoutSeries(t *testing.T) {
	for _, doc := range []string{`{}`, `{"Note": "slow down"}`, `{"Time Series (Daily)": {}}`} {
		_, ok, err := Latest([]byte(doc))
		require.NoError(t, err)
		assert.False(t, ok)
	}
	_, _, err := Latest([]byte(`"text"`))
	assert.ErrorIs(t, err, provider.ErrMalformedPayload)
}

func TestNotice(t *testing.T) {
	assert.Equal(t, "slow down", Notice([]byte(`{"Note": "slow down"}`)))
	assert.Equal(t, "bad call", Notice([]byte(`{"Error Message": "bad call"}`)))
	assert.Equal(t, "premium", Notice([]byte(`{"Information": "premium"}`)))
	assert.Empty(t, Notice([]byte(dailyDoc)))
	assert.Empty(t, Notice([]byte(`oops`)))
}

func TestProviderDecode(t *testing.T) {
	var p provider.DataProvider = NewProvider(DefaultEndpoint("demo"))
	assert.Equal(t, "alphavantage", p.GetName())
	trades, err := p.Decode("IBM", []byte(intradayDoc))
	require.NoError(t, err)
	assert.Len(t, trades, 3)

	_, err = p.Decode("IBM", []byte(`nope`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IBM")
}

func TestDecodeQuote(t *testing.T) {
	doc := `{"Global Quote": {"01. symbol": "IBM", "02. open": "250.0", "03. high": "252.0", "04. low": "245.0",
		"05. price": "246.1", "06. volume": "4000000", "07. latest trading day": "2025-03-10",
		"08. previous close": "261.5", "09. change": "-15.4", "10. change percent": "-5.8891%"}}`
	q, ok, err := DecodeQuote([]byte(doc))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "IBM", q.Symbol)
	assert.Equal(t, 246.1, q.Price)
	assert.Equal(t, int64(4000000), q.Volume)
	assert.Equal(t, "2025-03-10", q.LatestTradingDay)
	assert.Equal(t, -15.4, q.Change)
	assert.Equal(t, "-5.8891%", q.ChangePercent)

	_, ok, err = DecodeQuote([]byte(`{"Global Quote": {}}`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = DecodeQuote([]byte(`<`))
	assert.ErrorIs(t, err, provider.ErrMalformedPayload)
}

func TestParseListing(t *testing.T) {
	csvText := "symbol,name,exchange,assetType,ipoDate,delistingDate,status\r\n" +
		"A,Agilent Technologies Inc,NYSE,Stock,1999-11-18,null,Active\r\n" +
		"IBM,International Business Machines Corp,NYSE,Stock,1962-01-02,null,Active\r\n" +
		"OLD,Old Corp,NASDAQ,Stock,2001-01-01,2020-01-01,Delisted\r\n"
	listings, err := ParseListing(strings.NewReader(csvText))
	require.NoError(t, err)
	require.Len(t, listings, 3)
	assert.Equal(t, "IBM", listings[1].Symbol)
	assert.Equal(t, "NYSE", listings[1].Exchange)
	assert.Equal(t, "Active", listings[1].Status)

	assert.Equal(t, []string{"NVDA", "OLD"}, Unlisted([]string{"IBM", "NVDA", "OLD", "a"}, listings))
}

func TestParseListingRejectsJSON(t *testing.T) {
	_, err := ParseListing(strings.NewReader(`{"Note": "x"}`))
	assert.ErrorIs(t, err, provider.ErrMalformedPayload)

	listings, err := ParseListing(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestEndpointURLs(t *testing.T) {
	e := DefaultEndpoint("KEY")

	check := func(raw, function, symbol string) url.Values {
		t.Helper()
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "www.alphavantage.co", u.Host)
		q := u.Query()
		assert.Equal(t, function, q.Get("function"))
		assert.Equal(t, symbol, q.Get("symbol"))
		assert.Equal(t, "KEY", q.Get("apikey"))
		return q
	}

	check(e.ListingStatusURL(), FuncListingStatus, "")
	assert.Equal(t, "json", check(e.GlobalQuoteURL("IBM"), FuncGlobalQuote, "IBM").Get("datatype"))
	assert.Equal(t, "json", check(e.DailyURL("IBM"), FuncDaily, "IBM").Get("datatype"))

	q := check(e.IntradayURL("IBM"), FuncIntraday, "IBM")
	assert.Equal(t, "1min", q.Get("interval"))
	assert.Equal(t, "json", q.Get("datatype"))
	assert.Empty(t, q.Get("outputsize"))

	e.OutputSize = "full"
	assert.Equal(t, "full", check(e.IntradayURL("IBM"), FuncIntraday, "IBM").Get("outputsize"))
}

func TestWriteURLLog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DefaultEndpoint("KEY").WriteURLLog(&buf, []string{"IBM", "NVDA"}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "function=LISTING_STATUS")
	assert.Contains(t, lines[1], "function=GLOBAL_QUOTE")
	assert.Contains(t, lines[2], "function=TIME_SERIES_DAILY")
	assert.Contains(t, lines[3], "function=TIME_SERIES_INTRADAY")
	assert.Contains(t, lines[4], "symbol=NVDA")
}

func TestParseKeyLayouts(t *testing.T) {
	ts, err := parseKey("2025-03-10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), ts)
}
