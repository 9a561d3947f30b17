package alphavantage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"tickertape/internal/model"
	"tickertape/internal/provider"
)

var keyLayouts = []string{model.TimeLayout, "2006-01-02"}

// Provider is the table-style upstream.
type Provider struct {
	Endpoint Endpoint
}

// NewProvider creates a table provider for the given endpoint.
func NewProvider(e Endpoint) *Provider {
	return &Provider{Endpoint: e}
}

// GetName returns provider name
func (p *Provider) GetName() string { return "alphavantage" }

// Decode implements provider.DataProvider for daily and intraday series.
func (p *Provider) Decode(symbol string, payload []byte) ([]model.Trade, error) {
	trades, err := DecodeSeries(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return trades, nil
}

// DecodeSeries converts a "Time Series (...)" document into trades sorted by time. Series keys are
// local times in the zone named by the meta data (UTC if absent or unknown). A document without a
// series, or with an empty one, yields no trades and no error.
func DecodeSeries(payload []byte) ([]model.Trade, error) {
	top, err := topLevel(payload)
	if err != nil {
		return nil, err
	}
	raw, ok := findSeries(top)
	if !ok {
		return nil, nil
	}
	var series map[string]seriesEntry
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("%w: series: %v", provider.ErrMalformedPayload, err)
	}
	if len(series) == 0 {
		return nil, nil
	}

	loc := seriesLocation(top)
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	trades := make([]model.Trade, 0, len(keys))
	for _, k := range keys {
		ts, err := parseKey(k, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", provider.ErrMalformedPayload, err)
		}
		e := series[k]
		trades = append(trades, model.NewTrade(ts, e.Open, e.High, e.Low, e.Close, e.Volume))
	}
	return trades, nil
}

// Latest returns the entry with the greatest date key of the first series in payload. The series
// is scanned token by token and only the winning entry is decoded. ok is false when the document
// has no series or the series is empty.
func Latest(payload []byte) (s Summary, ok bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := expectDelim(dec, '{'); err != nil {
		return Summary{}, false, err
	}
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return Summary{}, false, err
		}
		if !strings.HasPrefix(key, seriesKeyPrefix) {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return Summary{}, false, fmt.Errorf("%w: %v", provider.ErrMalformedPayload, err)
			}
			continue
		}
		return latestInSeries(dec)
	}
	return Summary{}, false, nil
}

func latestInSeries(dec *json.Decoder) (Summary, bool, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return Summary{}, false, err
	}
	var (
		bestKey string
		bestRaw json.RawMessage
	)
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return Summary{}, false, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Summary{}, false, fmt.Errorf("%w: %v", provider.ErrMalformedPayload, err)
		}
		if key > bestKey {
			bestKey, bestRaw = key, raw
		}
	}
	if bestKey == "" {
		return Summary{}, false, nil
	}
	var e seriesEntry
	if err := json.Unmarshal(bestRaw, &e); err != nil {
		return Summary{}, false, fmt.Errorf("%w: entry %s: %v", provider.ErrMalformedPayload, bestKey, err)
	}
	return Summary{
		Date:   bestKey,
		Open:   e.Open.OrNaN(),
		High:   e.High.OrNaN(),
		Low:    e.Low.OrNaN(),
		Close:  e.Close.OrNaN(),
		Volume: e.Volume.OrZero(),
	}, true, nil
}

// Notice returns the upstream's explanatory message when the document carries one instead of data.
func Notice(payload []byte) string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return ""
	}
	for _, k := range noticeKeys {
		raw, ok := top[k]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			return msg
		}
		return string(raw)
	}
	return ""
}

func topLevel(payload []byte) (map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrMalformedPayload, err)
	}
	return top, nil
}

func findSeries(top map[string]json.RawMessage) (json.RawMessage, bool) {
	for k, v := range top {
		if strings.HasPrefix(k, seriesKeyPrefix) {
			return v, true
		}
	}
	return nil, false
}

// seriesLocation reads the "Time Zone" meta entry. Keys are numbered ("5. Time Zone" on daily,
// "6. Time Zone" on intraday), so the suffix is matched.
func seriesLocation(top map[string]json.RawMessage) *time.Location {
	raw, ok := top[metaKey]
	if !ok {
		return time.UTC
	}
	var meta map[string]string
	if err := json.Unmarshal(raw, &meta); err != nil {
		return time.UTC
	}
	for k, v := range meta {
		if strings.HasSuffix(k, "Time Zone") {
			if loc, err := time.LoadLocation(strings.TrimSpace(v)); err == nil {
				return loc
			}
		}
	}
	return time.UTC
}

func parseKey(key string, loc *time.Location) (time.Time, error) {
	for _, layout := range keyLayouts {
		if t, err := time.ParseInLocation(layout, key, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized series key %q", key)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrMalformedPayload, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", provider.ErrMalformedPayload, want, tok)
	}
	return nil
}

func nextKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrMalformedPayload, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key, got %v", provider.ErrMalformedPayload, tok)
	}
	return key, nil
}
