package yahoo

import (
	"encoding/json"
	"fmt"
	"time"

	"tickertape/internal/model"
	"tickertape/internal/provider"
)

// Provider is the chart-style upstream.
type Provider struct {
	Endpoint Endpoint
}

// NewProvider creates a chart provider for the given endpoint.
func NewProvider(e Endpoint) *Provider {
	return &Provider{Endpoint: e}
}

// GetName returns provider name
func (p *Provider) GetName() string { return "yahoo" }

// Decode implements provider.DataProvider.
func (p *Provider) Decode(symbol string, payload []byte) ([]model.Trade, error) {
	return DecodeChart(symbol, payload)
}

// DecodeChart converts a chart document into trades. A null timestamp drops the whole minute,
// null prices become NaN and a null volume becomes 0. A document without chart.result[0] or
// indicators.quote[0] fails with provider.ErrMalformedPayload. A result without timestamps
// (no trading that day) yields no trades.
func DecodeChart(symbol string, payload []byte) ([]model.Trade, error) {
	var doc chartResponse
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", provider.ErrMalformedPayload, symbol, err)
	}
	if e := doc.Chart.Error; e != nil && len(doc.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s: %s: %s", provider.ErrMalformedPayload, symbol, e.Code, e.Description)
	}
	if len(doc.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s: chart.result is empty", provider.ErrMalformedPayload, symbol)
	}
	res := doc.Chart.Result[0]
	if res.Indicators == nil || len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s: indicators.quote is missing", provider.ErrMalformedPayload, symbol)
	}
	q := res.Indicators.Quote[0]

	trades := make([]model.Trade, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if !ts.Valid {
			continue
		}
		trades = append(trades, model.NewTrade(
			time.Unix(ts.Value, 0),
			at(q.Open, i),
			at(q.High, i),
			at(q.Low, i),
			at(q.Close, i),
			at(q.Volume, i),
		))
	}
	return trades, nil
}
