package alphavantage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"tickertape/internal/provider"
)

// DecodeQuote reads a GLOBAL_QUOTE document. ok is false when the quote object is missing or empty,
// which is how the upstream answers for unknown symbols.
func DecodeQuote(payload []byte) (q Quote, ok bool, err error) {
	var doc struct {
		Quote *globalQuote `json:"Global Quote"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Quote{}, false, fmt.Errorf("%w: %v", provider.ErrMalformedPayload, err)
	}
	if doc.Quote == nil || doc.Quote.Symbol == "" {
		return Quote{}, false, nil
	}
	g := doc.Quote
	return Quote{
		Symbol:           g.Symbol,
		Open:             g.Open.OrNaN(),
		High:             g.High.OrNaN(),
		Low:              g.Low.OrNaN(),
		Price:            g.Price.OrNaN(),
		Volume:           g.Volume.OrZero(),
		LatestTradingDay: g.LatestTradingDay,
		PreviousClose:    g.PreviousClose.OrNaN(),
		Change:           g.Change.OrNaN(),
		ChangePercent:    g.ChangePercent,
	}, true, nil
}

// ParseListing reads the LISTING_STATUS CSV. Columns are located by header name.
func ParseListing(r io.Reader) ([]Listing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: listing header: %v", provider.ErrMalformedPayload, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	if _, ok := idx["symbol"]; !ok {
		return nil, fmt.Errorf("%w: listing has no symbol column", provider.ErrMalformedPayload)
	}
	col := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Listing
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: listing row: %v", provider.ErrMalformedPayload, err)
		}
		l := Listing{
			Symbol:        strings.ToUpper(col(rec, "symbol")),
			Name:          col(rec, "name"),
			Exchange:      col(rec, "exchange"),
			AssetType:     col(rec, "assetType"),
			IPODate:       col(rec, "ipoDate"),
			DelistingDate: col(rec, "delistingDate"),
			Status:        col(rec, "status"),
		}
		if l.Symbol == "" {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// Unlisted returns the symbols that do not appear as Active in listings, in input order.
func Unlisted(symbols []string, listings []Listing) []string {
	active := make(map[string]bool, len(listings))
	for _, l := range listings {
		if l.Status == "" || strings.EqualFold(l.Status, "active") {
			active[l.Symbol] = true
		}
	}
	var out []string
	for _, s := range symbols {
		if !active[strings.ToUpper(s)] {
			out = append(out, s)
		}
	}
	return out
}
