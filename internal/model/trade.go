package model

import (
	"math"
	"time"
)

// TimeLayout is the UTC wall-clock format used in CSV rows and aggregation keys.
const TimeLayout = "2006-01-02 15:04:05"

// Trade is one normalized per-minute OHLCV record, independent of the upstream schema.
// Missing prices are NaN and a missing volume is 0.
type Trade struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// NewTrade builds a Trade from optional fields: a null price becomes NaN, a null volume becomes 0.
func NewTrade(t time.Time, open, high, low, close OptFloat, volume OptInt) Trade {
	return Trade{
		Time:   t.UTC(),
		Open:   open.OrNaN(),
		High:   high.OrNaN(),
		Low:    low.OrNaN(),
		Close:  close.OrNaN(),
		Volume: volume.OrZero(),
	}
}

// Timestamp returns the UTC "YYYY-MM-DD HH:MM:SS" form of the trade time.
func (t Trade) Timestamp() string {
	return t.Time.UTC().Format(TimeLayout)
}

// HasPrice reports whether the open price is known.
func (t Trade) HasPrice() bool {
	return !math.IsNaN(t.Open)
}

// Tick is one flattened aggregation row: a timestamp key, the symbol and its price and volume at that minute.
type Tick struct {
	Timestamp string  `json:"timestamp" parquet:"timestamp"`
	Symbol    string  `json:"symbol" parquet:"symbol"`
	Price     float64 `json:"price" parquet:"price"`
	Volume    int64   `json:"volume" parquet:"volume"`
}
