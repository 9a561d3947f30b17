package provider

import (
	"errors"

	"tickertape/internal/model"
)

// ErrMalformedPayload marks a payload that lacks the structure a decoder expects.
var ErrMalformedPayload = errors.New("malformed payload")

// DataProvider is one upstream schema. Decode turns a raw payload fetched for symbol into
// canonical trades in ascending time order.
type DataProvider interface {
	GetName() string
	Decode(symbol string, payload []byte) ([]model.Trade, error)
}
