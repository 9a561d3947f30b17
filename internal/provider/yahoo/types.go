package yahoo

import (
	"encoding/json"

	"tickertape/internal/model"
)

// chartResponse is the subset of the v8 chart document the decoder reads.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       json.RawMessage `json:"meta"`
	Timestamp  []model.OptInt  `json:"timestamp"`
	Indicators *struct {
		Quote []quote `json:"quote"`
	} `json:"indicators"`
}

type quote struct {
	Open   []model.OptFloat `json:"open"`
	High   []model.OptFloat `json:"high"`
	Low    []model.OptFloat `json:"low"`
	Close  []model.OptFloat `json:"close"`
	Volume []model.OptInt   `json:"volume"`
}

// at returns the element at i, or an absent value when the array is short.
func at[T any](s []T, i int) T {
	var zero T
	if i < len(s) {
		return s[i]
	}
	return zero
}
