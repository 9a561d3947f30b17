package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OptFloat is a JSON number that may be null. Quoted numbers are accepted as well.
type OptFloat struct {
	Value float64
	Valid bool
}

// Float returns a present OptFloat.
func Float(v float64) OptFloat { return OptFloat{Value: v, Valid: true} }

// OrNaN returns the value, or NaN when absent.
func (o OptFloat) OrNaN() float64 {
	if !o.Valid {
		return math.NaN()
	}
	return o.Value
}

// UnmarshalJSON parses null, a number or a string holding a number.
func (o *OptFloat) UnmarshalJSON(data []byte) error {
	*o = OptFloat{}
	s, isNull, err := numberText(data)
	if err != nil || isNull {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse float %s: %w", data, err)
	}
	*o = OptFloat{Value: v, Valid: true}
	return nil
}

// OptInt is a JSON integer that may be null. Floats (e.g. 1.2e6) and quoted numbers are truncated to int64.
type OptInt struct {
	Value int64
	Valid bool
}

// Int returns a present OptInt.
func Int(v int64) OptInt { return OptInt{Value: v, Valid: true} }

// OrZero returns the value, or 0 when absent.
func (o OptInt) OrZero() int64 {
	if !o.Valid {
		return 0
	}
	return o.Value
}

// UnmarshalJSON parses null, an integer, a float or a string holding either.
func (o *OptInt) UnmarshalJSON(data []byte) error {
	*o = OptInt{}
	s, isNull, err := numberText(data)
	if err != nil || isNull {
		return err
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*o = OptInt{Value: v, Valid: true}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse int %s: %w", data, err)
	}
	*o = OptInt{Value: int64(f), Valid: true}
	return nil
}

// numberText unwraps a JSON scalar into the text of a number. Empty strings count as null.
func numberText(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", true, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "none") {
			return "", true, nil
		}
		return s, false, nil
	}
	return string(data), false, nil
}
