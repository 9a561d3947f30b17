package crawl

import (
	"fmt"

	"tickertape/internal/calendar"
)

// UnitState tracks one unit through fetch, decode and write.
type UnitState int

const (
	Pending UnitState = iota
	Fetching
	Decoded
	FetchFailed
	Written
	WriteFailed
)

var stateNames = [...]string{"pending", "fetching", "decoded", "fetch_failed", "written", "write_failed"}

func (s UnitState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Failed reports whether s is a terminal failure.
func (s UnitState) Failed() bool { return s == FetchFailed || s == WriteFailed }

// Unit is one (provider, symbol, day) piece of work. Intraday units span the whole range and carry
// a zero Day.
type Unit struct {
	Provider string
	Symbol   string
	Day      calendar.DayRange
	Date     string // local date of Day, or "start..end" for range units
	URL      string
}

// UnitResult is the final state of a unit.
type UnitResult struct {
	Unit
	State  UnitState
	Status int // last HTTP status, 0 if none was received
	Rows   int // trades aggregated into the store
	Err    error
}

// Reason returns the error text, or "" on success.
func (r UnitResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
