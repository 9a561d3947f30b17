// Package calendar splits a wall-clock date range into local calendar days.
package calendar

import (
	"fmt"
	"iter"
	"time"
)

// DateLayout is the MM/DD/YYYY form accepted for range bounds.
const DateLayout = "01/02/2006"

// DayRange is one local calendar day as a half-open [Start, End) range of epoch seconds.
type DayRange struct {
	Start int64
	End   int64
}

// Duration returns End - Start. It is 24h except on DST transition days (23h or 25h).
func (d DayRange) Duration() time.Duration {
	return time.Duration(d.End-d.Start) * time.Second
}

// StartTime returns the local midnight that opens the range.
func (d DayRange) StartTime(loc *time.Location) time.Time {
	return time.Unix(d.Start, 0).In(loc)
}

// Contains reports whether t falls inside [Start, End).
func (d DayRange) Contains(t time.Time) bool {
	s := t.Unix()
	return s >= d.Start && s < d.End
}

func (d DayRange) String() string {
	return fmt.Sprintf("[%d,%d)", d.Start, d.End)
}

// ParseDate parses an MM/DD/YYYY date at local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// DayOf returns the range of the local calendar day containing t.
func DayOf(t time.Time, loc *time.Location) DayRange {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	end := time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc)
	if !end.After(start) {
		end = start.Add(24 * time.Hour)
	}
	return DayRange{Start: start.Unix(), End: end.Unix()}
}

// Days yields one DayRange per calendar day from start through end inclusive, in loc.
// Only the date parts of start and end are used. The sequence can be ranged over any number of times.
func Days(start, end time.Time, loc *time.Location) iter.Seq[DayRange] {
	if loc == nil {
		loc = time.Local
	}
	first := dateOf(start, loc)
	last := dateOf(end, loc)
	return func(yield func(DayRange) bool) {
		for d := first; !d.After(last); d = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc) {
			if !yield(DayOf(d, loc)) {
				return
			}
		}
	}
}

// Collect gathers Days into a slice.
func Collect(start, end time.Time, loc *time.Location) []DayRange {
	var out []DayRange
	for d := range Days(start, end, loc) {
		out = append(out, d)
	}
	return out
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
