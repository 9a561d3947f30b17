// Package saver routes decoded trades into partitioned CSV files with raw JSON sidecars, and
// exports flattened rows to parquet.
package saver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFileIO marks a destination that could not be created, opened or written.
var ErrFileIO = errors.New("file io")

// Policy selects output partition granularities. Any combination of flags is valid as long as at
// least one is set; each set flag produces its own file.
type Policy uint8

const (
	SingleFile Policy = 1 << iota
	DailyFile
	WeeklyFile
	MonthlyFile
	YearlyFile

	allPolicies = SingleFile | DailyFile | WeeklyFile | MonthlyFile | YearlyFile
)

var policyNames = []struct {
	flag Policy
	name string
}{
	{SingleFile, "single"},
	{DailyFile, "daily"},
	{WeeklyFile, "weekly"},
	{MonthlyFile, "monthly"},
	{YearlyFile, "yearly"},
}

// ParsePolicy accepts flag names separated by ',' or '|' (e.g. "daily,monthly") or a numeric bitmask.
func ParsePolicy(s string) (Policy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty save policy")
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		p := Policy(n)
		return p, p.Validate()
	}
	var p Policy
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		name := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(part)), "file")
		found := false
		for _, pn := range policyNames {
			if pn.name == name {
				p |= pn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown save policy %q (use: single, daily, weekly, monthly, yearly)", part)
		}
	}
	return p, p.Validate()
}

// Validate reports an error when no flag or an unknown bit is set.
func (p Policy) Validate() error {
	if p == 0 {
		return fmt.Errorf("save policy must select at least one partition")
	}
	if p&^allPolicies != 0 {
		return fmt.Errorf("save policy %#x has unknown bits", uint8(p))
	}
	return nil
}

// Has reports whether flag f is set.
func (p Policy) Has(f Policy) bool { return p&f != 0 }

// Flags returns the set flags from finest-named to coarsest, single first.
func (p Policy) Flags() []Policy {
	var out []Policy
	for _, pn := range policyNames {
		if p.Has(pn.flag) {
			out = append(out, pn.flag)
		}
	}
	return out
}

func (p Policy) String() string {
	var names []string
	for _, pn := range policyNames {
		if p.Has(pn.flag) {
			names = append(names, pn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}
