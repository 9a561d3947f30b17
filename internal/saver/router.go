package saver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tickertape/internal/model"
)

// Paths is the file pair of one output partition.
type Paths struct {
	JSON string
	CSV  string
}

// SelectFiles derives the partition files for symbol on day, one pair per flag in policy.
// day is read in its own location, so callers pass a local-midnight time.
func SelectFiles(dir, symbol string, day time.Time, policy Policy) ([]Paths, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	flags := policy.Flags()
	out := make([]Paths, 0, len(flags))
	for _, f := range flags {
		csvPath := filepath.Join(dir, csvName(symbol, day, f))
		out = append(out, Paths{JSON: jsonSidecar(csvPath), CSV: csvPath})
	}
	return out, nil
}

func csvName(symbol string, day time.Time, f Policy) string {
	switch f {
	case DailyFile:
		return symbol + "_" + day.Format("2006-01-02") + ".csv"
	case WeeklyFile:
		return symbol + "_week" + strconv.Itoa((day.YearDay()-1)/7) + ".csv"
	case MonthlyFile:
		return symbol + "_" + strconv.Itoa(day.Year()) + "-" + strconv.Itoa(int(day.Month())) + ".csv"
	case YearlyFile:
		return symbol + "_" + strconv.Itoa(day.Year()) + ".csv"
	default:
		return symbol + ".csv"
	}
}

func jsonSidecar(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".json"
}

// Router writes partitions under one directory with a fixed policy.
type Router struct {
	dir    string
	policy Policy
	csv    CSVSaver
	json   JSONSaver
}

// NewRouter creates a router. The directory is created on first write.
func NewRouter(dir string, policy Policy) (*Router, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Router{dir: dir, policy: policy}, nil
}

// Dir returns the output directory.
func (r *Router) Dir() string { return r.dir }

// Policy returns the partition policy.
func (r *Router) Policy() Policy { return r.policy }

// SelectFiles returns the partitions for symbol on day.
func (r *Router) SelectFiles(symbol string, day time.Time) []Paths {
	paths, _ := SelectFiles(r.dir, symbol, day, r.policy)
	return paths
}

// Append stores payload verbatim in the JSON sidecar (overwriting it) and appends trades to the CSV,
// writing the header only when the CSV does not exist yet. Rows are never deduplicated.
func (r *Router) Append(trades []model.Trade, payload []byte, p Paths) error {
	if err := os.MkdirAll(filepath.Dir(p.CSV), 0755); err != nil {
		return fmt.Errorf("%w: create dir for %s: %w", ErrFileIO, p.CSV, err)
	}
	if err := r.json.Save(payload, p.JSON); err != nil {
		return err
	}
	return r.csv.Append(trades, p.CSV)
}
