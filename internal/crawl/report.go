package crawl

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	successReport = ".lastrun.success.json"
	failedReport  = ".lastrun.failed.json"
)

type reportEntry struct {
	RunID    string `json:"run_id"`
	Provider string `json:"provider"`
	Symbol   string `json:"symbol"`
	Day      string `json:"day"`
	State    string `json:"state"`
	Status   int    `json:"status"`
	Rows     int    `json:"rows,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func newReportEntry(runID string, r UnitResult) reportEntry {
	return reportEntry{
		RunID:    runID,
		Provider: r.Provider,
		Symbol:   r.Symbol,
		Day:      r.Date,
		State:    r.State.String(),
		Status:   r.Status,
		Rows:     r.Rows,
		Reason:   r.Reason(),
	}
}

// writeRunReport replaces the success and failed reports in dir. A report with no entries is
// removed so a stale one never outlives the run that produced it.
func writeRunReport(dir, runID string, results []UnitResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var ok, failed []reportEntry
	for _, r := range results {
		if r.State.Failed() {
			failed = append(failed, newReportEntry(runID, r))
		} else {
			ok = append(ok, newReportEntry(runID, r))
		}
	}
	if err := writeReportFile(filepath.Join(dir, successReport), ok); err != nil {
		return err
	}
	return writeReportFile(filepath.Join(dir, failedReport), failed)
}

func writeReportFile(path string, entries []reportEntry) error {
	if len(entries) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	slog.Info("report wrote", "path", path, "entries", len(entries))
	return nil
}

func joinFailedReasons(results []UnitResult) string {
	total := countFailed(results)
	var b strings.Builder
	n := 0
	for _, r := range results {
		if !r.State.Failed() {
			continue
		}
		if n > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s %s %s: %s", r.Provider, r.Symbol, r.Date, r.Reason())
		n++
		if n >= 5 && total > 6 {
			fmt.Fprintf(&b, " (+%d more)", total-n)
			break
		}
	}
	return b.String()
}

func countFailed(results []UnitResult) int {
	n := 0
	for _, r := range results {
		if r.State.Failed() {
			n++
		}
	}
	return n
}
