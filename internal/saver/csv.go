package saver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"tickertape/internal/model"
)

// CSVHeader is the first row of every partition CSV.
var CSVHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// CSVSaver appends trades to a CSV (header: timestamp,open,high,low,close,volume).
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

// Append opens path for appending and writes one row per trade. The header goes in first only when
// the file did not exist. All rows are flushed in one write at the end.
func (CSVSaver) Append(trades []model.Trade, path string) (err error) {
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %w", ErrFileIO, path, statErr)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrFileIO, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", ErrFileIO, path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(CSVHeader); err != nil {
			return fmt.Errorf("%w: write %s: %w", ErrFileIO, path, err)
		}
	}
	for _, t := range trades {
		if err := w.Write(tradeRow(t)); err != nil {
			return fmt.Errorf("%w: write %s: %w", ErrFileIO, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrFileIO, path, err)
	}
	return nil
}

func tradeRow(t model.Trade) []string {
	return []string{
		t.Timestamp(),
		floatStr(t.Open),
		floatStr(t.High),
		floatStr(t.Low),
		floatStr(t.Close),
		strconv.FormatInt(t.Volume, 10),
	}
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
