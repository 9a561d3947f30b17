package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IntradayFileName is the name of a per-symbol 1-minute CSV export.
func IntradayFileName(symbol string) string {
	return "intraday_1min_" + symbol + ".csv"
}

// ImportIntraday reads dir/intraday_1min_{SYMBOL}.csv for every symbol and inserts (symbol, open,
// volume) for each row whose timestamp starts with datePrefix. An empty prefix keeps every row.
// Missing files are skipped. The files carry the header timestamp,open,high,low,close,volume.
// A nil logger falls back to slog.Default.
func (s *Store) ImportIntraday(logger *slog.Logger, dir string, symbols []string, datePrefix string) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	total := 0
	for _, sym := range symbols {
		path := filepath.Join(dir, IntradayFileName(sym))
		n, err := s.importIntradayFile(path, sym, datePrefix)
		if err != nil {
			if IsNotExist(err) {
				logger.Debug("intraday file missing, skip", "symbol", sym, "path", path)
				continue
			}
			return total, err
		}
		logger.Info("intraday imported", "symbol", sym, "path", path, "rows", n)
		total += n
	}
	return total, nil
}

func (s *Store) importIntradayFile(path, symbol, datePrefix string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := s.ReadIntraday(f, symbol, datePrefix)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", path, err)
	}
	return n, nil
}

// ReadIntraday inserts rows of one intraday CSV stream. Rows that are short or whose open or volume
// do not parse are skipped.
func (s *Store) ReadIntraday(r io.Reader, symbol, datePrefix string) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, err
		}
		if len(rec) < 6 {
			continue
		}
		ts := strings.TrimSpace(rec[0])
		if !strings.HasPrefix(ts, datePrefix) {
			continue
		}
		open, perr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		volume, verr := parseVolume(strings.TrimSpace(rec[5]))
		if perr != nil || verr != nil {
			continue
		}
		s.Insert(ts, symbol, open, volume)
		n++
	}
	return n, nil
}

func parseVolume(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
