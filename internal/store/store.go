// Package store merges per-minute prices of every symbol into one timestamp-ordered map and
// round-trips it through a flat text file.
package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"tickertape/internal/model"
	"tickertape/internal/saver"
)

// Entry is one symbol's price and volume at a timestamp.
type Entry struct {
	Symbol string
	Price  float64
	Volume int64
}

// Store maps "YYYY-MM-DD HH:MM:SS" keys to the entries recorded at that minute. Keys iterate in
// lexicographic order, which is chronological for this layout; entries keep insertion order.
// A Store is not safe for concurrent use.
type Store struct {
	buckets map[string][]Entry
	keys    []string
	rows    int
}

// New creates an empty store.
func New() *Store {
	return &Store{buckets: make(map[string][]Entry)}
}

// Insert appends an entry under key.
func (s *Store) Insert(key, symbol string, price float64, volume int64) {
	if _, ok := s.buckets[key]; !ok {
		i := sort.SearchStrings(s.keys, key)
		s.keys = append(s.keys, "")
		copy(s.keys[i+1:], s.keys[i:])
		s.keys[i] = key
	}
	s.buckets[key] = append(s.buckets[key], Entry{Symbol: symbol, Price: price, Volume: volume})
	s.rows++
}

// InsertTrade records t's open price and volume for symbol. Trades without an open price are skipped.
func (s *Store) InsertTrade(symbol string, t model.Trade) bool {
	if !t.HasPrice() {
		return false
	}
	s.Insert(t.Timestamp(), symbol, t.Open, t.Volume)
	return true
}

// Keys returns the timestamp keys in order.
func (s *Store) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Entries returns the entries under key in insertion order.
func (s *Store) Entries(key string) []Entry {
	return append([]Entry(nil), s.buckets[key]...)
}

// Len returns the number of distinct timestamps.
func (s *Store) Len() int { return len(s.keys) }

// Rows returns the number of (timestamp, symbol) entries.
func (s *Store) Rows() int { return s.rows }

// Flatten returns one row per entry, grouped by timestamp then insertion order.
func (s *Store) Flatten() []model.Tick {
	out := make([]model.Tick, 0, s.rows)
	for _, k := range s.keys {
		for _, e := range s.buckets[k] {
			out = append(out, model.Tick{Timestamp: k, Symbol: e.Symbol, Price: e.Price, Volume: e.Volume})
		}
	}
	return out
}

// Symbols returns the distinct symbols in order of first appearance.
func (s *Store) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range s.keys {
		for _, e := range s.buckets[k] {
			if !seen[e.Symbol] {
				seen[e.Symbol] = true
				out = append(out, e.Symbol)
			}
		}
	}
	return out
}

// Equal reports whether both stores hold the same keys with the same entry sequences.
func (s *Store) Equal(o *Store) bool {
	if s.rows != o.rows || len(s.keys) != len(o.keys) {
		return false
	}
	for i, k := range s.keys {
		if o.keys[i] != k {
			return false
		}
		a, b := s.buckets[k], o.buckets[k]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if !sameEntry(a[j], b[j]) {
				return false
			}
		}
	}
	return true
}

// sameEntry compares entries field by field; two NaN prices are equal.
func sameEntry(a, b Entry) bool {
	if a.Symbol != b.Symbol || a.Volume != b.Volume {
		return false
	}
	return a.Price == b.Price || (math.IsNaN(a.Price) && math.IsNaN(b.Price))
}

// WriteTo writes the flattened store as "date time symbol price volume" lines. No newline follows
// the last line.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	first := true
	for _, k := range s.keys {
		for _, e := range s.buckets[k] {
			if !first {
				if err := bw.WriteByte('\n'); err != nil {
					return n, err
				}
				n++
			}
			first = false
			m, err := bw.WriteString(k + " " + e.Symbol + " " + strconv.FormatFloat(e.Price, 'f', -1, 64) + " " + strconv.FormatInt(e.Volume, 10))
			n += int64(m)
			if err != nil {
				return n, err
			}
		}
	}
	return n, bw.Flush()
}

// WriteFile replaces path with the flattened store.
func (s *Store) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if _, err := s.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Reload reads lines written by WriteTo and inserts them. Lines with fewer than five whitespace
// separated tokens, or whose price or volume do not parse, are skipped. It returns the number of
// rows inserted and the number skipped.
func (s *Store) Reload(r io.Reader) (inserted, skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := strings.Fields(line)
		if len(f) < 5 {
			skipped++
			continue
		}
		price, perr := strconv.ParseFloat(f[3], 64)
		volume, verr := strconv.ParseInt(f[4], 10, 64)
		if perr != nil || verr != nil {
			skipped++
			continue
		}
		s.Insert(f[0]+" "+f[1], f[2], price, volume)
		inserted++
	}
	return inserted, skipped, sc.Err()
}

// ReloadFile opens path and calls Reload.
func (s *Store) ReloadFile(path string) (inserted, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	inserted, skipped, err = s.Reload(f)
	if err != nil {
		return inserted, skipped, fmt.Errorf("read %s: %w", path, err)
	}
	return inserted, skipped, nil
}

// ExportParquet writes the flattened store as parquet rows to path.
func (s *Store) ExportParquet(path string) error {
	return saver.ParquetSaver{}.Save(s.Flatten(), path)
}

// IsNotExist reports whether err comes from a missing file.
func IsNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }
