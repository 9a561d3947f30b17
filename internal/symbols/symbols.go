// Package symbols loads the ticker universe for a run.
package symbols

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Load reads ticker symbols from path.
// Supported formats:
//   - .json : JSON array of strings
//   - other : one symbol per line; the first comma-separated token is used and '#' lines are comments
//
// Symbols are trimmed and uppercased; empties, duplicates and symbols with inner whitespace are
// dropped and file order is kept.
func Load(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbol list %s: %w", path, err)
	}

	var raw []string
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("parse JSON symbol list %s: %w", path, err)
		}
	} else {
		raw = Parse(string(content))
	}

	out := Dedup(raw)
	slog.Info("loaded symbols", "count", len(out), "path", path)
	return out, nil
}

// Parse takes the first comma-delimited token of every non-comment line.
func Parse(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tok, _, _ := strings.Cut(line, ",")
		out = append(out, tok)
	}
	return out
}

// Dedup uppercases and trims symbols, dropping empties and repeats. Symbols with inner whitespace
// are dropped with a warning.
func Dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if strings.ContainsFunc(s, unicode.IsSpace) {
			slog.Warn("symbol contains whitespace, skip", "symbol", s)
			continue
		}
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
