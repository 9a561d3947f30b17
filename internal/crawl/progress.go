package crawl

import (
	"sort"
	"sync"
)

// progress tallies unit outcomes; the heartbeat reads it from another goroutine.
type progress struct {
	mu            sync.Mutex
	total         int
	written       int
	failed        int
	rowsPerSymbol map[string]int
	results       []UnitResult
}

func newProgress(total int) *progress {
	return &progress{total: total, rowsPerSymbol: make(map[string]int)}
}

func (p *progress) record(r UnitResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
	if r.State.Failed() {
		p.failed++
		return
	}
	p.written++
	p.rowsPerSymbol[r.Symbol] += r.Rows
}

func (p *progress) snapshot() (written, failed, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.rowsPerSymbol {
		rows += n
	}
	return p.written, p.failed, rows
}

// producing returns the symbols that aggregated at least one row, in order of first appearance.
func (p *progress) producing() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	seen := make(map[string]bool)
	for _, r := range p.results {
		if r.Rows > 0 && !seen[r.Symbol] {
			seen[r.Symbol] = true
			out = append(out, r.Symbol)
		}
	}
	return out
}

type symbolRows struct {
	Symbol string
	Rows   int
}

func (p *progress) perSymbol() []symbolRows {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]symbolRows, 0, len(p.rowsPerSymbol))
	for s, n := range p.rowsPerSymbol {
		out = append(out, symbolRows{Symbol: s, Rows: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (p *progress) all() []UnitResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]UnitResult(nil), p.results...)
}
