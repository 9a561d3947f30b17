// Package crawl sequences fetch, decode, partitioned output and aggregation for every symbol and
// day, first against the chart provider and then against the table provider.
package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tickertape/internal/calendar"
	"tickertape/internal/fetch"
	"tickertape/internal/model"
	"tickertape/internal/provider/alphavantage"
	"tickertape/internal/provider/yahoo"
	"tickertape/internal/saver"
	"tickertape/internal/store"
)

// Getter performs one GET including its retry policy.
type Getter interface {
	Fetch(ctx context.Context, url string) (fetch.Response, error)
}

// Settings are the per-run parameters.
type Settings struct {
	Start    time.Time
	End      time.Time
	Location *time.Location

	ReportDir    string
	SymbolsURLs  string
	StocksURLs   string
	CombinedFile string
	ParquetFile  string
	IntradayDir  string
	IntradayDate string

	ListingPause  time.Duration
	ProviderPause time.Duration
	Heartbeat     time.Duration
}

// Deps are the collaborators a Runner drives.
type Deps struct {
	Getter     Getter
	Clock      fetch.Clock
	Logger     *slog.Logger
	Chart      *yahoo.Provider
	Table      *alphavantage.Provider
	ChartPacer *fetch.Pacer
	TablePacer *fetch.Pacer
	ChartOut   *saver.Router
	TableOut   *saver.Router
	Store      *store.Store
}

// Runner executes one ingestion run. It keeps a single request in flight at a time.
type Runner struct {
	set Settings
	Deps
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Results  []UnitResult
	Written  int
	Failed   int
	Imported int  // rows read from intraday CSV exports
	Rows     int  // rows in the combined store
	Verified bool // combined file reloaded to an identical store
}

// NewRunner checks deps and fills in defaults for the optional ones.
func NewRunner(set Settings, d Deps) (*Runner, error) {
	switch {
	case d.Getter == nil:
		return nil, errors.New("crawl: nil getter")
	case d.Chart == nil || d.Table == nil:
		return nil, errors.New("crawl: both providers are required")
	case d.ChartOut == nil || d.TableOut == nil:
		return nil, errors.New("crawl: both output routers are required")
	case d.Store == nil:
		return nil, errors.New("crawl: nil store")
	}
	if set.End.Before(set.Start) {
		return nil, fmt.Errorf("crawl: end %s before start %s", set.End.Format(time.DateOnly), set.Start.Format(time.DateOnly))
	}
	if set.Location == nil {
		set.Location = time.Local
	}
	if d.Clock == nil {
		d.Clock = fetch.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.ChartPacer == nil {
		d.ChartPacer = fetch.NewPacer(d.Chart.GetName(), 0, d.Clock)
	}
	if d.TablePacer == nil {
		d.TablePacer = fetch.NewPacer(d.Table.GetName(), 0, d.Clock)
	}
	return &Runner{set: set, Deps: d}, nil
}

// Run processes every (symbol, day) chart unit, then the table provider's listing check, quote,
// daily summary and intraday unit per symbol, then writes the combined outputs. Unit failures are
// logged and reported but never abort the run; only ctx cancellation or an unwritable combined file
// does.
func (r *Runner) Run(ctx context.Context, symbols []string) (Summary, error) {
	runID := uuid.NewString()
	log := r.Logger.With("run_id", runID)
	days := calendar.Collect(r.set.Start, r.set.End, r.set.Location)
	prog := newProgress(len(symbols)*len(days) + len(symbols))
	log.Info("run start",
		"symbols", len(symbols),
		"days", len(days),
		"units", prog.total,
		"from", r.set.Start.Format(time.DateOnly),
		"to", r.set.End.Format(time.DateOnly),
	)

	unitsCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(unitsCtx)
	g.Go(func() error {
		runHeartbeat(gctx, r.set.Heartbeat, prog, log)
		return nil
	})
	g.Go(func() error {
		defer stop()
		return r.runUnits(ctx, log, symbols, days, prog)
	})
	runErr := g.Wait()

	sum := Summary{RunID: runID, Results: prog.all()}
	sum.Written, sum.Failed, _ = prog.snapshot()
	if r.set.ReportDir != "" {
		if err := writeRunReport(r.set.ReportDir, runID, sum.Results); err != nil {
			log.Warn("could not write run report", "error", err)
		}
	}
	r.logSummary(log, prog)
	if runErr != nil {
		log.Warn("run aborted", "error", runErr)
		return sum, runErr
	}
	if err := r.finish(log, symbols, prog, &sum); err != nil {
		return sum, err
	}
	log.Info("run done", "written", sum.Written, "failed", sum.Failed, "rows", sum.Rows, "verified", sum.Verified)
	return sum, nil
}

func (r *Runner) runUnits(ctx context.Context, log *slog.Logger, symbols []string, days []calendar.DayRange, prog *progress) error {
	for _, sym := range symbols {
		for _, d := range days {
			res := r.chartUnit(ctx, sym, d)
			if err := ctx.Err(); err != nil {
				return err
			}
			r.record(log, prog, res)
		}
	}
	if err := r.pause(ctx, log, r.set.ProviderPause, "provider switch"); err != nil {
		return err
	}

	if err := r.listing(ctx, log, symbols); err != nil {
		return err
	}
	for _, sym := range symbols {
		r.quote(ctx, log, sym)
		r.daily(ctx, log, sym)
		res := r.intradayUnit(ctx, sym)
		if err := ctx.Err(); err != nil {
			return err
		}
		r.record(log, prog, res)
	}
	return r.pause(ctx, log, r.set.ProviderPause, "provider done")
}

func (r *Runner) record(log *slog.Logger, prog *progress, res UnitResult) {
	prog.record(res)
	attrs := []any{"provider", res.Provider, "symbol", res.Symbol, "day", res.Date, "state", res.State.String(), "status", res.Status}
	if res.State.Failed() {
		log.Warn("unit failed", append(attrs, "url", fetch.Redact(res.URL), "error", res.Err)...)
		return
	}
	log.Info("unit written", append(attrs, "rows", res.Rows)...)
}

// chartUnit fetches one local day of minute bars for sym.
func (r *Runner) chartUnit(ctx context.Context, sym string, d calendar.DayRange) UnitResult {
	res := UnitResult{Unit: Unit{Provider: r.Chart.GetName(), Symbol: sym, Day: d, Date: r.date(d)}}
	url, err := r.Chart.Endpoint.DayURL(sym, d)
	if err != nil {
		res.State, res.Err = FetchFailed, err
		return res
	}
	res.URL = url
	body, ok := r.fetchUnit(ctx, r.ChartPacer, &res)
	if !ok {
		return res
	}
	trades, err := r.Chart.Decode(sym, body)
	if err != nil {
		res.State, res.Err = FetchFailed, err
		return res
	}
	res.State = Decoded
	r.write(&res, r.ChartOut, body, []dayGroup{{day: d.StartTime(r.set.Location), trades: trades}})
	return res
}

// intradayUnit fetches the intraday series for sym and writes each local day inside the run range
// to its own partitions.
func (r *Runner) intradayUnit(ctx context.Context, sym string) UnitResult {
	res := UnitResult{Unit: Unit{
		Provider: r.Table.GetName(),
		Symbol:   sym,
		Date:     r.set.Start.Format(time.DateOnly) + ".." + r.set.End.Format(time.DateOnly),
		URL:      r.Table.Endpoint.IntradayURL(sym),
	}}
	body, ok := r.fetchUnit(ctx, r.TablePacer, &res)
	if !ok {
		return res
	}
	trades, err := r.Table.Decode(sym, body)
	if err != nil {
		res.State, res.Err = FetchFailed, err
		return res
	}
	res.State = Decoded
	if len(trades) == 0 {
		if n := alphavantage.Notice(body); n != "" {
			r.Logger.Warn("intraday notice", "symbol", sym, "notice", n)
		}
	}
	r.write(&res, r.TableOut, body, r.partition(trades))
	return res
}

func (r *Runner) fetchUnit(ctx context.Context, pacer *fetch.Pacer, res *UnitResult) ([]byte, bool) {
	res.State = Fetching
	if err := pacer.Wait(ctx); err != nil {
		res.State, res.Err = FetchFailed, err
		return nil, false
	}
	resp, err := r.Getter.Fetch(ctx, res.URL)
	res.Status = resp.StatusCode
	if err != nil {
		res.State, res.Err = FetchFailed, err
		return nil, false
	}
	return resp.Body, true
}

type dayGroup struct {
	day    time.Time
	trades []model.Trade
}

// partition groups time-ordered trades by local day, dropping days outside the run range.
func (r *Runner) partition(trades []model.Trade) []dayGroup {
	loc := r.set.Location
	first := calendar.DayOf(r.set.Start, loc)
	last := calendar.DayOf(r.set.End, loc)
	var groups []dayGroup
	idx := make(map[int64]int)
	for _, t := range trades {
		d := calendar.DayOf(t.Time, loc)
		if d.Start < first.Start || d.Start > last.Start {
			continue
		}
		i, ok := idx[d.Start]
		if !ok {
			i = len(groups)
			idx[d.Start] = i
			groups = append(groups, dayGroup{day: d.StartTime(loc)})
		}
		groups[i].trades = append(groups[i].trades, t)
	}
	return groups
}

// write appends every group to its partitions and, once all writes succeed, aggregates the trades.
func (r *Runner) write(res *UnitResult, out *saver.Router, payload []byte, groups []dayGroup) {
	for _, g := range groups {
		for _, p := range out.SelectFiles(res.Symbol, g.day) {
			if err := out.Append(g.trades, payload, p); err != nil {
				res.State, res.Err = WriteFailed, err
				return
			}
		}
	}
	res.State = Written
	for _, g := range groups {
		for _, t := range g.trades {
			if r.Store.InsertTrade(res.Symbol, t) {
				res.Rows++
			}
		}
	}
}

// aux fetches an auxiliary table document. Failures are logged and reported as !ok.
func (r *Runner) aux(ctx context.Context, log *slog.Logger, url, kind, sym string) ([]byte, bool) {
	if err := r.TablePacer.Wait(ctx); err != nil {
		return nil, false
	}
	resp, err := r.Getter.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("request failed", "provider", r.Table.GetName(), "kind", kind, "symbol", sym, "status", fetch.StatusOf(err), "url", fetch.Redact(url), "error", err)
		}
		return nil, false
	}
	return resp.Body, true
}

// listing checks the configured symbols against the active listings, then waits ListingPause.
func (r *Runner) listing(ctx context.Context, log *slog.Logger, symbols []string) error {
	if body, ok := r.aux(ctx, log, r.Table.Endpoint.ListingStatusURL(), "listing_status", ""); ok {
		listings, err := alphavantage.ParseListing(bytes.NewReader(body))
		if err != nil {
			log.Warn("listing status unreadable", "error", err)
		} else {
			log.Info("listing status", "active", len(listings))
			if missing := alphavantage.Unlisted(symbols, listings); len(missing) > 0 {
				log.Warn("symbols not listed as active", "symbols", missing)
			}
		}
	}
	return r.pause(ctx, log, r.set.ListingPause, "after listing")
}

func (r *Runner) quote(ctx context.Context, log *slog.Logger, sym string) {
	body, ok := r.aux(ctx, log, r.Table.Endpoint.GlobalQuoteURL(sym), "global_quote", sym)
	if !ok {
		return
	}
	q, found, err := alphavantage.DecodeQuote(body)
	switch {
	case err != nil:
		log.Warn("quote decode failed", "symbol", sym, "error", err)
	case !found:
		log.Warn("no quote", "symbol", sym, "notice", alphavantage.Notice(body))
	default:
		log.Info("quote",
			"symbol", q.Symbol,
			"price", q.Price,
			"open", q.Open,
			"high", q.High,
			"low", q.Low,
			"volume", q.Volume,
			"change_percent", q.ChangePercent,
			"latest_trading_day", q.LatestTradingDay,
		)
	}
}

func (r *Runner) daily(ctx context.Context, log *slog.Logger, sym string) {
	body, ok := r.aux(ctx, log, r.Table.Endpoint.DailyURL(sym), "daily", sym)
	if !ok {
		return
	}
	s, found, err := alphavantage.Latest(body)
	switch {
	case err != nil:
		log.Warn("daily decode failed", "symbol", sym, "error", err)
	case !found:
		log.Warn("no daily series", "symbol", sym, "notice", alphavantage.Notice(body))
	default:
		log.Info("latest daily", "symbol", sym, "date", s.Date, "open", s.Open, "high", s.High, "low", s.Low, "close", s.Close)
	}
}

func (r *Runner) pause(ctx context.Context, log *slog.Logger, d time.Duration, reason string) error {
	if d <= 0 {
		return ctx.Err()
	}
	log.Debug("pause", "reason", reason, "wait", d)
	return r.Clock.Sleep(ctx, d)
}

// finish writes the URL logs, imports intraday exports and writes, verifies and exports the
// combined store.
func (r *Runner) finish(log *slog.Logger, symbols []string, prog *progress, sum *Summary) error {
	if err := r.writeURLLog(r.set.SymbolsURLs, symbols); err != nil {
		log.Warn("could not write url log", "path", r.set.SymbolsURLs, "error", err)
	}
	if err := r.writeURLLog(r.set.StocksURLs, prog.producing()); err != nil {
		log.Warn("could not write url log", "path", r.set.StocksURLs, "error", err)
	}
	if r.set.IntradayDir != "" {
		n, err := r.Store.ImportIntraday(log, r.set.IntradayDir, symbols, r.set.IntradayDate)
		if err != nil {
			log.Warn("intraday import failed", "dir", r.set.IntradayDir, "error", err)
		}
		sum.Imported = n
	}
	sum.Rows = r.Store.Rows()

	if r.set.CombinedFile != "" {
		if err := mkdirFor(r.set.CombinedFile); err != nil {
			return fmt.Errorf("write combined file: %w", err)
		}
		if err := r.Store.WriteFile(r.set.CombinedFile); err != nil {
			return fmt.Errorf("write combined file: %w", err)
		}
		log.Info("combined file written", "path", r.set.CombinedFile, "rows", sum.Rows, "timestamps", r.Store.Len())
		sum.Verified = r.verify(log)
	}
	if r.set.ParquetFile != "" {
		if err := r.Store.ExportParquet(r.set.ParquetFile); err != nil {
			log.Warn("parquet export failed", "path", r.set.ParquetFile, "error", err)
		} else {
			log.Info("parquet exported", "path", r.set.ParquetFile, "rows", sum.Rows)
		}
	}
	return nil
}

// verify reloads the combined file into a fresh store and compares it with the live one.
func (r *Runner) verify(log *slog.Logger) bool {
	back := store.New()
	_, skipped, err := back.ReloadFile(r.set.CombinedFile)
	if err != nil {
		log.Warn("combined file reload failed", "path", r.set.CombinedFile, "error", err)
		return false
	}
	if !back.Equal(r.Store) {
		log.Warn("combined file round trip mismatch", "path", r.set.CombinedFile, "reloaded", back.Rows(), "want", r.Store.Rows(), "skipped", skipped)
		return false
	}
	log.Info("combined file verified", "path", r.set.CombinedFile, "rows", back.Rows())
	return true
}

func (r *Runner) writeURLLog(path string, symbols []string) (err error) {
	if path == "" {
		return nil
	}
	if err := mkdirFor(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return r.Table.Endpoint.WriteURLLog(f, symbols)
}

func (r *Runner) logSummary(log *slog.Logger, prog *progress) {
	w, f, rows := prog.snapshot()
	log.Info("summary", "total_rows", rows, "written", w, "failed", f)
	for _, s := range prog.perSymbol() {
		log.Info("summary symbol", "symbol", s.Symbol, "rows", s.Rows)
	}
	if f > 0 {
		log.Info("summary failed", "count", f, "reasons", joinFailedReasons(prog.all()))
	}
}

func (r *Runner) date(d calendar.DayRange) string {
	return d.StartTime(r.set.Location).Format(time.DateOnly)
}

func mkdirFor(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
