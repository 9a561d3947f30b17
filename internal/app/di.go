package app

import (
	"log/slog"

	"tickertape/internal/crawl"
	"tickertape/internal/fetch"
	"tickertape/internal/provider/alphavantage"
	"tickertape/internal/provider/yahoo"
	"tickertape/internal/saver"
	"tickertape/internal/slogx"
	"tickertape/internal/store"
)

// ConfigPath is the optional YAML config file given on the command line.
type ConfigPath string

// ProvideConfig loads config from the file, .env and environment (for Wire).
func ProvideConfig(path ConfigPath) (*Config, error) {
	return LoadConfig(string(path))
}

// ProvideLogger builds the run logger and installs it as the slog default (for Wire).
// The cleanup closes the log file.
func ProvideLogger(cfg *Config) (*slog.Logger, func(), error) {
	l, closer, err := slogx.New(slogx.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Output:     cfg.LogFile,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(l)
	return l, func() { _ = closer.Close() }, nil
}

// ProvideClock returns the wall clock (for Wire).
func ProvideClock() fetch.Clock {
	return fetch.SystemClock{}
}

// ProvideFetcher creates the shared retrying fetcher (for Wire).
func ProvideFetcher(cfg *Config, clock fetch.Clock, logger *slog.Logger) *fetch.Fetcher {
	return fetch.NewFetcher(
		fetch.WithMaxRetries(cfg.MaxRetries),
		fetch.WithClock(clock),
		fetch.WithLogger(logger),
		fetch.WithTimeout(cfg.RequestTimeout),
	)
}

// ProvideYahoo creates the chart provider (for Wire).
func ProvideYahoo(cfg *Config) *yahoo.Provider {
	e := yahoo.DefaultEndpoint()
	e.BaseURL = cfg.YahooBaseURL
	return yahoo.NewProvider(e)
}

// ProvideAlphaVantage creates the table provider (for Wire).
func ProvideAlphaVantage(cfg *Config) *alphavantage.Provider {
	e := alphavantage.DefaultEndpoint(cfg.AlphaVantageAPIKey)
	e.BaseURL = cfg.AlphaVantageBaseURL
	return alphavantage.NewProvider(e)
}

// ProvideStore creates the empty aggregation store (for Wire).
func ProvideStore() *store.Store {
	return store.New()
}

// ProvideRunner wires pacers, output routers and run settings into a crawl.Runner (for Wire).
func ProvideRunner(
	cfg *Config,
	getter crawl.Getter,
	clock fetch.Clock,
	logger *slog.Logger,
	chart *yahoo.Provider,
	table *alphavantage.Provider,
	st *store.Store,
) (*crawl.Runner, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	chartOut, err := saver.NewRouter(cfg.ProviderDir(chart.GetName()), policy)
	if err != nil {
		return nil, err
	}
	tableOut, err := saver.NewRouter(cfg.ProviderDir(table.GetName()), policy)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.RunSettings()
	if err != nil {
		return nil, err
	}
	logger.Info("wire",
		"chart", chart.GetName(),
		"table", table.GetName(),
		"policy", policy.String(),
		"dir", cfg.DataDir,
		"pattern", "{provider}/{SYMBOL}_{partition}.csv",
	)
	return crawl.NewRunner(settings, crawl.Deps{
		Getter:     getter,
		Clock:      clock,
		Logger:     logger,
		Chart:      chart,
		Table:      table,
		ChartPacer: fetch.NewPacer(chart.GetName(), cfg.ChartPace, clock),
		TablePacer: fetch.NewPacer(table.GetName(), cfg.TablePace, clock),
		ChartOut:   chartOut,
		TableOut:   tableOut,
		Store:      st,
	})
}
