//go:build wireinject
// +build wireinject

package main

import (
	"tickertape/internal/app"
	"tickertape/internal/crawl"
	"tickertape/internal/fetch"
	"tickertape/internal/store"

	"github.com/google/wire"
)

// App holds application dependencies built by Wire.
type App struct {
	Config *app.Config
	Runner *crawl.Runner
	Store  *store.Store
}

// InitializeApp builds App (Config, Runner and its Store) via Wire.
// Caller must call cleanup when done to close the log file.
func InitializeApp(path app.ConfigPath) (*App, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideClock,
		app.ProvideFetcher,
		wire.Bind(new(crawl.Getter), new(*fetch.Fetcher)),
		app.ProvideYahoo,
		app.ProvideAlphaVantage,
		app.ProvideStore,
		app.ProvideRunner,
		wire.Struct(new(App), "Config", "Runner", "Store"),
	)
	return nil, nil, nil
}
