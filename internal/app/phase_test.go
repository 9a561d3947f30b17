package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickertape/internal/crawl"
	"tickertape/internal/store"
)

func wireRunner(t *testing.T, cfg *Config) (*crawl.Runner, *store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := ProvideClock()
	st := ProvideStore()
	r, err := ProvideRunner(cfg, ProvideFetcher(cfg, clock, logger), clock, logger, ProvideYahoo(cfg), ProvideAlphaVantage(cfg), st)
	require.NoError(t, err)
	return r, st
}

func TestRunFlowFailsOnMissingSymbols(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	r, st := wireRunner(t, cfg)

	err := RunFlow(context.Background(), cfg, r, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Symbols.csv")
}

func TestRunFlowFailsOnUnreadableSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.SeedFile = "seed.csv"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "Symbols.csv"), []byte("IBM\n"), 0644))
	r, st := wireRunner(t, cfg)

	err := RunFlow(context.Background(), cfg, r, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed file")
	assert.Zero(t, st.Rows())
}

func TestProvideRunnerRejectsBadPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SavePolicy = "never"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := ProvideClock()
	_, err := ProvideRunner(cfg, ProvideFetcher(cfg, clock, logger), clock, logger, ProvideYahoo(cfg), ProvideAlphaVantage(cfg), ProvideStore())
	assert.Error(t, err)
}

func TestProvideLoggerInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := DefaultConfig()
	cfg.LogFormat = "json"
	cfg.LogFile = filepath.Join(t.TempDir(), "tickertape.log")
	l, cleanup, err := ProvideLogger(cfg)
	require.NoError(t, err)
	l.Info("hello")
	cleanup()

	assert.Same(t, l, slog.Default())
	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
