package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"tickertape/internal/crawl"
	"tickertape/internal/store"
	"tickertape/internal/symbols"
)

// RunFlow runs one ingestion: clean, load symbols and the optional seed file, then crawl.
// SIGINT or SIGTERM stops the run between units. An unreadable symbol list or seed file is fatal.
func RunFlow(ctx context.Context, cfg *Config, runner *crawl.Runner, st *store.Store) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Clean {
		if err := CleanOutputs(cfg); err != nil {
			return fmt.Errorf("clean outputs: %w", err)
		}
	}

	syms, err := symbols.Load(cfg.Path(cfg.SymbolsFile))
	if err != nil {
		return err
	}
	if len(syms) == 0 {
		slog.Warn("symbol list is empty", "path", cfg.Path(cfg.SymbolsFile))
	}

	if cfg.SeedFile != "" {
		path := cfg.Path(cfg.SeedFile)
		n, skipped, err := st.ReloadFile(path)
		if err != nil {
			return fmt.Errorf("load seed file: %w", err)
		}
		slog.Info("seed file loaded", "path", path, "rows", n, "skipped", skipped)
	}

	sum, err := runner.Run(ctx, syms)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("received signal, stopped", "run_id", sum.RunID, "written", sum.Written, "failed", sum.Failed)
		}
		return err
	}
	if sum.Failed > 0 {
		slog.Warn("run finished with failures", "run_id", sum.RunID, "failed", sum.Failed, "report", cfg.Path(".lastrun.failed.json"))
	}
	return nil
}
