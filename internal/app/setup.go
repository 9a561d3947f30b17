package app

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

// CleanOutputs deletes the URL logs, the combined file and the parquet export from a previous run.
// The seed file is never removed even when it shares a path with the combined file.
func CleanOutputs(cfg *Config) error {
	seed := cfg.Path(cfg.SeedFile)
	for _, p := range []string{
		cfg.Path(cfg.SymbolsURLs),
		cfg.Path(cfg.StocksURLs),
		cfg.Path(cfg.CombinedFile),
		cfg.Path(cfg.ParquetFile),
	} {
		if p == "" || p == seed {
			continue
		}
		err := os.Remove(p)
		switch {
		case err == nil:
			slog.Info("clean removed", "path", p)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return err
		}
	}
	return nil
}
