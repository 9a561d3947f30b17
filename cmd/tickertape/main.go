package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	_ "time/tzdata"

	"tickertape/internal/app"
	"tickertape/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	a, cleanup, err := InitializeApp(app.ConfigPath(*configPath))
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	cfg := a.Config
	slog.Info("config",
		"data_dir", cfg.DataDir,
		"symbols", cfg.SymbolsFile,
		"from", cfg.StartDate,
		"to", cfg.EndDate,
		"policy", cfg.SavePolicy,
		"clean", cfg.Clean,
	)
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		slog.Error("failed to create data dir", "error", err)
		cleanup()
		os.Exit(1)
	}

	if err := app.RunFlow(context.Background(), cfg, a.Runner, a.Store); err != nil {
		slog.Error("run failed", "error", err)
		cleanup()
		os.Exit(1)
	}
	cleanup()
}
