package slogx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level  string // debug|info|warn|error
	Format string // text|json
	// Output is "stderr", "stdout" or a file path. Files are rotated by size and kept MaxAgeDays.
	Output     string
	MaxAgeDays int
	MaxSizeMB  int
}

// ParseLevel converts string (debug|info|warn|error) to slog.Level. Unknown → info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewDefault creates a text logger writing to stderr with the given level string.
func NewDefault(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// New builds a logger from opts. The returned closer releases the log file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	w, closer, err := openOutput(opts)
	if err != nil {
		return nil, nil, err
	}
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, ho)
	case "json":
		h = slog.NewJSONHandler(w, ho)
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("invalid log format %q", opts.Format)
	}
	return slog.New(h), closer, nil
}

func openOutput(opts Options) (io.Writer, io.Closer, error) {
	switch opts.Output {
	case "", "stderr":
		return os.Stderr, nopCloser{}, nil
	case "stdout":
		return os.Stdout, nopCloser{}, nil
	}
	size := opts.MaxSizeMB
	if size <= 0 {
		size = 100
	}
	lj := &lumberjack.Logger{
		Filename: opts.Output,
		MaxAge:   opts.MaxAgeDays,
		MaxSize:  size,
		Compress: true,
	}
	return lj, lj, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
