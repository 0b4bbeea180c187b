// Package logger provides structured logging for globwatch.
//
// Three formats are available: "text" and "json" are the slog built-ins,
// "console" renders short human-readable lines of the form
//
//	[globwatch] 1 file changed (src/main.go)
//
// coloured when the destination is a terminal.
//
// Example usage:
//
//	log := logger.New(logger.Config{
//	    Level:  "info",
//	    Output: "stderr",
//	    Format: "console",
//	})
//	log.Info("1 file added", "file", "a.txt")
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging surface used across globwatch. Arguments after
// the message are alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}

// Config selects the level, destination and rendering of a logger.
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Output string `yaml:"output"` // stdout, stderr, or a file path
	Format string `yaml:"format"` // text, json, console

	// Color is the console colour mode: auto (terminals only), always, never.
	Color string `yaml:"color,omitempty"`

	// Name is the console line prefix; globwatch when empty.
	Name string `yaml:"name,omitempty"`
}

// slogLogger adapts *slog.Logger to Logger. The level methods are
// promoted from the embedded logger.
type slogLogger struct {
	*slog.Logger
}

func (l slogLogger) With(args ...any) Logger {
	return slogLogger{l.Logger.With(args...)}
}

// New builds a logger from cfg. An output file that cannot be opened
// falls back to stderr.
func New(cfg Config) Logger {
	w, err := openOutput(cfg.Output)
	if err != nil {
		w = os.Stderr
	}
	return NewWithWriter(w, cfg)
}

// NewWithWriter builds a logger writing to w; cfg.Output is ignored.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	level := levelOf(cfg.Level)

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "console":
		h = newConsoleHandler(w, cfg, level)
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slogLogger{slog.New(h)}
}

// Default is a console logger at info level on stderr.
func Default() Logger {
	return New(Config{Level: "info", Output: "stderr", Format: "console"})
}

// Noop discards everything.
func Noop() Logger {
	return slogLogger{slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 1,
	}))}
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// levelOf maps a level name to slog; unknown names mean info.
func levelOf(name string) slog.Level {
	if l, ok := levels[strings.ToLower(name)]; ok {
		return l
	}
	return slog.LevelInfo
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	// #nosec G304: output path comes from trusted config
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return f, nil
}
