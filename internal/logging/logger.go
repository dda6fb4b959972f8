// Package logging builds the slog logger used by every component.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/ppiankov/etymologia/internal/model"
)

// New creates a *slog.Logger writing to stderr and sets it as the default.
//
// Format "json" produces structured JSON output, "text" human-readable
// key=value lines with source info. "auto" picks text for a terminal and
// JSON otherwise. Level is one of debug, info, warn, error; defaults to info.
func New(cfg model.LogConfig) *slog.Logger {
	logger := NewWithWriter(cfg, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(cfg model.LogConfig, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Level)
	format := resolveFormat(cfg.Format, w)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: format == "text" && level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// WithRun tags a logger with a fresh run id so that the lines of one
// enrichment run can be grouped
func WithRun(logger *slog.Logger) (*slog.Logger, string) {
	id := uuid.NewString()
	return logger.With(slog.String("run_id", id)), id
}

func resolveFormat(format string, w io.Writer) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "json", "text":
		return f
	default:
		if isTerminal(w) {
			return "text"
		}
		return "json"
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
