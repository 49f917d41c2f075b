// Package logging wires log/slog to a charmbracelet/log handler and
// carries loggers through contexts.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	charm "github.com/charmbracelet/log"
)

type loggerKey struct{}

// Setup installs the process wide default logger writing to w.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := charm.InfoLevel
	if verbose {
		level = charm.DebugLevel
	}
	handler := charm.NewWithOptions(w, charm.Options{
		Level:           level,
		ReportTimestamp: verbose,
		Prefix:          "toolsmith",
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// GetLogger returns the logger stored in ctx, or the default one.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
