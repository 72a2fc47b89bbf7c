// Package logger builds the structured logger of the bimp command.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/etnz/beanimport"
	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// New creates a console logger on stderr, stdout is reserved for the
// command's output. Verbose loggers also log debug events.
func New(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return NewWithWriter(output, verbose)
}

// NewWithWriter creates a new structured logger with a custom writer
func NewWithWriter(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New(false)
}

// Diagnostics logs every diagnostic as a structured event: warnings at warn
// level, the others at debug level.
func Diagnostics(log zerolog.Logger, diags *beanimport.Diagnostics) {
	for d := range diags.All() {
		event := log.Debug()
		if d.Kind.Warning() {
			event = log.Warn()
		}
		event.
			Str("kind", string(d.Kind)).
			Str("date", d.Date.String()).
			Str("security", d.Security).
			Str("trans_id", d.TransID).
			Msg(d.Message)
	}
}
