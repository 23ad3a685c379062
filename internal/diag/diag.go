// Package diag is the library's own internal diagnostic channel — the
// "who logs the logger" concern. It never touches a caller's Logger or
// sinks; it exists so a sink or filter that hits an operational problem
// (a failed rotation, a misconfigured limiter) can report it somewhere
// other than silently incrementing a counter nobody reads.
package diag

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// SetLogger replaces the package-wide diagnostic logger, for embedders
// that want these messages routed into their own slog handler.
func SetLogger(l *slog.Logger) { logger = l }

// Warn reports a degraded-but-recovered condition: a dropped record, a
// stranded rotation generation, a disabled filter.
func Warn(msg string, args ...any) { logger.Warn(msg, args...) }

// Error reports an operation that failed outright (file open, gzip
// archival) and could not be retried in place.
func Error(msg string, args ...any) { logger.Error(msg, args...) }
