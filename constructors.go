package microlog

import (
	"context"
	"runtime"

	"github.com/vidinsight-labs/microlog/record"
	"github.com/vidinsight-labs/microlog/serialize"
	"github.com/vidinsight-labs/microlog/sink"
)

// ConsoleConfig configures NewConsole.
type ConsoleConfig struct {
	Threshold     record.Severity
	UseColors     bool
	Compact       bool
	Capacity      int
	IncludeSource bool
}

// NewConsole builds a Logger with a single Console sink, registers it
// under name, and returns both the logger and the attached sink (for
// callers that want to Flush or inspect Stats directly without going
// through Logger.Flush/Shutdown).
func NewConsole(name string, cfg ConsoleConfig) (*Logger, sink.Sink) {
	l := New(name)
	l.SetThreshold(cfg.Threshold)

	c := sink.NewConsole(sink.ConsoleOptions{Capacity: cfg.Capacity, IncludeSource: cfg.IncludeSource})
	switch {
	case cfg.Compact:
		c.SetSerializer(serialize.Compact{Service: name})
	default:
		c.SetSerializer(serialize.Pretty{Service: name, UseColors: cfg.UseColors})
	}
	l.Attach(c)

	Register(name, l)
	armFinalizer(l)
	return l, c
}

// FileConfig configures NewFile.
type FileConfig struct {
	Threshold     record.Severity
	Path          string
	MaxBytes      int64
	MaxBackups    int
	Compress      bool
	Compact       bool
	Capacity      int
	IncludeSource bool
}

// NewFile builds a Logger with a single RotatingFile sink writing JSON
// (or Compact, if cfg.Compact), registers it under name, and returns both
// the logger and the attached sink.
func NewFile(name string, cfg FileConfig) (*Logger, sink.Sink, error) {
	l := New(name)
	l.SetThreshold(cfg.Threshold)

	f, err := sink.NewRotatingFile(sink.RotatingFileOptions{
		Path:          cfg.Path,
		MaxBytes:      cfg.MaxBytes,
		MaxBackups:    cfg.MaxBackups,
		Compress:      cfg.Compress,
		Capacity:      cfg.Capacity,
		IncludeSource: cfg.IncludeSource,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.Compact {
		f.SetSerializer(serialize.Compact{Service: name})
	} else {
		f.SetSerializer(serialize.JSON{Service: name})
	}
	l.Attach(f)

	Register(name, l)
	armFinalizer(l)
	return l, f, nil
}

// DualConfig configures NewDual.
type DualConfig struct {
	Threshold record.Severity
	Console   ConsoleConfig
	File      FileConfig
}

// NewDual builds a Logger with both a Console and a RotatingFile sink
// attached, registers it under name, and returns the logger plus both
// sinks (console, file) for deterministic shutdown.
func NewDual(name string, cfg DualConfig) (*Logger, sink.Sink, sink.Sink, error) {
	l := New(name)
	l.SetThreshold(cfg.Threshold)

	c := sink.NewConsole(sink.ConsoleOptions{Capacity: cfg.Console.Capacity, IncludeSource: cfg.Console.IncludeSource})
	if cfg.Console.Compact {
		c.SetSerializer(serialize.Compact{Service: name})
	} else {
		c.SetSerializer(serialize.Pretty{Service: name, UseColors: cfg.Console.UseColors})
	}
	l.Attach(c)

	f, err := sink.NewRotatingFile(sink.RotatingFileOptions{
		Path:          cfg.File.Path,
		MaxBytes:      cfg.File.MaxBytes,
		MaxBackups:    cfg.File.MaxBackups,
		Compress:      cfg.File.Compress,
		Capacity:      cfg.File.Capacity,
		IncludeSource: cfg.File.IncludeSource,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.File.Compact {
		f.SetSerializer(serialize.Compact{Service: name})
	} else {
		f.SetSerializer(serialize.JSON{Service: name})
	}
	l.Attach(f)

	Register(name, l)
	armFinalizer(l)
	return l, c, f, nil
}

// armFinalizer installs a best-effort backstop that shuts down a logger's
// sinks if it is garbage-collected without an explicit Shutdown call —
// the closest Go analog to the source library's weakref-guarded process-
// exit hook. It is not a substitute for calling Shutdown: a finalizer
// only runs when the GC notices the Logger is unreachable, which may be
// long after the goroutine that owned it has stopped, or not at all
// before process exit.
func armFinalizer(l *Logger) {
	runtime.SetFinalizer(l, func(l *Logger) {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		l.Shutdown(ctx)
	})
}
