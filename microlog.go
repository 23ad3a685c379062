// Package microlog is the facade: named loggers, a severity threshold and
// filter chain per logger, fan-out to attached sinks, and the convenience
// constructors most callers reach for first.
package microlog

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/vidinsight-labs/microlog/filter"
	"github.com/vidinsight-labs/microlog/record"
	"github.com/vidinsight-labs/microlog/sink"
	"github.com/vidinsight-labs/microlog/tracectx"
)

// Logger is one named, independently configured logging channel. Create
// one with New, or retrieve a process-wide shared instance with Get.
type Logger struct {
	name string

	mu          sync.RWMutex
	threshold   record.Severity
	sinks       []sink.Sink
	filters     filter.Chain
	injectTrace bool
}

// New constructs a standalone Logger with no sinks attached; callers using
// New directly are responsible for calling Attach and, eventually,
// Shutdown. Most callers want one of the Console/File/Dual constructors,
// or the process-wide Get.
func New(name string) *Logger {
	return &Logger{
		name:        name,
		threshold:   record.Debug,
		injectTrace: true,
	}
}

// Attach adds a sink this logger fans records out to.
func (l *Logger) Attach(s sink.Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// SetThreshold sets the minimum severity this logger admits; records
// below it are dropped before the filter chain even runs.
func (l *Logger) SetThreshold(s record.Severity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.threshold = s
}

// SetFilters replaces this logger's filter chain, applied in order after
// the threshold check and before fan-out.
func (l *Logger) SetFilters(chain filter.Chain) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filters = chain
}

// SetTraceInjection toggles whether emit() attaches the ambient trace
// context (Enter/Current) to records that don't already carry one of their
// own. Enabled by default.
func (l *Logger) SetTraceInjection(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.injectTrace = enabled
}

// Name returns this logger's dotted name.
func (l *Logger) Name() string { return l.name }

func (l *Logger) snapshot() (record.Severity, filter.Chain, []sink.Sink, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	sinks := make([]sink.Sink, len(l.sinks))
	copy(sinks, l.sinks)
	return l.threshold, l.filters, sinks, l.injectTrace
}

// emit runs the six-step pipeline described in the spec: threshold check,
// trace injection, filter chain, fan-out, never propagating a failure back
// to the caller.
func (l *Logger) emit(severity record.Severity, trace *tracectx.Context, message string, fields map[string]any) {
	threshold, chain, sinks, injectTrace := l.snapshot()

	if severity < threshold {
		return
	}
	if len(sinks) == 0 {
		return
	}

	r := record.New(severity, l.name, message, fields)

	if trace != nil {
		r.Trace = trace
	} else if injectTrace {
		if c, ok := tracectx.Current(); ok {
			r.Trace = &c
		}
	}

	if needsSource(sinks) {
		r.Source = captureSource()
	}

	if chain != nil {
		var ok bool
		r, ok = chain.Apply(r)
		if !ok {
			return
		}
	}

	for _, s := range sinks {
		s.Submit(r)
	}
}

func (l *Logger) Debug(msg string, fields map[string]any)    { l.emit(record.Debug, nil, msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)     { l.emit(record.Info, nil, msg, fields) }
func (l *Logger) Warning(msg string, fields map[string]any)  { l.emit(record.Warning, nil, msg, fields) }
func (l *Logger) Error(msg string, fields map[string]any)    { l.emit(record.Error, nil, msg, fields) }
func (l *Logger) Critical(msg string, fields map[string]any) { l.emit(record.Critical, nil, msg, fields) }

// WithTrace returns a bound emitter that always stamps records with the
// given trace context, bypassing ambient lookup — the way a request
// handler holding an explicit tracectx.Context from WithContext would log.
func (l *Logger) WithTrace(tc tracectx.Context) *BoundLogger {
	return &BoundLogger{l: l, trace: tc}
}

// ErrorException logs at Error severity with an attached Exception built
// from err, capturing the calling goroutine's current stack as the
// traceback.
func (l *Logger) ErrorException(msg string, err error, fields map[string]any) {
	l.emitException(record.Error, err, msg, fields)
}

func (l *Logger) emitException(severity record.Severity, err error, message string, fields map[string]any) {
	threshold, chain, sinks, injectTrace := l.snapshot()
	if severity < threshold || len(sinks) == 0 {
		return
	}

	r := record.New(severity, l.name, message, fields)
	if injectTrace {
		if c, ok := tracectx.Current(); ok {
			r.Trace = &c
		}
	}
	if needsSource(sinks) {
		r.Source = captureSource()
	}
	if err != nil {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		r.Err = &record.Exception{
			Type:    errorTypeName(err),
			Message: err.Error(),
			Stack:   string(buf[:n]),
		}
	}

	if chain != nil {
		var ok bool
		r, ok = chain.Apply(r)
		if !ok {
			return
		}
	}
	for _, s := range sinks {
		s.Submit(r)
	}
}

// needsSource reports whether any attached sink opted into source-location
// capture via sink.SourceRequirer, so emit/emitException only pay
// runtime.Caller's cost when a sink actually uses the result (spec §4.6
// step 2).
func needsSource(sinks []sink.Sink) bool {
	for _, s := range sinks {
		if sr, ok := s.(sink.SourceRequirer); ok && sr.RequiresSource() {
			return true
		}
	}
	return false
}

// captureSource identifies the call site that produced a record. It must be
// called at a fixed depth below the exported logging method: Logger.Debug,
// BoundLogger.Debug, and ErrorException all call emit/emitException
// directly, so skip=3 (captureSource -> emit -> Debug -> caller) lands on
// the caller in every one of those paths.
func captureSource() *record.Location {
	pc, file, line, ok := runtime.Caller(3)
	if !ok {
		return nil
	}
	loc := &record.Location{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		loc.Func = fn.Name()
	}
	return loc
}

func errorTypeName(err error) string {
	t := typeOf(err)
	if t == "" {
		return "error"
	}
	return t
}

// Flush flushes every attached sink.
func (l *Logger) Flush(ctx context.Context) {
	_, _, sinks, _ := l.snapshot()
	for _, s := range sinks {
		s.Flush(ctx)
	}
}

// Shutdown closes every attached sink, waiting up to the context deadline
// for each one's backlog to drain. It is safe to call more than once.
func (l *Logger) Shutdown(ctx context.Context) {
	_, _, sinks, _ := l.snapshot()
	for _, s := range sinks {
		s.Close(ctx)
	}
}

// DefaultShutdownTimeout bounds how long Shutdown waits for a sink's
// backlog to drain when the caller has not supplied its own deadline.
const DefaultShutdownTimeout = 5 * time.Second
