package microlog

import (
	"context"
	"sync"
)

var (
	registryMu sync.Mutex
	registry   = map[string]*Logger{}
)

// Get returns the process-wide Logger registered under name, creating and
// memoizing a console-only default (see NewConsoleLogger) the first time
// name is requested — mirroring the source library's get_logger, which
// lazily attaches a default console handler the first time a name is
// looked up.
func Get(name string) *Logger {
	registryMu.Lock()
	defer registryMu.Unlock()

	if l, ok := registry[name]; ok {
		return l
	}
	l, _ := NewConsole(name, ConsoleConfig{UseColors: true})
	registry[name] = l
	return l
}

// Register installs l under name in the process-wide registry, replacing
// any existing entry. Most callers should prefer the Console/File/Dual
// constructors, which register automatically; Register exists for tests
// and for callers assembling a Logger by hand with New.
func Register(name string, l *Logger) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = l
}

// ShutdownAll closes every sink of every registered logger. It is the
// library's counterpart to the source implementation's process-exit
// cleanup: call it from a deferred main(), or from a signal handler,
// before the process exits. A nil ctx uses DefaultShutdownTimeout.
func ShutdownAll(ctx context.Context) {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	registryMu.Lock()
	loggers := make([]*Logger, 0, len(registry))
	for _, l := range registry {
		loggers = append(loggers, l)
	}
	registryMu.Unlock()

	for _, l := range loggers {
		l.Shutdown(ctx)
	}
}
