package microlog

import (
	"github.com/vidinsight-labs/microlog/record"
	"github.com/vidinsight-labs/microlog/tracectx"
)

// BoundLogger emits records stamped with a fixed trace context, rather
// than consulting the ambient one — useful for a request handler that
// already holds its context.Context-derived tracectx.Context explicitly.
type BoundLogger struct {
	l     *Logger
	trace tracectx.Context
}

func (b *BoundLogger) Debug(msg string, fields map[string]any) {
	b.l.emit(record.Debug, &b.trace, msg, fields)
}

func (b *BoundLogger) Info(msg string, fields map[string]any) {
	b.l.emit(record.Info, &b.trace, msg, fields)
}

func (b *BoundLogger) Warning(msg string, fields map[string]any) {
	b.l.emit(record.Warning, &b.trace, msg, fields)
}

func (b *BoundLogger) Error(msg string, fields map[string]any) {
	b.l.emit(record.Error, &b.trace, msg, fields)
}

func (b *BoundLogger) Critical(msg string, fields map[string]any) {
	b.l.emit(record.Critical, &b.trace, msg, fields)
}

// Child derives a new BoundLogger for a child span of the same trace.
func (b *BoundLogger) Child() *BoundLogger {
	return &BoundLogger{l: b.l, trace: b.trace.ChildSpan()}
}
