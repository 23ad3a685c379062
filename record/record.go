// Package record defines the immutable value produced by every log call:
// Record, plus its Exception and Location components.
package record

import (
	"time"

	"github.com/vidinsight-labs/microlog/tracectx"
)

// Location pinpoints where a Record was produced.
type Location struct {
	File string
	Line int
	Func string
}

// Exception captures an error's type, message, and formatted stack, the
// way it would be rendered by a handler that wants to print a traceback
// without re-walking the error chain itself.
type Exception struct {
	Type    string
	Message string
	Stack   string
}

// Record is one immutable log event. It is constructed once by the facade
// and never mutated afterward — filters that need to change a field (such
// as redaction) return a modified copy.
type Record struct {
	// CreatedAt carries a monotonic reading, suitable for measuring
	// elapsed time between records; it is not meant for display.
	CreatedAt time.Time
	// WallTime is the UTC wall-clock timestamp serializers render.
	WallTime time.Time

	Severity Severity
	Logger   string
	Message  string

	Source *Location
	Err    *Exception

	// Fields holds caller-supplied structured data. Reserved keys
	// (timestamp, level, logger, message, trace_id, span_id,
	// parent_span_id, correlation_id, session_id, exception) are dropped
	// at construction time rather than silently overwriting the
	// corresponding built-in field; see New.
	Fields map[string]any

	Trace *tracectx.Context
}

// reserved lists the field names a Record's own built-in attributes own;
// caller-supplied fields under these keys are discarded rather than
// allowed to shadow the record's structural data on serialization.
var reserved = map[string]struct{}{
	"timestamp":      {},
	"level":          {},
	"logger":         {},
	"message":        {},
	"trace_id":       {},
	"span_id":        {},
	"parent_span_id": {},
	"correlation_id": {},
	"session_id":     {},
	"exception":      {},
}

// New builds a Record, stamping both timestamps at call time and
// stripping any caller field that collides with a reserved name.
func New(severity Severity, logger, message string, fields map[string]any) Record {
	r := Record{
		CreatedAt: time.Now(),
		WallTime:  time.Now().UTC(),
		Severity:  severity,
		Logger:    logger,
		Message:   message,
	}
	if len(fields) > 0 {
		clean := make(map[string]any, len(fields))
		for k, v := range fields {
			if _, bad := reserved[k]; bad {
				continue
			}
			clean[k] = v
		}
		if len(clean) > 0 {
			r.Fields = clean
		}
	}
	return r
}

// WithFields returns a copy of r with extra merged over its existing
// fields (extra wins on key collision), still honoring the reserved-key
// strip.
func (r Record) WithFields(extra map[string]any) Record {
	merged := make(map[string]any, len(r.Fields)+len(extra))
	for k, v := range r.Fields {
		merged[k] = v
	}
	for k, v := range extra {
		if _, bad := reserved[k]; bad {
			continue
		}
		merged[k] = v
	}
	if len(merged) == 0 {
		merged = nil
	}
	r.Fields = merged
	return r
}
