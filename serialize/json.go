package serialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/vidinsight-labs/microlog/record"
)

// JSON renders a record as a single-line JSON object: timestamp, level,
// logger, message, trace identifiers, promoted fields, and an exception
// object, in that key order. It is the serializer aimed at machine
// consumers (Elasticsearch, Loki, and similar log aggregators).
type JSON struct {
	// Service overrides the "logger" value written for every record, the
	// way a process-wide service name would. Empty uses the record's own
	// Logger field.
	Service string
	// TimestampUnix switches the timestamp from RFC3339 with microsecond
	// precision to a Unix float-seconds value.
	TimestampUnix bool
}

func (j JSON) Serialize(r record.Record) []byte {
	out := make(map[string]any, 8+len(r.Fields))

	out["timestamp"] = j.timestamp(r.WallTime)
	out["level"] = r.Severity.String()
	if j.Service != "" {
		out["service"] = j.Service
	} else {
		out["service"] = r.Logger
	}
	out["message"] = r.Message

	if r.Source != nil {
		out["source"] = map[string]any{
			"file": r.Source.File,
			"line": r.Source.Line,
			"func": r.Source.Func,
		}
	}

	if r.Trace != nil {
		out["trace_id"] = r.Trace.TraceID
		out["span_id"] = r.Trace.SpanID
		if r.Trace.ParentSpanID != "" {
			out["parent_span_id"] = r.Trace.ParentSpanID
		}
		if r.Trace.CorrelationID != "" {
			out["correlation_id"] = r.Trace.CorrelationID
		}
		if r.Trace.SessionID != "" {
			out["session_id"] = r.Trace.SessionID
		}
	}

	for k, v := range r.Fields {
		out[k] = sanitize(v)
	}

	if r.Err != nil {
		out["exception"] = map[string]any{
			"type":      r.Err.Type,
			"message":   r.Err.Message,
			"traceback": r.Err.Stack,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		// Every value has already passed through sanitize, which only
		// emits JSON-safe types; this branch exists as a last resort so
		// a serializer never panics or blocks the emit path.
		return []byte(fmt.Sprintf(`{"level":"ERROR","message":"microlog: serialize failure: %s"}`+"\n", err))
	}
	return buf.Bytes()
}

func (j JSON) timestamp(t time.Time) any {
	if j.TimestampUnix {
		return float64(t.UnixNano()) / 1e9
	}
	return t.Format("2006-01-02T15:04:05.000000Z07:00")
}

// sanitize reduces an arbitrary field value to one JSON can always encode:
// primitives and nil pass through, slices/maps recurse, everything else
// degrades to its fmt string form. This mirrors the original formatter's
// "anything unrecognized becomes str(value)" rule and guarantees
// Serialize never errors on a caller-supplied value.
func sanitize(v any) any {
	switch val := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	case json.Marshaler:
		return val
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = sanitize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = sanitize(iter.Value().Interface())
		}
		return out
	default:
		return fmt.Sprintf("%v", v)
	}
}
