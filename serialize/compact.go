package serialize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vidinsight-labs/microlog/record"
)

// Compact renders a record as minimal space-separated tokens with no
// timestamp, for production log volumes where every byte counts:
//
//	INFO order-service Order created order_id=ORD-123 user_id=usr-456
type Compact struct {
	Service string
}

func (c Compact) Serialize(r record.Record) []byte {
	service := c.Service
	if service == "" {
		service = r.Logger
	}

	parts := make([]string, 0, 3+len(r.Fields)+3)
	parts = append(parts, r.Severity.String(), service, r.Message)

	if r.Source != nil {
		parts = append(parts, fmt.Sprintf("%s:%d", r.Source.File, r.Source.Line))
	}

	if r.Trace != nil {
		parts = append(parts, "trace_id="+r.Trace.TraceID, "span_id="+r.Trace.SpanID)
	}

	if len(r.Fields) > 0 {
		keys := make([]string, 0, len(r.Fields))
		for k := range r.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, sanitize(r.Fields[k])))
		}
	}

	if r.Err != nil {
		parts = append(parts, fmt.Sprintf("exception=%s:%s", r.Err.Type, r.Err.Message))
	}

	return []byte(strings.Join(parts, " ") + "\n")
}
