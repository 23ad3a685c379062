package serialize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/vidinsight-labs/microlog/record"
)

// Pretty renders a record as a single colored line meant for a developer's
// terminal:
//
//	14:32:01 │ INFO     │ order-service   │ Order created │ order_id=ORD-123
//
// An exception, if present, is appended as a second, unindented line
// carrying its formatted stack.
type Pretty struct {
	Service   string
	UseColors bool
}

var severityColor = map[record.Severity]*color.Color{
	record.Debug:    color.New(color.FgCyan),
	record.Info:     color.New(color.FgGreen),
	record.Warning:  color.New(color.FgYellow),
	record.Error:    color.New(color.FgRed),
	record.Critical: color.New(color.FgMagenta),
}

var (
	dim  = color.New(color.Faint)
	bold = color.New(color.Bold)
)

func (p Pretty) Serialize(r record.Record) []byte {
	timeStr := r.WallTime.Local().Format("15:04:05")
	level := r.Severity.String()
	service := p.Service
	if service == "" {
		service = r.Logger
	}

	var b strings.Builder

	if p.UseColors {
		dim.Fprint(&b, timeStr)
	} else {
		b.WriteString(timeStr)
	}
	b.WriteString(" │ ")

	levelField := fmt.Sprintf("%-8s", level)
	if p.UseColors {
		if c, ok := severityColor[r.Severity]; ok {
			c.Fprint(&b, levelField)
		} else {
			b.WriteString(levelField)
		}
	} else {
		b.WriteString(levelField)
	}
	b.WriteString(" │ ")

	serviceField := fmt.Sprintf("%-15s", service)
	if p.UseColors {
		bold.Fprint(&b, serviceField)
	} else {
		b.WriteString(serviceField)
	}
	b.WriteString(" │ ")
	b.WriteString(r.Message)

	if r.Source != nil {
		b.WriteString(" │ ")
		loc := fmt.Sprintf("%s:%d", r.Source.File, r.Source.Line)
		if p.UseColors {
			dim.Fprint(&b, loc)
		} else {
			b.WriteString(loc)
		}
	}

	if r.Trace != nil {
		b.WriteString(" │ ")
		if p.UseColors {
			dim.Fprintf(&b, "trace_id=%s span_id=%s", r.Trace.TraceID, r.Trace.SpanID)
		} else {
			fmt.Fprintf(&b, "trace_id=%s span_id=%s", r.Trace.TraceID, r.Trace.SpanID)
		}
	}

	if extra := formatFields(r.Fields, p.UseColors); extra != "" {
		b.WriteString(" │ ")
		b.WriteString(extra)
	}

	b.WriteByte('\n')
	if r.Err != nil {
		b.WriteString(r.Err.Type)
		b.WriteString(": ")
		b.WriteString(r.Err.Message)
		if r.Err.Stack != "" {
			b.WriteByte('\n')
			b.WriteString(r.Err.Stack)
		}
		b.WriteByte('\n')
	}

	return []byte(b.String())
}

// formatFields renders fields as sorted "key=value" tokens so output is
// deterministic across runs, which matters for both readability and for
// tests asserting on exact output.
func formatFields(fields map[string]any, useColors bool) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		token := fmt.Sprintf("%s=%v", k, sanitize(fields[k]))
		if useColors {
			token = dim.Sprint(token)
		}
		parts[i] = token
	}
	return strings.Join(parts, " ")
}
