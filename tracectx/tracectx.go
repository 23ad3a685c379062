// Package tracectx implements the trace-context propagation model: per-task
// ambient trace state, scoped push/pop acquisition, parent/child span
// derivation, and conversion to/from a process-external header carrier.
package tracectx

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vidinsight-labs/microlog/internal/gid"
	"github.com/vidinsight-labs/microlog/internal/idgen"
)

// Context is one trace/span identity snapshot. Values are immutable once
// constructed; derivation always produces a new Context rather than
// mutating an existing one.
type Context struct {
	TraceID       string
	SpanID        string
	ParentSpanID  string
	CorrelationID string
	SessionID     string
	StartedAt     time.Time
	Extra         map[string]string
}

// Root constructs a fresh root context with a generated trace_id and
// span_id, plus any optional correlation/session/extra the caller supplies.
func Root(correlationID, sessionID string, extra map[string]string) Context {
	return Context{
		TraceID:       idgen.New(),
		SpanID:        idgen.New(),
		CorrelationID: correlationID,
		SessionID:     sessionID,
		StartedAt:     time.Now().UTC(),
		Extra:         copyExtra(extra),
	}
}

// ChildSpan derives a new span within the same trace: trace_id,
// correlation_id, session_id and extra are inherited; parent_span_id
// becomes this context's span_id; span_id is freshly generated.
func (c Context) ChildSpan() Context {
	return Context{
		TraceID:       c.TraceID,
		SpanID:        idgen.New(),
		ParentSpanID:  c.SpanID,
		CorrelationID: c.CorrelationID,
		SessionID:     c.SessionID,
		StartedAt:     time.Now().UTC(),
		Extra:         copyExtra(c.Extra),
	}
}

// Header keys used by the propagation carrier (spec §4.2, §6). Writes use
// this exact capitalization; reads are case-insensitive.
const (
	HeaderTraceID       = "X-Trace-Id"
	HeaderSpanID        = "X-Span-Id"
	HeaderParentSpanID  = "X-Parent-Span-Id"
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderSessionID     = "X-Session-Id"
)

// Headers renders the context as an outbound propagation carrier.
func (c Context) Headers() map[string]string {
	h := map[string]string{
		HeaderTraceID: c.TraceID,
		HeaderSpanID:  c.SpanID,
	}
	if c.ParentSpanID != "" {
		h[HeaderParentSpanID] = c.ParentSpanID
	}
	if c.CorrelationID != "" {
		h[HeaderCorrelationID] = c.CorrelationID
	}
	if c.SessionID != "" {
		h[HeaderSessionID] = c.SessionID
	}
	return h
}

// FromHeaders extracts a context from an inbound carrier. Header lookup is
// case-insensitive. A missing trace_id produces a freshly generated one
// rather than failing; the extracted span_id (if any) becomes the new
// context's parent_span_id and a new span_id is always generated — the
// carrier never hands us our own span identity.
func FromHeaders(h map[string]string) Context {
	lower := make(map[string]string, len(h))
	for k, v := range h {
		lower[strings.ToLower(k)] = v
	}
	get := func(key string) string { return lower[strings.ToLower(key)] }

	traceID := get(HeaderTraceID)
	if traceID == "" {
		traceID = idgen.New()
	}

	return Context{
		TraceID:       traceID,
		SpanID:        idgen.New(),
		ParentSpanID:  get(HeaderSpanID),
		CorrelationID: get(HeaderCorrelationID),
		SessionID:     get(HeaderSessionID),
		StartedAt:     time.Now().UTC(),
	}
}

func copyExtra(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Options configures a scoped acquisition (Enter/WithContext). Selection
// order on construction follows spec §4.2: Parent first, then Headers,
// then a fresh root.
type Options struct {
	TraceID       string
	CorrelationID string
	SessionID     string
	Extra         map[string]string
	Headers       map[string]string
	Parent        *Context
}

func build(opts Options) Context {
	var c Context
	switch {
	case opts.Parent != nil:
		c = opts.Parent.ChildSpan()
	case opts.Headers != nil:
		c = FromHeaders(opts.Headers)
	default:
		c = Root("", "", nil)
		if opts.TraceID != "" {
			c.TraceID = opts.TraceID
		}
	}
	if opts.CorrelationID != "" {
		c.CorrelationID = opts.CorrelationID
	}
	if opts.SessionID != "" {
		c.SessionID = opts.SessionID
	}
	if len(opts.Extra) > 0 {
		merged := copyExtra(c.Extra)
		if merged == nil {
			merged = make(map[string]string, len(opts.Extra))
		}
		for k, v := range opts.Extra {
			merged[k] = v
		}
		c.Extra = merged
	}
	return c
}

// maxNestingDepth bounds the ambient stack so a runaway caller that never
// exits a scope cannot grow memory without limit (spec §4.2: "implementations
// may cap at 1024 to bound memory").
const maxNestingDepth = 1024

type ambientStack struct {
	mu    sync.Mutex
	stack []Context
}

// Enter is the scoped-acquisition primitive for callers without an
// explicit context.Context to thread (background goroutines, signal-adjacent
// code). It installs a new ambient Context for the calling goroutine and
// returns it along with a restore function; callers are expected to
// `defer done()` so the previous ambient context — possibly none — is
// restored even on panic.
func Enter(opts Options) (Context, func()) {
	c := build(opts)

	raw, _ := gid.Get()
	st, _ := raw.(*ambientStack)
	if st == nil {
		st = &ambientStack{}
		gid.Set(st)
	}

	st.mu.Lock()
	if len(st.stack) < maxNestingDepth {
		st.stack = append(st.stack, c)
	}
	st.mu.Unlock()

	return c, func() {
		st.mu.Lock()
		if len(st.stack) > 0 {
			st.stack = st.stack[:len(st.stack)-1]
		}
		st.mu.Unlock()
	}
}

// Current returns the calling goroutine's ambient context, if any scope is
// active.
func Current() (Context, bool) {
	raw, ok := gid.Get()
	if !ok {
		return Context{}, false
	}
	st, ok := raw.(*ambientStack)
	if !ok {
		return Context{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.stack) == 0 {
		return Context{}, false
	}
	return st.stack[len(st.stack)-1], true
}

type ctxKey struct{}

// WithContext is the context.Context-threading complement to Enter, for
// callers that already propagate a context.Context explicitly (the common
// idiomatic Go style). The returned context carries the new trace Context;
// "exit" is implicit — the caller simply stops using the derived context
// and the parent's value (or absence of one) is what remains in scope.
func WithContext(ctx context.Context, opts Options) (context.Context, Context) {
	var parent *Context
	if opts.Parent == nil {
		if pc, ok := FromContext(ctx); ok {
			parent = &pc
		}
	}
	localOpts := opts
	if localOpts.Parent == nil {
		localOpts.Parent = parent
	}
	c := build(localOpts)
	return context.WithValue(ctx, ctxKey{}, c), c
}

// FromContext retrieves a trace Context previously installed with
// WithContext.
func FromContext(ctx context.Context) (Context, bool) {
	if ctx == nil {
		return Context{}, false
	}
	c, ok := ctx.Value(ctxKey{}).(Context)
	return c, ok
}
