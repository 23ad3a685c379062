package microlog

import (
	"context"
	"testing"
	"time"

	"github.com/vidinsight-labs/microlog/filter"
	"github.com/vidinsight-labs/microlog/record"
	"github.com/vidinsight-labs/microlog/serialize"
	"github.com/vidinsight-labs/microlog/sink"
	"github.com/vidinsight-labs/microlog/tracectx"
)

// captureSink is a minimal in-memory Sink for exercising Logger.emit
// without touching stdout or the filesystem.
type captureSink struct {
	name          string
	threshold     record.Severity
	requireSource bool
	got           []record.Record
}

func (c *captureSink) Name() string { return c.name }
func (c *captureSink) Submit(r record.Record) bool {
	if r.Severity < c.threshold {
		return false
	}
	c.got = append(c.got, r)
	return true
}
func (c *captureSink) SetThreshold(s record.Severity)       { c.threshold = s }
func (c *captureSink) Threshold() record.Severity           { return c.threshold }
func (c *captureSink) SetSerializer(s serialize.Serializer) {}
func (c *captureSink) Flush(ctx context.Context) error      { return nil }
func (c *captureSink) Close(ctx context.Context) error      { return nil }
func (c *captureSink) Stats() sink.Stats                    { return sink.Stats{} }

// RequiresSource implements sink.SourceRequirer when requireSource is set,
// letting tests opt a captureSink into source-location capture.
func (c *captureSink) RequiresSource() bool { return c.requireSource }

func TestLoggerEmitDropsBelowThreshold(t *testing.T) {
	l := New("svc")
	cs := &captureSink{name: "capture"}
	l.Attach(cs)
	l.SetThreshold(record.Warning)

	l.Debug("ignored", nil)
	l.Info("also ignored", nil)
	l.Warning("kept", nil)

	if len(cs.got) != 1 || cs.got[0].Message != "kept" {
		t.Fatalf("expected only the warning-level record to pass, got %+v", cs.got)
	}
}

func TestLoggerEmitSkipsWorkWithNoSinks(t *testing.T) {
	l := New("svc")
	// No sinks attached; emit must be a safe no-op, not a panic.
	l.Info("nobody listens", nil)
}

func TestLoggerEmitInjectsAmbientTrace(t *testing.T) {
	l := New("svc")
	cs := &captureSink{name: "capture"}
	l.Attach(cs)

	_, done := tracectx.Enter(tracectx.Options{CorrelationID: "corr-42"})
	defer done()

	l.Info("hello", nil)

	if len(cs.got) != 1 {
		t.Fatalf("expected one record, got %d", len(cs.got))
	}
	if cs.got[0].Trace == nil || cs.got[0].Trace.CorrelationID != "corr-42" {
		t.Fatalf("expected ambient trace to be injected, got %+v", cs.got[0].Trace)
	}
}

func TestLoggerEmitHonorsExplicitNoInjection(t *testing.T) {
	l := New("svc")
	cs := &captureSink{name: "capture"}
	l.Attach(cs)
	l.SetTraceInjection(false)

	_, done := tracectx.Enter(tracectx.Options{CorrelationID: "corr-1"})
	defer done()

	l.Info("hello", nil)
	if cs.got[0].Trace != nil {
		t.Fatalf("expected no trace to be attached when injection is disabled")
	}
}

func TestBoundLoggerUsesFixedTraceNotAmbient(t *testing.T) {
	l := New("svc")
	cs := &captureSink{name: "capture"}
	l.Attach(cs)

	fixed := tracectx.Root("corr-fixed", "", nil)
	bound := l.WithTrace(fixed)

	_, done := tracectx.Enter(tracectx.Options{CorrelationID: "corr-ambient"})
	defer done()

	bound.Info("hi", nil)
	if cs.got[0].Trace == nil || cs.got[0].Trace.CorrelationID != "corr-fixed" {
		t.Fatalf("expected bound logger to use its fixed trace, got %+v", cs.got[0].Trace)
	}
}

func TestLoggerEmitAppliesFilterChain(t *testing.T) {
	l := New("svc")
	cs := &captureSink{name: "capture"}
	l.Attach(cs)

	s, err := filter.NewSampling(0.0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.SetFilters(filter.Chain{s})

	l.Info("should be dropped", nil)
	if len(cs.got) != 0 {
		t.Fatalf("expected the filter chain to drop every record at rate=0.0, got %d", len(cs.got))
	}
}

func TestLoggerErrorExceptionCapturesStackAndType(t *testing.T) {
	l := New("svc")
	cs := &captureSink{name: "capture"}
	l.Attach(cs)

	l.ErrorException("boom happened", errBoom{}, nil)

	if len(cs.got) != 1 {
		t.Fatalf("expected one record")
	}
	if cs.got[0].Err == nil || cs.got[0].Err.Message != "boom" {
		t.Fatalf("expected exception to be attached with message boom, got %+v", cs.got[0].Err)
	}
	if cs.got[0].Err.Stack == "" {
		t.Fatalf("expected a captured stack trace")
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func TestLoggerEmitCapturesSourceOnlyWhenASinkRequiresIt(t *testing.T) {
	l := New("svc")
	cs := &captureSink{name: "capture"}
	l.Attach(cs)

	l.Info("no source needed", nil)
	if cs.got[0].Source != nil {
		t.Fatalf("expected Source to stay nil when no attached sink requires it, got %+v", cs.got[0].Source)
	}

	l2 := New("svc2")
	need := &captureSink{name: "capture-needs-source", requireSource: true}
	l2.Attach(need)

	l2.Info("source needed", nil)
	if need.got[0].Source == nil {
		t.Fatalf("expected Source to be populated when an attached sink requires it")
	}
	if need.got[0].Source.Func == "" || need.got[0].Source.Line == 0 {
		t.Fatalf("expected a usable call site, got %+v", need.got[0].Source)
	}

	l2.ErrorException("boom", errBoom{}, nil)
	if need.got[1].Source == nil {
		t.Fatalf("expected ErrorException to also capture source when required")
	}
}

func TestGetMemoizesLoggerByName(t *testing.T) {
	a := Get("memo-test-one")
	b := Get("memo-test-one")
	if a != b {
		t.Fatalf("expected Get to return the same instance for the same name")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a.Shutdown(ctx)
}

func TestShutdownAllIsSafeToCallTwice(t *testing.T) {
	l, _ := NewConsole("shutdown-all-test", ConsoleConfig{})
	Register("shutdown-all-test", l)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ShutdownAll(ctx)
	ShutdownAll(ctx)
}
