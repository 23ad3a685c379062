// Package sink implements the handler contract records are fanned out to:
// a capability set of submit/flush/close/set_threshold/set_serializer
// (spec §9's replacement for "handler inheritance"), and two concrete
// sinks — Console and RotatingFile — each backed by a pipeline.Queue and
// pipeline.Worker.
package sink

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vidinsight-labs/microlog/pipeline"
	"github.com/vidinsight-labs/microlog/record"
	"github.com/vidinsight-labs/microlog/serialize"
)

// Stats reports a sink's cumulative health counters.
type Stats struct {
	Dropped          int64
	Failures         int64
	ShutdownOverruns int64
}

// Sink is the capability set every handler implements. Submit is the
// producer-facing call and must never block the caller beyond the
// configured overflow policy's bound, nor ever return an error — delivery
// failures surface only through Stats.
type Sink interface {
	Name() string
	Submit(r record.Record) bool
	SetThreshold(s record.Severity)
	Threshold() record.Severity
	SetSerializer(s serialize.Serializer)
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
	Stats() Stats
}

// SourceRequirer is an optional capability a Sink implements to ask the
// facade to populate record.Record.Source (the call-site file/line/func)
// before fan-out — spec §4.6's "capture source location only if any
// attached sink requires it." Sinks that have no use for it (the common
// case) simply don't implement this interface, and the facade never pays
// runtime.Caller's cost on their behalf.
type SourceRequirer interface {
	RequiresSource() bool
}

// base supplies the threshold/serializer/queue/worker plumbing shared by
// every concrete sink.
type base struct {
	name          string
	threshold     atomic.Int32
	serializer    atomic.Value // serialize.Serializer
	requireSource bool

	queue  *pipeline.Queue
	worker *pipeline.Worker
}

func newBase(name string, def serialize.Serializer, requireSource bool, capacity int, policy pipeline.Policy, blockTimeout time.Duration, consume pipeline.Consume, flush pipeline.Flush) *base {
	b := &base{name: name, requireSource: requireSource, queue: pipeline.NewQueue(capacity, policy, blockTimeout)}
	b.serializer.Store(def)
	b.worker = pipeline.NewWorker(b.queue, consume, flush)
	return b
}

// RequiresSource reports whether this sink was configured to need
// Record.Source populated; it implements SourceRequirer.
func (b *base) RequiresSource() bool { return b.requireSource }

func (b *base) Name() string { return b.name }

func (b *base) Submit(r record.Record) bool {
	if r.Severity < record.Severity(b.threshold.Load()) {
		return false
	}
	return b.queue.Push(r)
}

func (b *base) SetThreshold(s record.Severity) { b.threshold.Store(int32(s)) }
func (b *base) Threshold() record.Severity     { return record.Severity(b.threshold.Load()) }

func (b *base) SetSerializer(s serialize.Serializer) { b.serializer.Store(s) }

func (b *base) activeSerializer() serialize.Serializer {
	return b.serializer.Load().(serialize.Serializer)
}

func (b *base) Close(ctx context.Context) error { return b.worker.Shutdown(ctx) }

func (b *base) Stats() Stats {
	return Stats{
		Dropped:          b.queue.Dropped(),
		Failures:         b.worker.Failures(),
		ShutdownOverruns: b.worker.ShutdownOverruns(),
	}
}
