// Package pipeline implements the asynchronous delivery path between a
// logger's emit call and a sink's actual write: a bounded per-sink queue,
// a configurable overflow policy, a single consumer goroutine, and a
// two-phase shutdown protocol.
package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vidinsight-labs/microlog/record"
)

// Policy controls what happens when a Push arrives and the queue is full.
type Policy int

const (
	// DropNewest rejects the incoming record, keeping the queue's existing
	// contents intact. This is the default: producers never block.
	DropNewest Policy = iota
	// Block waits up to BlockTimeout for room to free up before giving up
	// and dropping the record.
	Block
	// Coalesce evicts the oldest queued record that shares the incoming
	// one's signature (logger, severity, message) to make room for it,
	// collapsing repeats of a spammy message. If no queued record shares
	// the incoming one's signature, the incoming record is dropped instead
	// — coalescing only ever replaces a repeat of itself, never an
	// unrelated record.
	Coalesce
)

// DefaultCapacity is the queue depth used when a sink is not configured
// with one explicitly.
const DefaultCapacity = 8192

// Queue is a bounded FIFO of records feeding one sink's consumer
// goroutine.
type Queue struct {
	ch           chan record.Record
	policy       Policy
	blockTimeout time.Duration

	// coalesceMu serializes the drain-and-requeue sequence Coalesce uses
	// to find and evict a same-signature record; it is unused by any other
	// policy.
	coalesceMu sync.Mutex

	dropped int64
	closing int32
}

// NewQueue builds a queue of the given capacity and overflow policy.
// blockTimeout is only consulted under Policy Block; a zero value there
// defaults to one second.
func NewQueue(capacity int, policy Policy, blockTimeout time.Duration) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if blockTimeout <= 0 {
		blockTimeout = time.Second
	}
	return &Queue{
		ch:           make(chan record.Record, capacity),
		policy:       policy,
		blockTimeout: blockTimeout,
	}
}

// Push enqueues r, applying the configured overflow policy if the queue is
// already full. It returns false if the record was dropped, including
// when the queue has begun shutting down.
func (q *Queue) Push(r record.Record) bool {
	if atomic.LoadInt32(&q.closing) != 0 {
		atomic.AddInt64(&q.dropped, 1)
		return false
	}

	select {
	case q.ch <- r:
		return true
	default:
	}

	switch q.policy {
	case DropNewest:
		atomic.AddInt64(&q.dropped, 1)
		return false

	case Coalesce:
		if q.evictOldestWithSignature(signature(r)) {
			select {
			case q.ch <- r:
				return true
			default:
				// The consumer raced us and drained a slot; fall through
				// to the no-room-made outcome below.
			}
		}
		atomic.AddInt64(&q.dropped, 1)
		return false

	case Block:
		timer := time.NewTimer(q.blockTimeout)
		defer timer.Stop()
		select {
		case q.ch <- r:
			return true
		case <-timer.C:
			atomic.AddInt64(&q.dropped, 1)
			return false
		}

	default:
		atomic.AddInt64(&q.dropped, 1)
		return false
	}
}

// Dropped reports the cumulative count of records this queue has refused,
// under any policy.
func (q *Queue) Dropped() int64 {
	return atomic.LoadInt64(&q.dropped)
}

// signature identifies records that count as "the same spammy message"
// for Coalesce: same logger, same severity, same message text.
func signature(r record.Record) string {
	return r.Logger + "\x00" + r.Severity.String() + "\x00" + r.Message
}

// evictOldestWithSignature drains the queue's current contents, removes
// the oldest record matching sig (if any), and requeues the rest in their
// original order. It reports whether a match was found and evicted.
func (q *Queue) evictOldestWithSignature(sig string) bool {
	q.coalesceMu.Lock()
	defer q.coalesceMu.Unlock()

	n := len(q.ch)
	buf := make([]record.Record, 0, n)
drain:
	for i := 0; i < n; i++ {
		select {
		case item := <-q.ch:
			buf = append(buf, item)
		default:
			break drain
		}
	}

	evicted := false
	for _, item := range buf {
		if !evicted && signature(item) == sig {
			evicted = true
			atomic.AddInt64(&q.dropped, 1)
			continue
		}
		q.ch <- item
	}
	return evicted
}

// quiesce marks the queue as closing: further Push calls are rejected
// immediately, without consulting the overflow policy. Already-queued
// records remain available to drain.
func (q *Queue) quiesce() {
	atomic.StoreInt32(&q.closing, 1)
}

// drainAndClose closes the underlying channel so a ranging consumer
// observes end-of-input once the backlog is exhausted.
func (q *Queue) drainAndClose() {
	close(q.ch)
}
