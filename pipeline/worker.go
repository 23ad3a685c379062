package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vidinsight-labs/microlog/record"
)

// Consume delivers one record to a sink's underlying writer. Errors are
// counted but never propagated back to a producer: emit() callers must
// never observe a sink failure (spec §4.1, §4.6).
type Consume func(record.Record) error

// Flush is called after the queue drains during shutdown, giving the sink
// a chance to push out any internally buffered bytes (for example an
// os.File's write buffer).
type Flush func() error

// Worker runs the single consumer goroutine for one sink's Queue.
type Worker struct {
	queue   *Queue
	consume Consume
	flush   Flush

	failures         int64
	shutdownOverruns int64

	done     chan struct{}
	shutOnce sync.Once
}

// NewWorker starts the consumer goroutine and returns immediately; records
// already or subsequently pushed onto queue are delivered to consume in
// FIFO order.
func NewWorker(queue *Queue, consume Consume, flush Flush) *Worker {
	w := &Worker{
		queue:   queue,
		consume: consume,
		flush:   flush,
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	for r := range w.queue.ch {
		if err := w.consume(r); err != nil {
			atomic.AddInt64(&w.failures, 1)
		}
	}
}

// Failures reports the cumulative count of consume errors.
func (w *Worker) Failures() int64 {
	return atomic.LoadInt64(&w.failures)
}

// ShutdownOverruns reports the cumulative count of records still
// undrained when a Shutdown deadline was exceeded — the "lost on
// shutdown" counter of spec §7/§8, not a count of timed-out calls.
func (w *Worker) ShutdownOverruns() int64 {
	return atomic.LoadInt64(&w.shutdownOverruns)
}

// Shutdown runs the two-phase shutdown protocol: first the queue is
// quiesced (further Push calls are rejected), then the channel is closed
// so the consumer goroutine drains the remaining backlog and exits. If the
// backlog does not drain within deadline, Shutdown returns
// context.DeadlineExceeded but does not kill the consumer goroutine —
// it continues draining in the background, and a repeated Shutdown call
// (Shutdown is idempotent) simply waits again. After the consumer exits,
// flush (if set) is called up to three times, tolerating transient
// failures the way a buffered writer's final flush sometimes needs to.
func (w *Worker) Shutdown(ctx context.Context) error {
	var err error
	w.shutOnce.Do(func() {
		w.queue.quiesce()
		w.queue.drainAndClose()
	})

	select {
	case <-w.done:
	case <-ctx.Done():
		// Every record still sitting in the channel at the deadline is one
		// the caller accepted but cannot confirm was written; the consumer
		// goroutine is not killed and may still be mid-delivery of one more
		// on top of that, so the residual count is at least 1.
		residual := int64(len(w.queue.ch))
		if residual == 0 {
			residual = 1
		}
		atomic.AddInt64(&w.shutdownOverruns, residual)
		err = ctx.Err()
		return err
	}

	if w.flush != nil {
		const attempts = 3
		var flushErr error
		for i := 0; i < attempts; i++ {
			if flushErr = w.flush(); flushErr == nil {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		err = flushErr
	}
	return err
}

// Wait blocks until the consumer goroutine has exited, regardless of
// whether Shutdown has been called with a deadline yet.
func (w *Worker) Wait() {
	<-w.done
}
