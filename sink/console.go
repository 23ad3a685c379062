package sink

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/vidinsight-labs/microlog/pipeline"
	"github.com/vidinsight-labs/microlog/record"
	"github.com/vidinsight-labs/microlog/serialize"
)

// Console writes records to stdout and stderr, splitting by severity:
// Error and Critical go to stderr, everything else to stdout. Setting
// Stream routes every severity to a single writer instead, per spec §4.3's
// "else everything goes to a single configured stream."
type Console struct {
	*base
	stdout, stderr io.Writer
	stream         io.Writer
}

// ConsoleOptions configures a Console sink's queue behavior; a zero value
// is a usable default (DropNewest policy, pipeline.DefaultCapacity, split
// by severity).
type ConsoleOptions struct {
	Capacity     int
	Policy       pipeline.Policy
	BlockTimeout time.Duration

	// Stream, if set, disables the stdout/stderr severity split and sends
	// every record to this single writer instead. Left nil (the zero
	// value), the default split-by-severity behavior applies.
	Stream io.Writer

	// IncludeSource requests that Record.Source be populated before this
	// sink receives a record (spec §4.6 step 2).
	IncludeSource bool
}

// NewConsole builds a Console sink writing JSON by default.
func NewConsole(opts ConsoleOptions) *Console {
	c := &Console{stdout: os.Stdout, stderr: os.Stderr, stream: opts.Stream}
	c.base = newBase("console", serialize.JSON{}, opts.IncludeSource, opts.Capacity, opts.Policy, opts.BlockTimeout, c.consume, nil)
	return c
}

func (c *Console) consume(r record.Record) error {
	data := c.activeSerializer().Serialize(r)
	if c.stream != nil {
		_, err := c.stream.Write(data)
		return err
	}
	w := c.stdout
	if r.Severity >= record.Error {
		w = c.stderr
	}
	_, err := w.Write(data)
	return err
}

func (c *Console) Flush(ctx context.Context) error { return nil }
