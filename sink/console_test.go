package sink

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/vidinsight-labs/microlog/record"
)

func TestConsoleSinkSplitsByDefaultSeverity(t *testing.T) {
	var out, errOut bytes.Buffer
	c := NewConsole(ConsoleOptions{})
	c.stdout = &out
	c.stderr = &errOut

	c.Submit(record.New(record.Info, "app", "info line", nil))
	c.Submit(record.New(record.Error, "app", "error line", nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Close(ctx)

	if !strings.Contains(out.String(), "info line") {
		t.Fatalf("expected info record on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "error line") {
		t.Fatalf("expected error record on stderr, got %q", errOut.String())
	}
	if strings.Contains(out.String(), "error line") || strings.Contains(errOut.String(), "info line") {
		t.Fatalf("expected no cross-stream bleed, got stdout=%q stderr=%q", out.String(), errOut.String())
	}
}

func TestConsoleSinkSingleStreamWhenConfigured(t *testing.T) {
	var combined bytes.Buffer
	c := NewConsole(ConsoleOptions{Stream: &combined})

	c.Submit(record.New(record.Info, "app", "info line", nil))
	c.Submit(record.New(record.Error, "app", "error line", nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Close(ctx)

	if !strings.Contains(combined.String(), "info line") || !strings.Contains(combined.String(), "error line") {
		t.Fatalf("expected both severities on the single configured stream, got %q", combined.String())
	}
}

func TestConsoleSinkRequiresSourceReflectsOption(t *testing.T) {
	plain := NewConsole(ConsoleOptions{})
	if plain.RequiresSource() {
		t.Fatalf("expected RequiresSource to default to false")
	}

	withSource := NewConsole(ConsoleOptions{IncludeSource: true})
	if !withSource.RequiresSource() {
		t.Fatalf("expected RequiresSource to reflect IncludeSource: true")
	}
}
