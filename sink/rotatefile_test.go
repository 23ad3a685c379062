package sink

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vidinsight-labs/microlog/record"
)

func TestRotatingFileRotatesAndKeepsMaxBackups(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.log")

	rf, err := NewRotatingFile(RotatingFileOptions{
		Path:       base,
		MaxBytes:   80,
		MaxBackups: 2,
		Capacity:   64,
	})
	if err != nil {
		t.Fatalf("init sink: %v", err)
	}

	for i := 0; i < 10; i++ {
		if !rf.Submit(record.New(record.Info, "app", "message number padded to force rotation", nil)) {
			t.Fatalf("expected submit %d to be accepted", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rf.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("list dir: %v", err)
	}
	if len(entries) > 3 { // current + at most 2 backups
		t.Fatalf("expected at most 3 files, got %d: %v", len(entries), entries)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "out.log") {
			t.Fatalf("unexpected file %s", e.Name())
		}
	}
}

func TestRotatingFileCompressesBackups(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.log")

	rf, err := NewRotatingFile(RotatingFileOptions{
		Path:       base,
		MaxBytes:   40,
		MaxBackups: 3,
		Compress:   true,
		Capacity:   64,
	})
	if err != nil {
		t.Fatalf("init sink: %v", err)
	}

	for i := 0; i < 6; i++ {
		rf.Submit(record.New(record.Info, "app", "padded message to force rotation", nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rf.Close(ctx)

	gz := base + ".1.gz"
	f, err := os.Open(gz)
	if err != nil {
		t.Fatalf("expected compressed backup %s to exist: %v", gz, err)
	}
	defer f.Close()

	r, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("expected valid gzip stream: %v", err)
	}
	defer r.Close()
}

func TestRotatingFileOpenAppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.log")
	seed := "debris from a prior run\n"
	if err := os.WriteFile(base, []byte(seed), 0o644); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}

	rf, err := NewRotatingFile(RotatingFileOptions{Path: base, MaxBytes: 1024, MaxBackups: 2, Capacity: 8})
	if err != nil {
		t.Fatalf("init sink: %v", err)
	}
	if rf.currentSize != int64(len(seed)) {
		t.Fatalf("expected currentSize to be seeded from the existing file's size, got %d want %d", rf.currentSize, len(seed))
	}

	rf.Submit(record.New(record.Info, "app", "new line", nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rf.Close(ctx)

	data, err := os.ReadFile(base)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "debris from a prior run") {
		t.Fatalf("expected prior content to survive reopen, got %q", data)
	}
	if !strings.Contains(string(data), "new line") {
		t.Fatalf("expected the newly submitted record to be appended, got %q", data)
	}
}

func TestRotatingFileMaxBytesZeroDisablesRotation(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.log")

	rf, err := NewRotatingFile(RotatingFileOptions{Path: base, MaxBytes: 0, MaxBackups: 2, Capacity: 64})
	if err != nil {
		t.Fatalf("init sink: %v", err)
	}
	for i := 0; i < 20; i++ {
		rf.Submit(record.New(record.Info, "app", "a message long enough to exceed any small size trigger", nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rf.Close(ctx)

	if exists(base + ".1") {
		t.Fatalf("expected no rotation to occur when MaxBytes is 0")
	}
}

func TestRotatingFileMaxBackupsZeroDisablesRetention(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out.log")

	rf, err := NewRotatingFile(RotatingFileOptions{Path: base, MaxBytes: 40, MaxBackups: 0, Capacity: 64})
	if err != nil {
		t.Fatalf("init sink: %v", err)
	}
	for i := 0; i < 10; i++ {
		rf.Submit(record.New(record.Info, "app", "padded message to force rotation", nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rf.Close(ctx)

	if exists(base + ".1") {
		t.Fatalf("expected no backup generation to be kept when MaxBackups is 0")
	}
	if !exists(base) {
		t.Fatalf("expected the active file to still exist")
	}
}

func TestConsoleSinkThresholdDropsLowSeverity(t *testing.T) {
	c := NewConsole(ConsoleOptions{})
	c.SetThreshold(record.Error)

	if c.Submit(record.New(record.Debug, "app", "ignored", nil)) {
		t.Fatalf("expected a below-threshold record to be dropped by Submit")
	}
	if !c.Submit(record.New(record.Error, "app", "kept", nil)) {
		t.Fatalf("expected an at-threshold record to be accepted")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Close(ctx)
}
