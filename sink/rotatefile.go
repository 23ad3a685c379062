package sink

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vidinsight-labs/microlog/internal/diag"
	"github.com/vidinsight-labs/microlog/pipeline"
	"github.com/vidinsight-labs/microlog/record"
	"github.com/vidinsight-labs/microlog/serialize"
)

// RotatingFile is a size-triggered rotating file sink: once the current
// file reaches MaxBytes, it is renamed into a numbered backup chain
// (name.1, name.2, ...), optionally gzip-compressed, and a fresh file is
// opened in its place. Backups beyond MaxBackups are deleted.
type RotatingFile struct {
	*base

	path       string
	maxBytes   int64
	maxBackups int
	compress   bool

	mu          sync.Mutex
	current     *os.File
	currentSize int64
}

// RotatingFileOptions configures a RotatingFile sink.
type RotatingFileOptions struct {
	// Path is the active file's location; required.
	Path string
	// MaxBytes is the size trigger for rotation. A value <= 0 disables
	// rotation entirely: the sink behaves as a plain append-only file.
	MaxBytes int64
	// MaxBackups is the retained backup generation count. A value <= 0
	// disables retention: rotation still truncates the active file at
	// MaxBytes, but no numbered backup is kept.
	MaxBackups int
	Compress   bool

	Capacity     int
	Policy       pipeline.Policy
	BlockTimeout time.Duration

	// IncludeSource requests that Record.Source be populated before this
	// sink receives a record (spec §4.6 step 2).
	IncludeSource bool
}

// NewRotatingFile opens (or creates) the sink's output file and starts its
// consumer goroutine. MaxBytes and MaxBackups are used exactly as given —
// see RotatingFileOptions for their <= 0 disable semantics — since spec
// §4.3 and §8 both require callers to be able to construct a
// non-rotating, or non-retaining, sink explicitly.
func NewRotatingFile(opts RotatingFileOptions) (*RotatingFile, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: path required", ErrOpen)
	}

	rf := &RotatingFile{
		path:       opts.Path,
		maxBytes:   opts.MaxBytes,
		maxBackups: opts.MaxBackups,
		compress:   opts.Compress,
	}
	if err := rf.openNew(); err != nil {
		return nil, err
	}
	rf.base = newBase("rotating_file:"+opts.Path, serialize.JSON{}, opts.IncludeSource, opts.Capacity, opts.Policy, opts.BlockTimeout, rf.consume, rf.flush)
	return rf, nil
}

func (rf *RotatingFile) consume(r record.Record) error {
	data := rf.activeSerializer().Serialize(r)

	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.maxBytes > 0 && rf.currentSize+int64(len(data)) > rf.maxBytes {
		if err := rf.rotate(); err != nil {
			return err
		}
	}

	n, err := rf.current.Write(data)
	rf.currentSize += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func (rf *RotatingFile) flush() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.current == nil {
		return nil
	}
	return rf.current.Sync()
}

func (rf *RotatingFile) Flush(ctx context.Context) error { return rf.flush() }

// openNew opens path for append, creating it if absent. A file already
// present at path — whether from a prior graceful run or debris left by
// one that crashed mid-rotation — is data, not garbage: it is preserved
// and written after, and currentSize is seeded from its actual size, per
// spec §3's "byte counter initialized to the file's size on open." After
// rotate() has moved the prior active file out of the way, the path is
// always absent at this point, so this also covers the post-rotation
// fresh-file case without any special-casing.
func (rf *RotatingFile) openNew() error {
	if err := os.MkdirAll(filepath.Dir(rf.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrOpen, err)
	}
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpen, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrOpen, err)
	}
	rf.current = f
	rf.currentSize = info.Size()
	return nil
}

// rotate implements the shift-chain algorithm: close the current file,
// slide existing backups up one generation, archive the just-closed file
// as generation 1 (gzip-compressed if configured), delete anything beyond
// MaxBackups, and open a fresh current file. Each generation may exist as
// either a plain file or a ".gz" file — a backup's compressed-ness can
// change across a process restart that flips the Compress option — so
// every step checks for both forms and carries whichever is present.
func (rf *RotatingFile) rotate() error {
	if err := rf.current.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrRotate, err)
	}

	if rf.maxBackups <= 0 {
		// Retention disabled: the active file is still rotated out (so
		// MaxBytes keeps being honored) but no backup generation is kept.
		if err := os.Remove(rf.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: %v", ErrRotate, err)
		}
		return rf.openNew()
	}

	for i := rf.maxBackups - 1; i >= 1; i-- {
		srcPlain, srcGz := rf.backupName(i), rf.backupName(i)+".gz"
		dstPlain, dstGz := rf.backupName(i+1), rf.backupName(i+1)+".gz"

		switch {
		case exists(srcGz):
			os.Remove(dstGz)
			os.Remove(dstPlain)
			os.Rename(srcGz, dstGz)
		case exists(srcPlain):
			os.Remove(dstPlain)
			os.Remove(dstGz)
			os.Rename(srcPlain, dstPlain)
		}
	}

	if exists(rf.path) {
		dst := rf.backupName(1)
		if rf.compress {
			if err := gzipFile(rf.path, dst+".gz"); err != nil {
				diag.Error("rotating_file: gzip archival failed", "path", rf.path, "err", err)
				return fmt.Errorf("%w: %v", ErrRotate, err)
			}
			os.Remove(rf.path)
		} else {
			os.Remove(dst + ".gz")
			if err := os.Rename(rf.path, dst); err != nil {
				return fmt.Errorf("%w: %v", ErrRotate, err)
			}
		}
	}

	oldest := rf.backupName(rf.maxBackups + 1)
	if exists(oldest) || exists(oldest+".gz") {
		diag.Warn("rotating_file: pruning backup beyond retention", "path", rf.path, "generation", rf.maxBackups+1)
	}
	os.Remove(oldest)
	os.Remove(oldest + ".gz")

	return rf.openNew()
}

func (rf *RotatingFile) backupName(index int) string {
	return fmt.Sprintf("%s.%d", rf.path, index)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		return err
	}
	return gw.Close()
}
