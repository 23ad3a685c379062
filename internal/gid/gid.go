// Package gid provides a best-effort per-goroutine fallback store, used
// when a producer has no context.Context to carry trace state through (for
// example, a background goroutine spawned without one). The corpus's own
// attempt at a dedicated goroutine-local package (joeycumines/goroutineid)
// ships no usable source in the retrieved pack, so this is the one place
// in the module that falls back to a hand-rolled stdlib mechanism; see
// DESIGN.md for the justification.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var (
	mu    sync.RWMutex
	store = map[int64]any{}
)

// current parses the calling goroutine's numeric ID out of its own stack
// trace header ("goroutine 123 [running]:"). This is the same trick used
// by several goroutine-local-storage shims in the wild; it costs one small
// allocation per call and is only exercised on the fallback path, never on
// the context.Context fast path.
func current() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return -1
	}
	b = b[len(prefix):]
	if idx := bytes.IndexByte(b, ' '); idx >= 0 {
		b = b[:idx]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// Set stores v for the calling goroutine. A nil v clears the slot.
func Set(v any) {
	id := current()
	if id < 0 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if v == nil {
		delete(store, id)
		return
	}
	store[id] = v
}

// Get returns the value previously Set by the calling goroutine, if any.
func Get() (any, bool) {
	id := current()
	if id < 0 {
		return nil, false
	}
	mu.RLock()
	defer mu.RUnlock()
	v, ok := store[id]
	return v, ok
}
