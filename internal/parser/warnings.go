package parser

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Warnings deduplicates advisory messages by key so each fires at most
// once per process. An explicit handle rather than a package global so
// tests can assert warning behavior deterministically.
type Warnings struct {
	mu   sync.Mutex
	seen map[string]bool
	out  io.Writer
}

// NewWarnings creates a warning sink writing to out. A nil out defaults
// to stderr.
func NewWarnings(out io.Writer) *Warnings {
	if out == nil {
		out = os.Stderr
	}
	return &Warnings{seen: make(map[string]bool), out: out}
}

// Warnf emits the formatted message once for the given key. A nil
// receiver drops everything, so callers without a sink can pass nil.
func (w *Warnings) Warnf(key, format string, args ...any) {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	fmt.Fprintf(w.out, "warning: "+format+"\n", args...)
}

// Seen reports whether the key has already fired.
func (w *Warnings) Seen(key string) bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seen[key]
}
