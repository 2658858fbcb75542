// Package watch monitors the source tree and reports files whose
// content has settled after an edit, so the sync pipeline can run on
// them without chasing half-written saves.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mirra-dev/mirra/internal/ignore"
)

// Watcher tracks writes under a root and emits relative paths once a
// file has been quiet for the debounce interval.
type Watcher struct {
	root      string
	fsWatcher *fsnotify.Watcher
	matcher   *ignore.Matcher
	interval  time.Duration

	// pending: relative path -> time of last write
	pending   map[string]time.Time
	pendingMu sync.Mutex

	events chan string
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher over root. Directories matching the ignore
// rules are never registered with the underlying notifier.
func New(root string, matcher *ignore.Matcher, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:      root,
		fsWatcher: fsWatcher,
		matcher:   matcher,
		interval:  debounce,
		pending:   make(map[string]time.Time),
		events:    make(chan string, 100),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}
	return w, nil
}

// Events returns the channel of settled file paths (relative to root).
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start registers all non-ignored directories and begins watching.
func (w *Watcher) Start() error {
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		if rel != "." && w.matcher.ShouldIgnore(rel, true) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
	if err != nil {
		return err
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop gracefully shuts down the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			if info.IsDir() {
				// New directory: start watching it unless ignored.
				if !w.matcher.ShouldIgnore(rel, true) {
					_ = w.fsWatcher.Add(event.Name)
				}
				continue
			}
			if w.matcher.ShouldIgnore(rel, false) {
				continue
			}

			w.pendingMu.Lock()
			w.pending[rel] = time.Now()
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case now := <-ticker.C:
			w.flushSettled(now)
		}
	}
}

// flushSettled emits files whose last write is older than the debounce
// interval.
func (w *Watcher) flushSettled(now time.Time) {
	threshold := now.Add(-w.interval)

	w.pendingMu.Lock()
	settled := make([]string, 0)
	for path, lastWrite := range w.pending {
		if lastWrite.Before(threshold) {
			settled = append(settled, path)
		}
	}
	for _, path := range settled {
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	for _, path := range settled {
		select {
		case w.events <- path:
		default:
			// Channel full: put it back and try next tick.
			w.pendingMu.Lock()
			w.pending[path] = now
			w.pendingMu.Unlock()
		}
	}
}
