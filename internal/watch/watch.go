// Package watch provides an optional filesystem watcher for
// hookguard-admin scan --watch. It is never imported by the hook
// binaries (pretooluse/posttooluse/userpromptsubmit) — their cache
// already self-invalidates per file via mtime/size comparison
// (scan.Cache.Get), so the hot path never needs a background watcher.
// This package exists purely so a developer running the debug CLI can
// see a rescan fire automatically instead of re-invoking the command
// by hand.
//
// Grounded on the teacher's MangleWatcher
// (internal/core/mangle_watcher.go): same debounce-map-plus-ticker
// event loop, generalized from a single fixed directory to an
// arbitrary project tree pruned by the scanner's ignore predicate.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hookguard/hookguard/internal/logging"
)

// debounceWindow batches rapid successive writes (editors often save
// in several syscalls) into a single rescan.
const debounceWindow = 300 * time.Millisecond

// Watcher recursively watches a project root, pruned by an
// ignore predicate, and invokes a callback once events on a path have
// settled past debounceWindow.
type Watcher struct {
	root    string
	ignore  func(rel, name string) bool
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a Watcher rooted at root. ignore reports whether a
// relative path (with base name) should be pruned from the watch tree,
// normally scan.ShouldIgnorePredicate(root, cfg.IgnoreGlobs).
func New(root string, ignore func(rel, name string) bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:    root,
		ignore:  ignore,
		watcher: fsw,
		pending: make(map[string]time.Time),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree walks root and registers every non-ignored directory with
// the underlying fsnotify watcher. fsnotify has no recursive mode, so
// each directory needs its own Add call.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && w.ignore(rel, d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.Warnf(logging.CategoryWatch, "watching %s: %v", path, err)
		}
		return nil
	})
}

// Close releases the underlying OS watch descriptors.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks, invoking onChange each time a burst of filesystem events
// settles, until ctx is cancelled. New directories created under root
// are added to the watch as soon as their create event arrives.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	ticker := time.NewTicker(debounceWindow / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.recordEvent(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warnf(logging.CategoryWatch, "watch error: %v", err)

		case <-ticker.C:
			if w.settledSince(debounceWindow) {
				w.reset()
				onChange()
			}
		}
	}
}

func (w *Watcher) recordEvent(ev fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[ev.Name] = time.Now()

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			rel, relErr := filepath.Rel(w.root, ev.Name)
			if relErr != nil {
				rel = ev.Name
			}
			rel = filepath.ToSlash(rel)
			if !w.ignore(rel, info.Name()) {
				if err := w.watcher.Add(ev.Name); err != nil {
					logging.Warnf(logging.CategoryWatch, "watching new dir %s: %v", ev.Name, err)
				}
			}
		}
	}
}

// settledSince reports whether at least one event is pending and every
// pending event is older than window.
func (w *Watcher) settledSince(window time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return false
	}
	now := time.Now()
	for _, t := range w.pending {
		if now.Sub(t) < window {
			return false
		}
	}
	return true
}

func (w *Watcher) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = make(map[string]time.Time)
}
