package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// No goleak.VerifyTestMain here: fsnotify's platform-specific watcher
// goroutines aren't reliably tracked by goleak, the same reason the
// teacher's MangleWatcher tests skip it in favor of behavioral checks.

func TestSettledSinceRequiresAllEventsPastWindow(t *testing.T) {
	w := &Watcher{pending: map[string]time.Time{
		"a": time.Now().Add(-1 * time.Hour),
	}}
	assert.True(t, w.settledSince(time.Millisecond))

	w.pending["b"] = time.Now()
	assert.False(t, w.settledSince(time.Hour))
}

func TestSettledSinceFalseWhenEmpty(t *testing.T) {
	w := &Watcher{pending: map[string]time.Time{}}
	assert.False(t, w.settledSince(time.Nanosecond))
}

func TestResetClearsPending(t *testing.T) {
	w := &Watcher{pending: map[string]time.Time{"a": time.Now()}}
	w.reset()
	assert.Empty(t, w.pending)
}

func noIgnore(string, string) bool { return false }

func TestNewWatchesProjectTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	w, err := New(dir, noIgnore)
	require.NoError(t, err)
	defer w.Close()

	dirs := w.watcher.WatchList()
	assert.Contains(t, dirs, dir)
	assert.Contains(t, dirs, filepath.Join(dir, "sub"))
}

func TestNewSkipsIgnoredDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))

	ignore := func(rel, name string) bool { return name == "node_modules" }
	w, err := New(dir, ignore)
	require.NoError(t, err)
	defer w.Close()

	assert.NotContains(t, w.watcher.WatchList(), filepath.Join(dir, "node_modules"))
}

func TestRunFiresOnChangeAfterFileWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, noIgnore)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fired := make(chan struct{}, 1)
	go func() {
		_ = w.Run(ctx, func() {
			select {
			case fired <- struct{}{}:
			default:
			}
		})
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "touched.txt"), []byte("x"), 0o644))

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("onChange was not invoked before the test deadline")
	}
}
