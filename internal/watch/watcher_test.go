package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/worldview/internal/model"
)

func testConfig() model.WatchConfig {
	return model.WatchConfig{
		Debounce:    20 * time.Millisecond,
		Extensions:  []string{"wvf"},
		ExcludeDirs: []string{"vendor"},
	}
}

// startWatcher starts a watcher on dir that is stopped when the test ends
func startWatcher(t *testing.T, dir string, emitExisting bool) *Watcher {
	t.Helper()
	w, err := New(testConfig(), dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx, emitExisting))
	return w
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

// waitFor skips events until one with op arrives; editors and os.WriteFile
// may produce intermediate writes
func waitFor(t *testing.T, w *Watcher, op Op) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-w.Events():
			require.True(t, ok, "events channel closed")
			if ev.Op == op {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", op)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	w, err := New(model.WatchConfig{}, t.TempDir(), nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.True(t, w.extensions[".wvf"], ".wvf should be watched by default")
	assert.Equal(t, 300*time.Millisecond, w.debounce)
}

func TestWatcher_Filters(t *testing.T) {
	w, err := New(testConfig(), "/docs", nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	tests := map[string]bool{
		"/docs/a.wvf":            true,
		"/docs/A.WVF":            true,
		"/docs/a.txt":            false,
		"/docs/vendor/a.wvf":     false,
		"/docs/.hidden/a.wvf":    false,
		"/docs/sub/dir/deep.wvf": true,
	}
	for path, want := range tests {
		assert.Equal(t, want, w.isDocument(path) && !w.excluded(path), path)
	}
}

func TestWatcher_EmitsExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wvf"), []byte("A\n"), 0o644))

	w := startWatcher(t, dir, true)

	ev := nextEvent(t, w)
	assert.Equal(t, OpCreate, ev.Op)
	assert.Equal(t, "a.wvf", ev.Path)
}

func TestWatcher_EmitsEveryExistingDocument(t *testing.T) {
	dir := t.TempDir()
	const count = eventBuffer + 44
	for i := 0; i < count; i++ {
		name := filepath.Join(dir, fmt.Sprintf("doc%03d.wvf", i))
		require.NoError(t, os.WriteFile(name, []byte(fmt.Sprintf("Concept%d\n", i)), 0o644))
	}

	w := startWatcher(t, dir, true)

	// nobody reads until the scan would have overflowed the buffer
	time.Sleep(100 * time.Millisecond)

	seen := make(map[string]bool)
	for len(seen) < count {
		ev := nextEvent(t, w)
		require.Equal(t, OpCreate, ev.Op, "event %+v", ev)
		seen[ev.Path] = true
	}
	assert.Zero(t, w.Dropped())
}

func TestWatcher_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, false)

	path := filepath.Join(dir, "beliefs.wvf")
	require.NoError(t, os.WriteFile(path, []byte("Trust\n"), 0o644))
	ev := nextEvent(t, w)
	assert.Equal(t, OpCreate, ev.Op)
	assert.Equal(t, path, ev.AbsPath)

	require.NoError(t, os.WriteFile(path, []byte("Trust\n  .formation\n"), 0o644))
	assert.Equal(t, "beliefs.wvf", waitFor(t, w, OpModify).Path)

	require.NoError(t, os.Remove(path))
	waitFor(t, w, OpDelete)
}

func TestWatcher_StartRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wvf")
	require.NoError(t, os.WriteFile(path, []byte("A\n"), 0o644))

	w, err := New(testConfig(), path, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Error(t, w.Start(context.Background(), false))
}

func TestWatcher_ClosesEventsOnCancel(t *testing.T) {
	w, err := New(testConfig(), t.TempDir(), nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, false))
	cancel()

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok, "expected no events")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after cancel")
	}
}
