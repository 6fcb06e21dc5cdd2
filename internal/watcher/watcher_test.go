package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFilters(t *testing.T) {
	ignore := IgnoreNames("node_modules", ".git")
	assert.True(t, ignore("/p/src/app.ts"))
	assert.False(t, ignore("/p/node_modules/x/index.js"))
	assert.False(t, ignore("/p/.git"))
	assert.True(t, ignore("/p/.gitignore"))

	out := IgnoreDir("/p/dist")
	assert.False(t, out("/p/dist"))
	assert.False(t, out("/p/dist/index.html"))
	assert.True(t, out("/p/distribution/app.ts"))
	assert.True(t, out("/p/src/app.ts"))

	assert.False(t, NoEditorFilter("/p/src/.app.ts.swp"))
	assert.False(t, NoEditorFilter("/p/src/app.ts~"))
	assert.False(t, NoEditorFilter("/p/src/.#app.ts"))
	assert.True(t, NoEditorFilter("/p/src/app.ts"))
}

func TestDebouncerBatchesAndDeduplicates(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(ChangeEvent{Type: EventTypeCreated, Path: "/b"})
	d.Add(ChangeEvent{Type: EventTypeCreated, Path: "/a"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "/b"})

	select {
	case batch := <-d.Output():
		require.Len(t, batch, 2)
		assert.Equal(t, "/a", batch[0].Path)
		assert.Equal(t, "/b", batch[1].Path)
		assert.Equal(t, EventTypeModified, batch[1].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered")
	}
}

func TestDebouncerMergesUnconsumedBatches(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)
	defer d.Stop()

	d.Add(ChangeEvent{Path: "/a"})
	time.Sleep(50 * time.Millisecond)
	d.Add(ChangeEvent{Path: "/b"})
	time.Sleep(50 * time.Millisecond)

	batch := <-d.Output()
	assert.Len(t, batch, 2)
	select {
	case extra := <-d.Output():
		t.Fatalf("unexpected second batch %v", extra)
	default:
	}
}

func TestFileWatcherDeliversChanges(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o755))

	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	fw.AddFilter(IgnoreDir(filepath.Join(dir, "dist")))
	got := make(chan []ChangeEvent, 4)
	fw.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		got <- events
		return nil
	})
	require.NoError(t, fw.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dist", "index.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "app.ts"), []byte("x"), 0o644))

	select {
	case events := <-got:
		for _, e := range events {
			assert.NotContains(t, e.Path, filepath.Join(dir, "dist"))
		}
		assert.Equal(t, filepath.Join(dir, "src", "app.ts"), events[len(events)-1].Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}
}
