package watcher_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/watcher"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func nextEvent(t *testing.T, events <-chan ports.WatchEvent, match func(ports.WatchEvent) bool) ports.WatchEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event stream closed")
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for watch event")
		}
	}
}

func TestWatcher_ReportsWritesInNewDirectories(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist"), 0o750))

	w := watcher.NewWatcher(log)
	require.NoError(t, w.Start(t.Context(), root))
	t.Cleanup(func() { _ = w.Stop() })

	events := make(chan ports.WatchEvent, 16)
	go func() {
		for ev := range w.Events() {
			events <- ev
		}
		close(events)
	}()

	entry := filepath.Join(root, "src", "index.html")
	require.NoError(t, os.WriteFile(entry, []byte("<p>"), 0o600))
	ev := nextEvent(t, events, func(ev ports.WatchEvent) bool { return ev.Path == entry })
	assert.Contains(t, []ports.WatchOp{ports.OpCreate, ports.OpWrite}, ev.Operation)

	nested := filepath.Join(root, "src", "templates")
	require.NoError(t, os.Mkdir(nested, 0o750))
	// Give the watcher time to register the new directory.
	time.Sleep(200 * time.Millisecond)

	fragment := filepath.Join(nested, "nav.html")
	require.NoError(t, os.WriteFile(fragment, []byte("<nav>"), 0o600))
	nextEvent(t, events, func(ev ports.WatchEvent) bool { return ev.Path == fragment })
}

func TestWatcher_SkipsIgnoredDirectories(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	root := t.TempDir()
	public := filepath.Join(root, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(public, "styles"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o750))

	w := watcher.NewWatcher(log)
	require.NoError(t, w.Start(t.Context(), root, public))
	t.Cleanup(func() { _ = w.Stop() })

	events := make(chan ports.WatchEvent, 16)
	go func() {
		for ev := range w.Events() {
			events <- ev
		}
		close(events)
	}()

	// Written in order; the source event can only arrive after any output event.
	require.NoError(t, os.WriteFile(filepath.Join(public, "styles", "a.css"), []byte("a{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte("<p>"), 0o600))
	other := filepath.Join(root, "dist", "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))
	entry := filepath.Join(root, "src", "index.html")
	require.NoError(t, os.WriteFile(entry, []byte("<p>"), 0o600))

	var seen []string
	nextEvent(t, events, func(ev ports.WatchEvent) bool {
		seen = append(seen, ev.Path)
		return ev.Path == entry
	})
	for _, p := range seen {
		assert.NotContains(t, p, public)
	}
	assert.Contains(t, seen, other, "only the configured output directory is ignored")
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := watcher.NewWatcher(mocks.NewMockLogger(ctrl))
	require.NoError(t, w.Stop())
}
