package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu    sync.Mutex
	roots []scanner.Root
	done  chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{done: make(chan struct{}, 10)}
}

func (h *recordingHandler) ScanRoot(_ context.Context, root scanner.Root) error {
	h.mu.Lock()
	h.roots = append(h.roots, root)
	h.mu.Unlock()
	h.done <- struct{}{}
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.roots)
}

func TestRootFor(t *testing.T) {
	w := &Watcher{roots: []scanner.Root{
		{Path: "/media/movies", Kind: naming.MediaKindMovie},
		{Path: "/media/tv", Kind: naming.MediaKindSeries},
		{Path: "/media/tv/kids", Kind: naming.MediaKindSeries},
	}}

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/media/movies/Heat (1995)/Heat.mkv", "/media/movies", true},
		{"/media/tv/Dark/Season 1", "/media/tv", true},
		{"/media/tv/kids/Bluey", "/media/tv/kids", true},
		{"/media/tv", "", false},
		{"/media/moviesextra/x.mkv", "", false},
		{"/elsewhere", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			root, ok := w.rootFor(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, root.Path)
		})
	}
}

func TestDepthBelow(t *testing.T) {
	assert.Equal(t, 0, depthBelow("/a", "/a"))
	assert.Equal(t, 1, depthBelow("/a", "/a/b"))
	assert.Equal(t, 2, depthBelow("/a", "/a/b/c"))
}

func TestScheduleCoalescesBursts(t *testing.T) {
	h := newRecordingHandler()
	w, err := NewWatcher(h, nil, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	root := scanner.Root{Path: "/media/movies", Kind: naming.MediaKindMovie}
	ctx := context.Background()
	for range 5 {
		w.schedule(ctx, root)
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scan was never triggered")
	}
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, h.count())
}

func TestWatcherTriggersScanOnNewEntry(t *testing.T) {
	dir := t.TempDir()
	h := newRecordingHandler()
	root := scanner.Root{Path: dir, Kind: naming.MediaKindMovie}

	w, err := NewWatcher(h, []scanner.Root{root}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Heat.1995.mkv"), []byte("x"), 0644))

	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("scan was never triggered")
	}
	assert.Equal(t, dir, h.roots[0].Path)
}

func TestWatchMissingRoot(t *testing.T) {
	w, err := NewWatcher(newRecordingHandler(), []scanner.Root{{Path: filepath.Join(t.TempDir(), "missing")}})
	require.NoError(t, err)
	defer w.Close()
	assert.Error(t, w.Watch())
}
