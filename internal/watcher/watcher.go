// Package watcher triggers scans when entries appear under a scanned root.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyscout/internal/logging"
	"github.com/Nomadcxx/jellyscout/internal/naming"
	"github.com/Nomadcxx/jellyscout/internal/scanner"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a root must stay quiet before it is scanned.
// Copies into a library produce bursts of events.
const DefaultDebounce = 30 * time.Second

// Handler scans a root. *scanner.PeriodicScanner satisfies it.
type Handler interface {
	ScanRoot(ctx context.Context, root scanner.Root) error
}

type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	roots     []scanner.Root
	debounce  time.Duration
	logger    *logging.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

func NewWatcher(handler Handler, roots []scanner.Root, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		roots:     roots,
		debounce:  DefaultDebounce,
		logger:    logging.Nop(),
		timers:    make(map[string]*time.Timer),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Watch registers every root. Movie roots are watched at every depth, series
// roots at the top level and one level below, where season folders appear.
func (w *Watcher) Watch() error {
	for _, root := range w.roots {
		depth := -1
		if root.Kind == naming.MediaKindSeries {
			depth = 1
		}
		if err := w.addTree(root.Path, depth); err != nil {
			return err
		}
	}
	return nil
}

// addTree watches dir and its non-hidden sub-directories down to maxDepth
// levels below it; a negative maxDepth means unlimited
func (w *Watcher) addTree(dir string, maxDepth int) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("unable to watch %s: %w", path, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if maxDepth >= 0 && depthBelow(dir, path) > maxDepth {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		w.logger.Debug("watcher", "Watching", logging.F("path", path))
		return nil
	})
}

func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// rootFor returns the configured root containing path
func (w *Watcher) rootFor(path string) (scanner.Root, bool) {
	var best scanner.Root
	found := false
	for _, root := range w.roots {
		rel, err := filepath.Rel(root.Path, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if !found || len(root.Path) > len(best.Path) {
			best = root
			found = true
		}
	}
	return best, found
}

// Start processes filesystem events until ctx is cancelled
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watcher", "Watching roots", logging.F("roots", len(w.roots)),
		logging.F("debounce", w.debounce.String()))

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("watcher", "Watcher error", logging.F("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	root, ok := w.rootFor(event.Name)
	if !ok {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watchNewDir(root, event.Name)
		}
	}

	w.logger.Debug("watcher", "Event", logging.F("op", event.Op.String()), logging.F("path", event.Name))
	w.schedule(ctx, root)
}

// watchNewDir extends the watch to a directory created under root
func (w *Watcher) watchNewDir(root scanner.Root, dir string) {
	maxDepth := -1
	if root.Kind == naming.MediaKindSeries {
		below := depthBelow(root.Path, dir)
		if below > 1 {
			return
		}
		maxDepth = 1 - below
	}
	if err := w.addTree(dir, maxDepth); err != nil {
		w.logger.Warn("watcher", "Cannot watch new directory",
			logging.F("path", dir),
			logging.F("error", err.Error()))
	}
}

// schedule (re)starts the quiet-period timer of root
func (w *Watcher) schedule(ctx context.Context, root scanner.Root) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if t, ok := w.timers[root.Path]; ok {
		t.Reset(w.debounce)
		return
	}

	w.timers[root.Path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, root.Path)
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		if ctx.Err() != nil {
			return
		}
		w.logger.Info("watcher", "Changes settled, scanning", logging.F("root", root.Path))
		if err := w.handler.ScanRoot(ctx, root); err != nil {
			w.logger.Error("watcher", "Triggered scan failed", err, logging.F("root", root.Path))
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
