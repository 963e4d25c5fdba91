// Package watch monitors a directory tree and feeds newly settled image
// files into the import pipeline. Cameras and card readers write files in
// bursts, so every event is debounced before an import is triggered.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zenithphoto/photocat/internal/ingest"
	"github.com/zenithphoto/photocat/internal/util"
)

const defaultDebounce = 2 * time.Second

// ImportFunc receives the directory to import once activity settles.
type ImportFunc func(dir string) error

// Watcher watches a source tree and triggers imports after quiet periods.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	importFn  ImportFunc
	cancel    *ingest.CancelFlag

	mu    sync.Mutex
	timer *time.Timer
	dirty map[string]bool

	// OnTrigger is called before each debounced import, used by the CLI
	// for status output.
	OnTrigger func(dirs []string)
}

// New creates a watcher over root. Subdirectories are watched recursively.
func New(root string, debounce time.Duration, importFn ImportFunc, cancel *ingest.CancelFlag) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		fsWatcher: fsw,
		root:      root,
		debounce:  debounce,
		importFn:  importFn,
		cancel:    cancel,
		dirty:     make(map[string]bool),
	}

	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			util.WarnLog("cannot watch %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run processes events until the cancel flag is set or the watcher closes.
// It blocks; run it in its own goroutine when the caller needs to keep
// working.
func (w *Watcher) Run() error {
	poll := time.NewTicker(500 * time.Millisecond)
	defer poll.Stop()
	defer w.fsWatcher.Close()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("watch error: %v", err)
		case <-poll.C:
			if w.cancel != nil && w.cancel.Canceled() {
				w.stopTimer()
				return util.ErrCanceled
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	// New directories join the watch so nested card layouts work
	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				util.WarnLog("failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.dirty[filepath.Dir(event.Name)] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

// fire imports every directory that changed since the last quiet period.
func (w *Watcher) fire() {
	w.mu.Lock()
	dirs := make([]string, 0, len(w.dirty))
	for dir := range w.dirty {
		dirs = append(dirs, dir)
	}
	w.dirty = make(map[string]bool)
	w.timer = nil
	w.mu.Unlock()

	if len(dirs) == 0 {
		return
	}
	if w.OnTrigger != nil {
		w.OnTrigger(dirs)
	}

	for _, dir := range dirs {
		if w.cancel != nil && w.cancel.Canceled() {
			return
		}
		if err := w.importFn(dir); err != nil {
			util.ErrorLog("auto-import of %s failed: %v", dir, err)
		}
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
