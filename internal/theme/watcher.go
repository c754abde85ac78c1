package theme

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads a file theme when any stylesheet next to it changes, so
// edits to imported partials are picked up too. onChange runs on the
// watcher goroutine.
type Watcher struct {
	watcher  *fsnotify.Watcher
	theme    *Theme
	logger   *slog.Logger
	debounce time.Duration
	onChange func(*Theme)

	mu      sync.Mutex
	running bool
	done    chan struct{}
	pending *time.Timer
}

// NewWatcher creates a watcher for t, which must be Watchable.
func NewWatcher(t *Theme, onChange func(*Theme), logger *slog.Logger) (*Watcher, error) {
	if !t.Watchable() {
		return nil, fmt.Errorf("theme %q is not backed by a file", t.Name)
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create theme watcher: %w", err)
	}
	return &Watcher{
		watcher:  fw,
		theme:    t,
		logger:   logger,
		debounce: defaultDebounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period before a reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start begins watching the theme's directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.theme.Path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	go w.watch()
	w.logger.Debug("theme watcher started", "path", w.theme.Path)
	return nil
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".css" {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("theme watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	changed, err := w.theme.Reload()
	snapshot := *w.theme
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("theme reload failed", "path", snapshot.Path, "error", err)
		return
	}
	if !changed {
		return
	}
	w.logger.Info("theme reloaded", "name", snapshot.Name)
	if w.onChange != nil {
		w.onChange(&snapshot)
	}
}

// Stop stops watching. Pending reloads are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	if w.pending != nil {
		w.pending.Stop()
	}
	close(w.done)
	return w.watcher.Close()
}
