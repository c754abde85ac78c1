package theme

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/histshell/internal/eventloop"
)

// Loader owns the application CSS provider. Stylesheet changes are posted
// to the GTK dispatcher.
type Loader struct {
	logger     *slog.Logger
	dispatcher eventloop.Dispatcher
	provider   *gtk.CSSProvider
	dir        string

	mu      sync.Mutex
	theme   *Theme
	watcher *Watcher
}

// NewLoader creates a loader. Must be called on the GTK thread.
func NewLoader(d eventloop.Dispatcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:     logger,
		dispatcher: d,
		provider:   gtk.NewCSSProvider(),
		dir:        Dir(),
	}
}

// Apply attaches the provider to the default display.
func (l *Loader) Apply() {
	display := gdk.DisplayGetDefault()
	if display == nil {
		l.logger.Warn("no display available, theme not applied")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// Load resolves name, installs its CSS and watches it when it is a file.
// Loading the same file theme again keeps the existing watcher. When name
// cannot be resolved the default theme is installed and the miss returned.
func (l *Loader) Load(name string) error {
	t, err := Resolve(name, l.dir)
	if err != nil {
		l.logger.Warn("theme unavailable, using default", "theme", name, "error", err)
	}

	l.mu.Lock()
	same := l.theme != nil && l.theme.Path != "" && l.theme.Path == t.Path
	l.theme = t
	if !same {
		l.restartWatcher(t)
	}
	l.mu.Unlock()

	l.install(t)
	l.logger.Info("theme loaded", "name", t.Name, "source", t.Source)
	return err
}

// restartWatcher must be called with l.mu held.
func (l *Loader) restartWatcher(t *Theme) {
	if l.watcher != nil {
		_ = l.watcher.Stop()
		l.watcher = nil
	}
	if !t.Watchable() {
		return
	}
	w, err := NewWatcher(t, l.install, l.logger)
	if err != nil {
		l.logger.Warn("theme hot reload disabled", "error", err)
		return
	}
	if err := w.Start(); err != nil {
		l.logger.Warn("theme hot reload disabled", "error", err)
		return
	}
	l.watcher = w
}

func (l *Loader) install(t *Theme) {
	css := t.CSS
	l.dispatcher.Post(func() { l.provider.LoadFromString(css) })
}

// Current returns the loaded theme.
func (l *Loader) Current() *Theme {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.theme
}

// Close stops hot reload.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil {
		_ = l.watcher.Stop()
		l.watcher = nil
	}
}
