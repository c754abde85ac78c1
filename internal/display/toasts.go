package display

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/histshell/internal/eventloop"
	"github.com/jmylchreest/histshell/internal/toast"
)

// ToastStack shows toast.Manager messages in a small window at the bottom
// centre of the screen. It is hidden while empty.
type ToastStack struct {
	dispatcher eventloop.Dispatcher
	logger     *slog.Logger

	window *gtk.Window
	box    *gtk.Box
	labels map[string]*gtk.Label

	unsubscribe func()
}

// NewToastStack creates the window and subscribes to m.
func NewToastStack(app *gtk.Application, m *toast.Manager, d eventloop.Dispatcher, logger *slog.Logger) *ToastStack {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ToastStack{
		dispatcher: d,
		logger:     logger,
		labels:     make(map[string]*gtk.Label),
	}

	s.window = gtk.NewWindow()
	s.window.SetApplication(app)
	s.window.SetDecorated(false)
	s.window.AddCSSClass("toast-window")
	layershell.InitForWindow(s.window)
	layershell.SetLayer(s.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(s.window, 0)
	layershell.SetKeyboardMode(s.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(s.window, "histshell-toast")
	layershell.SetAnchor(s.window, layershell.LayerShellEdgeBottom, true)
	layershell.SetMargin(s.window, layershell.LayerShellEdgeBottom, 24)

	s.box = gtk.NewBox(gtk.OrientationVertical, 4)
	s.window.SetChild(s.box)

	s.unsubscribe = m.Subscribe(toast.Handler{
		Added:   func(t toast.Toast) { d.Post(func() { s.add(t) }) },
		Removed: func(t toast.Toast) { d.Post(func() { s.remove(t.ID) }) },
	})
	return s
}

func (s *ToastStack) add(t toast.Toast) {
	l := gtk.NewLabel(t.Message)
	l.AddCSSClass("toast")
	l.AddCSSClass("toast-" + string(t.Type))
	l.SetWrap(true)
	l.SetMaxWidthChars(60)
	s.labels[t.ID] = l
	s.box.Append(l)
	s.window.Present()
}

func (s *ToastStack) remove(id string) {
	l, ok := s.labels[id]
	if !ok {
		return
	}
	delete(s.labels, id)
	s.box.Remove(l)
	if len(s.labels) == 0 {
		s.window.SetVisible(false)
	}
}

// Close detaches from the toast manager and destroys the window.
func (s *ToastStack) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.window.Destroy()
}
