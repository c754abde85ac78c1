package display

import (
	"log/slog"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// edgeMargins are layer-shell margins for a window anchored top-right.
type edgeMargins struct {
	Top   int
	Right int
}

// stackMargins places a window y pixels below the top of a stack that
// starts at marginTop.
func stackMargins(marginTop, marginRight, y int) edgeMargins {
	return edgeMargins{Top: marginTop + y, Right: marginRight}
}

// initLayer turns window into a non-exclusive layer-shell surface on the
// top layer.
func initLayer(window *gtk.Window, namespace string, keyboard layershell.KeyboardMode) {
	layershell.InitForWindow(window)
	layershell.SetLayer(window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(window, 0)
	layershell.SetKeyboardMode(window, keyboard)
	layershell.SetNamespace(window, namespace)
	layershell.SetAnchor(window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(window, layershell.LayerShellEdgeRight, true)
}

func applyMargins(window *gtk.Window, m edgeMargins) {
	layershell.SetMargin(window, layershell.LayerShellEdgeTop, m.Top)
	layershell.SetMargin(window, layershell.LayerShellEdgeRight, m.Right)
}

// monitorFor returns the 1-indexed monitor, or nil to let the compositor
// choose. An index beyond the connected monitors falls back to the first.
func monitorFor(index int, logger *slog.Logger) *gdk.Monitor {
	if index <= 0 {
		return nil
	}
	display := gdk.DisplayGetDefault()
	if display == nil {
		return nil
	}
	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return nil
	}

	i := uint(index - 1)
	if i >= monitors.NItems() {
		logger.Warn("configured monitor not available, using first",
			"configured", index,
			"available", monitors.NItems(),
		)
		i = 0
	}
	return wrapMonitor(monitors.Item(i))
}

// wrapMonitor casts a list item to a gdk.Monitor. gotk4 does not export
// its own wrapper; gdk.Monitor is a struct embedding *glib.Object.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

func setMonitor(window *gtk.Window, monitor *gdk.Monitor) {
	if monitor != nil {
		layershell.SetMonitor(window, monitor)
	}
}
