package display

import (
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/histshell/internal/eventloop"
)

// MainThread posts work to the GTK main loop.
var MainThread eventloop.Dispatcher = eventloop.Func(func(fn func()) {
	glib.IdleAdd(fn)
})
