package display

import (
	"fmt"
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"
	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/histshell/internal/config"
	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/toast"
)

// TrayMenu is the drill-down window for a status item's exported menu.
// Only one menu is open at a time; opening another replaces it.
type TrayMenu struct {
	loader *dbusmenu.Loader
	nav    *dbusmenu.Navigator
	toasts *toast.Manager
	logger *slog.Logger
	cfg    config.MenuConfig

	window *gtk.Window
	root   *gtk.Box
	top    gtk.Widgetter
	list   *gtk.Box

	itemID   string
	menuPath dbus.ObjectPath
	loading  bool
}

// NewTrayMenu creates the (hidden) menu window.
func NewTrayMenu(app *gtk.Application, loader *dbusmenu.Loader, cfg config.MenuConfig, logger *slog.Logger) *TrayMenu {
	if logger == nil {
		logger = slog.Default()
	}
	m := &TrayMenu{loader: loader, logger: logger, cfg: cfg}
	m.nav = dbusmenu.NewNavigator(func(id int32) {
		m.loader.Activate(m.itemID, m.menuPath, id)
	})

	m.window = gtk.NewWindow()
	m.window.SetApplication(app)
	m.window.SetDecorated(false)
	m.window.SetResizable(false)
	m.window.AddCSSClass("tray-menu-window")
	initLayer(m.window, "histshell-menu", layershell.LayerShellKeyboardModeOnDemand)
	applyMargins(m.window, stackMargins(cfg.MarginTop, cfg.MarginRight, 0))

	m.root = gtk.NewBox(gtk.OrientationVertical, 4)
	m.root.AddCSSClass("tray-menu")
	m.window.SetChild(m.root)

	keys := gtk.NewEventControllerKey()
	keys.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		if keyval == gdk.KEY_Escape {
			m.Close()
			return true
		}
		return false
	})
	m.window.AddController(keys)
	return m
}

// SetToasts reports activations through t.
func (m *TrayMenu) SetToasts(t *toast.Manager) {
	m.toasts = t
}

// Open fetches and shows the menu of itemID at menuPath.
func (m *TrayMenu) Open(itemID string, menuPath dbus.ObjectPath) {
	m.itemID = itemID
	m.menuPath = menuPath
	m.loading = true
	m.nav.Reset()
	m.render()
	m.window.Present()

	m.loader.Load(itemID, menuPath, func(nodes []dbusmenu.Node) {
		m.loading = false
		m.nav.Open(nodes)
		m.render()
	})
	m.logger.Debug("tray menu opened", "item", itemID, "path", menuPath)
}

// Close hides the window and drops any in-flight fetch.
func (m *TrayMenu) Close() {
	m.loader.Cancel()
	m.nav.Reset()
	m.loading = false
	m.window.SetVisible(false)
}

// IsOpen reports whether the window is showing.
func (m *TrayMenu) IsOpen() bool {
	return m.window.IsVisible()
}

// UpdateConfig applies reloaded menu settings.
func (m *TrayMenu) UpdateConfig(cfg config.MenuConfig) {
	m.cfg = cfg
	m.loader.SetTimeout(cfg.FetchTimeout.Duration())
	applyMargins(m.window, stackMargins(cfg.MarginTop, cfg.MarginRight, 0))
}

func (m *TrayMenu) render() {
	if m.top != nil {
		m.root.Remove(m.top)
		m.root.Remove(m.list)
	}

	m.top = m.header()
	m.root.Append(m.top)

	m.list = gtk.NewBox(gtk.OrientationVertical, 0)
	switch nodes := m.nav.Current(); {
	case m.loading:
		m.list.Append(placeholder("Loading…"))
	case len(nodes) == 0:
		m.list.Append(placeholder("(empty menu)"))
	default:
		for _, n := range nodes {
			m.list.Append(m.row(n))
		}
	}
	m.root.Append(m.list)
}

func (m *TrayMenu) header() gtk.Widgetter {
	header := gtk.NewBox(gtk.OrientationHorizontal, 6)
	header.AddCSSClass("tray-menu-header")

	if m.nav.CanGoBack() {
		back := gtk.NewButtonWithLabel("‹ " + m.nav.ParentTitle())
		back.AddCSSClass("tray-menu-back")
		back.AddCSSClass("flat")
		back.ConnectClicked(func() {
			if m.nav.Back() {
				m.render()
			}
		})
		header.Append(back)
	}

	title := m.nav.Title()
	if title == "" {
		title = dbusmenu.DefaultTitle
	}
	label := gtk.NewLabel(title)
	label.AddCSSClass("tray-menu-title")
	label.SetHExpand(true)
	label.SetXAlign(0)
	header.Append(label)
	return header
}

func (m *TrayMenu) row(n dbusmenu.Node) gtk.Widgetter {
	if n.IsSeparator() {
		sep := gtk.NewSeparator(gtk.OrientationHorizontal)
		sep.AddCSSClass("tray-menu-separator")
		return sep
	}

	content := gtk.NewBox(gtk.OrientationHorizontal, 8)
	if icon := menuIcon(n.Icon, m.logger); icon != nil {
		content.Append(icon)
	}

	label := gtk.NewLabel(dbusmenu.DisplayLabel(n))
	label.AddCSSClass("tray-menu-label")
	label.SetXAlign(0)
	label.SetHExpand(true)
	label.SetEllipsize(pango.EllipsizeEnd)
	content.Append(label)

	if acc := dbusmenu.Accessory(n); acc != "" {
		hint := gtk.NewLabel(acc)
		hint.AddCSSClass("tray-menu-accessory")
		content.Append(hint)
	}

	btn := gtk.NewButton()
	btn.SetChild(content)
	btn.AddCSSClass("flat")
	for _, class := range menuRowClasses(n) {
		btn.AddCSSClass(class)
	}
	btn.SetSensitive(n.Enabled)
	if n.AccessibleDesc != nil {
		btn.SetTooltipText(*n.AccessibleDesc)
	}
	btn.ConnectClicked(func() { m.selectNode(n) })
	return btn
}

func (m *TrayMenu) selectNode(n dbusmenu.Node) {
	switch m.nav.Select(n) {
	case dbusmenu.Entered:
		m.render()
	case dbusmenu.Closed:
		m.loader.Cancel()
		m.window.SetVisible(false)
		if m.toasts != nil {
			m.toasts.Info(fmt.Sprintf("Activated %q", dbusmenu.StripMnemonic(n.Label)))
		}
	}
}

func placeholder(text string) gtk.Widgetter {
	l := gtk.NewLabel(text)
	l.AddCSSClass("tray-menu-empty")
	return l
}

// menuIcon builds the icon for a row: a themed name, or PNG data.
func menuIcon(icon dbusmenu.Icon, logger *slog.Logger) *gtk.Image {
	switch {
	case icon.Name != "":
		img := gtk.NewImageFromIconName(icon.Name)
		img.AddCSSClass("tray-menu-icon")
		return img
	case len(icon.Data) > 0:
		texture, err := gdk.NewTextureFromBytes(glib.NewBytesWithGo(icon.Data))
		if err != nil {
			logger.Debug("menu icon data unreadable", "error", err)
			return nil
		}
		img := gtk.NewImageFromPaintable(texture)
		img.AddCSSClass("tray-menu-icon")
		return img
	}
	return nil
}
