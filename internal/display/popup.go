package display

import (
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"

	"github.com/jmylchreest/histshell/internal/config"
	"github.com/jmylchreest/histshell/internal/model"
	"github.com/jmylchreest/histshell/internal/notify"
)

// PopupHandler receives popup interactions. *notify.Manager implements it.
type PopupHandler interface {
	PausePopup(id uint32)
	ResumePopup(id uint32)
	DismissPopup(id uint32)
	InvokeAction(id uint32, actionKey string)
	SetPopupHeight(id uint32, height int)
}

// Popup is one notification window.
type Popup struct {
	id      uint32
	window  *gtk.Window
	box     *gtk.Box
	closeBt *gtk.Button
	actions *gtk.Box
	handler func() PopupHandler
	closed  bool
}

// newPopup builds the window for c without showing it.
func newPopup(app *gtk.Application, c notify.PanelContent, cfg config.DisplayConfig, scheme string, handler func() PopupHandler) *Popup {
	p := &Popup{id: c.ID, handler: handler}

	p.window = gtk.NewWindow()
	p.window.SetApplication(app)
	p.window.SetDecorated(false)
	p.window.SetResizable(false)
	p.window.AddCSSClass("notification-window")
	p.window.SetDefaultSize(cfg.Width, -1)
	p.window.SetSizeRequest(cfg.Width, -1)

	initLayer(p.window, "histshell-notification", layershell.LayerShellKeyboardModeNone)

	p.box = gtk.NewBox(gtk.OrientationVertical, 6)
	for _, class := range popupClasses(c) {
		p.box.AddCSSClass(class)
	}
	p.box.AddCSSClass(scheme)
	p.box.Append(p.buildHeader(c))
	p.box.Append(p.buildContent(c))
	if len(c.Actions) > 0 {
		p.box.Append(p.buildActions(c.Actions))
	}
	p.window.SetChild(p.box)

	p.connectSignals(c)
	return p
}

func (p *Popup) buildHeader(c notify.PanelContent) *gtk.Box {
	header := gtk.NewBox(gtk.OrientationHorizontal, 8)
	header.AddCSSClass("notification-header")

	app := gtk.NewLabel(c.AppName)
	app.AddCSSClass("notification-app")
	app.SetXAlign(0)
	app.SetHExpand(true)
	app.SetEllipsize(pango.EllipsizeEnd)
	header.Append(app)

	age := gtk.NewLabel(shortAge(c.Timestamp, time.Now()))
	age.AddCSSClass("notification-time")
	header.Append(age)

	p.closeBt = gtk.NewButtonFromIconName("window-close-symbolic")
	p.closeBt.AddCSSClass("notification-close")
	p.closeBt.AddCSSClass("flat")
	p.closeBt.ConnectClicked(func() {
		p.withHandler(func(h PopupHandler) { h.DismissPopup(p.id) })
	})
	header.Append(p.closeBt)
	return header
}

func (p *Popup) buildContent(c notify.PanelContent) *gtk.Box {
	row := gtk.NewBox(gtk.OrientationHorizontal, 10)

	icon := gtk.NewImage()
	icon.AddCSSClass("notification-icon")
	icon.SetPixelSize(40)
	switch src := popupIcon(c); {
	case src.File != "":
		icon.SetFromFile(src.File)
	default:
		icon.SetFromIconName(src.Name)
	}
	row.Append(icon)

	text := gtk.NewBox(gtk.OrientationVertical, 2)
	text.SetHExpand(true)

	summary := gtk.NewLabel(c.Summary)
	summary.AddCSSClass("notification-summary")
	summary.SetXAlign(0)
	summary.SetWrap(true)
	summary.SetMaxWidthChars(40)
	text.Append(summary)

	if c.Body != "" {
		body := gtk.NewLabel("")
		body.AddCSSClass("notification-body")
		body.SetXAlign(0)
		body.SetWrap(true)
		body.SetWrapMode(pango.WrapWordChar)
		body.SetMaxWidthChars(50)
		body.SetLines(4)
		body.SetEllipsize(pango.EllipsizeEnd)
		body.SetMarkup(sanitizeMarkup(c.Body))
		text.Append(body)
	}
	row.Append(text)
	return row
}

func (p *Popup) buildActions(actions []model.Action) *gtk.Box {
	p.actions = gtk.NewBox(gtk.OrientationHorizontal, 6)
	p.actions.AddCSSClass("notification-actions")
	p.actions.SetHomogeneous(true)

	for _, a := range actions {
		key := a.Key
		btn := gtk.NewButtonWithLabel(a.Label)
		btn.AddCSSClass("notification-action")
		btn.ConnectClicked(func() {
			p.withHandler(func(h PopupHandler) { h.InvokeAction(p.id, key) })
		})
		p.actions.Append(btn)
	}
	return p.actions
}

func (p *Popup) connectSignals(c notify.PanelContent) {
	motion := gtk.NewEventControllerMotion()
	motion.ConnectEnter(func(x, y float64) {
		p.withHandler(func(h PopupHandler) { h.PausePopup(p.id) })
	})
	motion.ConnectLeave(func() {
		p.withHandler(func(h PopupHandler) { h.ResumePopup(p.id) })
	})
	p.window.AddController(motion)

	click := gtk.NewGestureClick()
	click.SetButton(0)
	click.ConnectReleased(func(nPress int, x, y float64) {
		switch click.CurrentButton() {
		case 1:
			if c.HasDefault {
				p.withHandler(func(h PopupHandler) { h.InvokeAction(p.id, model.DefaultActionKey) })
			}
		case 3:
			p.withHandler(func(h PopupHandler) { h.DismissPopup(p.id) })
		}
	})
	p.box.AddController(click)
}

func (p *Popup) withHandler(fn func(PopupHandler)) {
	if p.closed {
		return
	}
	if h := p.handler(); h != nil {
		fn(h)
	}
}

// measure returns the natural height of the popup at width.
func (p *Popup) measure(width int) int {
	_, natural, _, _ := p.window.Measure(gtk.OrientationVertical, width)
	return natural
}

// show places the popup y pixels into the stack and presents it.
func (p *Popup) show(cfg config.DisplayConfig, y int) {
	p.move(cfg, y)
	p.window.Present()
}

func (p *Popup) move(cfg config.DisplayConfig, y int) {
	applyMargins(p.window, stackMargins(cfg.MarginTop, cfg.MarginRight, y))
}

// close destroys the window. Safe to call twice.
func (p *Popup) close() {
	if p.closed {
		return
	}
	p.closed = true
	p.window.Destroy()
}

// colorSchemeClass returns "light" or "dark" from the configured scheme,
// asking libadwaita when it follows the system.
func colorSchemeClass(scheme string) string {
	switch config.ColorScheme(scheme) {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	}
	if adw.StyleManagerGetDefault().Dark() {
		return "dark"
	}
	return "light"
}
