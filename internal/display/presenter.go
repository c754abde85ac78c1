package display

import (
	"log/slog"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/histshell/internal/config"
	"github.com/jmylchreest/histshell/internal/eventloop"
	"github.com/jmylchreest/histshell/internal/notify"
)

// Presenter draws notify popups as layer-shell windows stacked down from
// the top-right corner.
type Presenter struct {
	app        *gtk.Application
	dispatcher eventloop.Dispatcher
	logger     *slog.Logger

	cfg     config.DisplayConfig
	scheme  string
	handler PopupHandler
}

var _ notify.Presenter = (*Presenter)(nil)

// NewPresenter creates a presenter. Popup interactions are dropped until
// SetHandler is called.
func NewPresenter(app *gtk.Application, cfg *config.Config, d eventloop.Dispatcher, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		app:        app,
		dispatcher: d,
		logger:     logger,
		cfg:        cfg.Display,
		scheme:     cfg.Theme.ColorScheme,
	}
}

// SetHandler wires popup interactions to h.
func (p *Presenter) SetHandler(h PopupHandler) {
	p.handler = h
}

func (p *Presenter) currentHandler() PopupHandler {
	return p.handler
}

// CreatePanel builds and shows the popup for c. The measured height is
// reported back through the handler once the current event is done.
func (p *Presenter) CreatePanel(c notify.PanelContent, y int) (notify.Panel, error) {
	if p.app == nil {
		return nil, &DisplayError{Message: "no GTK application"}
	}

	popup := newPopup(p.app, c, p.cfg, colorSchemeClass(p.scheme), p.currentHandler)
	setMonitor(popup.window, monitorFor(p.cfg.Monitor, p.logger))
	popup.show(p.cfg, y)

	if measured := popup.measure(p.cfg.Width); measured > 0 && measured != c.Height {
		id := c.ID
		p.dispatcher.Post(func() {
			if h := p.handler; h != nil && !popup.closed {
				h.SetPopupHeight(id, measured)
			}
		})
	}

	p.logger.Debug("popup shown", "id", c.ID, "y", y)
	return popup, nil
}

// DestroyPanel closes a popup window.
func (p *Presenter) DestroyPanel(panel notify.Panel) {
	if popup, ok := panel.(*Popup); ok {
		popup.close()
	}
}

// Reposition moves a popup to offset y in the stack.
func (p *Presenter) Reposition(panel notify.Panel, y int) {
	if popup, ok := panel.(*Popup); ok && !popup.closed {
		popup.move(p.cfg, y)
	}
}

// UpdateConfig applies reloaded placement settings to popups created
// afterwards.
func (p *Presenter) UpdateConfig(cfg *config.Config) {
	p.cfg = cfg.Display
	p.scheme = cfg.Theme.ColorScheme
}
