package daemon

import (
	"context"
	"errors"
	"log/slog"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/histshell/internal/config"
	"github.com/jmylchreest/histshell/internal/dbus"
	"github.com/jmylchreest/histshell/internal/eventloop"
	"github.com/jmylchreest/histshell/internal/model"
	"github.com/jmylchreest/histshell/internal/notify"
)

// ErrMenuUnavailable is returned by OpenMenu when no tray menu is attached,
// as in headless mode.
var ErrMenuUnavailable = errors.New("tray menu unavailable")

// Menu is the tray menu window.
type Menu interface {
	Open(itemID string, menuPath godbus.ObjectPath)
	UpdateConfig(cfg config.MenuConfig)
}

// ThemeLoader installs a stylesheet by name.
type ThemeLoader interface {
	Load(name string) error
}

// Shell serves control requests and config reloads against a notify.Manager.
// Every manager call is made on the dispatcher's goroutine.
type Shell struct {
	dispatcher eventloop.Dispatcher
	manager    *notify.Manager
	logger     *slog.Logger

	menu     Menu
	theme    ThemeLoader
	notifier *InternalNotifier
	cfg      *config.Config
	reload   []func(*config.Config)
}

var _ dbus.ControlBackend = (*Shell)(nil)

// NewShell creates a shell around manager. cfg is the configuration the
// components were built with.
func NewShell(d eventloop.Dispatcher, manager *notify.Manager, cfg *config.Config, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		dispatcher: d,
		manager:    manager,
		logger:     logger,
		cfg:        cfg,
	}
}

// SetMenu attaches the tray menu.
func (s *Shell) SetMenu(m Menu) { s.menu = m }

// SetTheme attaches the theme loader.
func (s *Shell) SetTheme(t ThemeLoader) { s.theme = t }

// SetNotifier attaches the internal notifier used to report reloads.
func (s *Shell) SetNotifier(n *InternalNotifier) { s.notifier = n }

// OnConfig registers fn to receive every reloaded config on the event
// goroutine, after the manager has been updated.
func (s *Shell) OnConfig(fn func(*config.Config)) {
	s.reload = append(s.reload, fn)
}

// ApplyConfig hands a reloaded config to every component. It may be called
// from any goroutine.
func (s *Shell) ApplyConfig(cfg *config.Config) {
	s.dispatcher.Post(func() { s.applyConfig(cfg) })
}

func (s *Shell) applyConfig(cfg *config.Config) {
	previous := s.cfg
	s.cfg = cfg

	s.manager.UpdateConfig(cfg.Notifications)
	if s.menu != nil {
		s.menu.UpdateConfig(cfg.Menu)
	}
	if s.theme != nil && (previous == nil || previous.Theme.Name != cfg.Theme.Name) {
		if err := s.theme.Load(cfg.Theme.Name); err != nil && s.notifier != nil {
			s.notifier.NotifyThemeError(err)
		}
	}
	for _, fn := range s.reload {
		fn(cfg)
	}

	s.logger.Info("configuration applied")
	if s.notifier != nil {
		s.notifier.NotifyConfigReloaded()
	}
}

// ReportConfigError surfaces a config file that failed to load.
func (s *Shell) ReportConfigError(err error) {
	s.logger.Warn("configuration rejected", "error", err)
	if s.notifier != nil {
		s.dispatcher.Post(func() { s.notifier.NotifyConfigError(err) })
	}
}

// Config returns the configuration last applied.
func (s *Shell) Config() *config.Config {
	return s.cfg
}

func (s *Shell) do(ctx context.Context, fn func()) error {
	return eventloop.Invoke(ctx, s.dispatcher, fn)
}

// History implements dbus.ControlBackend.
func (s *Shell) History(ctx context.Context) ([]*model.Notification, error) {
	var out []*model.Notification
	err := s.do(ctx, func() { out = s.manager.History() })
	return out, err
}

// RemoveFromHistory implements dbus.ControlBackend.
func (s *Shell) RemoveFromHistory(ctx context.Context, id uint32) error {
	return s.do(ctx, func() { s.manager.RemoveFromHistory(id) })
}

// DismissNotification implements dbus.ControlBackend.
func (s *Shell) DismissNotification(ctx context.Context, id uint32) error {
	return s.do(ctx, func() { s.manager.DismissNotification(id) })
}

// ClearHistory implements dbus.ControlBackend. Notifications are dismissed
// at the source as well.
func (s *Shell) ClearHistory(ctx context.Context) error {
	return s.do(ctx, func() { s.manager.ClearAllHistory() })
}

// DismissPopup implements dbus.ControlBackend.
func (s *Shell) DismissPopup(ctx context.Context, id uint32) error {
	return s.do(ctx, func() { s.manager.DismissPopup(id) })
}

// ActivePopups implements dbus.ControlBackend.
func (s *Shell) ActivePopups(ctx context.Context) ([]uint32, error) {
	var ids []uint32
	err := s.do(ctx, func() {
		for _, p := range s.manager.ActivePopups() {
			ids = append(ids, p.ID)
		}
	})
	return ids, err
}

// OpenMenu implements dbus.ControlBackend.
func (s *Shell) OpenMenu(ctx context.Context, itemID string, menuPath godbus.ObjectPath) error {
	if s.menu == nil {
		return ErrMenuUnavailable
	}
	return s.do(ctx, func() { s.menu.Open(itemID, menuPath) })
}
