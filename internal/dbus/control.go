package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/histshell/internal/model"
)

const (
	// ControlInterface is the shell's own control interface.
	ControlInterface = "io.github.jmylchreest.HistShell"
	// ControlPath is the control object path.
	ControlPath = dbus.ObjectPath("/io/github/jmylchreest/HistShell")
	// ControlBusName is the bus name claimed by the daemon.
	ControlBusName = "io.github.jmylchreest.HistShell"

	// DefaultControlTimeout bounds every control call.
	DefaultControlTimeout = 5 * time.Second
)

// ControlBackend carries out control requests. Implementations run the work
// on the event goroutine and honour ctx while waiting for it.
type ControlBackend interface {
	History(ctx context.Context) ([]*model.Notification, error)
	RemoveFromHistory(ctx context.Context, id uint32) error
	DismissNotification(ctx context.Context, id uint32) error
	ClearHistory(ctx context.Context) error
	DismissPopup(ctx context.Context, id uint32) error
	ActivePopups(ctx context.Context) ([]uint32, error)
	OpenMenu(ctx context.Context, itemID string, menuPath dbus.ObjectPath) error
}

// ControlServer exports ControlBackend on the bus for histshellctl.
type ControlServer struct {
	backend ControlBackend
	logger  *slog.Logger
	timeout time.Duration
	conn    *dbus.Conn
}

// NewControlServer creates a control server for backend.
func NewControlServer(backend ControlBackend, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		backend: backend,
		logger:  logger,
		timeout: DefaultControlTimeout,
	}
}

// Start exports the control object on conn and claims ControlBusName.
func (c *ControlServer) Start(conn *dbus.Conn) error {
	if err := conn.Export(c, ControlPath, ControlInterface); err != nil {
		return fmt.Errorf("failed to export control object: %w", err)
	}

	node := &introspect.Node{
		Name: string(ControlPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{Name: ControlInterface, Methods: controlMethods()},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ControlPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ControlBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken: is histshell already running?", ControlBusName)
	}

	c.conn = conn
	c.logger.Info("control interface started", "interface", ControlInterface, "path", ControlPath)
	return nil
}

// Stop releases the control bus name.
func (c *ControlServer) Stop() {
	if c.conn == nil {
		return
	}
	if _, err := c.conn.ReleaseName(ControlBusName); err != nil {
		c.logger.Warn("failed to release control bus name", "error", err)
	}
	c.conn = nil
}

func (c *ControlServer) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *ControlServer) fail(method string, err error) *dbus.Error {
	c.logger.Warn("control call failed", "method", method, "error", err)
	return dbus.MakeFailedError(err)
}

// History returns the notification history as a JSON array, newest first.
func (c *ControlServer) History() (string, *dbus.Error) {
	ctx, cancel := c.callContext()
	defer cancel()

	history, err := c.backend.History(ctx)
	if err != nil {
		return "", c.fail("History", err)
	}
	if history == nil {
		history = []*model.Notification{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return "", c.fail("History", err)
	}
	return string(data), nil
}

// RemoveFromHistory drops one history entry.
func (c *ControlServer) RemoveFromHistory(id uint32) *dbus.Error {
	ctx, cancel := c.callContext()
	defer cancel()
	if err := c.backend.RemoveFromHistory(ctx, id); err != nil {
		return c.fail("RemoveFromHistory", err)
	}
	return nil
}

// DismissNotification closes a notification everywhere.
func (c *ControlServer) DismissNotification(id uint32) *dbus.Error {
	ctx, cancel := c.callContext()
	defer cancel()
	if err := c.backend.DismissNotification(ctx, id); err != nil {
		return c.fail("DismissNotification", err)
	}
	return nil
}

// ClearHistory dismisses and forgets every history entry.
func (c *ControlServer) ClearHistory() *dbus.Error {
	ctx, cancel := c.callContext()
	defer cancel()
	if err := c.backend.ClearHistory(ctx); err != nil {
		return c.fail("ClearHistory", err)
	}
	return nil
}

// DismissPopup hides one popup.
func (c *ControlServer) DismissPopup(id uint32) *dbus.Error {
	ctx, cancel := c.callContext()
	defer cancel()
	if err := c.backend.DismissPopup(ctx, id); err != nil {
		return c.fail("DismissPopup", err)
	}
	return nil
}

// ActivePopups returns the ids of visible popups, oldest first.
func (c *ControlServer) ActivePopups() ([]uint32, *dbus.Error) {
	ctx, cancel := c.callContext()
	defer cancel()
	ids, err := c.backend.ActivePopups(ctx)
	if err != nil {
		return nil, c.fail("ActivePopups", err)
	}
	if ids == nil {
		ids = []uint32{}
	}
	return ids, nil
}

// OpenMenu shows the tray menu of itemID.
func (c *ControlServer) OpenMenu(itemID string, menuPath string) *dbus.Error {
	path := dbus.ObjectPath(menuPath)
	if !path.IsValid() {
		return c.fail("OpenMenu", fmt.Errorf("invalid menu path %q", menuPath))
	}

	ctx, cancel := c.callContext()
	defer cancel()
	if err := c.backend.OpenMenu(ctx, itemID, path); err != nil {
		return c.fail("OpenMenu", err)
	}
	return nil
}

func controlMethods() []introspect.Method {
	id := introspect.Arg{Name: "id", Type: "u", Direction: "in"}
	return []introspect.Method{
		{Name: "History", Args: []introspect.Arg{{Name: "json", Type: "s", Direction: "out"}}},
		{Name: "RemoveFromHistory", Args: []introspect.Arg{id}},
		{Name: "DismissNotification", Args: []introspect.Arg{id}},
		{Name: "ClearHistory"},
		{Name: "DismissPopup", Args: []introspect.Arg{id}},
		{Name: "ActivePopups", Args: []introspect.Arg{{Name: "ids", Type: "au", Direction: "out"}}},
		{Name: "OpenMenu", Args: []introspect.Arg{
			{Name: "item_id", Type: "s", Direction: "in"},
			{Name: "menu_path", Type: "s", Direction: "in"},
		}},
	}
}

// ControlClient calls the control interface of a running daemon.
type ControlClient struct {
	obj dbus.BusObject
}

// NewControlClient creates a client on conn.
func NewControlClient(conn *dbus.Conn) *ControlClient {
	return &ControlClient{obj: conn.Object(ControlBusName, ControlPath)}
}

func (c *ControlClient) call(ctx context.Context, method string, args ...any) *dbus.Call {
	return c.obj.CallWithContext(ctx, ControlInterface+"."+method, 0, args...)
}

// History fetches the daemon's history.
func (c *ControlClient) History(ctx context.Context) ([]*model.Notification, error) {
	var raw string
	if err := c.call(ctx, "History").Store(&raw); err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	var history []*model.Notification
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return history, nil
}

// RemoveFromHistory asks the daemon to drop one history entry.
func (c *ControlClient) RemoveFromHistory(ctx context.Context, id uint32) error {
	if err := c.call(ctx, "RemoveFromHistory", id).Err; err != nil {
		return fmt.Errorf("failed to remove %d from history: %w", id, err)
	}
	return nil
}

// DismissNotification asks the daemon to close a notification.
func (c *ControlClient) DismissNotification(ctx context.Context, id uint32) error {
	if err := c.call(ctx, "DismissNotification", id).Err; err != nil {
		return fmt.Errorf("failed to dismiss %d: %w", id, err)
	}
	return nil
}

// ClearHistory asks the daemon to clear its history.
func (c *ControlClient) ClearHistory(ctx context.Context) error {
	if err := c.call(ctx, "ClearHistory").Err; err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// DismissPopup asks the daemon to hide a popup.
func (c *ControlClient) DismissPopup(ctx context.Context, id uint32) error {
	if err := c.call(ctx, "DismissPopup", id).Err; err != nil {
		return fmt.Errorf("failed to dismiss popup %d: %w", id, err)
	}
	return nil
}

// ActivePopups lists the visible popups.
func (c *ControlClient) ActivePopups(ctx context.Context) ([]uint32, error) {
	var ids []uint32
	if err := c.call(ctx, "ActivePopups").Store(&ids); err != nil {
		return nil, fmt.Errorf("failed to list popups: %w", err)
	}
	return ids, nil
}

// OpenMenu asks the daemon to show a tray menu.
func (c *ControlClient) OpenMenu(ctx context.Context, itemID string, menuPath dbus.ObjectPath) error {
	if err := c.call(ctx, "OpenMenu", itemID, string(menuPath)).Err; err != nil {
		return fmt.Errorf("failed to open menu of %s: %w", itemID, err)
	}
	return nil
}
