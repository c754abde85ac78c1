package dbus

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/histshell/internal/eventloop"
	"github.com/jmylchreest/histshell/internal/model"
	"github.com/jmylchreest/histshell/internal/notify"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"
)

// NotificationServer implements org.freedesktop.Notifications and holds
// every notification it accepted until it is closed. It is the
// notify.Source of the shell.
//
// D-Bus methods run on godbus goroutines. Subscribers are always called
// through the dispatcher, so they only ever run on the event goroutine.
type NotificationServer struct {
	conn       *dbus.Conn
	logger     *slog.Logger
	dispatcher eventloop.Dispatcher
	now        func() time.Time

	nextID atomic.Uint32

	mu            sync.RWMutex
	notifications map[uint32]*model.Notification
	handlers      map[int]notify.SourceHandler
	nextHandler   int
	onAccepted    func(*model.Notification)
	serverInfo    ServerInfo
	running       bool
}

var _ notify.Source = (*NotificationServer)(nil)

// NewNotificationServer creates a server. Events are delivered inline until
// SetDispatcher is called.
func NewNotificationServer(logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger:        logger,
		dispatcher:    eventloop.Inline{},
		now:           time.Now,
		notifications: make(map[uint32]*model.Notification),
		handlers:      make(map[int]notify.SourceHandler),
		serverInfo:    DefaultServerInfo(),
	}
}

// SetDispatcher sets where subscriber callbacks run.
func (s *NotificationServer) SetDispatcher(d eventloop.Dispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatcher = d
}

// SetAcceptedHook sets a function called, on the D-Bus goroutine, for every
// accepted notification. The daemon uses it to play sounds.
func (s *NotificationServer) SetAcceptedHook(fn func(*model.Notification)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAccepted = fn
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverInfo = info
}

// Start exports the notification service on conn and claims the bus name.
func (s *NotificationServer) Start(conn *dbus.Conn) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus notification server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name. The shared connection stays open.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}

	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities implements org.freedesktop.Notifications.GetCapabilities.
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation implements org.freedesktop.Notifications.GetServerInformation.
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.mu.RLock()
	info := s.serverInfo
	s.mu.RUnlock()
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

// Notify implements org.freedesktop.Notifications.Notify: susssasa{sv}i -> u.
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	req := &Request{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}
	return s.accept(req), nil
}

// NotifyInternal accepts a notification raised by the shell itself.
func (s *NotificationServer) NotifyInternal(req *Request) uint32 {
	return s.accept(req)
}

// accept stores req. A replaces_id that the server does not hold gets a
// fresh id, so allocated ids never collide.
func (s *NotificationServer) accept(req *Request) uint32 {
	s.mu.Lock()
	id := req.ReplacesID
	if _, held := s.notifications[id]; id == 0 || !held {
		id = s.nextID.Add(1)
	}
	n := req.ToNotification(id, s.now())
	s.notifications[id] = n
	hook := s.onAccepted
	s.mu.Unlock()

	s.logger.Debug("notification accepted",
		"id", id,
		"app_name", req.AppName,
		"replaces_id", req.ReplacesID,
		"summary", req.Summary,
	)

	if hook != nil {
		hook(n.Clone())
	}
	s.post(func(h notify.SourceHandler) {
		if h.Notified != nil {
			h.Notified(id)
		}
	})
	return id
}

// CloseNotification implements org.freedesktop.Notifications.CloseNotification.
// The sender withdrew the notification, which subscribers see as resolved.
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	if s.remove(id) {
		s.logger.Debug("notification closed by sender", "id", id)
		s.resolve(id, CloseReasonClosed)
	}
	return nil
}

// Notifications implements notify.Source.
func (s *NotificationServer) Notifications() []*model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(s.notifications))
	out := make([]*model.Notification, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.notifications[id].Clone())
	}
	return out
}

// Notification implements notify.Source.
func (s *NotificationServer) Notification(id uint32) (*model.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Subscribe implements notify.Source.
func (s *NotificationServer) Subscribe(h notify.SourceHandler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.nextHandler
	s.nextHandler++
	s.handlers[key] = h
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, key)
	}
}

// Dismiss implements notify.Source: the user closed the notification.
func (s *NotificationServer) Dismiss(id uint32) error {
	if !s.remove(id) {
		return fmt.Errorf("dismiss %d: %w", id, ErrNoSuchNotification)
	}
	s.resolve(id, CloseReasonDismissed)
	return nil
}

// Invoke implements notify.Source. Non-resident notifications are closed
// after the action is sent.
func (s *NotificationServer) Invoke(id uint32, actionKey string) error {
	n, ok := s.Notification(id)
	if !ok {
		return fmt.Errorf("invoke %q on %d: %w", actionKey, id, ErrNoSuchNotification)
	}

	s.emitOrLog(s.EmitActionInvoked(id, actionKey))

	if !n.Resident && s.remove(id) {
		s.resolve(id, CloseReasonDismissed)
	}
	return nil
}

// IsActive reports whether the server still holds id.
func (s *NotificationServer) IsActive(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.notifications[id]
	return ok
}

func (s *NotificationServer) remove(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[id]; !ok {
		return false
	}
	delete(s.notifications, id)
	return true
}

func (s *NotificationServer) resolve(id uint32, reason CloseReason) {
	s.emitOrLog(s.EmitNotificationClosed(id, reason))
	s.post(func(h notify.SourceHandler) {
		if h.Resolved != nil {
			h.Resolved(id)
		}
	})
}

// post delivers an event to every subscriber on the dispatcher. Handlers
// are looked up when the event runs, so one removed meanwhile is skipped.
func (s *NotificationServer) post(deliver func(notify.SourceHandler)) {
	s.mu.RLock()
	d := s.dispatcher
	s.mu.RUnlock()

	d.Post(func() {
		s.mu.RLock()
		keys := slices.Sorted(maps.Keys(s.handlers))
		handlers := make([]notify.SourceHandler, 0, len(keys))
		for _, k := range keys {
			handlers = append(handlers, s.handlers[k])
		}
		s.mu.RUnlock()

		for _, h := range handlers {
			deliver(h)
		}
	})
}

func (s *NotificationServer) emitOrLog(err error) {
	if err != nil {
		s.logger.Debug("signal not emitted", "error", err)
	}
}

func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
