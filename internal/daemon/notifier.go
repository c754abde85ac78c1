package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/histshell/internal/dbus"
	"github.com/jmylchreest/histshell/internal/model"
)

// AppName is the sender name on notifications the shell raises itself.
const AppName = "histshell"

// NotificationLevel is the severity of an internal notification.
type NotificationLevel int

const (
	NotificationLevelInfo NotificationLevel = iota
	NotificationLevelWarning
	NotificationLevelError
)

func (l NotificationLevel) urgency() byte {
	switch l {
	case NotificationLevelInfo:
		return model.UrgencyLow
	case NotificationLevelError:
		return model.UrgencyCritical
	default:
		return model.UrgencyNormal
	}
}

func (l NotificationLevel) icon() string {
	switch l {
	case NotificationLevelInfo:
		return "dialog-information"
	case NotificationLevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// InternalNotifier raises notifications about the shell's own state.
// The same key is not repeated within the minimum interval.
type InternalNotifier struct {
	mu          sync.Mutex
	logger      *slog.Logger
	send        func(*dbus.Request) uint32
	last        map[string]time.Time
	minInterval time.Duration
	now         func() time.Time
}

// NewInternalNotifier creates a notifier that hands requests to send,
// normally NotificationServer.NotifyInternal.
func NewInternalNotifier(send func(*dbus.Request) uint32, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:      logger,
		send:        send,
		last:        make(map[string]time.Time),
		minInterval: 5 * time.Second,
		now:         time.Now,
	}
}

// SetMinInterval sets the minimum interval between notifications with the
// same key.
func (n *InternalNotifier) SetMinInterval(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = d
}

// Notify raises a notification unless key fired recently. It returns the
// notification id, or 0 when it was suppressed.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) uint32 {
	n.mu.Lock()
	if n.send == nil {
		n.mu.Unlock()
		return 0
	}
	now := n.now()
	if last, ok := n.last[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return 0
	}
	n.last[key] = now
	send := n.send
	n.mu.Unlock()

	req := &dbus.Request{
		AppName: AppName,
		AppIcon: level.icon(),
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(level.urgency()),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant(AppName),
		},
		ExpireTimeout: -1,
	}
	id := send(req)
	n.logger.Debug("internal notification sent", "key", key, "id", id, "level", level)
	return id
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration Reloaded",
		"histshell configuration has been reloaded.", NotificationLevelInfo)
}

// NotifyConfigError reports a config file that failed to load.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration Error",
		"Failed to reload configuration: "+err.Error(), NotificationLevelWarning)
}

// NotifyThemeError reports a theme that could not be resolved.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify("theme-error", "Theme Error",
		"Failed to load theme: "+err.Error(), NotificationLevelWarning)
}
