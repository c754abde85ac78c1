package dbus

import (
	"errors"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/histshell/internal/model"
)

// ErrNoSuchNotification is returned for ids the server does not hold.
var ErrNoSuchNotification = errors.New("no such notification")

// CloseReason is the reason sent with NotificationClosed.
type CloseReason uint32

const (
	CloseReasonExpired   CloseReason = 1
	CloseReasonDismissed CloseReason = 2
	CloseReasonClosed    CloseReason = 3 // via CloseNotification
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Request holds the arguments of one Notify call.
type Request struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // alternating key, label
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never
}

// ParsedActions pairs up the flat action list. A trailing key without a
// label is dropped.
func (r *Request) ParsedActions() []model.Action {
	actions := make([]model.Action, 0, len(r.Actions)/2)
	for i := 0; i+1 < len(r.Actions); i += 2 {
		actions = append(actions, model.Action{Key: r.Actions[i], Label: r.Actions[i+1]})
	}
	return actions
}

func hint[T any](hints map[string]dbus.Variant, name string) (T, bool) {
	var zero T
	v, ok := hints[name]
	if !ok {
		return zero, false
	}
	t, ok := v.Value().(T)
	return t, ok
}

func stringHint(hints map[string]dbus.Variant, names ...string) string {
	for _, name := range names {
		if s, ok := hint[string](hints, name); ok && s != "" {
			return s
		}
	}
	return ""
}

func boolHint(hints map[string]dbus.Variant, name string) bool {
	b, _ := hint[bool](hints, name)
	return b
}

// Urgency returns the urgency hint, or normal when absent or mistyped.
func (r *Request) Urgency() int {
	if b, ok := hint[byte](r.Hints, "urgency"); ok {
		return int(b)
	}
	return model.UrgencyNormal
}

// Category returns the category hint.
func (r *Request) Category() string { return stringHint(r.Hints, "category") }

// DesktopEntry returns the desktop-entry hint.
func (r *Request) DesktopEntry() string { return stringHint(r.Hints, "desktop-entry") }

// SoundFile returns the sound-file hint.
func (r *Request) SoundFile() string { return stringHint(r.Hints, "sound-file") }

// SuppressSound reports the suppress-sound hint.
func (r *Request) SuppressSound() bool { return boolHint(r.Hints, "suppress-sound") }

// Transient reports the transient hint.
func (r *Request) Transient() bool { return boolHint(r.Hints, "transient") }

// Resident reports the resident hint. Resident notifications survive their
// actions being invoked.
func (r *Request) Resident() bool { return boolHint(r.Hints, "resident") }

// ImagePath returns the image hint, accepting the deprecated spellings.
func (r *Request) ImagePath() string {
	return stringHint(r.Hints, "image-path", "image_path")
}

// HasImageData reports whether raw pixels were attached. They are not
// rendered; the app icon is shown instead.
func (r *Request) HasImageData() bool {
	for _, name := range []string{"image-data", "image_data", "icon_data"} {
		if _, ok := r.Hints[name]; ok {
			return true
		}
	}
	return false
}

// ToNotification converts the request into the notification stored under id.
func (r *Request) ToNotification(id uint32, now time.Time) *model.Notification {
	n := &model.Notification{
		ID:            id,
		AppName:       r.AppName,
		AppIcon:       r.AppIcon,
		Summary:       r.Summary,
		Body:          r.Body,
		Image:         r.ImagePath(),
		Timestamp:     now.Unix(),
		Actions:       r.ParsedActions(),
		ExpireTimeout: r.ExpireTimeout,
		Category:      r.Category(),
		DesktopEntry:  r.DesktopEntry(),
		SoundFile:     r.SoundFile(),
		SuppressSound: r.SuppressSound(),
		Resident:      r.Resident(),
		Transient:     r.Transient(),
	}
	n.SetUrgency(r.Urgency())
	return n
}

// ServerCapabilities lists the capabilities advertised by GetCapabilities.
var ServerCapabilities = []string{
	"actions",
	"body",
	"body-markup",
	"icon-static",
	"persistence",
	"sound",
}

// ServerInfo is returned by GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "histshell",
		Vendor:      "histshell",
		Version:     "0.0.1",
		SpecVersion: "1.2",
	}
}
