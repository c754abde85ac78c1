// Package notify owns the notification history and the stack of on-screen
// popups: when they appear, where they sit, and when they go away.
//
// A Manager is driven entirely from one event goroutine. Source events,
// timer callbacks and UI callbacks must all be delivered there.
package notify

import (
	"errors"

	"github.com/jmylchreest/histshell/internal/model"
)

// ErrSourceUnavailable is logged when the manager starts without a source.
var ErrSourceUnavailable = errors.New("notification source unavailable")

// SourceHandler receives source events. Either field may be nil.
type SourceHandler struct {
	// Notified is called when a notification arrives or is replaced.
	Notified func(id uint32)
	// Resolved is called when the source closes a notification out-of-band.
	Resolved func(id uint32)
}

// Source is the notification daemon the manager sits on top of.
type Source interface {
	// Notifications returns every notification the source still holds.
	Notifications() []*model.Notification
	// Notification looks up one notification.
	Notification(id uint32) (*model.Notification, bool)
	// Subscribe registers h and returns a function that removes it.
	Subscribe(h SourceHandler) (unsubscribe func())
	// Dismiss closes the notification at the source.
	Dismiss(id uint32) error
	// Invoke signals that the user chose actionKey.
	Invoke(id uint32, actionKey string) error
}

// Panel is an opaque handle to one on-screen popup.
type Panel any

// PanelContent is everything a presenter needs to draw a popup.
type PanelContent struct {
	ID          uint32
	AppName     string
	AppIcon     string
	Summary     string
	Body        string
	Image       string
	Urgency     int
	UrgencyName string
	Timestamp   int64
	// Actions are the buttons to draw, empty when actions are hidden.
	Actions []model.Action
	// HasDefault reports whether clicking the popup body invokes "default".
	HasDefault bool
	Height     int
}

// Presenter creates and positions popup panels. y is the offset from the top
// of the popup stack.
type Presenter interface {
	CreatePanel(content PanelContent, y int) (Panel, error)
	DestroyPanel(p Panel)
	Reposition(p Panel, y int)
}

func newPanelContent(n *model.Notification, showActions bool) PanelContent {
	c := PanelContent{
		ID:          n.ID,
		AppName:     n.AppName,
		AppIcon:     n.AppIcon,
		Summary:     n.Summary,
		Body:        n.Body,
		Image:       n.Image,
		Urgency:     n.Urgency,
		UrgencyName: n.UrgencyName,
		Timestamp:   n.Timestamp,
		HasDefault:  n.HasDefaultAction(),
	}
	if showActions {
		c.Actions = n.ButtonActions()
	}
	return c
}
