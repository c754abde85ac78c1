// Package model defines the core data structures shared by the shell components.
package model

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Urgency levels from the freedesktop notification protocol.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// UrgencyNames maps urgency levels to human-readable names.
var UrgencyNames = map[int]string{
	UrgencyLow:      "low",
	UrgencyNormal:   "normal",
	UrgencyCritical: "critical",
}

// DefaultActionKey is the action invoked when the notification body itself is activated.
// It is never rendered as a button.
const DefaultActionKey = "default"

// Notification is a single notification as held by the notification source.
// Everything downstream of the source treats it as read-only.
type Notification struct {
	ID        uint32 `json:"id" yaml:"id"`
	AppName   string `json:"app_name" yaml:"app_name"`
	AppIcon   string `json:"app_icon,omitempty" yaml:"app_icon,omitempty"`
	Summary   string `json:"summary" yaml:"summary"`
	Body      string `json:"body,omitempty" yaml:"body,omitempty"`
	Image     string `json:"image,omitempty" yaml:"image,omitempty"` // path or icon name
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`

	Urgency     int    `json:"urgency" yaml:"urgency"`
	UrgencyName string `json:"urgency_name" yaml:"urgency_name"`

	Actions       []Action `json:"actions,omitempty" yaml:"actions,omitempty"`
	ExpireTimeout int32    `json:"expire_timeout,omitempty" yaml:"expire_timeout,omitempty"`

	Category      string `json:"category,omitempty" yaml:"category,omitempty"`
	DesktopEntry  string `json:"desktop_entry,omitempty" yaml:"desktop_entry,omitempty"`
	SoundFile     string `json:"sound_file,omitempty" yaml:"sound_file,omitempty"`
	SuppressSound bool   `json:"suppress_sound,omitempty" yaml:"suppress_sound,omitempty"`
	Resident      bool   `json:"resident,omitempty" yaml:"resident,omitempty"`
	Transient     bool   `json:"transient,omitempty" yaml:"transient,omitempty"`
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// NewNotification creates a Notification stamped with the current time.
func NewNotification(id uint32) *Notification {
	return &Notification{
		ID:          id,
		Timestamp:   time.Now().Unix(),
		Urgency:     UrgencyNormal,
		UrgencyName: UrgencyNames[UrgencyNormal],
	}
}

// SetUrgency sets the urgency level and its human-readable name.
// Out of range levels fall back to normal.
func (n *Notification) SetUrgency(level int) {
	if level < UrgencyLow || level > UrgencyCritical {
		level = UrgencyNormal
	}
	n.Urgency = level
	n.UrgencyName = UrgencyNames[level]
}

// RelativeTime returns a human-readable relative time string such as "3 minutes ago".
func (n *Notification) RelativeTime() string {
	return humanize.Time(n.TimestampTime())
}

// BodyTruncated returns the body truncated to maxLen characters.
// If the body is longer, it is truncated and "..." is appended.
func (n *Notification) BodyTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	// Collapse whitespace and newlines to single spaces
	body := []rune(strings.Join(strings.Fields(n.Body), " "))

	if len(body) <= maxLen {
		return string(body)
	}
	if maxLen <= 3 {
		return string(body[:maxLen])
	}
	return string(body[:maxLen-3]) + "..."
}

// ButtonActions returns the actions that should be rendered as buttons:
// everything except the default action and unlabeled entries.
func (n *Notification) ButtonActions() []Action {
	var out []Action
	for _, a := range n.Actions {
		if a.Key == DefaultActionKey || a.Label == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// HasDefaultAction reports whether the sender registered a default action.
func (n *Notification) HasDefaultAction() bool {
	for _, a := range n.Actions {
		if a.Key == DefaultActionKey {
			return true
		}
	}
	return false
}

// TimestampTime returns the timestamp as a time.Time.
func (n *Notification) TimestampTime() time.Time {
	return time.Unix(n.Timestamp, 0)
}

// Clone creates a deep copy of the notification.
func (n *Notification) Clone() *Notification {
	clone := *n
	if n.Actions != nil {
		clone.Actions = append([]Action(nil), n.Actions...)
	}
	return &clone
}
