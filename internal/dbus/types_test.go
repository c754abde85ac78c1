package dbus

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/histshell/internal/model"
)

type hints = map[string]dbus.Variant

func TestCloseReasonString(t *testing.T) {
	tests := []struct {
		reason   CloseReason
		expected string
	}{
		{CloseReasonExpired, "expired"},
		{CloseReasonDismissed, "dismissed"},
		{CloseReasonClosed, "closed"},
		{CloseReasonUndefined, "undefined"},
		{CloseReason(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reason.String())
		})
	}
}

func TestParsedActions(t *testing.T) {
	tests := []struct {
		name     string
		actions  []string
		expected []model.Action
	}{
		{"empty", nil, []model.Action{}},
		{"pair", []string{"default", "Open"}, []model.Action{{Key: "default", Label: "Open"}}},
		{
			"several",
			[]string{"default", "Open", "reply", "Reply"},
			[]model.Action{{Key: "default", Label: "Open"}, {Key: "reply", Label: "Reply"}},
		},
		{"orphan key dropped", []string{"default", "Open", "orphan"}, []model.Action{{Key: "default", Label: "Open"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Request{Actions: tt.actions}
			assert.Equal(t, tt.expected, r.ParsedActions())
		})
	}
}

func TestRequest_Urgency(t *testing.T) {
	tests := []struct {
		name     string
		hints    hints
		expected int
	}{
		{"no hint", nil, model.UrgencyNormal},
		{"low", hints{"urgency": dbus.MakeVariant(byte(0))}, model.UrgencyLow},
		{"critical", hints{"urgency": dbus.MakeVariant(byte(2))}, model.UrgencyCritical},
		{"wrong type", hints{"urgency": dbus.MakeVariant("high")}, model.UrgencyNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Request{Hints: tt.hints}
			assert.Equal(t, tt.expected, r.Urgency())
		})
	}
}

func TestRequest_StringHints(t *testing.T) {
	r := &Request{Hints: hints{
		"category":      dbus.MakeVariant("email.arrived"),
		"desktop-entry": dbus.MakeVariant("thunderbird"),
		"sound-file":    dbus.MakeVariant("/usr/share/sounds/mail.oga"),
		"image_path":    dbus.MakeVariant("/tmp/legacy.png"),
	}}

	assert.Equal(t, "email.arrived", r.Category())
	assert.Equal(t, "thunderbird", r.DesktopEntry())
	assert.Equal(t, "/usr/share/sounds/mail.oga", r.SoundFile())
	assert.Equal(t, "/tmp/legacy.png", r.ImagePath())

	r.Hints["image-path"] = dbus.MakeVariant("/tmp/current.png")
	assert.Equal(t, "/tmp/current.png", r.ImagePath())

	r.Hints["category"] = dbus.MakeVariant(123)
	assert.Empty(t, r.Category(), "mistyped hints are ignored")

	empty := &Request{}
	assert.Empty(t, empty.Category())
	assert.Empty(t, empty.ImagePath())
}

func TestRequest_BoolHints(t *testing.T) {
	r := &Request{Hints: hints{
		"suppress-sound": dbus.MakeVariant(true),
		"transient":      dbus.MakeVariant(true),
		"resident":       dbus.MakeVariant("yes"),
	}}

	assert.True(t, r.SuppressSound())
	assert.True(t, r.Transient())
	assert.False(t, r.Resident())
	assert.False(t, (&Request{}).Resident())
}

func TestRequest_HasImageData(t *testing.T) {
	assert.False(t, (&Request{}).HasImageData())
	assert.True(t, (&Request{Hints: hints{"image-data": dbus.MakeVariant([]byte{1})}}).HasImageData())
	assert.True(t, (&Request{Hints: hints{"icon_data": dbus.MakeVariant([]byte{1})}}).HasImageData())
}

func TestRequest_ToNotification(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := &Request{
		AppName:       "Thunderbird",
		AppIcon:       "thunderbird",
		Summary:       "New mail",
		Body:          "3 unread",
		Actions:       []string{"default", "Open", "archive", "Archive"},
		ExpireTimeout: -1,
		Hints: hints{
			"urgency":  dbus.MakeVariant(byte(2)),
			"resident": dbus.MakeVariant(true),
		},
	}

	n := r.ToNotification(7, now)

	assert.Equal(t, uint32(7), n.ID)
	assert.Equal(t, "Thunderbird", n.AppName)
	assert.Equal(t, "thunderbird", n.AppIcon)
	assert.Equal(t, "New mail", n.Summary)
	assert.Equal(t, "3 unread", n.Body)
	assert.Equal(t, now.Unix(), n.Timestamp)
	assert.Equal(t, model.UrgencyCritical, n.Urgency)
	assert.Equal(t, "critical", n.UrgencyName)
	assert.Equal(t, int32(-1), n.ExpireTimeout)
	assert.True(t, n.Resident)
	assert.Len(t, n.Actions, 2)
	assert.True(t, n.HasDefaultAction())
}

func TestRequest_ToNotificationClampsUrgency(t *testing.T) {
	r := &Request{Hints: hints{"urgency": dbus.MakeVariant(byte(9))}}
	assert.Equal(t, model.UrgencyNormal, r.ToNotification(1, time.Now()).Urgency)
}

func TestDefaultServerInfo(t *testing.T) {
	info := DefaultServerInfo()
	assert.Equal(t, "histshell", info.Name)
	assert.Equal(t, "1.2", info.SpecVersion)
	assert.NotEmpty(t, info.Version)
}

func TestServerCapabilities(t *testing.T) {
	assert.Contains(t, ServerCapabilities, "actions")
	assert.Contains(t, ServerCapabilities, "body")
	assert.Contains(t, ServerCapabilities, "persistence")
}
