package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/model"
	"github.com/jmylchreest/histshell/internal/notify"
)

func TestSanitizeClassName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Firefox", "firefox"},
		{"Google Chrome", "google-chrome"},
		{"org.gnome.Nautilus", "org-gnome-nautilus"},
		{"  spaced  out  ", "spaced-out"},
		{"weird!!name__", "weird-name"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeClassName(tt.input))
		})
	}
}

func TestPopupClasses(t *testing.T) {
	c := notify.PanelContent{
		AppName:    "Mail Client",
		Body:       "hi",
		Urgency:    model.UrgencyCritical,
		Actions:    []model.Action{{Key: "reply", Label: "Reply"}},
		HasDefault: true,
	}
	assert.Equal(t,
		[]string{"notification-popup", "urgency-critical", "app-mail-client", "has-body", "has-actions", "has-default"},
		popupClasses(c))

	assert.Equal(t, []string{"notification-popup", "urgency-low"}, popupClasses(notify.PanelContent{Urgency: model.UrgencyLow}))
	assert.Equal(t, "urgency-normal", urgencyClass(7))
}

func TestMenuRowClasses(t *testing.T) {
	tests := []struct {
		name     string
		node     dbusmenu.Node
		expected []string
	}{
		{"separator", dbusmenu.Node{Kind: dbusmenu.KindSeparator}, []string{"tray-menu-separator"}},
		{"plain", dbusmenu.Node{Label: "Quit"}, []string{"tray-menu-item"}},
		{"alert", dbusmenu.Node{Disposition: dbusmenu.DispositionAlert}, []string{"tray-menu-item", "disposition-alert"}},
		{"submenu hint", dbusmenu.Node{SubmenuHint: true}, []string{"tray-menu-item", "has-submenu"}},
		{
			"radio with children",
			dbusmenu.Node{Toggle: dbusmenu.Toggle{Type: dbusmenu.ToggleRadio}, Children: []dbusmenu.Node{{ID: 2}}},
			[]string{"tray-menu-item", "has-submenu", "toggle-radio"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, menuRowClasses(tt.node))
		})
	}
}

func TestPopupIcon(t *testing.T) {
	tests := []struct {
		name     string
		content  notify.PanelContent
		expected iconSource
	}{
		{"image path wins", notify.PanelContent{Image: "/tmp/a.png", AppIcon: "mail"}, iconSource{File: "/tmp/a.png"}},
		{"file uri", notify.PanelContent{Image: "file:///tmp/b.png"}, iconSource{File: "/tmp/b.png"}},
		{"app icon name", notify.PanelContent{AppIcon: "mail-unread"}, iconSource{Name: "mail-unread"}},
		{"fallback", notify.PanelContent{}, iconSource{Name: "dialog-information"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, popupIcon(tt.content))
		})
	}
}

func TestShortAge(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		ago      time.Duration
		expected string
	}{
		{10 * time.Second, "now"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{50 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, shortAge(now.Add(-tt.ago).Unix(), now))
		})
	}
	assert.Empty(t, shortAge(0, now))
}

func TestStackMargins(t *testing.T) {
	assert.Equal(t, edgeMargins{Top: 10, Right: 15}, stackMargins(10, 15, 0))
	assert.Equal(t, edgeMargins{Top: 118, Right: 15}, stackMargins(10, 15, 108))
}

func TestSanitizeMarkup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "hello", "hello"},
		{"kept tags", "<b>bold</b> and <i>it</i>", "<b>bold</b> and <i>it</i>"},
		{"uppercase tag", "<B>x</B>", "<b>x</b>"},
		{"link reduced to text", `<a href="https://x">site</a>`, "site"},
		{"image dropped", `a<img src="x.png"/>b`, "ab"},
		{"stray brackets", "1 < 2 > 0", "1 &lt; 2 &gt; 0"},
		{"ampersand", "Tom & Jerry &amp; co", "Tom &amp; Jerry &amp; co"},
		{"unclosed tag", "<b>open", "<b>open</b>"},
		{"stray close", "x</i>", "x"},
		{"misnested", "<b><i>x</b>", "<b><i>x</i></b>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeMarkup(tt.input))
		})
	}
}

func TestDisplayError(t *testing.T) {
	cause := assert.AnError
	err := &DisplayError{Message: "no display", Cause: cause}
	assert.Equal(t, "no display: "+cause.Error(), err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bare", (&DisplayError{Message: "bare"}).Error())
}
