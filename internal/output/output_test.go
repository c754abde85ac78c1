package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/model"
)

func testNotifications() []*model.Notification {
	now := time.Now()
	first := model.NewNotification(12)
	first.AppName = "Firefox"
	first.Summary = "Download Complete"
	first.Body = "myfile.zip has finished downloading"
	first.Timestamp = now.Add(-5 * time.Minute).Unix()

	second := model.NewNotification(7)
	second.AppName = "Slack"
	second.Summary = "New Message"
	second.Body = "Hello from John"
	second.Timestamp = now.Add(-2 * time.Hour).Unix()
	second.SetUrgency(model.UrgencyCritical)

	return []*model.Notification{first, second}
}

func TestPlainFormatter(t *testing.T) {
	f, err := NewPlainFormatter(DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, testNotifications()))

	out := buf.String()
	assert.Contains(t, out, "[1] #12 <Firefox> Download Complete (5 minutes ago)")
	assert.Contains(t, out, "    myfile.zip has finished downloading")
	assert.Contains(t, out, "[2] #7 <Slack> New Message (2 hours ago)")
}

func TestPlainFormatter_Template(t *testing.T) {
	opts := DefaultOptions()
	opts.Template = "{{.Index}} {{urgencyIcon .Notification.Urgency}} {{.Notification.AppName}}"
	f, err := NewPlainFormatter(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, testNotifications()))
	assert.Equal(t, "1 - Firefox\n2 ! Slack\n", buf.String())
}

func TestDmenuFormatter(t *testing.T) {
	f, err := NewDmenuFormatter(DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, testNotifications()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "12 | "), "lines start with the id")
	assert.Contains(t, lines[0], "Firefox | Download Complete: myfile.zip")
	assert.True(t, strings.HasPrefix(lines[1], "7 | "))
}

func TestDmenuFormatter_TruncatesBody(t *testing.T) {
	n := model.NewNotification(1)
	n.Summary = "Test"
	n.Body = "This is a very long body that should be truncated when the max length is set"

	opts := DefaultOptions()
	opts.BodyMaxLen = 20
	f, err := NewDmenuFormatter(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, []*model.Notification{n}))
	assert.Contains(t, buf.String(), "This is a very lo...")
	assert.NotContains(t, buf.String(), "max length")
}

func TestInvalidTemplate(t *testing.T) {
	opts := DefaultOptions()
	opts.Template = "{{.Index"
	_, err := NewHistoryFormatter(FormatPlain, opts)
	assert.Error(t, err)
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONFormatter{}.Format(&buf, testNotifications()))

	var decoded []model.Notification
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, uint32(12), decoded[0].ID)
	assert.Equal(t, "critical", decoded[1].UrgencyName)

	buf.Reset()
	require.NoError(t, JSONFormatter{}.Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAMLFormatter{}.Format(&buf, testNotifications()))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Firefox", decoded[0]["app_name"])
	assert.Equal(t, "Slack", decoded[1]["app_name"])
}

func TestFormatField(t *testing.T) {
	n := model.NewNotification(42)
	n.AppName = "Firefox"
	n.Summary = "Download Complete"
	n.Body = "file.zip finished"
	n.Category = "transfer.complete"
	n.AppIcon = "firefox"

	tests := []struct {
		field    string
		expected string
	}{
		{"id", "42"},
		{"app", "Firefox"},
		{"APP_NAME", "Firefox"},
		{"summary", "Download Complete"},
		{"body", "file.zip finished"},
		{"category", "transfer.complete"},
		{"icon", "firefox"},
		{"urgency", "normal"},
		{"all", "Download Complete\nfile.zip finished"},
		{"unknown", "Download Complete"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatField(n, tt.field))
		})
	}
}

func TestSanitizeBody(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		maxLen         int
		includeNewline bool
		expected       string
	}{
		{"simple", "hello world", 0, false, "hello world"},
		{"newlines", "hello\r\nworld", 0, false, "hello world"},
		{"preserve newlines", "hello\nworld", 0, true, "hello\nworld"},
		{"truncate", "hello world", 8, false, "hello..."},
		{"tiny limit", "hello", 2, false, "he"},
		{"multibyte", "ééééééé", 5, false, "éé..."},
		{"spaces", "hello   world", 0, false, "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeBody(tt.body, tt.maxLen, tt.includeNewline))
		})
	}
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "unknown", relativeTime(0))
	assert.Equal(t, "3 days ago", relativeTime(time.Now().Add(-72*time.Hour).Unix()))
}

func TestNewHistoryFormatter(t *testing.T) {
	tests := []struct {
		format Format
		want   any
	}{
		{FormatPlain, &PlainFormatter{}},
		{"", &PlainFormatter{}},
		{FormatDmenu, &DmenuFormatter{}},
		{FormatJSON, JSONFormatter{}},
		{FormatYAML, YAMLFormatter{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := NewHistoryFormatter(tt.format, DefaultOptions())
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}

	_, err := NewHistoryFormatter(FormatTree, DefaultOptions())
	assert.Error(t, err)
}

func desc(s string) *string { return &s }

func testMenu() []dbusmenu.Node {
	return []dbusmenu.Node{
		{ID: 1, Label: "_Enable Wi-Fi", Enabled: true, Toggle: dbusmenu.Toggle{Type: dbusmenu.ToggleCheckmark, State: true}},
		{ID: 2, Label: "Connections", Enabled: true, Children: []dbusmenu.Node{
			{ID: 5, Label: "Home", Enabled: true, Icon: dbusmenu.Icon{Name: "network-wireless"}},
			{ID: 6, Label: "Office", Enabled: false},
		}},
		{ID: 3, Kind: dbusmenu.KindSeparator, Enabled: true},
		{
			ID: 4, Label: "Quit", Enabled: true,
			Shortcut:       [][]string{{"Control", "q"}},
			Disposition:    dbusmenu.DispositionAlert,
			AccessibleDesc: desc("Quit the applet"),
		},
	}
}

func TestTreeFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TreeFormatter{}.Format(&buf, testMenu()))

	expected := "[1] ✓ Enable Wi-Fi\n" +
		"[2] Connections  →\n" +
		"    [5] Home\n" +
		"    [6] Office  (disabled)\n" +
		"─────\n" +
		"[4] Quit  Ctrl+Q\n"
	assert.Equal(t, expected, buf.String())
}

func TestTreeFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TreeFormatter{}.Format(&buf, nil))
	assert.Equal(t, "(empty menu)\n", buf.String())
}

func TestMenuJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MenuJSONFormatter{}.Format(&buf, testMenu()))

	var entries []MenuEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 4)

	assert.Equal(t, "Enable Wi-Fi", entries[0].Label)
	assert.Equal(t, "checkmark", entries[0].Toggle)
	assert.True(t, entries[0].Checked)
	assert.Equal(t, "standard", entries[1].Type)
	require.Len(t, entries[1].Children, 2)
	assert.Equal(t, "network-wireless", entries[1].Children[0].Icon)
	assert.Equal(t, "separator", entries[2].Type)
	assert.Equal(t, "Ctrl+Q", entries[3].Shortcut)
	assert.Equal(t, "alert", entries[3].Disposition)
	assert.Equal(t, "Quit the applet", entries[3].Description)
}

func TestMenuYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MenuYAMLFormatter{}.Format(&buf, testMenu()))

	var entries []MenuEntry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, "Office", entries[1].Children[1].Label)
	assert.False(t, entries[1].Children[1].Enabled)
}

func TestNewMenuFormatter(t *testing.T) {
	for _, format := range MenuFormats {
		_, err := NewMenuFormatter(format)
		assert.NoError(t, err, format)
	}
	_, err := NewMenuFormatter(FormatDmenu)
	assert.Error(t, err)
}
