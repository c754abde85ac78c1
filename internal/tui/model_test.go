package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/toast"
)

type fakeBackend struct {
	layout      *dbusmenu.Layout
	layoutErr   error
	activateErr error
	activated   []int32
	fetches     int
}

func (f *fakeBackend) Layout(_ context.Context, _ string, _ dbus.ObjectPath) (*dbusmenu.Layout, error) {
	f.fetches++
	return f.layout, f.layoutErr
}

func (f *fakeBackend) Activate(_ context.Context, _ string, _ dbus.ObjectPath, id int32) error {
	f.activated = append(f.activated, id)
	return f.activateErr
}

func testLayout() *dbusmenu.Layout {
	return &dbusmenu.Layout{
		Revision: 7,
		Nodes: []dbusmenu.Node{
			{ID: 1, Kind: dbusmenu.KindSeparator, Enabled: true},
			{ID: 2, Label: "_Connections", Enabled: true, Children: []dbusmenu.Node{
				{ID: 5, Label: "Home", Enabled: true},
				{ID: 6, Label: "Office", Enabled: true},
			}},
			{ID: 3, Label: "Disabled", Enabled: false},
			{ID: 4, Label: "Quit", Enabled: true},
		},
	}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	downKey  = tea.KeyMsg{Type: tea.KeyDown}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// send applies msg and returns the new model and its command.
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// loaded returns a sized model with testLayout delivered.
func loaded(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	m := New(backend, Options{ItemID: ":1.5/StatusNotifierItem", MenuPath: "/MenuBar"}, toast.NewManager(nil, nil))
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = send(t, m, m.Init()())
	return m
}

func labels(m Model) []string {
	var out []string
	for _, item := range m.list.Items() {
		out = append(out, item.(menuItem).node.Label)
	}
	return out
}

func selectedID(m Model) int32 {
	return m.list.SelectedItem().(menuItem).node.ID
}

func TestModel_LoadsLayout(t *testing.T) {
	backend := &fakeBackend{layout: testLayout()}
	m := loaded(t, backend)

	assert.False(t, m.loading)
	assert.Equal(t, uint32(7), m.revision)
	assert.Equal(t, []string{"", "_Connections", "Disabled", "Quit"}, labels(m))
	assert.Equal(t, int32(2), selectedID(m), "separators are skipped for the initial cursor")
	assert.Contains(t, m.View(), "Connections")
}

func TestModel_DrillDownAndBack(t *testing.T) {
	backend := &fakeBackend{layout: testLayout()}
	m := loaded(t, backend)

	m, cmd := send(t, m, enterKey)
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"Home", "Office"}, labels(m))
	assert.Equal(t, "Menu › Connections", m.list.Title)

	m, _ = send(t, m, escKey)
	assert.Equal(t, []string{"", "_Connections", "Disabled", "Quit"}, labels(m))
	assert.Equal(t, dbusmenu.DefaultTitle, m.list.Title)
	assert.Empty(t, backend.activated)
}

func TestModel_EscAtTopQuits(t *testing.T) {
	m := loaded(t, &fakeBackend{layout: testLayout()})
	_, cmd := send(t, m, escKey)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_DisabledIsIgnored(t *testing.T) {
	backend := &fakeBackend{layout: testLayout()}
	m := loaded(t, backend)

	m, _ = send(t, m, downKey)
	require.Equal(t, int32(3), selectedID(m))

	m, cmd := send(t, m, enterKey)
	assert.Nil(t, cmd)
	assert.Len(t, m.list.Items(), 4)
}

func TestModel_ActivateLeaf(t *testing.T) {
	backend := &fakeBackend{layout: testLayout()}
	m := loaded(t, backend)

	m, _ = send(t, m, downKey)
	m, _ = send(t, m, downKey)
	require.Equal(t, int32(4), selectedID(m))

	m, cmd := send(t, m, enterKey)
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	msg := cmd()
	assert.Equal(t, []int32{4}, backend.activated)

	m, cmd = send(t, m, msg)
	require.NotNil(t, cmd)
	toasts := m.toasts.All()
	require.Len(t, toasts, 1)
	assert.Equal(t, toast.TypeSuccess, toasts[0].Type)
	assert.Equal(t, `Activated "Quit"`, toasts[0].Message)
}

func TestModel_ActivateFailureShowsError(t *testing.T) {
	backend := &fakeBackend{layout: testLayout(), activateErr: errors.New("no reply")}
	m := loaded(t, backend)

	m, _ = send(t, m, activatedMsg{id: 4, label: "Quit", err: backend.activateErr})

	toasts := m.toasts.All()
	require.Len(t, toasts, 1)
	assert.Equal(t, toast.TypeError, toasts[0].Type)
	assert.Contains(t, toasts[0].Message, "no reply")
}

func TestModel_QuitOnActivate(t *testing.T) {
	m := New(&fakeBackend{}, Options{QuitOnActivate: true}, nil)
	_, cmd := send(t, m, activatedMsg{id: 1, label: "x"})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_StaleLayoutDiscarded(t *testing.T) {
	backend := &fakeBackend{layout: testLayout()}
	m := loaded(t, backend)

	stale := layoutMsg{generation: m.generation, layout: &dbusmenu.Layout{Nodes: []dbusmenu.Node{{ID: 99, Label: "Old", Enabled: true}}}}
	m, cmd := send(t, m, runeKey('r'))
	require.NotNil(t, cmd)

	m, _ = send(t, m, stale)
	assert.True(t, m.loading, "a response from before the reload is ignored")

	m, _ = send(t, m, cmd())
	assert.False(t, m.loading)
	assert.Equal(t, 2, backend.fetches)
}

func TestModel_LayoutError(t *testing.T) {
	backend := &fakeBackend{layoutErr: errors.New("service unknown")}
	m := loaded(t, backend)

	assert.Empty(t, m.list.Items())
	assert.Contains(t, m.View(), "(empty menu)")
	assert.Contains(t, m.View(), "service unknown")
}

func TestModel_ToastExpires(t *testing.T) {
	m := loaded(t, &fakeBackend{layout: testLayout()})
	id := m.toasts.Info("hello")

	m, _ = send(t, m, toastExpiredMsg{id: id})
	assert.Empty(t, m.toasts.All())
}

func TestRenderNode(t *testing.T) {
	tests := []struct {
		name     string
		node     dbusmenu.Node
		selected bool
		contains []string
	}{
		{"separator", dbusmenu.Node{Kind: dbusmenu.KindSeparator}, false, []string{"────"}},
		{"cursor", dbusmenu.Node{Label: "Quit", Enabled: true}, true, []string{"> ", "Quit"}},
		{
			"toggle and shortcut",
			dbusmenu.Node{
				Label: "_Mute", Enabled: true,
				Toggle:   dbusmenu.Toggle{Type: dbusmenu.ToggleCheckmark, State: true},
				Shortcut: [][]string{{"Control", "m"}},
			},
			false,
			[]string{"✓ Mute", "Ctrl+M"},
		},
		{"submenu", dbusmenu.Node{Label: "More", Enabled: true, SubmenuHint: true}, false, []string{"More", "→"}},
		{"icon", dbusmenu.Node{Label: "Wi-Fi", Enabled: true, Icon: dbusmenu.Icon{Name: "network-wireless"}}, false, []string{"[network-wireless]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := renderNode(tt.node, tt.selected, 40)
			for _, want := range tt.contains {
				assert.True(t, strings.Contains(line, want), "%q missing from %q", want, line)
			}
		})
	}
}
