// Package tui provides the BubbleTea menu browser behind
// "histshellctl menu browse": a terminal rendering of a tray item's
// DBusMenu with drill-down navigation.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/toast"
)

// MenuBackend fetches and activates a remote menu. *dbusmenu.Client
// implements it.
type MenuBackend interface {
	Layout(ctx context.Context, remoteID string, menuPath dbus.ObjectPath) (*dbusmenu.Layout, error)
	Activate(ctx context.Context, remoteID string, menuPath dbus.ObjectPath, itemID int32) error
}

// Options configures a Model.
type Options struct {
	ItemID   string
	MenuPath dbus.ObjectPath
	Timeout  time.Duration // per call; 0 = none
	// QuitOnActivate ends the program after a successful activation instead
	// of reloading the menu.
	QuitOnActivate bool
}

// Model is the menu browser.
type Model struct {
	backend MenuBackend
	opts    Options

	nav    *dbusmenu.Navigator
	toasts *toast.Manager

	list list.Model
	help help.Model
	keys KeyMap

	generation uint64
	loading    bool
	revision   uint32
	width      int
	height     int
	ready      bool
}

type layoutMsg struct {
	generation uint64
	layout     *dbusmenu.Layout
	err        error
}

type activatedMsg struct {
	id    int32
	label string
	err   error
}

type toastExpiredMsg struct {
	id string
}

// New creates the browser model. toasts may be nil.
func New(backend MenuBackend, opts Options, toasts *toast.Manager) Model {
	if toasts == nil {
		toasts = toast.NewManager(nil, nil)
	}

	l := list.New(nil, menuDelegate{}, 0, 0)
	l.Title = dbusmenu.DefaultTitle
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		backend: backend,
		opts:    opts,
		nav:     dbusmenu.NewNavigator(nil),
		toasts:  toasts,
		list:    l,
		help:    help.New(),
		keys:    DefaultKeyMap(),

		generation: 1,
		loading:    true,
	}
}

// Init starts the first layout fetch.
func (m Model) Init() tea.Cmd {
	return m.fetch(m.generation)
}

func callContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

func (m Model) fetch(gen uint64) tea.Cmd {
	backend, opts := m.backend, m.opts
	return func() tea.Msg {
		ctx, cancel := callContext(opts.Timeout)
		defer cancel()
		layout, err := backend.Layout(ctx, opts.ItemID, opts.MenuPath)
		return layoutMsg{generation: gen, layout: layout, err: err}
	}
}

// reload bumps the generation so any earlier fetch still in flight is
// discarded when it lands.
func (m *Model) reload() tea.Cmd {
	m.generation++
	m.loading = true
	return m.fetch(m.generation)
}

func (m Model) activate(n dbusmenu.Node) tea.Cmd {
	backend, opts := m.backend, m.opts
	label := dbusmenu.StripMnemonic(n.Label)
	return func() tea.Msg {
		ctx, cancel := callContext(opts.Timeout)
		defer cancel()
		err := backend.Activate(ctx, opts.ItemID, opts.MenuPath, n.ID)
		return activatedMsg{id: n.ID, label: label, err: err}
	}
}

func (m Model) showToast(message string, typ toast.Type) tea.Cmd {
	id := m.toasts.Show(message, typ, toast.DefaultDuration)
	return tea.Tick(toast.DefaultDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.list.SetSize(msg.Width, max(1, msg.Height-4))
		return m, nil

	case layoutMsg:
		if msg.generation != m.generation {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.nav.Reset()
			m.syncList()
			return m, m.showToast("Failed to load menu: "+msg.err.Error(), toast.TypeError)
		}
		m.revision = msg.layout.Revision
		m.nav.Open(msg.layout.Nodes)
		m.syncList()
		return m, nil

	case activatedMsg:
		if msg.err != nil {
			cmd := m.showToast(fmt.Sprintf("Activating %q failed: %v", msg.label, msg.err), toast.TypeError)
			return m, tea.Batch(cmd, m.reload())
		}
		cmd := m.showToast(fmt.Sprintf("Activated %q", msg.label), toast.TypeSuccess)
		if m.opts.QuitOnActivate {
			return m, tea.Quit
		}
		return m, tea.Batch(cmd, m.reload())

	case toastExpiredMsg:
		m.toasts.Dismiss(msg.id)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()

	case key.Matches(msg, m.keys.Back):
		if m.nav.Back() {
			m.syncList()
			return m, nil
		}
		if msg.String() == "esc" {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		item, ok := m.list.SelectedItem().(menuItem)
		if !ok || m.loading {
			return m, nil
		}
		switch m.nav.Select(item.node) {
		case dbusmenu.Entered:
			m.syncList()
			return m, nil
		case dbusmenu.Closed:
			m.loading = true
			m.syncList()
			return m, m.activate(item.node)
		default:
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// syncList shows the navigator's current frame and selects its first
// selectable entry.
func (m *Model) syncList() {
	nodes := m.nav.Current()
	items := make([]list.Item, len(nodes))
	first := -1
	for i, n := range nodes {
		items[i] = menuItem{node: n}
		if first < 0 && !n.IsSeparator() && n.Enabled {
			first = i
		}
	}
	m.list.SetItems(items)
	m.list.Title = m.breadcrumb()
	if first >= 0 {
		m.list.Select(first)
	} else {
		m.list.ResetSelected()
	}
}

func (m Model) breadcrumb() string {
	if title := m.nav.Title(); title != "" {
		return dbusmenu.DefaultTitle + " › " + title
	}
	return dbusmenu.DefaultTitle
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	toastStyles = map[toast.Type]lipgloss.Style{
		toast.TypeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		toast.TypeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		toast.TypeWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		toast.TypeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
)

// View renders the browser.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s %s (revision %d)", m.opts.ItemID, m.opts.MenuPath, m.revision)))
	sb.WriteString("\n")

	switch {
	case m.loading:
		sb.WriteString("Loading menu...\n")
	case len(m.list.Items()) == 0:
		sb.WriteString(headerStyle.Render("(empty menu)") + "\n")
	default:
		sb.WriteString(m.list.View() + "\n")
	}

	for _, t := range m.toasts.All() {
		sb.WriteString(toastStyles[t.Type].Render(t.Message) + "\n")
	}
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// Run starts the browser on the terminal.
func Run(backend MenuBackend, opts Options) error {
	p := tea.NewProgram(New(backend, opts, nil), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("menu browser failed: %w", err)
	}
	return nil
}
