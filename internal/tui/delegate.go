package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
)

// menuItem wraps a node for the list component.
type menuItem struct {
	node dbusmenu.Node
}

func (i menuItem) FilterValue() string {
	return dbusmenu.StripMnemonic(i.node.Label)
}

var (
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	disabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	accessoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	dispositionStyles = map[dbusmenu.Disposition]lipgloss.Style{
		dbusmenu.DispositionInformative: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		dbusmenu.DispositionWarning:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		dbusmenu.DispositionAlert:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

// menuDelegate draws one node per line with its accessory right-aligned.
type menuDelegate struct{}

func (menuDelegate) Height() int                             { return 1 }
func (menuDelegate) Spacing() int                            { return 0 }
func (menuDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (menuDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(menuItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderNode(mi.node, index == m.Index(), m.Width()))
}

// renderNode returns the line for n, at most width cells wide when width > 0.
func renderNode(n dbusmenu.Node, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("> ")
	}

	if n.IsSeparator() {
		rule := 12
		if width > 4 {
			rule = width - 4
		}
		return cursor + separatorStyle.Render(strings.Repeat("─", rule))
	}

	label := dbusmenu.DisplayLabel(n)
	if n.Icon.Name != "" {
		label += " [" + n.Icon.Name + "]"
	}
	accessory := dbusmenu.Accessory(n)

	style := lipgloss.NewStyle()
	if s, ok := dispositionStyles[n.Disposition]; ok {
		style = s
	}
	if !n.Enabled {
		style = disabledStyle
	}

	line := style.Render(label)
	if accessory != "" {
		gap := 2
		if width > 0 {
			used := lipgloss.Width(cursor) + lipgloss.Width(label) + lipgloss.Width(accessory)
			gap = max(2, width-used-1)
		}
		line += strings.Repeat(" ", gap) + accessoryStyle.Render(accessory)
	}
	return cursor + line
}
