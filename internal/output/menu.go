package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
)

// MenuEntry is the serialised form of a menu node: labels are shown as the
// user would see them and enums use their wire names.
type MenuEntry struct {
	ID          int32       `json:"id" yaml:"id"`
	Type        string      `json:"type" yaml:"type"`
	Label       string      `json:"label,omitempty" yaml:"label,omitempty"`
	Enabled     bool        `json:"enabled" yaml:"enabled"`
	Toggle      string      `json:"toggle,omitempty" yaml:"toggle,omitempty"`
	Checked     bool        `json:"checked,omitempty" yaml:"checked,omitempty"`
	Icon        string      `json:"icon,omitempty" yaml:"icon,omitempty"`
	IconData    bool        `json:"icon_data,omitempty" yaml:"icon_data,omitempty"`
	Shortcut    string      `json:"shortcut,omitempty" yaml:"shortcut,omitempty"`
	Disposition string      `json:"disposition,omitempty" yaml:"disposition,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Children    []MenuEntry `json:"children,omitempty" yaml:"children,omitempty"`
}

func menuEntries(nodes []dbusmenu.Node) []MenuEntry {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]MenuEntry, 0, len(nodes))
	for _, n := range nodes {
		e := MenuEntry{
			ID:       n.ID,
			Type:     n.Kind.String(),
			Label:    dbusmenu.StripMnemonic(n.Label),
			Enabled:  n.Enabled,
			Toggle:   n.Toggle.Type.String(),
			Icon:     n.Icon.Name,
			IconData: len(n.Icon.Data) > 0,
			Shortcut: dbusmenu.FormatShortcut(n.Shortcut),
			Children: menuEntries(n.Children),
		}
		if n.Toggle.Type != dbusmenu.ToggleNone {
			e.Checked = n.Toggle.State
		}
		if n.Disposition != dbusmenu.DispositionNormal {
			e.Disposition = n.Disposition.String()
		}
		if n.AccessibleDesc != nil {
			e.Description = *n.AccessibleDesc
		}
		out = append(out, e)
	}
	return out
}

// TreeFormatter draws a menu as an indented tree:
//
//	[3] ✓ Enable Wi-Fi
//	[4] Connections →
//	    [5] Home
//	─────
type TreeFormatter struct{}

// Format implements MenuFormatter.
func (TreeFormatter) Format(w io.Writer, nodes []dbusmenu.Node) error {
	if len(nodes) == 0 {
		_, err := fmt.Fprintln(w, "(empty menu)")
		return err
	}

	var sb strings.Builder
	dbusmenu.Walk(nodes, func(n dbusmenu.Node, depth int) {
		sb.WriteString(strings.Repeat("    ", depth))
		if n.IsSeparator() {
			sb.WriteString("─────\n")
			return
		}
		fmt.Fprintf(&sb, "[%d] %s", n.ID, dbusmenu.DisplayLabel(n))
		if acc := dbusmenu.Accessory(n); acc != "" {
			sb.WriteString("  " + acc)
		}
		if !n.Enabled {
			sb.WriteString("  (disabled)")
		}
		sb.WriteString("\n")
	})

	_, err := io.WriteString(w, sb.String())
	return err
}
