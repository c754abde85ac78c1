package dbusmenu

import "strings"

var modifierNames = map[string]string{
	"Control": "Ctrl",
	"Shift":   "Shift",
	"Alt":     "Alt",
	"Super":   "Super",
}

// FormatShortcut renders the first key combination of a shortcut property,
// e.g. [["Control","Shift","p"]] becomes "Ctrl+Shift+P". Further combinations
// are ignored.
func FormatShortcut(combos [][]string) string {
	if len(combos) == 0 || len(combos[0]) == 0 {
		return ""
	}

	keys := make([]string, 0, len(combos[0]))
	for _, key := range combos[0] {
		if name, ok := modifierNames[key]; ok {
			keys = append(keys, name)
			continue
		}
		keys = append(keys, strings.ToUpper(key))
	}
	return strings.Join(keys, "+")
}

// StripMnemonic removes access-key underscores from a label. A doubled
// underscore stands for a literal one.
func StripMnemonic(label string) string {
	if !strings.Contains(label, "_") {
		return label
	}

	var b strings.Builder
	b.Grow(len(label))
	for i := 0; i < len(label); i++ {
		if label[i] != '_' {
			b.WriteByte(label[i])
			continue
		}
		if i+1 < len(label) && label[i+1] == '_' {
			b.WriteByte('_')
			i++
		}
	}
	return b.String()
}

// ToggleIndicator returns the prefix drawn in front of a toggle item's label.
func ToggleIndicator(t Toggle) string {
	switch t.Type {
	case ToggleCheckmark:
		if t.State {
			return "✓ "
		}
		return "  "
	case ToggleRadio:
		if t.State {
			return "● "
		}
		return "○ "
	default:
		return ""
	}
}

// DisplayLabel is the text shown for a node: mnemonics stripped and the
// toggle indicator prepended.
func DisplayLabel(n Node) string {
	return ToggleIndicator(n.Toggle) + StripMnemonic(n.Label)
}

// Accessory is the right-aligned hint for a node: its formatted shortcut, or
// an arrow when the node opens a submenu.
func Accessory(n Node) string {
	if s := FormatShortcut(n.Shortcut); s != "" {
		return s
	}
	if n.SubmenuHint || n.HasChildren() {
		return "→"
	}
	return ""
}
