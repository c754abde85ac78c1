// Package dbusmenu implements a client for the com.canonical.dbusmenu protocol
// used by StatusNotifierItem tray icons: layout decoding, activation and the
// drill-down navigation state of a rendered menu.
package dbusmenu

import "errors"

const (
	// Interface is the DBusMenu interface name.
	Interface = "com.canonical.dbusmenu"

	// DefaultTitle labels the top-level frame when the parent has no label.
	DefaultTitle = "Menu"
)

// Property names requested from GetLayout.
const (
	PropLabel           = "label"
	PropEnabled         = "enabled"
	PropVisible         = "visible"
	PropToggleType      = "toggle-type"
	PropToggleState     = "toggle-state"
	PropType            = "type"
	PropIconName        = "icon-name"
	PropIconData        = "icon-data"
	PropShortcut        = "shortcut"
	PropDisposition     = "disposition"
	PropChildrenDisplay = "children-display"
	PropAccessibleDesc  = "accessible-desc"
)

// KnownProperties is the full property list sent with every GetLayout call.
var KnownProperties = []string{
	PropLabel,
	PropEnabled,
	PropVisible,
	PropToggleType,
	PropToggleState,
	PropType,
	PropIconName,
	PropIconData,
	PropShortcut,
	PropDisposition,
	PropChildrenDisplay,
	PropAccessibleDesc,
}

// ErrMalformedItem is returned when a layout item does not have the
// (int32, a{sv}, av) shape or a known property carries the wrong type.
var ErrMalformedItem = errors.New("malformed menu item")

// Kind distinguishes regular entries from separators.
type Kind int

const (
	KindNormal Kind = iota
	KindSeparator
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	if k == KindSeparator {
		return "separator"
	}
	return "standard"
}

// ToggleType is the kind of toggle indicator an item carries.
type ToggleType int

const (
	ToggleNone ToggleType = iota
	ToggleCheckmark
	ToggleRadio
)

// String returns the wire name of the toggle type.
func (t ToggleType) String() string {
	switch t {
	case ToggleCheckmark:
		return "checkmark"
	case ToggleRadio:
		return "radio"
	default:
		return ""
	}
}

// Toggle is the toggle indicator of an item. State is only meaningful when
// Type is not ToggleNone.
type Toggle struct {
	Type  ToggleType `json:"type,omitempty" yaml:"type,omitempty"`
	State bool       `json:"state,omitempty" yaml:"state,omitempty"`
}

// Icon is either a themed icon name or raw PNG data. A name wins over data.
type Icon struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Data []byte `json:"data,omitempty" yaml:"data,omitempty"`
}

// IsZero reports whether the item has no icon.
func (i Icon) IsZero() bool {
	return i.Name == "" && len(i.Data) == 0
}

// Disposition is a styling hint for the item.
type Disposition int

const (
	DispositionNormal Disposition = iota
	DispositionInformative
	DispositionWarning
	DispositionAlert
)

// String returns the wire name of the disposition.
func (d Disposition) String() string {
	switch d {
	case DispositionInformative:
		return "informative"
	case DispositionWarning:
		return "warning"
	case DispositionAlert:
		return "alert"
	default:
		return "normal"
	}
}

func parseDisposition(s string) Disposition {
	switch s {
	case "informative":
		return DispositionInformative
	case "warning":
		return DispositionWarning
	case "alert":
		return DispositionAlert
	default:
		return DispositionNormal
	}
}

// Node is one decoded menu entry. Nodes are immutable once decoded.
// Invisible entries never become a Node.
type Node struct {
	ID             int32       `json:"id" yaml:"id"`
	Label          string      `json:"label,omitempty" yaml:"label,omitempty"`
	Enabled        bool        `json:"enabled" yaml:"enabled"`
	Visible        bool        `json:"-" yaml:"-"`
	Kind           Kind        `json:"-" yaml:"-"`
	Toggle         Toggle      `json:"toggle,omitzero" yaml:"toggle,omitempty"`
	Icon           Icon        `json:"icon,omitzero" yaml:"icon,omitempty"`
	Shortcut       [][]string  `json:"shortcut,omitempty" yaml:"shortcut,omitempty"`
	Disposition    Disposition `json:"-" yaml:"-"`
	SubmenuHint    bool        `json:"submenu,omitempty" yaml:"submenu,omitempty"`
	AccessibleDesc *string     `json:"accessible_desc,omitempty" yaml:"accessible_desc,omitempty"`
	Children       []Node      `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsSeparator reports whether the node is a separator.
func (n Node) IsSeparator() bool {
	return n.Kind == KindSeparator
}

// HasChildren reports whether selecting the node opens a submenu.
func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Activatable reports whether selecting the node may send a click event.
func (n Node) Activatable() bool {
	return n.Kind == KindNormal && n.Enabled && !n.HasChildren()
}

// Count returns the number of nodes in the forest, recursively.
func Count(nodes []Node) int {
	total := 0
	for _, n := range nodes {
		total += 1 + Count(n.Children)
	}
	return total
}

// Walk calls fn for every node in depth-first order.
func Walk(nodes []Node, fn func(n Node, depth int)) {
	walk(nodes, 0, fn)
}

func walk(nodes []Node, depth int, fn func(Node, int)) {
	for _, n := range nodes {
		fn(n, depth)
		walk(n.Children, depth+1, fn)
	}
}
