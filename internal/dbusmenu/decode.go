package dbusmenu

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Decoder turns GetLayout wire values into Nodes.
//
// Wire items are (int32 id, a{sv} properties, av children) structs, which
// godbus hands back as []interface{} optionally wrapped in a dbus.Variant.
type Decoder struct {
	// MaxDepth stops descending below this many levels. 0 means unlimited.
	MaxDepth int
	// MaxNodes stops decoding once this many nodes were kept. 0 means unlimited.
	MaxNodes int

	logger *slog.Logger
}

// NewDecoder creates a decoder without depth or size limits.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

type decodeState struct {
	kept      int
	truncated bool
}

func (d *Decoder) full(st *decodeState) bool {
	return d.MaxNodes > 0 && st.kept >= d.MaxNodes
}

// DecodeLayout decodes a layout root and returns its children in wire order.
// Only a malformed root is an error; malformed descendants are dropped.
func (d *Decoder) DecodeLayout(root any) ([]Node, error) {
	fields, err := itemFields(root)
	if err != nil {
		return nil, fmt.Errorf("failed to decode layout root: %w", err)
	}

	st := &decodeState{}
	nodes, err := d.decodeChildren(fields[2], 1, st)
	if err != nil {
		return nil, fmt.Errorf("failed to decode layout root: %w", err)
	}
	if st.truncated {
		d.logger.Warn("menu layout truncated",
			"max_depth", d.MaxDepth,
			"max_nodes", d.MaxNodes,
			"kept", st.kept,
		)
	}
	return nodes, nil
}

// DecodeItem decodes a single item. keep is false for invisible items.
func (d *Decoder) DecodeItem(item any) (node Node, keep bool, err error) {
	return d.decodeItem(item, 1, &decodeState{})
}

func (d *Decoder) decodeChildren(raw any, depth int, st *decodeState) ([]Node, error) {
	items, err := childList(raw)
	if err != nil {
		return nil, err
	}

	var out []Node
	for i, item := range items {
		if d.full(st) {
			st.truncated = true
			break
		}
		node, keep, err := d.decodeItem(item, depth, st)
		if err != nil {
			d.logger.Error("dropping menu item", "index", i, "depth", depth, "error", err)
			continue
		}
		if keep {
			out = append(out, node)
		}
	}
	return out, nil
}

func (d *Decoder) decodeItem(item any, depth int, st *decodeState) (Node, bool, error) {
	fields, err := itemFields(item)
	if err != nil {
		return Node{}, false, err
	}

	id, ok := fields[0].(int32)
	if !ok {
		return Node{}, false, fmt.Errorf("%w: id has type %T", ErrMalformedItem, fields[0])
	}

	props, err := propertyMap(fields[1])
	if err != nil {
		return Node{}, false, fmt.Errorf("item %d: %w", id, err)
	}

	node, err := nodeFromProperties(id, props)
	if err != nil {
		return Node{}, false, fmt.Errorf("item %d: %w", id, err)
	}
	if !node.Visible {
		return Node{}, false, nil
	}
	st.kept++

	if node.Kind == KindSeparator {
		return node, true, nil
	}

	if d.MaxDepth > 0 && depth >= d.MaxDepth {
		if n, _ := childList(fields[2]); len(n) > 0 {
			st.truncated = true
		}
		return node, true, nil
	}

	children, err := d.decodeChildren(fields[2], depth+1, st)
	if err != nil {
		return Node{}, false, fmt.Errorf("item %d: %w", id, err)
	}
	node.Children = children
	return node, true, nil
}

func itemFields(item any) ([]any, error) {
	if v, ok := item.(dbus.Variant); ok {
		item = v.Value()
	}
	fields, ok := item.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: item has type %T", ErrMalformedItem, item)
	}
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: item has %d fields", ErrMalformedItem, len(fields))
	}
	return fields, nil
}

func propertyMap(raw any) (map[string]dbus.Variant, error) {
	switch m := raw.(type) {
	case map[string]dbus.Variant:
		return m, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: properties have type %T", ErrMalformedItem, raw)
	}
}

func childList(raw any) ([]any, error) {
	switch c := raw.(type) {
	case nil:
		return nil, nil
	case []dbus.Variant:
		out := make([]any, len(c))
		for i, v := range c {
			out[i] = v
		}
		return out, nil
	case []any:
		return c, nil
	default:
		return nil, fmt.Errorf("%w: children have type %T", ErrMalformedItem, raw)
	}
}

func nodeFromProperties(id int32, props map[string]dbus.Variant) (Node, error) {
	node := Node{ID: id, Enabled: true, Visible: true}

	var (
		toggleType  string
		toggleState int32
		err         error
	)

	for name, v := range props {
		switch name {
		case PropLabel:
			node.Label, err = stringProp(name, v)
		case PropEnabled:
			node.Enabled, err = boolProp(name, v)
		case PropVisible:
			node.Visible, err = boolProp(name, v)
		case PropToggleType:
			toggleType, err = stringProp(name, v)
		case PropToggleState:
			toggleState, err = int32Prop(name, v)
		case PropType:
			var kind string
			kind, err = stringProp(name, v)
			if kind == "separator" {
				node.Kind = KindSeparator
			}
		case PropIconName:
			node.Icon.Name, err = stringProp(name, v)
		case PropIconData:
			node.Icon.Data, err = bytesProp(name, v)
		case PropShortcut:
			node.Shortcut, err = shortcutProp(v)
		case PropDisposition:
			var disp string
			disp, err = stringProp(name, v)
			node.Disposition = parseDisposition(disp)
		case PropChildrenDisplay:
			var display string
			display, err = stringProp(name, v)
			node.SubmenuHint = display == "submenu"
		case PropAccessibleDesc:
			var desc string
			desc, err = stringProp(name, v)
			node.AccessibleDesc = &desc
		}
		if err != nil {
			return Node{}, err
		}
	}

	switch toggleType {
	case "checkmark":
		node.Toggle = Toggle{Type: ToggleCheckmark, State: toggleState == 1}
	case "radio":
		node.Toggle = Toggle{Type: ToggleRadio, State: toggleState == 1}
	}

	if node.Icon.Name != "" {
		node.Icon.Data = nil
	}

	if node.Kind == KindSeparator {
		node.Label = ""
		node.Toggle = Toggle{}
		node.Icon = Icon{}
		node.Shortcut = nil
		node.SubmenuHint = false
	}

	return node, nil
}

func stringProp(name string, v dbus.Variant) (string, error) {
	s, ok := v.Value().(string)
	if !ok {
		return "", propTypeError(name, v)
	}
	return s, nil
}

func boolProp(name string, v dbus.Variant) (bool, error) {
	b, ok := v.Value().(bool)
	if !ok {
		return false, propTypeError(name, v)
	}
	return b, nil
}

func int32Prop(name string, v dbus.Variant) (int32, error) {
	i, ok := v.Value().(int32)
	if !ok {
		return 0, propTypeError(name, v)
	}
	return i, nil
}

func bytesProp(name string, v dbus.Variant) ([]byte, error) {
	b, ok := v.Value().([]byte)
	if !ok {
		return nil, propTypeError(name, v)
	}
	return b, nil
}

func shortcutProp(v dbus.Variant) ([][]string, error) {
	switch s := v.Value().(type) {
	case [][]string:
		return s, nil
	case []any:
		out := make([][]string, 0, len(s))
		for _, combo := range s {
			keys, ok := combo.([]string)
			if !ok {
				return nil, propTypeError(PropShortcut, v)
			}
			out = append(out, keys)
		}
		return out, nil
	default:
		return nil, propTypeError(PropShortcut, v)
	}
}

func propTypeError(name string, v dbus.Variant) error {
	return fmt.Errorf("%w: property %q has signature %s", ErrMalformedItem, name, v.Signature())
}
