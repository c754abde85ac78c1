package dbusmenu

// Frame is one breadcrumb in the navigation stack.
type Frame struct {
	Nodes []Node
	Title string
}

// Outcome describes what a selection did.
type Outcome int

const (
	// Ignored means nothing happened: separators and disabled entries.
	Ignored Outcome = iota
	// Entered means the node's children are now displayed.
	Entered
	// Closed means a leaf was activated and the menu must close.
	Closed
)

// Navigator is the drill-down state of one open menu. It is not safe for
// concurrent use; it lives on the event goroutine with the window showing it.
type Navigator struct {
	current []Node
	title   string
	stack   []Frame

	activate func(id int32)
}

// NewNavigator creates a navigator that calls activate for leaf selections.
func NewNavigator(activate func(id int32)) *Navigator {
	return &Navigator{activate: activate}
}

// Open displays a fresh top-level menu, discarding any breadcrumbs.
func (n *Navigator) Open(nodes []Node) {
	n.current = nodes
	n.title = ""
	n.stack = nil
}

// Reset empties the navigator.
func (n *Navigator) Reset() {
	n.Open(nil)
}

// Current returns the nodes being displayed.
func (n *Navigator) Current() []Node {
	return n.current
}

// Title is the label of the submenu being displayed, or "" at the top level.
func (n *Navigator) Title() string {
	return n.title
}

// ParentTitle is the title Back would return to, or "" at the top level.
// The top-level menu is reported as DefaultTitle.
func (n *Navigator) ParentTitle() string {
	if len(n.stack) == 0 {
		return ""
	}
	return n.stack[len(n.stack)-1].Title
}

// Depth is the number of frames on the stack.
func (n *Navigator) Depth() int {
	return len(n.stack)
}

// CanGoBack reports whether Back would pop a frame.
func (n *Navigator) CanGoBack() bool {
	return len(n.stack) > 0
}

// Select handles a click on node.
func (n *Navigator) Select(node Node) Outcome {
	if node.IsSeparator() || !node.Enabled {
		return Ignored
	}

	if node.HasChildren() {
		title := n.title
		if title == "" {
			title = DefaultTitle
		}
		n.stack = append(n.stack, Frame{Nodes: n.current, Title: title})
		n.current = node.Children
		n.title = StripMnemonic(node.Label)
		if n.title == "" {
			n.title = DefaultTitle
		}
		return Entered
	}

	if n.activate != nil {
		n.activate(node.ID)
	}
	n.Reset()
	return Closed
}

// Back pops one frame. It reports false at the top level.
func (n *Navigator) Back() bool {
	if len(n.stack) == 0 {
		return false
	}
	top := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]
	n.current = top.Nodes
	n.title = top.Title
	if len(n.stack) == 0 {
		n.title = ""
	}
	return true
}
