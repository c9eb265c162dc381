package dom

// Node is a desired-state descriptor for one element. Descriptors are
// plain values produced fresh on every render pass; the reconciler
// never retains them.
type Node struct {
	// Tag is the element kind ("div", "bar", "row"...). Elements only
	// match descriptors of the same tag.
	Tag string

	// SyncID, when set, is the stable key used to match this
	// descriptor to the same element across passes regardless of
	// position. SyncIDs must be unique among siblings.
	SyncID string

	// Classes is the desired class set. Order is preserved for
	// rendering but matching is set-based.
	Classes []string

	// Style, Dataset and Attrs are diffed key by key against the
	// element's current maps.
	Style   map[string]string
	Dataset map[string]string
	Attrs   map[string]string

	// Text is plain content. Ignored when Children is non-empty.
	Text string

	// Raw is preformatted content. Ignored when Children or Text is
	// set; lowest precedence of the three content modes.
	Raw string

	// Children are nested descriptors, reconciled recursively.
	Children []Node
}

// WithClass returns a copy of the node with extra classes appended.
func (n Node) WithClass(classes ...string) Node {
	n.Classes = append(append([]string(nil), n.Classes...), classes...)
	return n
}

// hasChildren reports whether the children content mode is active.
func (n Node) hasChildren() bool {
	return len(n.Children) > 0
}
