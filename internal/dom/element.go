package dom

import "github.com/google/uuid"

// Element is a live node managed by the reconciler. Elements are
// created when a descriptor first appears, patched in place while it
// keeps appearing, and released to the pool when it disappears. An
// element is destroyed when the pool overflows, or immediately if it
// never carried a sync ID.
type Element struct {
	id  string
	tag string

	parent   *Element
	children []*Element

	classes  []string
	classSet map[string]bool
	// applied counts how many times each class was (re)applied, so a
	// forced re-application is observable even when the class never
	// left the set. Transition restarts depend on this.
	applied map[string]int

	style   map[string]string
	dataset map[string]string
	attrs   map[string]string
	text    string
	raw     string

	lastSyncID string
	released   bool
	destroyed  bool
}

// NewElement creates a detached live element of the given tag.
func NewElement(tag string) *Element {
	return &Element{
		id:       uuid.NewString(),
		tag:      tag,
		classSet: make(map[string]bool),
		applied:  make(map[string]int),
		style:    make(map[string]string),
		dataset:  make(map[string]string),
		attrs:    make(map[string]string),
	}
}

// ID returns the element's stable identity.
func (e *Element) ID() string { return e.id }

// Tag returns the element kind.
func (e *Element) Tag() string { return e.tag }

// Parent returns the containing element, or nil for roots and
// released elements.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the live child slice. Callers must not mutate it;
// structural changes go through the reconciler.
func (e *Element) Children() []*Element { return e.children }

// SyncID returns the key the element matched under in the last pass.
func (e *Element) SyncID() string { return e.lastSyncID }

// Released reports whether the element sits in the release pool.
func (e *Element) Released() bool { return e.released }

// Destroyed reports whether the element was permanently removed.
func (e *Element) Destroyed() bool { return e.destroyed }

// Text returns the element's plain content.
func (e *Element) Text() string { return e.text }

// Raw returns the element's preformatted content.
func (e *Element) Raw() string { return e.raw }

// Classes returns the class list in application order.
func (e *Element) Classes() []string { return e.classes }

// HasClass reports whether the class is currently applied.
func (e *Element) HasClass(class string) bool { return e.classSet[class] }

// AppliedCount returns how many times the class has been applied,
// including forced re-applications.
func (e *Element) AppliedCount(class string) int { return e.applied[class] }

// Style returns the current value of a style key.
func (e *Element) Style(key string) (string, bool) {
	v, ok := e.style[key]
	return v, ok
}

// Attr returns the current value of an attribute.
func (e *Element) Attr(key string) (string, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// Data returns the current value of a dataset key.
func (e *Element) Data(key string) (string, bool) {
	v, ok := e.dataset[key]
	return v, ok
}

// addClass applies a class. With force, an already-present class is
// re-applied: it moves to the end of the list and its applied counter
// advances.
func (e *Element) addClass(class string, force bool) bool {
	if e.classSet[class] {
		if !force {
			return false
		}
		e.removeClass(class)
	}
	e.classSet[class] = true
	e.classes = append(e.classes, class)
	e.applied[class]++
	return true
}

// removeClass drops a class from the set and list.
func (e *Element) removeClass(class string) bool {
	if !e.classSet[class] {
		return false
	}
	delete(e.classSet, class)
	for i, c := range e.classes {
		if c == class {
			e.classes = append(e.classes[:i], e.classes[i+1:]...)
			break
		}
	}
	return true
}

// release detaches the element for pooling. Content is kept so a
// revived element diffs against what it last showed.
func (e *Element) release() {
	e.parent = nil
	e.released = true
}

// revive takes the element back out of the released state.
func (e *Element) revive() {
	e.released = false
}

// destroy marks the element and its subtree permanently dead.
func (e *Element) destroy() {
	e.destroyed = true
	e.parent = nil
	for _, child := range e.children {
		child.destroy()
	}
	e.children = nil
}
