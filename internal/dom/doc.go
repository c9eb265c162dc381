// Package dom provides the declarative element tree and the
// reconciler that keeps live elements synchronized with it.
//
// Rendering code describes what a container should hold as a slice of
// Node descriptors and hands it to Reconciler.Sync. The reconciler
// matches descriptors to existing child elements, by SyncID when one
// is set and positionally by tag otherwise, and applies the minimal
// patch: text, class-set, style and attribute maps are diffed key by
// key, reordered descriptors move their elements instead of recreating
// them, and keyed elements that disappear from the desired tree are
// parked in a bounded release pool for cheap reuse before being
// destroyed. Unkeyed elements are destroyed as soon as they disappear.
//
// A descriptor's content modes have a fixed precedence: Children win
// over Text, and Text wins over Raw. A descriptor carrying both
// Children and Raw is not an error; the Raw content is ignored.
//
// Unrelated element state (attached cursors, scroll anchors, style
// transitions) survives a pass untouched as long as the element
// matched, which is what makes repeated full re-renders cheap.
package dom
