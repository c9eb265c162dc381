package event

import (
	"unsafe"

	"github.com/benbjohnson/clock"
)

// listener is one registration for one event name.
type listener struct {
	name    string // lower-cased event name
	raw     string // name as registered
	handler Handler
	// method/resolver form a late-bound handler looked up at dispatch
	// time; exactly one of handler or method is set.
	method   string
	resolver MethodResolver

	owner    Owner
	priority int
	seq      uint64 // registration order, breaks priority ties
	once     bool
	args     []any
	label    string

	// removed marks the listener dead for dispatches already holding a
	// snapshot that still contains it.
	removed bool
	// invoked suppresses the expiry callback once the listener fired.
	invoked bool
	expire  *clock.Timer
}

// key identifies a handler+owner pair for the duplicate guard.
type listenerKey struct {
	fn     uintptr
	method string
	owner  Owner
}

// handlerID is the identity of a handler func value: the address of
// its closure record, not the shared code pointer reflect exposes.
// Copies of one func value share it; distinct closures instantiated
// from the same literal do not, so each may register separately.
func handlerID(fn Handler) uintptr {
	if fn == nil {
		return 0
	}
	return *(*uintptr)(unsafe.Pointer(&fn))
}

func (l *listener) keyOf() listenerKey {
	return listenerKey{
		fn:     handlerID(l.handler),
		method: l.method,
		owner:  l.owner,
	}
}

// resolve returns the callable to invoke, following the late-bound
// path when the listener was registered by method name.
func (l *listener) resolve() (Handler, bool) {
	if l.handler != nil {
		return l.handler, true
	}
	if l.resolver != nil {
		return l.resolver.ResolveHandler(l.method)
	}
	return nil, false
}

// stopTimer cancels a pending expiry timer, if any.
func (l *listener) stopTimer() {
	if l.expire != nil {
		l.expire.Stop()
		l.expire = nil
	}
}

// listenerList is an immutable priority-ordered slice. Every mutation
// produces a new slice so in-flight dispatches iterate a stable
// snapshot.
type listenerList []*listener

// insert returns a new list with l placed by descending priority,
// after existing entries of equal priority.
func (ll listenerList) insert(l *listener) listenerList {
	idx := len(ll)
	for i, existing := range ll {
		if existing.priority < l.priority {
			idx = i
			break
		}
	}
	out := make(listenerList, 0, len(ll)+1)
	out = append(out, ll[:idx]...)
	out = append(out, l)
	out = append(out, ll[idx:]...)
	return out
}

// without returns a new list with l removed, or the receiver when l is
// not present.
func (ll listenerList) without(l *listener) listenerList {
	for i, existing := range ll {
		if existing == l {
			out := make(listenerList, 0, len(ll)-1)
			out = append(out, ll[:i]...)
			out = append(out, ll[i+1:]...)
			return out
		}
	}
	return ll
}

// mergeByPriority interleaves two priority-ordered lists into one,
// ordering by descending priority and registration sequence for ties.
func mergeByPriority(a, b listenerList) listenerList {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(listenerList, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if before(a[i], b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func before(a, b *listener) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.seq < b.seq
}
