package event

// CatchAll is the wildcard event name. Listeners registered for it are
// invoked for every event triggered on the bus, merged with the
// specific listeners by priority.
const CatchAll = "*"

// Event is the payload handed to every listener for a single dispatch.
// The bus constructs it fresh per Trigger call; the caller's data value
// is never mutated.
type Event struct {
	// Type is the lower-cased event name.
	Type string

	// Name is the event name as originally passed to Trigger.
	Name string

	// Source is the host object the bus dispatches for.
	Source any

	// Data is the payload passed to Trigger, untouched.
	Data any

	// Args are the fixed leading arguments the invoked listener was
	// registered with (WithArgs). Empty for listeners without them.
	Args []any
}

// Handler processes a dispatched event. Returning ErrStop halts
// propagation for this dispatch (remaining listeners, relays and
// bubbling are skipped) and makes Trigger report a veto. Any other
// non-nil error aborts the dispatch and propagates out of Trigger;
// handlers are deliberately not isolated from each other.
type Handler func(ev *Event) error

// Detacher undoes exactly one registration call. Calling it more than
// once is harmless.
type Detacher func()

// Bubbler is implemented by payloads that want the event re-triggered
// on the owner bus after local listeners and relays have run.
type Bubbler interface {
	Bubbles() bool
}

// MethodResolver resolves a late-bound handler by name at dispatch
// time. Hosts whose handler methods may be replaced after registration
// implement this instead of registering a captured function value.
type MethodResolver interface {
	ResolveHandler(name string) (Handler, bool)
}

// SelfDispatcher is implemented by hosts that want first look at every
// event dispatched on their bus, before any listener runs. ErrStop
// returned here prevents all listeners for the dispatch.
type SelfDispatcher interface {
	HandleEvent(ev *Event) error
}

// Owner ties listener registrations to an object's lifetime. A
// registration made with WithOwner is skipped once the owner reports
// destroyed, and the bus registers a cleanup with the owner so the
// listeners are removed before the owner's own teardown runs.
//
// Owner values are used as map keys and must be comparable; pointer
// implementations satisfy this naturally.
type Owner interface {
	// Destroyed reports whether the owner has been torn down.
	Destroyed() bool

	// AddCleanup registers fn to run when the owner is destroyed.
	AddCleanup(fn func())
}

// Scope is a minimal Owner for callers that have no natural teardown
// sequence of their own. Destroy runs registered cleanups in reverse
// registration order, then marks the scope destroyed.
type Scope struct {
	destroyed bool
	cleanups  []func()
}

// NewScope returns a live Scope.
func NewScope() *Scope {
	return &Scope{}
}

// Destroyed reports whether Destroy has completed.
func (s *Scope) Destroyed() bool {
	return s.destroyed
}

// AddCleanup registers fn to run on Destroy. Registering on an already
// destroyed scope runs fn immediately.
func (s *Scope) AddCleanup(fn func()) {
	if s.destroyed {
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
}

// Destroy runs cleanups and marks the scope destroyed. Subsequent
// calls are no-ops.
func (s *Scope) Destroy() {
	if s.destroyed {
		return
	}
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
	s.destroyed = true
}
