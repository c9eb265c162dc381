// Package event provides the observable bus used across schedgrid.
//
// Every component that emits state changes owns a Bus. Listeners are
// registered per event name with a priority, invoked synchronously in
// descending-priority order (registration order breaks ties), and may
// veto further propagation by returning ErrStop. A registration call
// returns a Detacher that undoes exactly that call.
//
// # Names
//
// Event names are case-insensitive; the bus stores and dispatches on
// the lower-cased form, which is also what Event.Type carries. The
// special name "*" (CatchAll) receives every event on the bus, merged
// into the dispatch order by priority.
//
// # Lifecycle
//
// Listeners can be one-shot (Once), can expire on a timer (WithExpires),
// and can be tied to an Owner whose destruction removes them before the
// owner's own teardown runs. All timers run on a clock.Clock so tests
// can drive expiry deterministically.
//
// # Suspension and relays
//
// SuspendEvents/ResumeEvents nest; while suspended, Trigger is a
// success no-op, or buffers calls verbatim when queueing was requested,
// replaying them in original order on the outermost resume. RelayTo
// forwards events (optionally renamed) to another bus after local
// listeners have run; bubbling to an owner bus happens after relays.
//
// Dispatch is single-threaded and re-entrant: listener slices are
// copy-on-write, so handlers may add or remove listeners, or destroy
// owners, while a dispatch for the same event is in flight.
package event
