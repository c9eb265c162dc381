package event

import "errors"

// Sentinel errors for the event bus.
var (
	// ErrStop is returned by a handler to halt propagation of the
	// current dispatch. It is a control value, not a failure; Trigger
	// reports it as a veto rather than an error.
	ErrStop = errors.New("event: stop propagation")

	// ErrNilHandler is returned when a registration supplies no
	// handler function and no resolvable method name.
	ErrNilHandler = errors.New("event: handler cannot be nil")

	// ErrEmptyName is returned when a registration or trigger names
	// no event.
	ErrEmptyName = errors.New("event: empty event name")

	// ErrDuplicateListener is returned when the same handler and
	// owner pair is already registered for an event name.
	ErrDuplicateListener = errors.New("event: duplicate listener")

	// ErrBusClosed is returned for registrations on a closed bus.
	ErrBusClosed = errors.New("event: bus is closed")
)
