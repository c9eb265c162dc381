package sched

import "errors"

// Sentinel errors for the scheduling engine.
var (
	// ErrUnknownTask is returned when an operation names a task the
	// project does not hold.
	ErrUnknownTask = errors.New("sched: unknown task")

	// ErrUnknownLane is returned when an assignment names a lane the
	// project does not hold.
	ErrUnknownLane = errors.New("sched: unknown lane")

	// ErrSelfDependency is returned for a dependency from a task to
	// itself.
	ErrSelfDependency = errors.New("sched: task cannot depend on itself")

	// ErrDuplicateDependency is returned when the same from/to pair
	// is already linked.
	ErrDuplicateDependency = errors.New("sched: dependency already exists")
)
