package drag

import (
	"time"

	"github.com/schedgrid/schedgrid/internal/sched"
)

// State is the gesture lifecycle phase.
type State int

const (
	// StateIdle means no session is active.
	StateIdle State = iota

	// StateDragging means a session is live and following the pointer.
	StateDragging

	// StateDropped is the transient phase while a valid drop commits.
	StateDropped

	// StateAborted is the transient phase while an abort unwinds.
	StateAborted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateDropped:
		return "dropped"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Position is a screen coordinate.
type Position struct {
	X int
	Y int
}

// DropTarget is the resolved interpretation of the pointer position.
type DropTarget struct {
	// Lane is the resolved target lane.
	Lane *sched.Lane

	// Time is the resolved, slot-snapped drop time.
	Time time.Time

	// Over is the existing scheduled task under the pointer, when the
	// drop would link rather than schedule.
	Over *sched.Task
}

// Session is the state of one gesture, created on Start and destroyed
// on Drop or Abort.
type Session struct {
	// Task is the backlog item being dragged.
	Task *sched.Task

	// Origin is the pointer position the gesture started at.
	Origin Position

	// Current is the latest pointer position.
	Current Position

	// Target is the resolved drop target, nil while the pointer is
	// over nothing resolvable.
	Target *DropTarget

	// Valid is recomputed on every move: true only when both a time
	// and a lane resolve under the pointer and no rule rejects them.
	Valid bool

	// Reason carries the rule engine's rejection reason, for display.
	Reason string
}
