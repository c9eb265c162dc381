package sched

import (
	"time"

	"github.com/google/uuid"
)

// Task is one unit of schedulable work. An unscheduled task sits in
// the backlog; assigning it to a lane with a start time schedules it.
type Task struct {
	ID           string
	Name         string
	Start        time.Time
	Duration     time.Duration
	LaneID       string
	Scheduled    bool
	Participants int
}

// NewTask creates an unscheduled task.
func NewTask(name string, duration time.Duration) *Task {
	return &Task{
		ID:       uuid.NewString(),
		Name:     name,
		Duration: duration,
	}
}

// End returns the task's end time. Meaningless for unscheduled tasks.
func (t *Task) End() time.Time {
	return t.Start.Add(t.Duration)
}

// Overlaps reports whether two scheduled tasks overlap in time.
func (t *Task) Overlaps(other *Task) bool {
	if !t.Scheduled || !other.Scheduled {
		return false
	}
	return t.Start.Before(other.End()) && other.Start.Before(t.End())
}

// Lane is a schedulable resource row on the board.
type Lane struct {
	ID       string
	Name     string
	Capacity int
	Color    string
}

// NewLane creates a lane.
func NewLane(name string, capacity int) *Lane {
	return &Lane{
		ID:       uuid.NewString(),
		Name:     name,
		Capacity: capacity,
	}
}

// Dependency links two tasks: To may start Lag after From ends.
type Dependency struct {
	ID   string
	From string
	To   string
	Lag  time.Duration
}
