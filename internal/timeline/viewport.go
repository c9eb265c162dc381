// Package timeline maps screen coordinates onto schedule time and
// lanes. The drag controller interprets pointer positions exclusively
// through a Viewport, so hit testing stays in one place.
package timeline

import (
	"time"

	"github.com/schedgrid/schedgrid/internal/sched"
)

// Rounding controls how a raw pointer time snaps to the slot grid.
type Rounding int

const (
	// RoundFloor snaps to the start of the slot under the pointer.
	RoundFloor Rounding = iota

	// RoundNearest snaps to the closest slot boundary.
	RoundNearest
)

// Viewport maps a rectangle of terminal cells onto a time range and a
// lane list. One column represents CellDuration of schedule time; one
// lane occupies RowHeight rows.
type Viewport struct {
	// X, Y, Width, Height is the screen rectangle of the timeline
	// body, excluding headers.
	X, Y, Width, Height int

	// Start is the time at the left edge.
	Start time.Time

	// CellDuration is the schedule time one column spans.
	CellDuration time.Duration

	// SlotDuration is the snapping granularity for resolved times.
	SlotDuration time.Duration

	// RowHeight is the number of rows one lane occupies.
	RowHeight int

	// Lanes is the visible lane order, top to bottom.
	Lanes []*sched.Lane

	// Project resolves tasks for TaskAt hit testing.
	Project *sched.Project
}

// End returns the time at the right edge.
func (v *Viewport) End() time.Time {
	return v.Start.Add(time.Duration(v.Width) * v.CellDuration)
}

// Contains reports whether a screen position falls inside the body.
func (v *Viewport) Contains(x, y int) bool {
	return x >= v.X && x < v.X+v.Width && y >= v.Y && y < v.Y+v.Height
}

// DateAt resolves the schedule time under column x, snapped to the
// slot grid. With clamp, positions outside the body resolve to the
// nearest edge; otherwise they fail.
func (v *Viewport) DateAt(x int, r Rounding, clamp bool) (time.Time, bool) {
	col := x - v.X
	if col < 0 || col >= v.Width {
		if !clamp {
			return time.Time{}, false
		}
		if col < 0 {
			col = 0
		} else {
			col = v.Width - 1
		}
	}
	raw := v.Start.Add(time.Duration(col) * v.CellDuration)
	return v.snap(raw, r), true
}

// snap rounds a raw time onto the slot grid relative to Start.
func (v *Viewport) snap(raw time.Time, r Rounding) time.Time {
	if v.SlotDuration <= 0 {
		return raw
	}
	offset := raw.Sub(v.Start)
	switch r {
	case RoundNearest:
		offset = (offset + v.SlotDuration/2) / v.SlotDuration * v.SlotDuration
	default:
		offset = offset / v.SlotDuration * v.SlotDuration
	}
	return v.Start.Add(offset)
}

// LaneAt resolves the lane under row y.
func (v *Viewport) LaneAt(y int) (*sched.Lane, bool) {
	if y < v.Y || y >= v.Y+v.Height || v.RowHeight <= 0 {
		return nil, false
	}
	idx := (y - v.Y) / v.RowHeight
	if idx < 0 || idx >= len(v.Lanes) {
		return nil, false
	}
	return v.Lanes[idx], true
}

// TaskAt resolves the scheduled task rendered under the pointer, if
// any: the task in the lane at y whose time span covers the column at
// x.
func (v *Viewport) TaskAt(x, y int) (*sched.Task, bool) {
	if v.Project == nil {
		return nil, false
	}
	lane, ok := v.LaneAt(y)
	if !ok {
		return nil, false
	}
	at, ok := v.DateAt(x, RoundFloor, false)
	if !ok {
		return nil, false
	}
	for _, t := range v.Project.TasksInLane(lane.ID) {
		if !at.Before(t.Start) && at.Before(t.End()) {
			return t, true
		}
	}
	return nil, false
}

// XForTime returns the column rendering the given time, and whether
// it is visible.
func (v *Viewport) XForTime(t time.Time) (int, bool) {
	if v.CellDuration <= 0 {
		return 0, false
	}
	col := int(t.Sub(v.Start) / v.CellDuration)
	if col < 0 || col >= v.Width {
		return 0, false
	}
	return v.X + col, true
}

// RowForLane returns the top row of a lane's band.
func (v *Viewport) RowForLane(laneID string) (int, bool) {
	for i, lane := range v.Lanes {
		if lane.ID == laneID {
			return v.Y + i*v.RowHeight, true
		}
	}
	return 0, false
}

// EdgeZone reports the horizontal scroll direction a pointer near the
// body's edge asks for: -1 at the left margin, +1 at the right, 0
// elsewhere. margin is in columns.
func (v *Viewport) EdgeZone(x, margin int) int {
	if margin <= 0 || !v.betweenX(x) {
		return 0
	}
	switch {
	case x < v.X+margin:
		return -1
	case x >= v.X+v.Width-margin:
		return 1
	default:
		return 0
	}
}

func (v *Viewport) betweenX(x int) bool {
	return x >= v.X && x < v.X+v.Width
}

// ScrollBy shifts the visible time range by cols columns.
func (v *Viewport) ScrollBy(cols int) {
	v.Start = v.Start.Add(time.Duration(cols) * v.CellDuration)
}
