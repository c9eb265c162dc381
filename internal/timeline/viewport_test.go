package timeline

import (
	"testing"
	"time"

	"github.com/schedgrid/schedgrid/internal/sched"
)

func testViewport(t *testing.T) (*Viewport, *sched.Project, *sched.Lane) {
	t.Helper()
	p := sched.NewProject()
	lane := sched.NewLane("room-a", 4)
	other := sched.NewLane("room-b", 2)
	p.AddLane(lane)
	p.AddLane(other)

	v := &Viewport{
		X: 10, Y: 2, Width: 48, Height: 4,
		Start:        time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		CellDuration: 15 * time.Minute,
		SlotDuration: 30 * time.Minute,
		RowHeight:    2,
		Lanes:        []*sched.Lane{lane, other},
		Project:      p,
	}
	return v, p, lane
}

func TestViewport_DateAt(t *testing.T) {
	v, _, _ := testViewport(t)
	base := v.Start

	tests := []struct {
		name  string
		x     int
		round Rounding
		clamp bool
		want  time.Time
		ok    bool
	}{
		{"left edge", 10, RoundFloor, false, base, true},
		{"one slot in", 12, RoundFloor, false, base.Add(30 * time.Minute), true},
		{"floor mid-slot", 11, RoundFloor, false, base, true},
		{"nearest mid-slot", 11, RoundNearest, false, base.Add(30 * time.Minute), true},
		{"outside left", 3, RoundFloor, false, time.Time{}, false},
		{"outside left clamped", 3, RoundFloor, true, base, true},
		{"outside right clamped", 99, RoundFloor, true, base.Add(11*time.Hour + 30*time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.DateAt(tt.x, tt.round, tt.clamp)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("DateAt(%d) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestViewport_LaneAt(t *testing.T) {
	v, _, lane := testViewport(t)

	got, ok := v.LaneAt(2)
	if !ok || got != lane {
		t.Errorf("LaneAt(2) = %v, %v", got, ok)
	}
	got, ok = v.LaneAt(3)
	if !ok || got != lane {
		t.Error("second row of the band should resolve the same lane")
	}
	if second, ok := v.LaneAt(4); !ok || second == lane {
		t.Error("row 4 should resolve the second lane")
	}
	if _, ok := v.LaneAt(1); ok {
		t.Error("row above the body must not resolve")
	}
	if _, ok := v.LaneAt(6); ok {
		t.Error("row below the last lane must not resolve")
	}
}

func TestViewport_TaskAt(t *testing.T) {
	v, p, lane := testViewport(t)

	task := sched.NewTask("standup", time.Hour)
	p.AddTask(task)
	p.SetTaskStart(task.ID, v.Start.Add(time.Hour)) // columns 14..17
	p.AssignTask(task.ID, lane.ID)

	if got, ok := v.TaskAt(15, 2); !ok || got != task {
		t.Errorf("TaskAt over the bar = %v, %v", got, ok)
	}
	if _, ok := v.TaskAt(15, 4); ok {
		t.Error("pointer in another lane must not resolve the task")
	}
	if _, ok := v.TaskAt(10, 2); ok {
		t.Error("pointer before the bar must not resolve the task")
	}
	if _, ok := v.TaskAt(18, 2); ok {
		t.Error("pointer after the bar must not resolve the task")
	}
}

func TestViewport_XForTime(t *testing.T) {
	v, _, _ := testViewport(t)

	if x, ok := v.XForTime(v.Start); !ok || x != 10 {
		t.Errorf("XForTime(start) = %d, %v", x, ok)
	}
	if x, ok := v.XForTime(v.Start.Add(time.Hour)); !ok || x != 14 {
		t.Errorf("XForTime(+1h) = %d, %v", x, ok)
	}
	if _, ok := v.XForTime(v.Start.Add(-time.Hour)); ok {
		t.Error("time before the window should not be visible")
	}
}

func TestViewport_EdgeZoneAndScroll(t *testing.T) {
	v, _, _ := testViewport(t)

	if z := v.EdgeZone(10, 3); z != -1 {
		t.Errorf("left margin zone = %d, want -1", z)
	}
	if z := v.EdgeZone(57, 3); z != 1 {
		t.Errorf("right margin zone = %d, want 1", z)
	}
	if z := v.EdgeZone(30, 3); z != 0 {
		t.Errorf("center zone = %d, want 0", z)
	}
	if z := v.EdgeZone(5, 3); z != 0 {
		t.Error("pointer outside the body should not edge-scroll")
	}

	before := v.Start
	v.ScrollBy(4)
	if got := before.Add(time.Hour); !v.Start.Equal(got) {
		t.Errorf("ScrollBy(4) start = %v, want %v", v.Start, got)
	}
}
