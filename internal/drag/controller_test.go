package drag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/schedgrid/schedgrid/internal/dom"
	"github.com/schedgrid/schedgrid/internal/event"
	"github.com/schedgrid/schedgrid/internal/sched"
	"github.com/schedgrid/schedgrid/internal/sched/rules"
	"github.com/schedgrid/schedgrid/internal/timeline"
)

func testFixture(t *testing.T, opts ...Option) (*Controller, *sched.Project, *sched.Lane, *sched.Task) {
	t.Helper()
	p := sched.NewProject()
	lane := sched.NewLane("room-a", 4)
	p.AddLane(lane)
	task := sched.NewTask("kickoff", time.Hour)
	p.AddTask(task)

	v := &timeline.Viewport{
		X: 10, Y: 2, Width: 48, Height: 4,
		Start:        time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		CellDuration: 15 * time.Minute,
		SlotDuration: 30 * time.Minute,
		RowHeight:    2,
		Lanes:        []*sched.Lane{lane},
		Project:      p,
	}
	return New(p, v, opts...), p, lane, task
}

func TestController_DropOnEmptySlot(t *testing.T) {
	c, p, lane, task := testFixture(t)

	commits := 0
	p.Bus().On(sched.EventCommit, func(ev *event.Event) error {
		commits++
		return nil
	})

	if err := c.Start(task, Position{X: 10, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.State() != StateDragging {
		t.Fatalf("state = %v, want %v", c.State(), StateDragging)
	}

	c.Move(Position{X: 14, Y: 3})
	s := c.Session()
	if s == nil || !s.Valid {
		t.Fatal("session over the grid should be valid")
	}
	if s.Target.Lane != lane {
		t.Errorf("target lane = %v, want %v", s.Target.Lane, lane)
	}

	if err := c.Drop(context.Background(), Position{X: 14, Y: 3}); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if c.State() != StateIdle {
		t.Errorf("state after drop = %v, want %v", c.State(), StateIdle)
	}
	if !task.Scheduled || task.LaneID != lane.ID {
		t.Errorf("task not scheduled into lane: %+v", task)
	}
	// x=14 is one hour in, snapped to the 30-minute grid.
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !task.Start.Equal(want) {
		t.Errorf("task start = %v, want %v", task.Start, want)
	}
	if commits != 1 {
		t.Errorf("commit events = %d, want 1", commits)
	}
	if p.PendingChanges() != 0 {
		t.Errorf("pending changes = %d, want 0", p.PendingChanges())
	}
}

func TestController_DropNotifiesProjectBus(t *testing.T) {
	c, p, _, task := testFixture(t)

	commits, refreshes := 0, 0
	p.Bus().On(sched.EventCommit, func(*event.Event) error {
		commits++
		return nil
	})
	p.Bus().On(sched.EventRefresh, func(*event.Event) error {
		refreshes++
		return nil
	})

	if err := c.Start(task, Position{X: 10, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Drop(context.Background(), Position{X: 14, Y: 2}); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	if commits != 1 {
		t.Errorf("commit events = %d, want 1", commits)
	}
	// The staged mutations paint once: the forced redraw after the
	// commit, not one repaint per mutation.
	if refreshes != 1 {
		t.Errorf("refresh events = %d, want 1", refreshes)
	}
	if p.RefreshSuspended() {
		t.Error("refresh left suspended after the drop")
	}
}

func TestController_DropOnTaskLinksDependency(t *testing.T) {
	c, p, lane, task := testFixture(t)

	anchor := sched.NewTask("standup", time.Hour)
	anchor.Start = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	anchor.LaneID = lane.ID
	anchor.Scheduled = true
	p.AddTask(anchor)

	if err := c.Start(task, Position{X: 10, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// x=11 lands inside the anchor's first hour.
	if err := c.Drop(context.Background(), Position{X: 11, Y: 2}); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	deps := p.Dependencies()
	if len(deps) != 1 {
		t.Fatalf("dependencies = %d, want 1", len(deps))
	}
	d := deps[0]
	if d.From != anchor.ID || d.To != task.ID {
		t.Errorf("dependency %s -> %s, want %s -> %s", d.From, d.To, anchor.ID, task.ID)
	}
	if d.Lag != 30*time.Minute {
		t.Errorf("lag = %v, want 30m", d.Lag)
	}
	if !task.Scheduled || task.LaneID != lane.ID {
		t.Errorf("linked task should still be assigned: %+v", task)
	}
}

func TestController_AbortLeavesModelUntouched(t *testing.T) {
	c, p, _, task := testFixture(t)

	aborted := 0
	c.Bus().On(EventAbort, func(ev *event.Event) error {
		aborted++
		return nil
	})

	if err := c.Start(task, Position{X: 10, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Move(Position{X: 20, Y: 3})
	c.Abort()

	if c.State() != StateIdle {
		t.Errorf("state = %v, want %v", c.State(), StateIdle)
	}
	if task.Scheduled || task.LaneID != "" {
		t.Errorf("abort mutated the task: %+v", task)
	}
	if p.PendingChanges() != 0 {
		t.Errorf("abort left %d staged changes", p.PendingChanges())
	}
	if aborted != 1 {
		t.Errorf("abort events = %d, want 1", aborted)
	}
	if c.Session() != nil {
		t.Error("session should be cleared after abort")
	}
}

func TestController_DropOutsideGridAborts(t *testing.T) {
	c, _, _, task := testFixture(t)

	aborted := false
	c.Bus().On(EventAbort, func(ev *event.Event) error {
		aborted = true
		return nil
	})

	if err := c.Start(task, Position{X: 10, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Drop(context.Background(), Position{X: 0, Y: 0}); err != nil {
		t.Fatalf("Drop off-grid should not error: %v", err)
	}
	if !aborted {
		t.Error("off-grid drop should abort")
	}
	if task.Scheduled {
		t.Error("off-grid drop mutated the task")
	}
}

type failingStore struct{}

func (failingStore) SaveTask(t *sched.Task) error             { return errors.New("disk full") }
func (failingStore) SaveLane(l *sched.Lane) error             { return nil }
func (failingStore) SaveDependency(d *sched.Dependency) error { return nil }
func (failingStore) Close() error                             { return nil }

func TestController_CommitFailurePropagatesAndRollsBack(t *testing.T) {
	p := sched.NewProject(sched.WithStore(failingStore{}))
	lane := sched.NewLane("room-a", 4)
	p.AddLane(lane)
	task := sched.NewTask("kickoff", time.Hour)
	p.AddTask(task)

	v := &timeline.Viewport{
		X: 10, Y: 2, Width: 48, Height: 4,
		Start:        time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		CellDuration: 15 * time.Minute,
		SlotDuration: 30 * time.Minute,
		RowHeight:    2,
		Lanes:        []*sched.Lane{lane},
		Project:      p,
	}
	c := New(p, v)

	if err := c.Start(task, Position{X: 10, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	err := c.Drop(context.Background(), Position{X: 14, Y: 2})
	if err == nil {
		t.Fatal("Drop should surface the commit error")
	}
	if task.Scheduled || task.LaneID != "" || !task.Start.IsZero() {
		t.Errorf("failed commit left the task mutated: %+v", task)
	}
	if c.State() != StateIdle {
		t.Errorf("state = %v, want %v", c.State(), StateIdle)
	}
	if p.RefreshSuspended() {
		t.Error("refresh left suspended after a failed drop")
	}
}

func TestController_StartGuards(t *testing.T) {
	c, _, _, task := testFixture(t)

	if err := c.Start(nil, Position{}); !errors.Is(err, ErrNilTask) {
		t.Errorf("Start(nil) = %v, want ErrNilTask", err)
	}
	if err := c.Start(task, Position{X: 10, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(task, Position{X: 10, Y: 2}); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Start = %v, want ErrSessionActive", err)
	}
	c.Abort()

	if err := c.Drop(context.Background(), Position{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Drop while idle = %v, want ErrNoSession", err)
	}
}

func TestController_RulesRejectDrop(t *testing.T) {
	eng, err := rules.Load(`
function validate(drop)
  if drop.name == "kickoff" then
    return false, "kickoffs are scheduled by hand"
  end
  return true, ""
end
`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer eng.Close()

	c, _, _, task := testFixture(t, WithRules(eng))
	if err := c.Start(task, Position{X: 10, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Move(Position{X: 14, Y: 2})

	s := c.Session()
	if s == nil || s.Valid {
		t.Fatal("rule rejection should invalidate the session")
	}
	if s.Reason != "kickoffs are scheduled by hand" {
		t.Errorf("reason = %q", s.Reason)
	}

	if err := c.Drop(context.Background(), Position{X: 14, Y: 2}); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if task.Scheduled {
		t.Error("rejected drop mutated the task")
	}
}

func TestController_ProxyFollowsGesture(t *testing.T) {
	r := dom.NewReconciler()
	overlay := dom.NewElement("overlay")

	c, _, _, task := testFixture(t, WithOverlay(r, overlay))
	if err := c.Start(task, Position{X: 0, Y: 0}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(overlay.Children()) != 1 {
		t.Fatalf("overlay children = %d, want 1", len(overlay.Children()))
	}
	proxy := overlay.Children()[0]
	if !proxy.HasClass("invalid") {
		t.Error("off-grid proxy should carry the invalid class")
	}

	c.Move(Position{X: 14, Y: 2})
	if !proxy.HasClass("valid") || proxy.HasClass("invalid") {
		t.Error("on-grid proxy should flip to valid")
	}
	if left, _ := proxy.Style("left"); left != "14" {
		t.Errorf("proxy left = %q, want 14", left)
	}

	c.Abort()
	if len(overlay.Children()) != 0 {
		t.Errorf("overlay children after abort = %d, want 0", len(overlay.Children()))
	}
}

func TestController_DragEvents(t *testing.T) {
	c, _, _, task := testFixture(t)

	var seen []string
	c.Bus().On(event.CatchAll, func(ev *event.Event) error {
		seen = append(seen, ev.Name)
		return nil
	})

	if err := c.Start(task, Position{X: 10, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Move(Position{X: 12, Y: 2})
	if err := c.Drop(context.Background(), Position{X: 12, Y: 2}); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	want := []string{EventDragStart, EventDragMove, EventDragMove, EventDrop}
	if len(seen) != len(want) {
		t.Fatalf("events = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestAutoScroller_EdgeScrollsViewport(t *testing.T) {
	mock := clock.NewMock()
	s := NewAutoScroller(
		WithScrollClock(mock),
		WithScrollInterval(100*time.Millisecond),
		WithScrollMargin(2),
	)
	c, _, _, task := testFixture(t, WithAutoScroll(s))
	start := c.viewport.Start

	// Pointer inside the right margin (width 48 from x=10 ends at 57).
	if err := c.Start(task, Position{X: 57, Y: 2}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// The mock clock never advances, so the ticker goroutine stays
	// parked and ticks run deterministically from here.
	s.tick()
	if !c.viewport.Start.Equal(start.Add(15 * time.Minute)) {
		t.Errorf("viewport start = %v, want %v", c.viewport.Start, start.Add(15*time.Minute))
	}
	s.tick()
	if !c.viewport.Start.Equal(start.Add(30 * time.Minute)) {
		t.Errorf("viewport start = %v after two ticks", c.viewport.Start)
	}

	// Mid-board pointers do not scroll.
	c.Move(Position{X: 30, Y: 2})
	s.tick()
	if !c.viewport.Start.Equal(start.Add(30 * time.Minute)) {
		t.Error("mid-board pointer should not scroll")
	}

	c.Abort()
	s.mu.Lock()
	running := s.done != nil
	s.mu.Unlock()
	if running {
		t.Error("scroller kept running after abort")
	}
	s.tick()
	if !c.viewport.Start.Equal(start.Add(30 * time.Minute)) {
		t.Error("tick after abort scrolled the viewport")
	}
}
