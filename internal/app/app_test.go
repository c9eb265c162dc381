package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/schedgrid/schedgrid/internal/config"
	"github.com/schedgrid/schedgrid/internal/drag"
	"github.com/schedgrid/schedgrid/internal/render/backend"
	"github.com/schedgrid/schedgrid/internal/sched"
)

func newTestApp(t *testing.T) (*App, *backend.Memory) {
	t.Helper()
	cfg := config.Default()
	cfg.Drag.AutoScroll = false

	m := backend.NewMemory(80, 12)
	a, err := New(Options{
		Config:  cfg,
		Backend: m,
		Now: func() time.Time {
			return time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
		},
		Seed: func(p *sched.Project) {
			lane := sched.NewLane("room-a", 4)
			lane.Color = "#3366cc"
			p.AddLane(lane)
			p.AddTask(sched.NewTask("kickoff", 2*time.Hour))
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	return a, m
}

func TestApp_DrawsBacklogAndLanes(t *testing.T) {
	a, m := newTestApp(t)
	a.draw(true)

	if row := m.Row(0); !strings.HasPrefix(row, "Backlog") {
		t.Errorf("row 0 = %q", row)
	}
	if row := m.Row(1); !strings.Contains(row, "kickoff") {
		t.Errorf("backlog row = %q", row)
	}
	laneRow := m.Row(1)
	if !strings.Contains(laneRow, "room-a") {
		t.Errorf("lane row = %q", laneRow)
	}
	// Hour marks start at the truncated base time.
	if row := m.Row(0); !strings.Contains(row, "08:00") {
		t.Errorf("header row = %q", row)
	}
}

func TestApp_MouseDragSchedulesTask(t *testing.T) {
	a, m := newTestApp(t)
	a.draw(true)
	ctx := context.Background()

	task := a.project.Unscheduled()[0]

	// Press on the backlog item, drag onto the first lane, release.
	a.handleMouse(ctx, backend.Event{Type: backend.EventMouse, MouseX: 1, MouseY: 1, MouseButton: backend.MouseLeft})
	if a.ctrl.State() != drag.StateDragging {
		t.Fatalf("state after press = %v", a.ctrl.State())
	}
	a.handleMouse(ctx, backend.Event{Type: backend.EventMouse, MouseX: 29, MouseY: 1, MouseButton: backend.MouseLeft})
	a.handleMouse(ctx, backend.Event{Type: backend.EventMouse, MouseX: 29, MouseY: 1, MouseButton: backend.MouseNone})

	if !task.Scheduled {
		t.Fatal("drop did not schedule the task")
	}
	// Column 29 is four cells past the viewport origin: one hour.
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !task.Start.Equal(want) {
		t.Errorf("task start = %v, want %v", task.Start, want)
	}

	a.draw(false)
	if row := m.Row(1); !strings.Contains(row, "kickoff") {
		t.Errorf("lane row after drop = %q", row)
	}
	// The backlog no longer lists it.
	if len(a.project.Unscheduled()) != 0 {
		t.Error("task still in backlog")
	}
}

func TestApp_PressOutsideBacklogIsIgnored(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	a.handleMouse(ctx, backend.Event{Type: backend.EventMouse, MouseX: 40, MouseY: 3, MouseButton: backend.MouseLeft})
	if a.ctrl.State() != drag.StateIdle {
		t.Errorf("state = %v, want idle", a.ctrl.State())
	}
}

func TestApp_EscapeAbortsDrag(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	a.handleMouse(ctx, backend.Event{Type: backend.EventMouse, MouseX: 1, MouseY: 1, MouseButton: backend.MouseLeft})
	if err := a.handleKey(backend.Event{Type: backend.EventKey, Key: backend.KeyEscape}); err != nil {
		t.Fatalf("handleKey: %v", err)
	}
	if a.ctrl.State() != drag.StateIdle {
		t.Errorf("state = %v, want idle", a.ctrl.State())
	}
	if a.project.Unscheduled()[0].Scheduled {
		t.Error("abort mutated the task")
	}
}

func TestApp_QuitKeys(t *testing.T) {
	a, _ := newTestApp(t)

	for _, ev := range []backend.Event{
		{Type: backend.EventKey, Key: backend.KeyCtrlC},
		{Type: backend.EventKey, Key: backend.KeyCtrlQ},
		{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'q'},
	} {
		if err := a.handleKey(ev); !errors.Is(err, ErrQuit) {
			t.Errorf("handleKey(%+v) = %v, want ErrQuit", ev, err)
		}
	}
}

func TestApp_ArrowKeysScrollViewport(t *testing.T) {
	a, _ := newTestApp(t)
	start := a.viewport.Start

	if err := a.handleKey(backend.Event{Type: backend.EventKey, Key: backend.KeyRight}); err != nil {
		t.Fatal(err)
	}
	if !a.viewport.Start.After(start) {
		t.Error("right arrow should scroll forward")
	}
	if err := a.handleKey(backend.Event{Type: backend.EventKey, Key: backend.KeyLeft}); err != nil {
		t.Fatal(err)
	}
	if !a.viewport.Start.Equal(start) {
		t.Error("left arrow should scroll back")
	}
}

func TestApp_RunQuitsOnKey(t *testing.T) {
	a, m := newTestApp(t)

	done := make(chan error, 1)
	go func() {
		done <- a.Run(context.Background())
	}()

	m.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'q'})
	select {
	case err := <-done:
		if !errors.Is(err, ErrQuit) {
			t.Errorf("Run = %v, want ErrQuit", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not quit")
	}
}

func TestBoardView_BacklogTaskAt(t *testing.T) {
	a, _ := newTestApp(t)

	if task := a.view.BacklogTaskAt(1, 1); task == nil || task.Name != "kickoff" {
		t.Errorf("BacklogTaskAt(1,1) = %v", task)
	}
	if task := a.view.BacklogTaskAt(1, 0); task != nil {
		t.Error("title row should not resolve a task")
	}
	if task := a.view.BacklogTaskAt(30, 1); task != nil {
		t.Error("timeline columns should not resolve a backlog task")
	}
	if task := a.view.BacklogTaskAt(1, 9); task != nil {
		t.Error("rows past the list should not resolve")
	}
}
