package drag

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/schedgrid/schedgrid/internal/dom"
	"github.com/schedgrid/schedgrid/internal/event"
	"github.com/schedgrid/schedgrid/internal/sched"
	"github.com/schedgrid/schedgrid/internal/sched/rules"
	"github.com/schedgrid/schedgrid/internal/timeline"
)

// DependencyLag is the fixed lag applied when a drop links two tasks.
const DependencyLag = 30 * time.Minute

// Event names published on the controller bus.
const (
	EventDragStart = "dragstart"
	EventDragMove  = "dragmove"
	EventDrop      = "drop"
	EventAbort     = "abort"
)

// Sentinel errors for the gesture controller.
var (
	// ErrSessionActive is returned when Start is called mid-gesture.
	ErrSessionActive = errors.New("drag: session already active")

	// ErrNoSession is returned when Drop is called with no gesture.
	ErrNoSession = errors.New("drag: no active session")

	// ErrNilTask is returned when Start is given no task.
	ErrNilTask = errors.New("drag: nil task")
)

// Controller coordinates one drag gesture at a time against a project
// and a timeline viewport.
type Controller struct {
	mu       sync.Mutex
	state    State
	session  *Session
	project  *sched.Project
	viewport *timeline.Viewport
	bus      *event.Bus
	rules    *rules.Engine
	logger   *zap.Logger

	reconciler *dom.Reconciler
	overlay    *dom.Element

	scroller *autoScroller
}

// Option configures a Controller.
type Option func(*Controller)

// WithRules sets the drop-validation rule engine. Without one, only
// the built-in time+lane resolution decides validity.
func WithRules(e *rules.Engine) Option {
	return func(c *Controller) {
		c.rules = e
	}
}

// WithOverlay gives the controller a container element to render the
// drag proxy into.
func WithOverlay(r *dom.Reconciler, overlay *dom.Element) Option {
	return func(c *Controller) {
		c.reconciler = r
		c.overlay = overlay
	}
}

// WithAutoScroll enables edge scrolling of the viewport while
// dragging near its horizontal margins.
func WithAutoScroll(s *autoScroller) Option {
	return func(c *Controller) {
		c.scroller = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs an idle Controller.
func New(project *sched.Project, viewport *timeline.Viewport, opts ...Option) *Controller {
	c := &Controller{
		project:  project,
		viewport: viewport,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.bus = event.New(event.WithHost(c), event.WithLogger(c.logger))
	if c.scroller != nil {
		c.scroller.bind(c)
	}
	return c
}

// Bus returns the controller's event bus.
func (c *Controller) Bus() *event.Bus { return c.bus }

// State returns the current gesture phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the live session, or nil when idle.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	copied := *c.session
	return &copied
}

// Start begins a gesture for a backlog task at the given pointer
// position.
func (c *Controller) Start(task *sched.Task, pos Position) error {
	if task == nil {
		return ErrNilTask
	}
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.state = StateDragging
	c.session = &Session{
		Task:    task,
		Origin:  pos,
		Current: pos,
	}
	c.mu.Unlock()

	c.resolve(pos)
	if c.scroller != nil {
		c.scroller.start()
	}
	_, _ = c.bus.Trigger(EventDragStart, task)
	return nil
}

// Move updates the session for a new pointer position, re-resolving
// the drop target and validity. A move outside a gesture is ignored.
func (c *Controller) Move(pos Position) {
	c.mu.Lock()
	if c.state != StateDragging {
		c.mu.Unlock()
		return
	}
	c.session.Current = pos
	c.mu.Unlock()

	c.resolve(pos)
	_, _ = c.bus.Trigger(EventDragMove, pos)
}

// resolve hit-tests the pointer and refreshes session validity and
// the visual proxy. Unresolvable positions are normal state, never an
// error.
func (c *Controller) resolve(pos Position) {
	lane, laneOK := c.viewport.LaneAt(pos.Y)
	at, dateOK := c.viewport.DateAt(pos.X, timeline.RoundNearest, false)

	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return
	}
	s.Reason = ""
	if !laneOK || !dateOK {
		s.Target = nil
		s.Valid = false
		c.mu.Unlock()
		c.renderProxy()
		return
	}

	over, _ := c.viewport.TaskAt(pos.X, pos.Y)
	s.Target = &DropTarget{Lane: lane, Time: at, Over: over}
	s.Valid = true
	task := s.Task
	c.mu.Unlock()

	if c.rules != nil {
		ok, reason, err := c.rules.Validate(rules.Drop{
			TaskID:       task.ID,
			TaskName:     task.Name,
			Participants: task.Participants,
			LaneID:       lane.ID,
			LaneName:     lane.Name,
			Capacity:     lane.Capacity,
			Start:        at,
			OverTaskID:   overID(over),
		})
		if err != nil {
			// A broken rule script must not crash the gesture; the
			// drop just stays invalid.
			c.logger.Warn("rule validation failed", zap.Error(err))
			ok = false
			reason = "rule error"
		}
		c.mu.Lock()
		if c.session == s {
			s.Valid = ok
			s.Reason = reason
		}
		c.mu.Unlock()
	}
	c.renderProxy()
}

func overID(t *sched.Task) string {
	if t == nil {
		return ""
	}
	return t.ID
}

// Drop finishes the gesture at the given position. A valid drop
// mutates and commits the project; an unresolvable or invalid one
// aborts. The commit error, if any, propagates to the caller; the
// project has already rolled the batch back by then.
func (c *Controller) Drop(ctx context.Context, pos Position) error {
	c.mu.Lock()
	if c.state != StateDragging {
		c.mu.Unlock()
		return ErrNoSession
	}
	c.mu.Unlock()

	c.Move(pos)

	c.mu.Lock()
	s := c.session
	if s == nil || !s.Valid || s.Target == nil {
		c.mu.Unlock()
		c.Abort()
		return nil
	}
	c.state = StateDropped
	task := s.Task
	target := *s.Target
	c.mu.Unlock()

	err := c.apply(ctx, task, target)
	c.finish()
	_, _ = c.bus.Trigger(EventDrop, task)
	return err
}

// apply runs the batched mutation inside a suspended-refresh window:
// the date (or dependency) change and the assignment paint as one
// update. Refresh always resumes, success or not, and resumes before
// the forced redraw so that redraw is the single repaint the batch
// produces.
func (c *Controller) apply(ctx context.Context, task *sched.Task, target DropTarget) error {
	c.project.SuspendRefresh()
	resumed := false
	resume := func() {
		if !resumed {
			resumed = true
			c.project.ResumeRefresh()
		}
	}
	defer resume()

	if target.Over != nil {
		if _, err := c.project.AddDependency(target.Over.ID, task.ID, DependencyLag); err != nil {
			return fmt.Errorf("linking drop: %w", err)
		}
	} else {
		if err := c.project.SetTaskStart(task.ID, target.Time); err != nil {
			return fmt.Errorf("scheduling drop: %w", err)
		}
	}
	if err := c.project.AssignTask(task.ID, target.Lane.ID); err != nil {
		return fmt.Errorf("assigning drop: %w", err)
	}

	if err := c.project.Commit(ctx); err != nil {
		return err
	}
	resume()
	c.project.Refresh()
	return nil
}

// Abort cancels the gesture, reversing all visual state without
// touching the data model. Aborting while idle is a no-op.
func (c *Controller) Abort() {
	c.mu.Lock()
	if c.state != StateDragging {
		c.mu.Unlock()
		return
	}
	c.state = StateAborted
	task := c.session.Task
	c.mu.Unlock()

	c.finish()
	_, _ = c.bus.Trigger(EventAbort, task)
}

// finish tears down the session, proxy and edge scrolling, returning
// to idle.
func (c *Controller) finish() {
	if c.scroller != nil {
		c.scroller.stop()
	}
	c.mu.Lock()
	c.session = nil
	c.state = StateIdle
	c.mu.Unlock()
	c.renderProxy()
}

// renderProxy syncs the drag proxy into the overlay: a bar following
// the pointer, carrying a validity class. With no session the overlay
// empties.
func (c *Controller) renderProxy() {
	if c.reconciler == nil || c.overlay == nil {
		return
	}

	c.mu.Lock()
	s := c.session
	var desired []dom.Node
	if s != nil {
		validity := "invalid"
		if s.Valid {
			validity = "valid"
		}
		desired = []dom.Node{{
			Tag:     "bar",
			SyncID:  "drag-proxy",
			Classes: []string{"drag-proxy", validity},
			Style: map[string]string{
				"left":  strconv.Itoa(s.Current.X),
				"top":   strconv.Itoa(s.Current.Y),
				"width": strconv.Itoa(runewidth.StringWidth(s.Task.Name) + 2),
			},
			Text: s.Task.Name,
		}}
	}
	c.mu.Unlock()

	if _, err := c.reconciler.Sync(c.overlay, desired); err != nil {
		c.logger.Warn("proxy sync failed", zap.Error(err))
	}
}
