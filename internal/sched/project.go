package sched

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/schedgrid/schedgrid/internal/event"
)

// Event names published on the project bus.
const (
	// EventRefresh fires after any in-memory mutation, unless refresh
	// is suspended.
	EventRefresh = "refresh"

	// EventCommit fires once after a successful Commit.
	EventCommit = "commit"
)

// Store persists committed records. Implementations live in
// sched/store; a nil store makes the project memory-only.
type Store interface {
	SaveTask(t *Task) error
	SaveLane(l *Lane) error
	SaveDependency(d *Dependency) error
	Close() error
}

// change is one staged, revertible mutation.
type change interface {
	revert(p *Project)
	touch(c *changeset)
}

// changeset accumulates the record IDs a commit must persist.
type changeset struct {
	tasks map[string]bool
	deps  map[string]bool
}

// Project is the scheduling engine: it owns tasks, lanes and
// dependencies, stages mutations until Commit, and publishes refresh
// and commit events on its bus.
type Project struct {
	mu      sync.Mutex
	bus     *event.Bus
	logger  *zap.Logger
	store   Store
	tasks   map[string]*Task
	lanes   map[string]*Lane
	deps    map[string]*Dependency
	pending []change

	// refreshHold gates refresh events only; commit events always
	// escape so observers see a successful batch land.
	refreshHold int

	// dirtyTasks and dirtyLanes track records registered since the
	// last successful commit. They persist alongside the staged
	// changeset so a stored task never references an unsaved lane.
	dirtyTasks map[string]bool
	dirtyLanes map[string]bool
}

// ProjectOption configures a Project.
type ProjectOption func(*Project)

// WithStore sets the persistence backend used by Commit.
func WithStore(s Store) ProjectOption {
	return func(p *Project) {
		p.store = s
	}
}

// WithProjectLogger sets the logger.
func WithProjectLogger(logger *zap.Logger) ProjectOption {
	return func(p *Project) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProject constructs an empty project.
func NewProject(opts ...ProjectOption) *Project {
	p := &Project{
		logger:     zap.NewNop(),
		tasks:      make(map[string]*Task),
		lanes:      make(map[string]*Lane),
		deps:       make(map[string]*Dependency),
		dirtyTasks: make(map[string]bool),
		dirtyLanes: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bus = event.New(event.WithHost(p), event.WithLogger(p.logger))
	return p
}

// Bus returns the project's event bus.
func (p *Project) Bus() *event.Bus { return p.bus }

// AddTask registers a task with the project.
func (p *Project) AddTask(t *Task) {
	p.mu.Lock()
	p.tasks[t.ID] = t
	p.dirtyTasks[t.ID] = true
	p.mu.Unlock()
	p.refresh()
}

// AddLane registers a lane with the project.
func (p *Project) AddLane(l *Lane) {
	p.mu.Lock()
	p.lanes[l.ID] = l
	p.dirtyLanes[l.ID] = true
	p.mu.Unlock()
	p.refresh()
}

// Task returns a task by ID.
func (p *Project) Task(id string) (*Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[id]
	return t, ok
}

// Lane returns a lane by ID.
func (p *Project) Lane(id string) (*Lane, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.lanes[id]
	return l, ok
}

// Tasks returns all tasks ordered by name for stable iteration.
func (p *Project) Tasks() []*Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lanes returns all lanes ordered by name.
func (p *Project) Lanes() []*Lane {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Lane, 0, len(p.lanes))
	for _, l := range p.lanes {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unscheduled returns the backlog: tasks without a lane assignment.
func (p *Project) Unscheduled() []*Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Task
	for _, t := range p.tasks {
		if !t.Scheduled {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TasksInLane returns the scheduled tasks assigned to a lane, ordered
// by start time.
func (p *Project) TasksInLane(laneID string) []*Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Task
	for _, t := range p.tasks {
		if t.Scheduled && t.LaneID == laneID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Dependencies returns all dependency links.
func (p *Project) Dependencies() []*Dependency {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Dependency, 0, len(p.deps))
	for _, d := range p.deps {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetTaskStart stages a start-time change.
func (p *Project) SetTaskStart(taskID string, start time.Time) error {
	p.mu.Lock()
	t, ok := p.tasks[taskID]
	if !ok {
		p.mu.Unlock()
		return ErrUnknownTask
	}
	p.pending = append(p.pending, &startChange{
		taskID:        taskID,
		prevStart:     t.Start,
		prevScheduled: t.Scheduled,
	})
	t.Start = start
	p.mu.Unlock()
	p.refresh()
	return nil
}

// AssignTask stages assigning a task to a lane, scheduling it.
func (p *Project) AssignTask(taskID, laneID string) error {
	p.mu.Lock()
	t, ok := p.tasks[taskID]
	if !ok {
		p.mu.Unlock()
		return ErrUnknownTask
	}
	if _, ok := p.lanes[laneID]; !ok {
		p.mu.Unlock()
		return ErrUnknownLane
	}
	p.pending = append(p.pending, &assignChange{
		taskID:        taskID,
		prevLane:      t.LaneID,
		prevScheduled: t.Scheduled,
	})
	t.LaneID = laneID
	t.Scheduled = true
	p.mu.Unlock()
	p.refresh()
	return nil
}

// AddDependency stages a link: to may start lag after from ends.
func (p *Project) AddDependency(fromID, toID string, lag time.Duration) (*Dependency, error) {
	p.mu.Lock()
	if fromID == toID {
		p.mu.Unlock()
		return nil, ErrSelfDependency
	}
	if _, ok := p.tasks[fromID]; !ok {
		p.mu.Unlock()
		return nil, ErrUnknownTask
	}
	if _, ok := p.tasks[toID]; !ok {
		p.mu.Unlock()
		return nil, ErrUnknownTask
	}
	for _, d := range p.deps {
		if d.From == fromID && d.To == toID {
			p.mu.Unlock()
			return nil, ErrDuplicateDependency
		}
	}
	d := &Dependency{
		ID:   depKey(fromID, toID),
		From: fromID,
		To:   toID,
		Lag:  lag,
	}
	p.deps[d.ID] = d
	p.pending = append(p.pending, &addDepChange{depID: d.ID})
	p.mu.Unlock()
	p.refresh()
	return d, nil
}

func depKey(fromID, toID string) string {
	return fromID + "->" + toID
}

// PendingChanges returns the number of staged mutations.
func (p *Project) PendingChanges() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// SuspendRefresh gates refresh events so a multi-step mutation paints
// once. Nests with ResumeRefresh. Only refresh is gated; commit
// events fire even inside the window.
func (p *Project) SuspendRefresh() {
	p.mu.Lock()
	p.refreshHold++
	p.mu.Unlock()
}

// ResumeRefresh pops one suspension level.
func (p *Project) ResumeRefresh() {
	p.mu.Lock()
	if p.refreshHold > 0 {
		p.refreshHold--
	}
	p.mu.Unlock()
}

// RefreshSuspended reports whether refresh events are gated.
func (p *Project) RefreshSuspended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshHold > 0
}

// Refresh forces a refresh event regardless of staged state or
// suspension.
func (p *Project) Refresh() {
	_, _ = p.bus.Trigger(EventRefresh, nil)
}

func (p *Project) refresh() {
	p.mu.Lock()
	held := p.refreshHold > 0
	p.mu.Unlock()
	if held {
		return
	}
	_, _ = p.bus.Trigger(EventRefresh, nil)
}

// Commit validates and persists the staged changeset. On any failure
// every staged change is reverted, in reverse order, before the error
// is returned; the caller decides what to do next, but the in-memory
// model is back to its pre-batch state.
func (p *Project) Commit(ctx context.Context) error {
	p.mu.Lock()
	pending := p.pending
	if len(pending) == 0 {
		p.mu.Unlock()
		return nil
	}

	cs := &changeset{tasks: make(map[string]bool), deps: make(map[string]bool)}
	for _, c := range pending {
		c.touch(cs)
	}

	if err := p.validateLocked(cs); err != nil {
		p.rollbackLocked()
		p.mu.Unlock()
		return err
	}

	if p.store != nil {
		if err := p.persistLocked(ctx, cs); err != nil {
			p.rollbackLocked()
			p.mu.Unlock()
			return fmt.Errorf("committing changes: %w", err)
		}
	}

	p.pending = nil
	p.dirtyTasks = make(map[string]bool)
	p.dirtyLanes = make(map[string]bool)
	p.mu.Unlock()

	_, _ = p.bus.Trigger(EventCommit, nil)
	return nil
}

// validateLocked checks referential integrity of the staged records.
func (p *Project) validateLocked(cs *changeset) error {
	for id := range cs.tasks {
		t, ok := p.tasks[id]
		if !ok {
			return ErrUnknownTask
		}
		if t.Scheduled {
			if _, ok := p.lanes[t.LaneID]; !ok {
				return ErrUnknownLane
			}
		}
	}
	for id := range cs.deps {
		d, ok := p.deps[id]
		if !ok {
			continue
		}
		if _, ok := p.tasks[d.From]; !ok {
			return ErrUnknownTask
		}
		if _, ok := p.tasks[d.To]; !ok {
			return ErrUnknownTask
		}
	}
	return nil
}

// persistLocked writes lanes first, then tasks, then dependencies, so
// the database never holds a record whose references are missing.
func (p *Project) persistLocked(ctx context.Context, cs *changeset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for id := range p.dirtyLanes {
		if l, ok := p.lanes[id]; ok {
			if err := p.store.SaveLane(l); err != nil {
				return err
			}
		}
	}
	tasks := make(map[string]bool, len(cs.tasks)+len(p.dirtyTasks))
	for id := range p.dirtyTasks {
		tasks[id] = true
	}
	for id := range cs.tasks {
		tasks[id] = true
	}
	for id := range tasks {
		if t, ok := p.tasks[id]; ok {
			if err := p.store.SaveTask(t); err != nil {
				return err
			}
		}
	}
	for id := range cs.deps {
		if d, ok := p.deps[id]; ok {
			if err := p.store.SaveDependency(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Project) rollbackLocked() {
	for i := len(p.pending) - 1; i >= 0; i-- {
		p.pending[i].revert(p)
	}
	p.pending = nil
}

// startChange stages a start-time mutation.
type startChange struct {
	taskID        string
	prevStart     time.Time
	prevScheduled bool
}

func (c *startChange) revert(p *Project) {
	if t, ok := p.tasks[c.taskID]; ok {
		t.Start = c.prevStart
		t.Scheduled = c.prevScheduled
	}
}

func (c *startChange) touch(cs *changeset) { cs.tasks[c.taskID] = true }

// assignChange stages a lane assignment.
type assignChange struct {
	taskID        string
	prevLane      string
	prevScheduled bool
}

func (c *assignChange) revert(p *Project) {
	if t, ok := p.tasks[c.taskID]; ok {
		t.LaneID = c.prevLane
		t.Scheduled = c.prevScheduled
	}
}

func (c *assignChange) touch(cs *changeset) { cs.tasks[c.taskID] = true }

// addDepChange stages a new dependency link.
type addDepChange struct {
	depID string
}

func (c *addDepChange) revert(p *Project) {
	delete(p.deps, c.depID)
}

func (c *addDepChange) touch(cs *changeset) { cs.deps[c.depID] = true }
