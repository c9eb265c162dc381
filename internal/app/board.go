package app

import (
	"strconv"
	"time"

	"github.com/schedgrid/schedgrid/internal/dom"
	"github.com/schedgrid/schedgrid/internal/sched"
	"github.com/schedgrid/schedgrid/internal/timeline"
)

// boardView composes the element tree for one frame: a backlog pane
// on the left, a header row of hour marks, and one band per lane with
// its scheduled task bars.
type boardView struct {
	project  *sched.Project
	viewport *timeline.Viewport

	// backlogWidth is the column count of the backlog pane.
	backlogWidth int
}

// Nodes builds the frame's node tree. SyncIDs are stable across
// frames so the reconciler patches rather than rebuilds.
func (v *boardView) Nodes() []dom.Node {
	nodes := []dom.Node{
		v.backlogPane(),
		v.header(),
	}
	nodes = append(nodes, v.lanes()...)
	return nodes
}

func (v *boardView) backlogPane() dom.Node {
	children := []dom.Node{{
		Tag:     "label",
		SyncID:  "backlog-title",
		Classes: []string{"header"},
		Style:   style(0, 0),
		Text:    "Backlog",
	}}
	for i, task := range v.project.Unscheduled() {
		children = append(children, dom.Node{
			Tag:     "label",
			SyncID:  "backlog-" + task.ID,
			Classes: []string{"item"},
			Style:   style(1, i+1),
			Text:    task.Name,
		})
	}
	return dom.Node{
		Tag:      "pane",
		SyncID:   "backlog",
		Classes:  []string{"backlog"},
		Style:    style(0, 0),
		Children: children,
	}
}

// header writes an hour mark above every column that starts an hour.
func (v *boardView) header() dom.Node {
	var children []dom.Node
	perHour := int(time.Hour / v.viewport.CellDuration)
	if perHour <= 0 {
		perHour = 1
	}
	for col := 0; col < v.viewport.Width; col += perHour {
		at := v.viewport.Start.Add(time.Duration(col) * v.viewport.CellDuration)
		children = append(children, dom.Node{
			Tag:     "label",
			SyncID:  "mark-" + strconv.Itoa(col),
			Classes: []string{"header"},
			Style:   style(v.viewport.X+col, 0),
			Text:    at.Format("15:04"),
		})
	}
	return dom.Node{
		Tag:      "pane",
		SyncID:   "header",
		Children: children,
	}
}

func (v *boardView) lanes() []dom.Node {
	nodes := make([]dom.Node, 0, len(v.viewport.Lanes))
	for _, lane := range v.viewport.Lanes {
		row, ok := v.viewport.RowForLane(lane.ID)
		if !ok {
			continue
		}
		children := []dom.Node{{
			Tag:     "label",
			SyncID:  "lane-name-" + lane.ID,
			Classes: []string{"lane"},
			Style:   style(v.backlogWidth, row),
			Text:    lane.Name,
		}}
		for _, task := range v.project.TasksInLane(lane.ID) {
			bar, ok := v.taskBar(task, lane, row)
			if !ok {
				continue
			}
			children = append(children, bar)
		}
		nodes = append(nodes, dom.Node{
			Tag:      "lane",
			SyncID:   "lane-" + lane.ID,
			Children: children,
		})
	}
	return nodes
}

// taskBar maps a scheduled task to a bar clipped to the viewport.
func (v *boardView) taskBar(task *sched.Task, lane *sched.Lane, row int) (dom.Node, bool) {
	if !task.End().After(v.viewport.Start) || !task.Start.Before(v.viewport.End()) {
		return dom.Node{}, false
	}

	start := task.Start
	if start.Before(v.viewport.Start) {
		start = v.viewport.Start
	}
	left, ok := v.viewport.XForTime(start)
	if !ok {
		return dom.Node{}, false
	}

	width := int(task.End().Sub(start) / v.viewport.CellDuration)
	if width < 1 {
		width = 1
	}
	if right := v.viewport.X + v.viewport.Width; left+width > right {
		width = right - left
	}
	if width <= 0 {
		return dom.Node{}, false
	}

	node := dom.Node{
		Tag:     "bar",
		SyncID:  "task-" + task.ID,
		Classes: []string{"task"},
		Style:   style(left, row),
		Text:    task.Name,
	}
	node.Style["width"] = strconv.Itoa(width)
	if lane.Color != "" {
		node.Style["tint"] = lane.Color
	}
	return node, true
}

// BacklogTaskAt hit-tests the backlog pane. Row 0 is the title.
func (v *boardView) BacklogTaskAt(x, y int) *sched.Task {
	if x < 0 || x >= v.backlogWidth || y < 1 {
		return nil
	}
	unscheduled := v.project.Unscheduled()
	idx := y - 1
	if idx >= len(unscheduled) {
		return nil
	}
	return unscheduled[idx]
}

func style(left, top int) map[string]string {
	return map[string]string{
		"left": strconv.Itoa(left),
		"top":  strconv.Itoa(top),
	}
}
