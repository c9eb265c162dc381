package sched

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Dataset documents look like:
//
//	{
//	  "lanes": [{"id": "...", "name": "Room A", "capacity": 8, "color": "#5fa8d3"}],
//	  "tasks": [{"id": "...", "name": "Kickoff", "start": "2026-03-02T09:00:00Z",
//	             "durationMinutes": 60, "lane": "...", "participants": 4}],
//	  "dependencies": [{"from": "...", "to": "...", "lagMinutes": 30}]
//	}
//
// A task without a lane is backlog (unscheduled); its start is ignored.

// ImportDataset loads a JSON dataset document into the project. Loaded
// records are registered directly, without staging, and a single
// refresh fires at the end.
func ImportDataset(p *Project, data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("importing dataset: invalid JSON")
	}
	doc := gjson.ParseBytes(data)

	p.SuspendRefresh()
	defer func() {
		p.ResumeRefresh()
		p.Refresh()
	}()

	var err error
	doc.Get("lanes").ForEach(func(_, v gjson.Result) bool {
		lane := &Lane{
			ID:       stringOr(v.Get("id"), uuid.NewString()),
			Name:     v.Get("name").String(),
			Capacity: int(v.Get("capacity").Int()),
			Color:    v.Get("color").String(),
		}
		if lane.Name == "" {
			err = fmt.Errorf("importing dataset: lane %s has no name", lane.ID)
			return false
		}
		p.AddLane(lane)
		return true
	})
	if err != nil {
		return err
	}

	doc.Get("tasks").ForEach(func(_, v gjson.Result) bool {
		task := &Task{
			ID:           stringOr(v.Get("id"), uuid.NewString()),
			Name:         v.Get("name").String(),
			Duration:     time.Duration(v.Get("durationMinutes").Int()) * time.Minute,
			Participants: int(v.Get("participants").Int()),
		}
		if task.Name == "" {
			err = fmt.Errorf("importing dataset: task %s has no name", task.ID)
			return false
		}
		if lane := v.Get("lane").String(); lane != "" {
			start, perr := time.Parse(time.RFC3339, v.Get("start").String())
			if perr != nil {
				err = fmt.Errorf("importing dataset: task %q: %w", task.Name, perr)
				return false
			}
			task.LaneID = lane
			task.Start = start
			task.Scheduled = true
		}
		p.AddTask(task)
		return true
	})
	if err != nil {
		return err
	}

	doc.Get("dependencies").ForEach(func(_, v gjson.Result) bool {
		lag := time.Duration(v.Get("lagMinutes").Int()) * time.Minute
		if _, derr := p.AddDependency(v.Get("from").String(), v.Get("to").String(), lag); derr != nil {
			err = fmt.Errorf("importing dataset: %w", derr)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	// Imported records are baseline state, not staged work.
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
	return nil
}

// ExportDataset renders the project as a dataset document.
func ExportDataset(p *Project) ([]byte, error) {
	out := []byte(`{}`)
	var err error

	set := func(path string, value any) {
		if err != nil {
			return
		}
		out, err = sjson.SetBytes(out, path, value)
	}

	for i, lane := range p.Lanes() {
		prefix := fmt.Sprintf("lanes.%d.", i)
		set(prefix+"id", lane.ID)
		set(prefix+"name", lane.Name)
		set(prefix+"capacity", lane.Capacity)
		if lane.Color != "" {
			set(prefix+"color", lane.Color)
		}
	}
	for i, task := range p.Tasks() {
		prefix := fmt.Sprintf("tasks.%d.", i)
		set(prefix+"id", task.ID)
		set(prefix+"name", task.Name)
		set(prefix+"durationMinutes", int(task.Duration/time.Minute))
		if task.Participants > 0 {
			set(prefix+"participants", task.Participants)
		}
		if task.Scheduled {
			set(prefix+"lane", task.LaneID)
			set(prefix+"start", task.Start.UTC().Format(time.RFC3339))
		}
	}
	for i, dep := range p.Dependencies() {
		prefix := fmt.Sprintf("dependencies.%d.", i)
		set(prefix+"from", dep.From)
		set(prefix+"to", dep.To)
		set(prefix+"lagMinutes", int(dep.Lag/time.Minute))
	}

	if err != nil {
		return nil, fmt.Errorf("exporting dataset: %w", err)
	}
	return out, nil
}

func stringOr(r gjson.Result, fallback string) string {
	if s := r.String(); s != "" {
		return s
	}
	return fallback
}
