// Package rules runs Lua drop-validation scripts.
//
// A rule script defines a global `validate` function receiving a table
// describing a candidate drop and returning a boolean (optionally with
// a reason string):
//
//	function validate(drop)
//	    if drop.capacity > 0 and drop.participants > drop.capacity then
//	        return false, "over capacity"
//	    end
//	    return true
//	end
//
// No rule engine is configured by default; the capacity constraint is
// an opt-in policy, not built-in behavior.
package rules

import (
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Drop describes a candidate drop for a rule script.
type Drop struct {
	TaskID       string
	TaskName     string
	Participants int
	LaneID       string
	LaneName     string
	Capacity     int
	Start        time.Time
	OverTaskID   string
}

// Engine evaluates a loaded rule script. Safe for use from one
// goroutine at a time per the board's single-threaded dispatch; the
// internal lock guards against accidental concurrent evaluation.
type Engine struct {
	mu sync.Mutex
	ls *lua.LState
}

// Load compiles a rule script. The script must define a global
// `validate` function.
func Load(script string) (*Engine, error) {
	ls := lua.NewState()
	if err := ls.DoString(script); err != nil {
		ls.Close()
		return nil, fmt.Errorf("loading rule script: %w", err)
	}
	if _, ok := ls.GetGlobal("validate").(*lua.LFunction); !ok {
		ls.Close()
		return nil, fmt.Errorf("rule script defines no validate function")
	}
	return &Engine{ls: ls}, nil
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ls.Close()
}

// Validate runs the script against a drop. It returns the verdict and
// the script's reason string, empty when the script gave none.
func (e *Engine) Validate(drop Drop) (bool, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tbl := e.ls.NewTable()
	e.ls.SetField(tbl, "task", lua.LString(drop.TaskID))
	e.ls.SetField(tbl, "name", lua.LString(drop.TaskName))
	e.ls.SetField(tbl, "participants", lua.LNumber(drop.Participants))
	e.ls.SetField(tbl, "lane", lua.LString(drop.LaneID))
	e.ls.SetField(tbl, "laneName", lua.LString(drop.LaneName))
	e.ls.SetField(tbl, "capacity", lua.LNumber(drop.Capacity))
	e.ls.SetField(tbl, "start", lua.LNumber(drop.Start.Unix()))
	e.ls.SetField(tbl, "overTask", lua.LString(drop.OverTaskID))

	if err := e.ls.CallByParam(lua.P{
		Fn:      e.ls.GetGlobal("validate"),
		NRet:    2,
		Protect: true,
	}, tbl); err != nil {
		return false, "", fmt.Errorf("running validate: %w", err)
	}

	reasonVal := e.ls.Get(-1)
	verdictVal := e.ls.Get(-2)
	e.ls.Pop(2)

	verdict := lua.LVAsBool(verdictVal)
	reason := ""
	if s, ok := reasonVal.(lua.LString); ok {
		reason = string(s)
	}
	return verdict, reason, nil
}
