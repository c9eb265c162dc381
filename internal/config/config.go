// Package config loads board configuration from TOML. A missing file
// is not an error, it just yields the defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full board configuration.
type Config struct {
	// Theme selects the render palette, "dark" or "light".
	Theme string `toml:"theme"`

	// Board controls the timeline geometry.
	Board BoardConfig `toml:"board"`

	// Drag controls gesture behavior.
	Drag DragConfig `toml:"drag"`

	// Store is the path of the bbolt database. Empty disables
	// persistence.
	Store string `toml:"store"`

	// RulesScript is the path of a Lua drop-validation script. Empty
	// leaves the extra-constraint hook unset.
	RulesScript string `toml:"rules_script"`

	// PoolSize bounds the reconciler's release pool. Zero disables
	// pooling.
	PoolSize int `toml:"pool_size"`
}

// BoardConfig controls how time and lanes map to the screen.
type BoardConfig struct {
	// SlotMinutes is the drop snapping granularity.
	SlotMinutes int `toml:"slot_minutes"`

	// CellMinutes is the schedule time one column represents.
	CellMinutes int `toml:"cell_minutes"`

	// RowHeight is rows per lane.
	RowHeight int `toml:"row_height"`

	// BacklogWidth is the width of the unscheduled-task pane.
	BacklogWidth int `toml:"backlog_width"`
}

// DragConfig controls the drag gesture.
type DragConfig struct {
	// AutoScroll toggles edge scrolling while dragging.
	AutoScroll bool `toml:"auto_scroll"`

	// ScrollIntervalMS is the edge-scroll tick period.
	ScrollIntervalMS int `toml:"scroll_interval_ms"`

	// ScrollMargin is how many edge columns trigger scrolling.
	ScrollMargin int `toml:"scroll_margin"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Theme: "dark",
		Board: BoardConfig{
			SlotMinutes:  30,
			CellMinutes:  15,
			RowHeight:    2,
			BacklogWidth: 24,
		},
		Drag: DragConfig{
			AutoScroll:       true,
			ScrollIntervalMS: 150,
			ScrollMargin:     2,
		},
		PoolSize: 64,
	}
}

// Load reads the TOML file at path over the defaults. A missing file
// returns the defaults; a malformed one returns a *ParseError.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), &ParseError{Path: path, Err: err}
	}
	if err := cfg.validate(); err != nil {
		return Default(), &ParseError{Path: path, Err: err}
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Theme != "dark" && c.Theme != "light" {
		return fmt.Errorf("theme must be dark or light, got %q", c.Theme)
	}
	if c.Board.SlotMinutes <= 0 {
		return fmt.Errorf("board.slot_minutes must be positive, got %d", c.Board.SlotMinutes)
	}
	if c.Board.CellMinutes <= 0 {
		return fmt.Errorf("board.cell_minutes must be positive, got %d", c.Board.CellMinutes)
	}
	if c.Board.RowHeight <= 0 {
		return fmt.Errorf("board.row_height must be positive, got %d", c.Board.RowHeight)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must not be negative, got %d", c.PoolSize)
	}
	if c.Drag.ScrollIntervalMS <= 0 {
		return fmt.Errorf("drag.scroll_interval_ms must be positive, got %d", c.Drag.ScrollIntervalMS)
	}
	return nil
}

// SlotDuration returns the snapping granularity as a duration.
func (c BoardConfig) SlotDuration() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}

// CellDuration returns the per-column schedule time as a duration.
func (c BoardConfig) CellDuration() time.Duration {
	return time.Duration(c.CellMinutes) * time.Minute
}

// ScrollInterval returns the edge-scroll tick period as a duration.
func (c DragConfig) ScrollInterval() time.Duration {
	return time.Duration(c.ScrollIntervalMS) * time.Millisecond
}

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
