// Package scenario loads world definitions from JSON or YAML files, checks their
// cross-references and builds the definition a world is created from.
package scenario

import (
	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/event"
)

// Scenario is the file form of a world: everything static about it.
type Scenario struct {
	Name      string                   `json:"name" yaml:"name"`
	FileName  string                   `json:"file_name,omitempty" yaml:"file_name,omitempty"` // set by Load
	Story     string                   `json:"story,omitempty" yaml:"story,omitempty"`         // brief description of the world
	Seed      uint64                   `json:"seed,omitempty" yaml:"seed,omitempty"`
	Start     StartTime                `json:"start,omitempty" yaml:"start,omitempty"`
	Locations map[string]Location      `json:"locations" yaml:"locations"` // keyed by location id
	Player    actor.PlayerSpec         `json:"player" yaml:"player"`
	NPCs      map[string]actor.NPCSpec `json:"npcs,omitempty" yaml:"npcs,omitempty"` // keyed by npc id
	Events    []event.Definition       `json:"events,omitempty" yaml:"events,omitempty"`
	Flags     []string                 `json:"flags,omitempty" yaml:"flags,omitempty"` // set at the start
	Vars      map[string]int           `json:"vars,omitempty" yaml:"vars,omitempty"`
	Quotas    event.Quotas             `json:"quotas,omitempty" yaml:"quotas,omitempty"`
	Memory    *MemoryLimits            `json:"memory,omitempty" yaml:"memory,omitempty"`
	Narrator  *Narrator                `json:"narrator,omitempty" yaml:"narrator,omitempty"`
}

// StartTime is the calendar position a world starts at. Zero fields mean the first
// year, month or day.
type StartTime struct {
	Year  int        `json:"year,omitempty" yaml:"year,omitempty"`
	Month int        `json:"month,omitempty" yaml:"month,omitempty"`
	Day   int        `json:"day,omitempty" yaml:"day,omitempty"`
	Slot  clock.Slot `json:"slot,omitempty" yaml:"slot,omitempty"`
}

// Tick returns the absolute tick of the start time.
func (s StartTime) Tick() clock.Tick {
	return clock.ToAbsolute(max(s.Year, 1), max(s.Month, 1), max(s.Day, 1), s.Slot)
}

// MemoryLimits overrides the default memory bounds. Zero fields keep the default.
type MemoryLimits struct {
	RecentCap    int `json:"recent_cap,omitempty" yaml:"recent_cap,omitempty"`
	HardCap      int `json:"hard_cap,omitempty" yaml:"hard_cap,omitempty"`
	IntervalDays int `json:"interval_days,omitempty" yaml:"interval_days,omitempty"`
}
