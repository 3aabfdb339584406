// Package sim wires the clock, event pools, NPCs, relationships and memories into one
// world and drives it forward a tick at a time.
package sim

import (
	"errors"
	"log/slog"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/memory"
)

var (
	ErrUnknownNPC      = errors.New("unknown npc")
	ErrNotPresent      = errors.New("npc is not here")
	ErrCorruptState    = errors.New("corrupt world state")
	ErrUnknownIntent   = errors.New("unknown intent")
	ErrNothingToResume = errors.New("nothing to resume")
)

// Definition is the fully parsed static content of a world.
type Definition struct {
	Name      string             `json:"name"`
	Seed      uint64             `json:"seed,omitempty"`
	Start     clock.Tick         `json:"start,omitempty"`
	Locations []LocationDef      `json:"locations"`
	Player    actor.PlayerSpec   `json:"player"`
	NPCs      []actor.NPCSpec    `json:"npcs,omitempty"`
	Events    []event.Definition `json:"events,omitempty"`
	Flags     []string           `json:"flags,omitempty"`
	Vars      map[string]int     `json:"vars,omitempty"`
	Quotas    event.Quotas       `json:"quotas,omitempty"`
	Memory    memory.Config      `json:"memory,omitempty"`
}

// LocationDef is one place and its exits, with travel time in ticks.
type LocationDef struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Exits       map[string]int `json:"exits,omitempty"`
}

// Archiver receives memories removed by compression.
type Archiver interface {
	ArchiveMemories(npc string, at clock.Tick, entries []memory.Entry) error
}

// Options tune a world beyond its definition.
type Options struct {
	Logger   *slog.Logger
	Seed     uint64 // overrides the definition's seed when non-zero
	Quotas   event.Quotas
	Memory   *memory.Config
	Archiver Archiver
}

// DangerFlag is the flag marking a location as threatened. NPCs there may flee home.
func DangerFlag(location string) string {
	return "danger_" + location
}

// DialoguePriority is the interrupt priority of a conversation with an NPC.
const DialoguePriority = 1

// ContextMemories is how many memories a narrative context carries per NPC.
const ContextMemories = 5
