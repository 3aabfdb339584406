package scenario

import (
	"errors"

	"github.com/jwebster45206/world-engine/pkg/memory"
	"github.com/jwebster45206/world-engine/pkg/sim"
)

// Build validates a scenario and converts it into a world definition. Locations and
// NPCs are emitted in id order so the same file always builds the same world.
func Build(s *Scenario) (*sim.Definition, error) {
	if errs := Validate(s); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	def := &sim.Definition{
		Name:   s.Name,
		Seed:   s.Seed,
		Start:  s.Start.Tick(),
		Player: s.Player,
		Events: s.Events,
		Flags:  s.Flags,
		Vars:   s.Vars,
		Quotas: s.Quotas,
	}
	for _, id := range sortedKeys(s.Locations) {
		l := s.Locations[id]
		name := l.Name
		if name == "" {
			name = id
		}
		def.Locations = append(def.Locations, sim.LocationDef{
			ID:          id,
			Name:        name,
			Description: l.Description,
			Exits:       l.Exits,
		})
	}
	for _, id := range sortedKeys(s.NPCs) {
		def.NPCs = append(def.NPCs, s.NPCs[id])
	}
	if s.Player.Start == "" && len(def.Locations) > 0 {
		def.Player.Start = def.Locations[0].ID
	}
	if s.Memory != nil {
		cfg := memory.DefaultConfig()
		if s.Memory.RecentCap > 0 {
			cfg.RecentCap = s.Memory.RecentCap
		}
		if s.Memory.HardCap > 0 {
			cfg.HardCap = s.Memory.HardCap
		}
		if s.Memory.IntervalDays > 0 {
			cfg.IntervalDays = s.Memory.IntervalDays
		}
		def.Memory = cfg
	}
	return def, nil
}

// NPCNames maps npc ids to display names, for listings.
func (s *Scenario) NPCNames() map[string]string {
	out := make(map[string]string, len(s.NPCs))
	for id, spec := range s.NPCs {
		out[id] = spec.DisplayName()
	}
	return out
}
