package actor

import (
	"fmt"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
)

// ScheduleEntry is where an NPC is and what they do during one slot.
type ScheduleEntry struct {
	Location      string `json:"location" yaml:"location"`
	Activity      string `json:"activity" yaml:"activity"` // work, rest, sleep, teach, pray...
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	Interruptible bool   `json:"interruptible,omitempty" yaml:"interruptible,omitempty"`
}

// Override replaces the default entry while its condition holds.
// Empty Slots means every slot; a nil When always holds.
type Override struct {
	ID    string                  `json:"id" yaml:"id"`
	When  *conditionals.Predicate `json:"when,omitempty" yaml:"when,omitempty"`
	Slots []clock.Slot            `json:"slots,omitempty" yaml:"slots,omitempty"`
	Entry ScheduleEntry           `json:"entry" yaml:"entry"`
}

func (o Override) appliesTo(slot clock.Slot) bool {
	if len(o.Slots) == 0 {
		return true
	}
	for _, s := range o.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Schedule is the daily routine of an NPC.
type Schedule struct {
	Morning   ScheduleEntry `json:"morning" yaml:"morning"`
	Afternoon ScheduleEntry `json:"afternoon" yaml:"afternoon"`
	Evening   ScheduleEntry `json:"evening" yaml:"evening"`
	Night     ScheduleEntry `json:"night" yaml:"night"`
	Overrides []Override    `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Default returns the routine entry for a slot, ignoring overrides.
func (s *Schedule) Default(slot clock.Slot) ScheduleEntry {
	switch slot {
	case clock.Afternoon:
		return s.Afternoon
	case clock.Evening:
		return s.Evening
	case clock.Night:
		return s.Night
	}
	return s.Morning
}

// Resolve returns the entry for slot. The first override that applies wins; the
// reported id is empty when the default routine is used.
func (s *Schedule) Resolve(slot clock.Slot, view conditionals.WorldView) (ScheduleEntry, string, error) {
	return resolve(s.Overrides, s.Default(slot), slot, view)
}

func resolve(overrides []Override, def ScheduleEntry, slot clock.Slot, view conditionals.WorldView) (ScheduleEntry, string, error) {
	for _, o := range overrides {
		if !o.appliesTo(slot) {
			continue
		}
		ok, err := conditionals.Evaluate(o.When, view)
		if err != nil {
			return ScheduleEntry{}, "", fmt.Errorf("schedule override %s: %w", o.ID, err)
		}
		if ok {
			return o.Entry, o.ID, nil
		}
	}
	return def, "", nil
}

// Locations returns every location the schedule can place an NPC in.
func (s *Schedule) Locations() []string {
	seen := map[string]bool{}
	var out []string
	add := func(l string) {
		if l != "" && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, e := range []ScheduleEntry{s.Morning, s.Afternoon, s.Evening, s.Night} {
		add(e.Location)
	}
	for _, o := range s.Overrides {
		add(o.Entry.Location)
	}
	return out
}
