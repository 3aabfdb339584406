// Package event holds the tiered event pools: eligibility filtering, scoring, mutual exclusion,
// firing, expiry and the interrupt stack.
package event

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
)

var (
	ErrUnknownEvent  = errors.New("unknown event")
	ErrInvalidEvent  = errors.New("invalid event definition")
	ErrNoChoice      = errors.New("no choice pending")
	ErrUnknownChoice = errors.New("unknown choice")
)

// Tier is the pool an event belongs to.
type Tier string

const (
	Daily       Tier = "daily"
	Opportunity Tier = "opportunity"
	Critical    Tier = "critical"
)

// TierOrder is the order tiers are processed in each tick.
var TierOrder = []Tier{Critical, Opportunity, Daily}

// Unlimited as MaxTriggers lets an event fire any number of times.
const Unlimited = -1

// Quotas caps how many events each tier may fire per tick.
type Quotas map[Tier]int

func DefaultQuotas() Quotas {
	return Quotas{Critical: 1, Opportunity: 1, Daily: 2}
}

// Window restricts when an event may fire. Zero values leave that side open.
type Window struct {
	Start   clock.Tick   `json:"start,omitempty" yaml:"start,omitempty"`
	End     clock.Tick   `json:"end,omitempty" yaml:"end,omitempty"`
	Slots   []clock.Slot `json:"slots,omitempty" yaml:"slots,omitempty"`
	YearMin int          `json:"year_min,omitempty" yaml:"year_min,omitempty"`
	YearMax int          `json:"year_max,omitempty" yaml:"year_max,omitempty"`
}

// Threshold bounds one relationship dimension of an NPC. Nil bounds are open.
type Threshold struct {
	NPC       string   `json:"npc" yaml:"npc"`
	Dimension string   `json:"dimension" yaml:"dimension"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// NPCAt requires an NPC to be at a location.
type NPCAt struct {
	NPC      string `json:"npc" yaml:"npc"`
	Location string `json:"location" yaml:"location"`
}

// Preconditions must all hold for an event to be a candidate.
type Preconditions struct {
	FlagsRequired  []string                `json:"flags_required,omitempty" yaml:"flags_required,omitempty"`
	FlagsForbidden []string                `json:"flags_forbidden,omitempty" yaml:"flags_forbidden,omitempty"`
	Relationships  []Threshold             `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	NPCAt          []NPCAt                 `json:"npc_at,omitempty" yaml:"npc_at,omitempty"`
	RandomChance   float64                 `json:"random_chance,omitempty" yaml:"random_chance,omitempty"` // 0 means always
	When           *conditionals.Predicate `json:"when,omitempty" yaml:"when,omitempty"`
}

// Interrupt describes how an event interacts with long actions and dialogue.
type Interrupt struct {
	CanInterrupt     bool `json:"can_interrupt,omitempty" yaml:"can_interrupt,omitempty"`
	CanBeInterrupted bool `json:"can_be_interrupted,omitempty" yaml:"can_be_interrupted,omitempty"`
	Priority         int  `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Expiry is the deadline after which an unfired event expires, and what happens then.
// DeadlineDays counts from the tick the event first became eligible.
type Expiry struct {
	Deadline     clock.Tick         `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	DeadlineDays int                `json:"deadline_days,omitempty" yaml:"deadline_days,omitempty"`
	Consequence  conditionals.Effect `json:"consequence,omitempty" yaml:"consequence,omitempty"`
}

// Variant is a conditioned alternate outcome.
type Variant struct {
	ID     string                  `json:"id" yaml:"id"`
	When   *conditionals.Predicate `json:"when,omitempty" yaml:"when,omitempty"`
	Effect conditionals.Effect     `json:"effect,omitempty" yaml:"effect,omitempty"`
	Tags   []string                `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Choice is an option offered to the player once the event has fired.
type Choice struct {
	ID     string              `json:"id" yaml:"id"`
	Label  string              `json:"label" yaml:"label"`
	Effect conditionals.Effect `json:"effect,omitempty" yaml:"effect,omitempty"`
}

// Definition is the static description of an event.
type Definition struct {
	ID              string              `json:"id" yaml:"id"`
	Name            string              `json:"name" yaml:"name"`
	Tier            Tier                `json:"tier" yaml:"tier"`
	Priority        float64             `json:"priority" yaml:"priority"`
	Storyline       string              `json:"storyline,omitempty" yaml:"storyline,omitempty"`
	Window          Window              `json:"window,omitempty" yaml:"window,omitempty"`
	Locations       []string            `json:"locations,omitempty" yaml:"locations,omitempty"`
	RequireLocation bool                `json:"require_location,omitempty" yaml:"require_location,omitempty"`
	InvolvedNPCs    []string            `json:"involved_npcs,omitempty" yaml:"involved_npcs,omitempty"`
	Preconditions   Preconditions       `json:"preconditions,omitempty" yaml:"preconditions,omitempty"`
	Cooldown        clock.Tick          `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
	CooldownDays    int                 `json:"cooldown_days,omitempty" yaml:"cooldown_days,omitempty"`
	MaxTriggers     int                 `json:"max_triggers,omitempty" yaml:"max_triggers,omitempty"` // 0 means once, -1 unlimited
	MutexGroups     []string            `json:"mutex_groups,omitempty" yaml:"mutex_groups,omitempty"`
	Excludes        []string            `json:"excludes,omitempty" yaml:"excludes,omitempty"`
	Interrupt       Interrupt           `json:"interrupt,omitempty" yaml:"interrupt,omitempty"`
	Expiry          *Expiry             `json:"expiry,omitempty" yaml:"expiry,omitempty"`
	Effect          conditionals.Effect `json:"effect,omitempty" yaml:"effect,omitempty"`
	Tags            []string            `json:"tags,omitempty" yaml:"tags,omitempty"`
	Variants        []Variant           `json:"variants,omitempty" yaml:"variants,omitempty"`
	Choices         []Choice            `json:"choices,omitempty" yaml:"choices,omitempty"`
	StartsLocked    bool                `json:"starts_locked,omitempty" yaml:"starts_locked,omitempty"`
	ScheduledOnly   bool                `json:"scheduled_only,omitempty" yaml:"scheduled_only,omitempty"`
}

// CooldownTicks is the total cooldown after firing.
func (d *Definition) CooldownTicks() clock.Tick {
	return d.Cooldown + clock.Days(d.CooldownDays)
}

// TriggerLimit is the effective max trigger count, Unlimited for no limit.
func (d *Definition) TriggerLimit() int {
	if d.MaxTriggers == 0 {
		return 1
	}
	if d.MaxTriggers < 0 {
		return Unlimited
	}
	return d.MaxTriggers
}

// Validate checks a definition on its own. Cross-references are checked by the pool.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	switch d.Tier {
	case Daily, Opportunity, Critical:
	default:
		return fmt.Errorf("%w: %s: unknown tier %q", ErrInvalidEvent, d.ID, d.Tier)
	}
	if d.Priority < 0 || d.Priority > 1 {
		return fmt.Errorf("%w: %s: priority %v outside [0,1]", ErrInvalidEvent, d.ID, d.Priority)
	}
	if d.Preconditions.RandomChance < 0 || d.Preconditions.RandomChance > 1 {
		return fmt.Errorf("%w: %s: random chance outside [0,1]", ErrInvalidEvent, d.ID)
	}
	if d.MaxTriggers < Unlimited {
		return fmt.Errorf("%w: %s: max triggers %d", ErrInvalidEvent, d.ID, d.MaxTriggers)
	}
	if err := conditionals.Validate(d.Preconditions.When); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidEvent, d.ID, err)
	}
	seen := map[string]bool{}
	for _, v := range d.Variants {
		if v.ID == "" || seen[v.ID] {
			return fmt.Errorf("%w: %s: variant id %q missing or repeated", ErrInvalidEvent, d.ID, v.ID)
		}
		seen[v.ID] = true
		if err := conditionals.Validate(v.When); err != nil {
			return fmt.Errorf("%w: %s: variant %s: %v", ErrInvalidEvent, d.ID, v.ID, err)
		}
	}
	seen = map[string]bool{}
	for _, c := range d.Choices {
		if c.ID == "" || seen[c.ID] {
			return fmt.Errorf("%w: %s: choice id %q missing or repeated", ErrInvalidEvent, d.ID, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
