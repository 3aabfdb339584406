package scenario

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/relationship"
)

// Validate checks a scenario's ids and cross-references. It returns every problem
// found rather than stopping at the first; an empty result means the scenario is valid.
func Validate(s *Scenario) []error {
	v := &validator{s: s, events: map[string]bool{}}
	v.run()
	return v.errs
}

type validator struct {
	s      *Scenario
	events map[string]bool
	errs   []error
}

func (v *validator) addError(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...)))
}

func (v *validator) id(field, id string) {
	if !isValidID(id) {
		v.addError("%s %q should be lowercase snake_case", field, id)
	}
}

func (v *validator) hasLocation(id string) bool {
	_, ok := v.s.Locations[id]
	return ok
}

func (v *validator) hasNPC(id string) bool {
	_, ok := v.s.NPCs[id]
	return ok
}

func (v *validator) run() {
	s := v.s
	if strings.TrimSpace(s.Name) == "" {
		v.addError("name is required")
	}
	if len(s.Locations) == 0 {
		v.addError("at least one location is required")
	}
	for _, ev := range s.Events {
		v.events[ev.ID] = true
	}

	for _, id := range sortedKeys(s.Locations) {
		v.id("location id", id)
		for to, cost := range s.Locations[id].Exits {
			if !v.hasLocation(to) {
				v.addError("location %s: exit to unknown location %q", id, to)
			}
			if cost < 0 {
				v.addError("location %s: negative travel time to %s", id, to)
			}
		}
	}
	if s.Player.Start != "" && !v.hasLocation(s.Player.Start) {
		v.addError("player start %q is not a location", s.Player.Start)
	}

	for _, id := range sortedKeys(s.NPCs) {
		v.npc(id, s.NPCs[id])
	}

	seen := map[string]bool{}
	for i := range s.Events {
		ev := &s.Events[i]
		if seen[ev.ID] {
			v.addError("duplicate event id %q", ev.ID)
		}
		seen[ev.ID] = true
		v.event(ev)
	}

	for _, f := range s.Flags {
		v.id("flag", f)
	}
	for name := range s.Vars {
		v.id("var", name)
	}
	for tier, n := range s.Quotas {
		if !slices.Contains(event.TierOrder, tier) {
			v.addError("quota for unknown tier %q", tier)
		}
		if n < 0 {
			v.addError("quota for %s is negative", tier)
		}
	}
	if m := s.Memory; m != nil && m.HardCap > 0 && m.RecentCap > m.HardCap {
		v.addError("memory recent cap %d exceeds hard cap %d", m.RecentCap, m.HardCap)
	}
}

func (v *validator) npc(id string, spec actor.NPCSpec) {
	v.id("npc id", id)
	where := "npc " + id
	if spec.ID != id {
		v.addError("%s: spec id %q does not match its key", where, spec.ID)
	}
	if !v.hasLocation(spec.Home) {
		v.addError("%s: home %q is not a location", where, spec.Home)
	}
	for _, loc := range spec.Schedule.Locations() {
		if !v.hasLocation(loc) {
			v.addError("%s: schedule location %q is not a location", where, loc)
		}
	}
	for _, o := range spec.Schedule.Overrides {
		v.predicate(fmt.Sprintf("%s override %s", where, o.ID), o.When)
	}
	for g, w := range spec.Personality {
		if !slices.Contains(actor.Goals, g) {
			v.addError("%s: unknown goal %q", where, g)
		}
		if w < 0 || w > 1 {
			v.addError("%s: weight for %s outside [0,1]", where, g)
		}
	}
	if spec.RiskTolerance < 0 || spec.RiskTolerance > 1 {
		v.addError("%s: risk tolerance outside [0,1]", where)
	}
	for dim, val := range spec.Relationship {
		d, err := relationship.ParseDimension(dim)
		if err != nil {
			v.addError("%s: %v", where, err)
			continue
		}
		if d != relationship.Debt && (val < 0 || val > 100) {
			v.addError("%s: starting %s %.0f outside [0,100]", where, dim, val)
		}
	}
	for dim := range spec.DecayRates {
		if _, err := relationship.ParseDimension(dim); err != nil {
			v.addError("%s decay: %v", where, err)
		}
	}
	rules := spec.JealousyRules
	for _, ev := range []string{rules.UneasyEvent, rules.DangerousEvent, rules.BreakingEvent} {
		if ev != "" && !v.events[ev] {
			v.addError("%s: jealousy event %q is not defined", where, ev)
		}
	}
}

func (v *validator) event(ev *event.Definition) {
	where := "event " + ev.ID
	v.id("event id", ev.ID)
	if err := ev.Validate(); err != nil {
		v.errs = append(v.errs, fmt.Errorf("%w: %w", ErrInvalidScenario, err))
	}
	for _, loc := range ev.Locations {
		if !v.hasLocation(loc) {
			v.addError("%s: location %q is not defined", where, loc)
		}
	}
	for _, npc := range ev.InvolvedNPCs {
		if !v.hasNPC(npc) {
			v.addError("%s: involved npc %q is not defined", where, npc)
		}
	}
	pc := ev.Preconditions
	for _, th := range pc.Relationships {
		if !v.hasNPC(th.NPC) {
			v.addError("%s: threshold npc %q is not defined", where, th.NPC)
		}
		if _, err := relationship.ParseDimension(th.Dimension); err != nil {
			v.addError("%s: %v", where, err)
		}
	}
	for _, at := range pc.NPCAt {
		if !v.hasNPC(at.NPC) {
			v.addError("%s: npc_at npc %q is not defined", where, at.NPC)
		}
		if !v.hasLocation(at.Location) {
			v.addError("%s: npc_at location %q is not defined", where, at.Location)
		}
	}
	for _, id := range ev.Excludes {
		if !v.events[id] {
			v.addError("%s: excludes unknown event %q", where, id)
		}
	}
	v.predicate(where, pc.When)

	v.effect(where, ev.Effect)
	for _, vr := range ev.Variants {
		v.predicate(where+" variant "+vr.ID, vr.When)
		v.effect(where+" variant "+vr.ID, vr.Effect)
	}
	for _, c := range ev.Choices {
		v.effect(where+" choice "+c.ID, c.Effect)
	}
	if ev.Expiry != nil {
		v.effect(where+" expiry", ev.Expiry.Consequence)
	}
}

// predicate checks that the npcs a predicate's paths name exist.
func (v *validator) predicate(where string, p *conditionals.Predicate) {
	if p == nil {
		return
	}
	if err := conditionals.Validate(p); err != nil {
		v.addError("%s: %v", where, err)
		return
	}
	for _, path := range conditionals.Paths(p) {
		parts := strings.Split(path, ".")
		if len(parts) == 3 && (parts[0] == "npc" || parts[0] == "relationship") && !v.hasNPC(parts[1]) {
			v.addError("%s: path %q names an unknown npc", where, path)
		}
	}
}

func (v *validator) effect(where string, eff conditionals.Effect) {
	for _, npc := range eff.NPCs() {
		if !v.hasNPC(npc) {
			v.addError("%s: effect names unknown npc %q", where, npc)
		}
	}
	for _, d := range eff.Relationships {
		if _, err := relationship.ParseDimension(d.Dimension); err != nil {
			v.addError("%s: %v", where, err)
		}
	}
	for _, j := range eff.Jealousy {
		if _, ok := actor.JealousyTriggers[j.Trigger]; !ok {
			v.addError("%s: unknown jealousy trigger %q", where, j.Trigger)
		}
		if spec, ok := v.s.NPCs[j.NPC]; ok && !spec.HasTrait(actor.TraitJealous) {
			v.addError("%s: npc %s is not jealous", where, j.NPC)
		}
	}
	stimuli := actor.Stimuli()
	for _, st := range eff.Stimuli {
		if !slices.Contains(stimuli, st.Stimulus) {
			v.addError("%s: unknown stimulus %q", where, st.Stimulus)
		}
	}
	for _, f := range eff.FollowUps {
		if !v.events[f.Event] {
			v.addError("%s: follow-up %q is not defined", where, f.Event)
		}
	}
	for _, id := range eff.Unlock {
		if !v.events[id] {
			v.addError("%s: unlock %q is not defined", where, id)
		}
	}
	for _, mv := range eff.MoveNPCs {
		if !v.hasLocation(mv.Location) {
			v.addError("%s: move to unknown location %q", where, mv.Location)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
