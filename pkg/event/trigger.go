package event

import (
	"fmt"
	"sort"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
	"github.com/jwebster45206/world-engine/pkg/rng"
)

// Score weights.
const (
	WeightPriority  = 0.35
	WeightUrgency   = 0.30
	WeightRelevance = 0.25
	WeightRandom    = 0.10
)

// Relevance contributions.
const (
	RelevanceLocation = 0.3
	RelevanceNPC      = 0.2
	RelevanceFollowUp = 0.3
)

// Situation is everything a trigger check reads.
type Situation struct {
	Now         clock.Tick
	Location    string   // player location
	NPCsPresent []string // NPCs at the player location
	View        conditionals.WorldView
	RNG         rng.Source
	Quotas      Quotas
	Apply       Applier
}

// ChoiceOption is a choice as presented to the player.
type ChoiceOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Fired is the record of one event firing.
type Fired struct {
	Event     string              `json:"event"`
	Name      string              `json:"name"`
	Tier      Tier                `json:"tier"`
	Storyline string              `json:"storyline,omitempty"`
	At        clock.Tick          `json:"at"`
	Score     float64             `json:"score"`
	Variant   string              `json:"variant"`
	Tags      []string            `json:"tags,omitempty"`
	FollowUp  bool                `json:"follow_up,omitempty"`
	Choices   []ChoiceOption      `json:"choices,omitempty"`
	Interrupt Interrupt           `json:"interrupt"`
	Effect    conditionals.Effect `json:"effect"`
}

// Interrupts reports whether the event may suspend an activity of the given priority.
func (f Fired) Interrupts(activePriority int) bool {
	return f.Interrupt.CanInterrupt && f.Interrupt.Priority > activePriority
}

// DefaultVariant names the outcome used when no variant condition holds.
const DefaultVariant = "default"

type candidate struct {
	def      *Definition
	score    float64
	followUp bool
}

// Check runs the trigger algorithm once per tier, critical first, and fires the
// selected events. Each fired event's effect set is handed to sit.Apply as one unit.
// An empty result is not an error. Errors mean a definition references state the
// world does not have.
func (p *Pool) Check(sit Situation) ([]Fired, error) {
	quotas := sit.Quotas
	if quotas == nil {
		quotas = DefaultQuotas()
	}
	active := map[string]bool{}
	var chosen []*Definition
	var fired []Fired

	for _, tier := range TierOrder {
		quota := quotas[tier]
		if quota <= 0 {
			continue
		}
		cands, err := p.candidates(tier, sit)
		if err != nil {
			return fired, err
		}
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].score != cands[j].score {
				return cands[i].score > cands[j].score
			}
			return cands[i].def.ID < cands[j].def.ID
		})

		var selected []candidate
		for _, c := range cands {
			if len(selected) >= quota {
				break
			}
			if sharesGroup(c.def, active) || excluded(c.def, chosen) {
				continue
			}
			selected = append(selected, c)
			chosen = append(chosen, c.def)
			for _, g := range c.def.MutexGroups {
				active[g] = true
			}
		}

		for _, c := range selected {
			f, err := p.fire(c, sit)
			if err != nil {
				return fired, err
			}
			fired = append(fired, f)
		}
	}
	return fired, nil
}

func (p *Pool) candidates(tier Tier, sit Situation) ([]candidate, error) {
	var out []candidate
	for _, id := range p.byTier[tier] {
		d := p.defs[id]
		r := p.runtime[id]
		ok, err := p.eligible(d, r, sit)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", id, err)
		}
		if !ok {
			continue
		}
		followUp := r.DueAt != never && r.DueAt <= sit.Now
		score := WeightPriority*d.Priority +
			WeightUrgency*p.urgency(d, r, sit.Now) +
			WeightRelevance*relevance(d, sit, followUp)
		if sit.RNG != nil {
			score += WeightRandom * sit.RNG.Float64()
		}
		out = append(out, candidate{def: d, score: score, followUp: followUp})
	}
	return out, nil
}

// eligible applies the candidate filter. Deterministic checks run before the
// random-chance roll so the roll is only drawn for otherwise eligible events.
func (p *Pool) eligible(d *Definition, r *Runtime, sit Situation) (bool, error) {
	now := sit.Now
	if r.Expired || (d.StartsLocked && !r.Unlocked) {
		return false, nil
	}
	if limit := d.TriggerLimit(); limit != Unlimited && r.TriggerCount >= limit {
		return false, nil
	}
	if r.TriggerCount > 0 && now < r.CooldownUntil {
		return false, nil
	}
	if d.ScheduledOnly && (r.DueAt == never || now < r.DueAt) {
		return false, nil
	}
	if !inWindow(d.Window, now) {
		return false, nil
	}
	if dl := p.deadline(d, r); dl != never && now > dl {
		return false, nil
	}
	if d.RequireLocation && len(d.Locations) > 0 && !contains(d.Locations, sit.Location) {
		return false, nil
	}
	ok, err := preconditionsHold(d.Preconditions, sit.View)
	if err != nil || !ok {
		return false, err
	}
	if r.EligibleSince == never {
		r.EligibleSince = now
	}
	if c := d.Preconditions.RandomChance; c > 0 && sit.RNG != nil && sit.RNG.Float64() >= c {
		return false, nil
	}
	return true, nil
}

func inWindow(w Window, now clock.Tick) bool {
	if w.Start > 0 && now < w.Start {
		return false
	}
	if w.End > 0 && now > w.End {
		return false
	}
	gt := clock.FromAbsolute(now)
	if len(w.Slots) > 0 {
		found := false
		for _, s := range w.Slots {
			if s == gt.Slot {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if w.YearMin > 0 && gt.Year < w.YearMin {
		return false
	}
	if w.YearMax > 0 && gt.Year > w.YearMax {
		return false
	}
	return true
}

func preconditionsHold(pc Preconditions, view conditionals.WorldView) (bool, error) {
	for _, f := range pc.FlagsRequired {
		if !view.HasFlag(f) {
			return false, nil
		}
	}
	for _, f := range pc.FlagsForbidden {
		if view.HasFlag(f) {
			return false, nil
		}
	}
	for _, th := range pc.Relationships {
		v, err := view.Number("relationship." + th.NPC + "." + th.Dimension)
		if err != nil {
			return false, err
		}
		if th.Min != nil && v < *th.Min {
			return false, nil
		}
		if th.Max != nil && v > *th.Max {
			return false, nil
		}
	}
	for _, at := range pc.NPCAt {
		loc, err := view.Text("npc." + at.NPC + ".location")
		if err != nil {
			return false, err
		}
		if loc != at.Location {
			return false, nil
		}
	}
	return conditionals.Evaluate(pc.When, view)
}

// urgency is 0 without a deadline, otherwise the elapsed share of the span from
// first eligibility to the deadline.
func (p *Pool) urgency(d *Definition, r *Runtime, now clock.Tick) float64 {
	dl := p.deadline(d, r)
	if dl == never {
		return 0
	}
	since := r.EligibleSince
	if since == never {
		since = now
	}
	window := float64(dl - since)
	if window <= 0 {
		return 1
	}
	u := 1 - float64(dl-now)/window
	switch {
	case u < 0:
		return 0
	case u > 1:
		return 1
	}
	return u
}

func relevance(d *Definition, sit Situation, followUp bool) float64 {
	rel := 0.0
	if sit.Location != "" && contains(d.Locations, sit.Location) {
		rel += RelevanceLocation
	}
	for _, npc := range d.InvolvedNPCs {
		if contains(sit.NPCsPresent, npc) {
			rel += RelevanceNPC
		}
	}
	if followUp {
		rel += RelevanceFollowUp
	}
	if rel > 1 {
		rel = 1
	}
	return rel
}

func sharesGroup(d *Definition, active map[string]bool) bool {
	for _, g := range d.MutexGroups {
		if active[g] {
			return true
		}
	}
	return false
}

func excluded(d *Definition, chosen []*Definition) bool {
	for _, c := range chosen {
		if contains(c.Excludes, d.ID) || contains(d.Excludes, c.ID) {
			return true
		}
	}
	return false
}

func (p *Pool) fire(c candidate, sit Situation) (Fired, error) {
	d := c.def
	r := p.runtime[d.ID]

	variant, err := pickVariant(d, sit.View)
	if err != nil {
		return Fired{}, fmt.Errorf("event %s: %w", d.ID, err)
	}
	eff := conditionals.Merge(d.Effect, variant.Effect)

	cooldown := d.CooldownTicks()
	if cooldown < 1 {
		cooldown = 1
	}
	r.TriggerCount++
	r.LastTriggered = sit.Now
	r.CooldownUntil = sit.Now + cooldown
	r.EligibleSince = never
	r.DueAt = never
	r.AwaitingChoice = len(d.Choices) > 0

	f := Fired{
		Event:     d.ID,
		Name:      d.Name,
		Tier:      d.Tier,
		Storyline: d.Storyline,
		At:        sit.Now,
		Score:     c.score,
		Variant:   variant.ID,
		Tags:      append([]string(nil), variant.Tags...),
		FollowUp:  c.followUp,
		Interrupt: d.Interrupt,
		Effect:    eff,
	}
	for _, ch := range d.Choices {
		f.Choices = append(f.Choices, ChoiceOption{ID: ch.ID, Label: ch.Label})
	}
	p.record(Outcome{Event: d.ID, At: sit.Now, Status: Triggered, Variant: variant.ID})
	p.log.Debug("event fired", "event", d.ID, "tier", d.Tier, "score", c.score, "variant", variant.ID)

	if sit.Apply != nil && !eff.IsEmpty() {
		if err := sit.Apply.ApplyEffect(eff, "event:"+d.ID); err != nil {
			return f, fmt.Errorf("event %s: apply effect: %w", d.ID, err)
		}
	}
	return f, nil
}

// pickVariant returns the first variant whose condition holds, else the default built
// from the definition's own tags.
func pickVariant(d *Definition, view conditionals.WorldView) (Variant, error) {
	for _, v := range d.Variants {
		if v.When == nil {
			continue
		}
		ok, err := conditionals.Evaluate(v.When, view)
		if err != nil {
			return Variant{}, fmt.Errorf("variant %s: %w", v.ID, err)
		}
		if ok {
			if len(v.Tags) == 0 {
				v.Tags = d.Tags
			}
			return v, nil
		}
	}
	for _, v := range d.Variants {
		if v.When == nil {
			if len(v.Tags) == 0 {
				v.Tags = d.Tags
			}
			return v, nil
		}
	}
	return Variant{ID: DefaultVariant, Tags: d.Tags}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
