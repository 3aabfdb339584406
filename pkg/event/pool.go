package event

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
)

// Status is the lifecycle state of an event.
type Status string

const (
	Dormant   Status = "dormant"
	Eligible  Status = "eligible"
	Cooldown  Status = "cooldown"
	Exhausted Status = "exhausted"
	Expired   Status = "expired"
	Locked    Status = "locked"
	Triggered Status = "triggered" // history only
)

// never marks an unset tick in runtime state.
const never clock.Tick = -1

// Runtime is the mutable state of one event. All ticks are absolute.
type Runtime struct {
	TriggerCount   int        `json:"trigger_count"`
	LastTriggered  clock.Tick `json:"last_triggered"`
	CooldownUntil  clock.Tick `json:"cooldown_until"`
	EligibleSince  clock.Tick `json:"eligible_since"`
	Expired        bool       `json:"expired,omitempty"`
	ExpiredAt      clock.Tick `json:"expired_at,omitempty"`
	Unlocked       bool       `json:"unlocked,omitempty"`
	DueAt          clock.Tick `json:"due_at"`
	AwaitingChoice bool       `json:"awaiting_choice,omitempty"`
}

func newRuntime() *Runtime {
	return &Runtime{LastTriggered: never, CooldownUntil: 0, EligibleSince: never, DueAt: never}
}

// Applier applies an effect set as one unit. Returning an error halts the check.
type Applier interface {
	ApplyEffect(eff conditionals.Effect, source string) error
}

// Pool owns every event definition and its runtime state.
type Pool struct {
	defs    map[string]*Definition
	runtime map[string]*Runtime
	byTier  map[Tier][]string
	history []Outcome
	log     *slog.Logger
}

// HistoryLimit bounds the recorded outcome history.
const HistoryLimit = 200

// Outcome is one entry of the fire/expiry history.
type Outcome struct {
	Event   string     `json:"event"`
	At      clock.Tick `json:"at"`
	Status  Status     `json:"status"`
	Variant string     `json:"variant,omitempty"`
	Choice  string     `json:"choice,omitempty"`
}

// Load builds a pool from validated definitions. Duplicate ids and dangling
// mutual-exclusion references are rejected.
func Load(defs []Definition, log *slog.Logger) (*Pool, error) {
	if log == nil {
		log = slog.Default()
	}
	p := &Pool{
		defs:    make(map[string]*Definition, len(defs)),
		runtime: make(map[string]*Runtime, len(defs)),
		byTier:  make(map[Tier][]string),
		log:     log,
	}
	for i := range defs {
		d := defs[i]
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := p.defs[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidEvent, d.ID)
		}
		p.defs[d.ID] = &d
		p.runtime[d.ID] = newRuntime()
		p.byTier[d.Tier] = append(p.byTier[d.Tier], d.ID)
	}
	for _, d := range p.defs {
		for _, x := range d.Excludes {
			if _, ok := p.defs[x]; !ok {
				return nil, fmt.Errorf("%w: %s excludes unknown event %s", ErrInvalidEvent, d.ID, x)
			}
		}
		for _, f := range append(append([]conditionals.FollowUp(nil), d.Effect.FollowUps...), followUpsOf(d)...) {
			if _, ok := p.defs[f.Event]; !ok {
				return nil, fmt.Errorf("%w: %s schedules unknown event %s", ErrInvalidEvent, d.ID, f.Event)
			}
		}
	}
	for t := range p.byTier {
		sort.Strings(p.byTier[t])
	}
	return p, nil
}

func followUpsOf(d *Definition) []conditionals.FollowUp {
	var out []conditionals.FollowUp
	for _, v := range d.Variants {
		out = append(out, v.Effect.FollowUps...)
	}
	for _, c := range d.Choices {
		out = append(out, c.Effect.FollowUps...)
	}
	if d.Expiry != nil {
		out = append(out, d.Expiry.Consequence.FollowUps...)
	}
	return out
}

// Has reports whether id names a loaded event.
func (p *Pool) Has(id string) bool {
	_, ok := p.defs[id]
	return ok
}

// Definition returns the static definition of an event.
func (p *Pool) Definition(id string) (*Definition, error) {
	d, ok := p.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	return d, nil
}

// IDs returns every event id, sorted.
func (p *Pool) IDs() []string {
	ids := make([]string, 0, len(p.defs))
	for id := range p.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Runtime returns a copy of the runtime state of an event.
func (p *Pool) Runtime(id string) (Runtime, error) {
	r, ok := p.runtime[id]
	if !ok {
		return Runtime{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	return *r, nil
}

// Status reports the lifecycle state of an event at now.
func (p *Pool) Status(id string, now clock.Tick) (Status, error) {
	d, ok := p.defs[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	r := p.runtime[id]
	limit := d.TriggerLimit()
	switch {
	case r.Expired:
		return Expired, nil
	case limit != Unlimited && r.TriggerCount >= limit:
		return Exhausted, nil
	case d.StartsLocked && !r.Unlocked:
		return Locked, nil
	case r.TriggerCount > 0 && now < r.CooldownUntil:
		return Cooldown, nil
	case r.EligibleSince != never:
		return Eligible, nil
	}
	return Dormant, nil
}

// Unlock makes a locked event available. Unlocking twice is harmless.
func (p *Pool) Unlock(id string) error {
	r, ok := p.runtime[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	r.Unlocked = true
	return nil
}

// Schedule marks an event as a follow-up due at the given tick. An earlier pending
// due tick is kept.
func (p *Pool) Schedule(id string, at clock.Tick) error {
	r, ok := p.runtime[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	if r.DueAt == never || at < r.DueAt {
		r.DueAt = at
	}
	return nil
}

// Pending returns scheduled follow-ups by due tick.
func (p *Pool) Pending() map[string]clock.Tick {
	out := map[string]clock.Tick{}
	for id, r := range p.runtime {
		if r.DueAt != never {
			out[id] = r.DueAt
		}
	}
	return out
}

// History returns the recorded fire and expiry outcomes, oldest first.
func (p *Pool) History() []Outcome {
	return append([]Outcome(nil), p.history...)
}

func (p *Pool) record(o Outcome) {
	p.history = append(p.history, o)
	if len(p.history) > HistoryLimit {
		p.history = p.history[len(p.history)-HistoryLimit:]
	}
}

// AwaitingChoice returns ids of fired events whose choice is still open, sorted.
func (p *Pool) AwaitingChoice() []string {
	var out []string
	for id, r := range p.runtime {
		if r.AwaitingChoice {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ResolveChoice closes the pending choice of a fired event and returns the effect to apply.
func (p *Pool) ResolveChoice(eventID, choiceID string, now clock.Tick) (conditionals.Effect, error) {
	d, ok := p.defs[eventID]
	if !ok {
		return conditionals.Effect{}, fmt.Errorf("%w: %s", ErrUnknownEvent, eventID)
	}
	r := p.runtime[eventID]
	if !r.AwaitingChoice {
		return conditionals.Effect{}, fmt.Errorf("%w: %s", ErrNoChoice, eventID)
	}
	for _, c := range d.Choices {
		if c.ID == choiceID {
			r.AwaitingChoice = false
			p.record(Outcome{Event: eventID, At: now, Status: Triggered, Choice: choiceID})
			return c.Effect, nil
		}
	}
	return conditionals.Effect{}, fmt.Errorf("%w: %s on %s", ErrUnknownChoice, choiceID, eventID)
}

// deadline returns the effective expiry deadline, or never.
func (p *Pool) deadline(d *Definition, r *Runtime) clock.Tick {
	if d.Expiry == nil {
		return never
	}
	if d.Expiry.Deadline > 0 {
		return d.Expiry.Deadline
	}
	if d.Expiry.DeadlineDays > 0 && r.EligibleSince != never {
		return r.EligibleSince + clock.Days(d.Expiry.DeadlineDays)
	}
	return never
}

// State is the persisted runtime of a pool.
type State struct {
	Runtime map[string]Runtime `json:"runtime"`
	History []Outcome          `json:"history,omitempty"`
}

// Snapshot captures every event's runtime state.
func (p *Pool) Snapshot() State {
	st := State{Runtime: make(map[string]Runtime, len(p.runtime)), History: p.History()}
	for id, r := range p.runtime {
		st.Runtime[id] = *r
	}
	return st
}

// Restore replaces runtime state. Unknown ids mean the state belongs to other definitions.
func (p *Pool) Restore(st State) error {
	for id := range st.Runtime {
		if _, ok := p.defs[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownEvent, id)
		}
	}
	for id := range p.defs {
		r := newRuntime()
		if saved, ok := st.Runtime[id]; ok {
			*r = saved
		}
		p.runtime[id] = r
	}
	p.history = append([]Outcome(nil), st.History...)
	return nil
}
