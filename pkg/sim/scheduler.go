package sim

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/decision"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/memory"
)

// Move records an NPC changing location or activity at a slot boundary.
type Move struct {
	NPC      string     `json:"npc"`
	From     string     `json:"from"`
	To       string     `json:"to"`
	Activity string     `json:"activity"`
	Override string     `json:"override,omitempty"`
	At       clock.Tick `json:"at"`
}

// StepResult is everything that happened while the clock advanced.
type StepResult struct {
	From        clock.Tick               `json:"from"`
	To          clock.Tick               `json:"to"`
	Boundaries  []clock.Boundary         `json:"boundaries,omitempty"`
	Days        int                      `json:"days"`
	Fired       []event.Fired            `json:"fired,omitempty"`
	Expired     []event.Lapse            `json:"expired,omitempty"`
	Decisions   []decision.Decision      `json:"decisions,omitempty"`
	Moves       []Move                   `json:"moves,omitempty"`
	Dropped     []event.Suspended        `json:"dropped,omitempty"`
	Compressed  map[string]memory.Report `json:"compressed,omitempty"`
	Interrupted *event.Fired             `json:"interrupted,omitempty"` // first event that interrupted the active context
}

func (r *StepResult) merge(o StepResult) {
	r.To = o.To
	r.Boundaries = append(r.Boundaries, o.Boundaries...)
	r.Days += o.Days
	r.Fired = append(r.Fired, o.Fired...)
	r.Expired = append(r.Expired, o.Expired...)
	r.Decisions = append(r.Decisions, o.Decisions...)
	r.Moves = append(r.Moves, o.Moves...)
	r.Dropped = append(r.Dropped, o.Dropped...)
	for npc, rep := range o.Compressed {
		if r.Compressed == nil {
			r.Compressed = map[string]memory.Report{}
		}
		r.Compressed[npc] = rep
	}
	if r.Interrupted == nil {
		r.Interrupted = o.Interrupted
	}
}

// Scheduler drives a world. It is the only writer of the world's clock.
type Scheduler struct {
	w      *World
	engine *decision.Engine
	log    *slog.Logger
}

func NewScheduler(w *World) *Scheduler {
	return &Scheduler{
		w:      w,
		engine: decision.NewEngine(w.rng, w.log),
		log:    w.log,
	}
}

func (s *Scheduler) World() *World { return s.w }

// Step advances the clock by n ticks one at a time. Each slot boundary runs schedules,
// decisions and the event check; each day boundary runs expiry, decay, emotion aging,
// interrupt cleanup and memory compression; each month boundary settles decay and
// feeds the monthly jealousy trigger. An error halts the step at the tick it occurred.
func (s *Scheduler) Step(n int) (StepResult, error) {
	w := s.w
	res := StepResult{From: w.clock.Now(), To: w.clock.Now()}
	for i := 0; i < n; i++ {
		crossed := w.clock.AdvanceTicks(1)
		now := w.clock.Now()
		res.Boundaries = append(res.Boundaries, crossed...)
		for _, b := range crossed {
			var err error
			switch b.Kind {
			case clock.SlotBoundary:
				err = s.slotPass(now, b.Time.Slot, &res)
			case clock.DayBoundary:
				err = s.dayPass(now, &res)
			case clock.MonthBoundary:
				err = s.monthPass(now)
			}
			if err != nil {
				res.To = now
				return res, fmt.Errorf("step at tick %d: %w", now, err)
			}
		}
	}
	res.To = w.clock.Now()
	return res, nil
}

func (s *Scheduler) slotPass(now clock.Tick, slot clock.Slot, res *StepResult) error {
	if err := s.runSchedules(now, slot, res); err != nil {
		return err
	}

	w := s.w
	fired, err := w.pool.Check(event.Situation{
		Now:         now,
		Location:    w.player.Location,
		NPCsPresent: w.NPCsAt(w.player.Location),
		View:        w,
		RNG:         w.rng,
		Quotas:      w.quotas,
		Apply:       w,
	})
	res.Fired = append(res.Fired, fired...)
	if err != nil {
		return err
	}
	s.checkInterrupts(now, fired, res)
	return nil
}

// runSchedules moves every living NPC to its slot entry. The decision engine is consulted
// when the entry can be interrupted, the player is there, or the place is in danger.
func (s *Scheduler) runSchedules(now clock.Tick, slot clock.Slot, res *StepResult) error {
	w := s.w
	for _, id := range w.order {
		npc := w.npcs[id]
		if !npc.Alive() {
			continue
		}
		entry, override, err := npc.Resolve(slot, w)
		if err != nil {
			return fmt.Errorf("npc %s: %w", id, err)
		}
		if entry.Location == "" {
			entry.Location = npc.Location
		}
		location, activity := entry.Location, entry.Activity
		danger := w.flags.Has(DangerFlag(entry.Location))

		if entry.Interruptible || danger || w.player.Location == entry.Location {
			var present []string
			for _, other := range w.NPCsAt(entry.Location) {
				if other != id {
					present = append(present, other)
				}
			}
			d, err := s.engine.Decide(npc, decision.Situation{
				Now:            now,
				Scheduled:      entry,
				PlayerLocation: w.player.Location,
				NPCsPresent:    present,
				Danger:         danger,
				Refuge:         npc.Spec.Home,
				Relationship:   w.rels[id],
			})
			if err != nil {
				return fmt.Errorf("npc %s: %w", id, err)
			}
			res.Decisions = append(res.Decisions, d)
			if d.Chosen.Location != "" {
				location = d.Chosen.Location
			}
			activity = d.Chosen.Activity
			if d.Chosen.Kind.InvolvesPlayer() && d.Chosen.Kind != decision.AvoidPlayer {
				w.rels[id].Interact()
			}
			if eff := decision.Outcome(id, d.Chosen); !eff.IsEmpty() {
				if err := w.ApplyEffect(eff, "decision:"+id); err != nil {
					return err
				}
			}
		}

		if location != npc.Location || activity != npc.Activity {
			res.Moves = append(res.Moves, Move{
				NPC: id, From: npc.Location, To: location, Activity: activity, Override: override, At: now,
			})
		}
		npc.Location = location
		npc.Activity = activity
	}
	return nil
}

// checkInterrupts suspends the active context when a fired event outranks it. A dialogue
// is pushed onto the interrupt stack here; a long action is suspended by its own loop
// once the day completes.
func (s *Scheduler) checkInterrupts(now clock.Tick, fired []event.Fired, res *StepResult) {
	w := s.w
	if w.active == nil {
		return
	}
	for i := range fired {
		f := fired[i]
		if !f.Interrupts(w.active.Priority) {
			continue
		}
		if res.Interrupted == nil {
			res.Interrupted = &f
		}
		if w.active.Kind == event.DialogueContext {
			w.interrupts.Push(event.Suspended{
				Kind:          event.DialogueContext,
				ID:            w.active.ID,
				Label:         w.active.Label,
				NPC:           w.active.NPC,
				Priority:      w.active.Priority,
				SuspendedAt:   now,
				InterruptedBy: f.Event,
			})
			s.log.Debug("dialogue interrupted", "npc", w.active.NPC, "event", f.Event)
			w.active = nil
		}
		return
	}
}

func (s *Scheduler) dayPass(now clock.Tick, res *StepResult) error {
	w := s.w
	res.Days++

	lapses, err := w.pool.ExpireDue(now, w)
	res.Expired = append(res.Expired, lapses...)
	if err != nil {
		return err
	}

	for _, id := range w.order {
		w.rels[id].DecayDaily()
		if npc := w.npcs[id]; npc.Alive() {
			npc.Emotion.Tick()
		}
	}

	res.Dropped = append(res.Dropped, w.interrupts.Cleanup(now)...)

	for _, id := range w.order {
		store := w.memories[id]
		if !store.NeedsCompression(now, w.memCfg) {
			continue
		}
		rep := store.Compress(now, w.memCfg)
		if len(rep.Removed()) == 0 && len(rep.Created) == 0 && rep.Retained == 0 {
			continue
		}
		if res.Compressed == nil {
			res.Compressed = map[string]memory.Report{}
		}
		res.Compressed[id] = rep
		s.log.Debug("memory compressed", "npc", id, "removed", len(rep.Removed()), "created", len(rep.Created))
		w.archive(id, rep)
	}
	return nil
}

func (s *Scheduler) monthPass(now clock.Tick) error {
	w := s.w
	for _, id := range w.order {
		w.rels[id].DecayMonthly()
		npc := w.npcs[id]
		if npc.Jealousy == nil || !npc.Alive() {
			continue
		}
		side, err := npc.Jealousy.Apply("monthly_decay")
		if err != nil {
			return fmt.Errorf("npc %s: %w", id, err)
		}
		if err := w.applySideEffects(side); err != nil {
			return err
		}
	}
	s.log.Debug("month settled", "tick", now)
	return nil
}
