package sim

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/memory"
	"github.com/jwebster45206/world-engine/pkg/relationship"
	"github.com/jwebster45206/world-engine/pkg/world"
)

var _ event.Applier = (*World)(nil)

// ApplyEffect applies an effect set as one unit. Every reference is checked first; an
// invalid effect changes nothing. Dead NPCs ignore the parts addressed to them.
func (w *World) ApplyEffect(eff conditionals.Effect, source string) error {
	if err := w.validateEffect(eff); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	now := w.clock.Now()

	for _, f := range eff.SetFlags {
		w.flags.Set(f, now, source)
	}
	for _, f := range eff.ClearFlags {
		w.flags.Clear(f, now, source)
	}
	for k, v := range eff.SetVars {
		w.flags.SetVar(k, v)
	}
	for k, v := range eff.AddVars {
		w.flags.AddVar(k, v)
	}

	for _, d := range eff.Relationships {
		dim, _ := relationship.ParseDimension(d.Dimension)
		reason := d.Reason
		if reason == "" {
			reason = source
		}
		if _, err := w.rels[d.NPC].ApplyDelta(dim, d.Delta, now, reason); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
	}
	for _, j := range eff.Jealousy {
		npc := w.npcs[j.NPC]
		if !npc.Alive() {
			continue
		}
		side, err := npc.Jealousy.Apply(j.Trigger)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		if err := w.applySideEffects(side); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
	}
	for _, s := range eff.Stimuli {
		npc := w.npcs[s.NPC]
		if !npc.Alive() {
			continue
		}
		if _, err := npc.Emotion.React(s.Stimulus); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
	}
	for _, m := range eff.Memories {
		w.remember(m, now)
	}
	for _, f := range eff.FollowUps {
		if err := w.pool.Schedule(f.Event, now+clock.Days(f.AfterDays)); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
	}
	for _, id := range eff.Unlock {
		if err := w.pool.Unlock(id); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
	}
	for _, mv := range eff.MoveNPCs {
		if npc := w.npcs[mv.NPC]; npc.Alive() {
			npc.Location = mv.Location
		}
	}
	for _, h := range eff.Harm {
		npc := w.npcs[h.NPC]
		if !npc.Alive() {
			continue
		}
		fatal, err := npc.Harm(h.Amount, now)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		if fatal {
			w.log.Info("npc died", "npc", h.NPC, "source", source, "tick", now)
		}
	}
	for _, c := range eff.Clues {
		if !slices.ContainsFunc(w.clues, func(x Clue) bool { return x.ID == c }) {
			w.clues = append(w.clues, Clue{ID: c, At: now, Source: source})
		}
	}

	w.log.Debug("effect applied", "source", source, "tick", now)
	return nil
}

func (w *World) validateEffect(eff conditionals.Effect) error {
	npc := func(id string) (*actor.NPC, error) {
		n, ok := w.npcs[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNPC, id)
		}
		return n, nil
	}
	for _, d := range eff.Relationships {
		if _, err := npc(d.NPC); err != nil {
			return err
		}
		if _, err := relationship.ParseDimension(d.Dimension); err != nil {
			return err
		}
	}
	for _, j := range eff.Jealousy {
		n, err := npc(j.NPC)
		if err != nil {
			return err
		}
		if n.Jealousy == nil {
			return fmt.Errorf("npc %s has no jealousy: %w", j.NPC, actor.ErrUnknownTrigger)
		}
		if _, ok := actor.JealousyTriggers[j.Trigger]; !ok {
			return fmt.Errorf("%w: %s", actor.ErrUnknownTrigger, j.Trigger)
		}
	}
	stimuli := actor.Stimuli()
	for _, s := range eff.Stimuli {
		if _, err := npc(s.NPC); err != nil {
			return err
		}
		if !slices.Contains(stimuli, s.Stimulus) {
			return fmt.Errorf("%w: %s", actor.ErrUnknownStimulus, s.Stimulus)
		}
	}
	for _, m := range eff.Memories {
		if _, err := npc(m.NPC); err != nil {
			return err
		}
	}
	for _, f := range eff.FollowUps {
		if !w.pool.Has(f.Event) {
			return fmt.Errorf("follow-up: %w: %s", event.ErrUnknownEvent, f.Event)
		}
	}
	for _, id := range eff.Unlock {
		if !w.pool.Has(id) {
			return fmt.Errorf("unlock: %w: %s", event.ErrUnknownEvent, id)
		}
	}
	for _, mv := range eff.MoveNPCs {
		if _, err := npc(mv.NPC); err != nil {
			return err
		}
		if !w.locations.Has(mv.Location) {
			return fmt.Errorf("move %s: %w: %s", mv.NPC, world.ErrUnknownLocation, mv.Location)
		}
	}
	for _, h := range eff.Harm {
		if _, err := npc(h.NPC); err != nil {
			return err
		}
	}
	return nil
}

// remember records a memory and compresses at once when the store grows past its hard cap.
func (w *World) remember(m conditionals.MemoryNote, now clock.Tick) {
	store := w.memories[m.NPC]
	store.Remember(memory.Event{
		Summary:   m.Summary,
		Tick:      now,
		Base:      m.Importance,
		Intensity: m.Emotion,
		Tags:      m.Tags,
		Location:  w.npcs[m.NPC].Location,
	})
	if w.memCfg.HardCap > 0 && store.Len() > w.memCfg.HardCap {
		rep := store.Compress(now, w.memCfg)
		w.log.Debug("memory compressed at hard cap", "npc", m.NPC, "removed", len(rep.Removed()))
		w.archive(m.NPC, rep)
	}
}
