package sim

import (
	"fmt"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/memory"
	"github.com/jwebster45206/world-engine/pkg/relationship"
	"github.com/jwebster45206/world-engine/pkg/rng"
	"github.com/jwebster45206/world-engine/pkg/world"
)

// SnapshotVersion is bumped whenever the persisted layout changes.
const SnapshotVersion = 1

// Snapshot is the complete runtime state of a world. Static content lives in the
// Definition; a snapshot restored onto the same definition resumes the run exactly.
type Snapshot struct {
	Version        int                                   `json:"version"`
	World          string                                `json:"world"`
	Tick           clock.Tick                            `json:"tick"`
	RNG            []byte                                `json:"rng"`
	PlayerLocation string                                `json:"player_location"`
	PlayerHP       int                                   `json:"player_hp"`
	NPCs           []actor.NPCState                      `json:"npcs"`
	Relationships  map[string]*relationship.Relationship `json:"relationships"`
	Memories       []memory.State                        `json:"memories"`
	Flags          world.FlagsState                      `json:"flags"`
	Events         event.State                           `json:"events"`
	Interrupts     []event.Suspended                     `json:"interrupts,omitempty"`
	Active         *Activity                             `json:"active,omitempty"`
	Clues          []Clue                                `json:"clues,omitempty"`
}

// Snapshot captures the world's runtime state.
func (w *World) Snapshot() (*Snapshot, error) {
	seed, err := w.rng.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to capture rng: %w", err)
	}
	s := &Snapshot{
		Version:        SnapshotVersion,
		World:          w.def.Name,
		Tick:           w.clock.Now(),
		RNG:            seed,
		PlayerLocation: w.player.Location,
		PlayerHP:       w.player.Actor.HP(),
		Relationships:  make(map[string]*relationship.Relationship, len(w.rels)),
		Flags:          w.flags.Snapshot(),
		Events:         w.pool.Snapshot(),
		Interrupts:     w.interrupts.Items(),
		Clues:          w.Clues(),
	}
	for _, id := range w.order {
		s.NPCs = append(s.NPCs, w.npcs[id].Snapshot())
		s.Relationships[id] = w.rels[id].Clone()
		s.Memories = append(s.Memories, w.memories[id].Snapshot())
	}
	if w.active != nil {
		a := *w.active
		s.Active = &a
	}
	return s, nil
}

// Restore replaces the world's runtime state with a snapshot. The snapshot is checked
// against the definition first; a snapshot that does not fit leaves the world untouched
// and returns ErrCorruptState.
func (w *World) Restore(s *Snapshot) error {
	if err := w.checkSnapshot(s); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	probe := rng.New(0)
	if err := probe.UnmarshalBinary(s.RNG); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	// the pool restore can still fail on unknown ids, so it goes first
	if err := w.pool.Restore(s.Events); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	_ = w.rng.UnmarshalBinary(s.RNG)
	w.clock.Set(s.Tick)
	w.player.Location = s.PlayerLocation
	if s.PlayerHP > 0 && s.PlayerHP != w.player.Actor.HP() {
		_ = w.player.Actor.SetHP(s.PlayerHP)
	}
	// hp bounds were checked above, so npc restores cannot fail part way
	for _, st := range s.NPCs {
		if err := w.npcs[st.ID].Restore(st); err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptState, err)
		}
	}
	for id, r := range s.Relationships {
		w.rels[id] = r.Clone()
	}
	for _, st := range s.Memories {
		w.memories[st.NPC] = memory.Restore(st, memory.ULIDs(w.rng))
	}
	w.flags = world.RestoreFlags(s.Flags)
	w.interrupts = event.RestoreInterruptStack(s.Interrupts, w.log)
	w.active = nil
	if s.Active != nil {
		a := *s.Active
		w.active = &a
	}
	w.clues = append([]Clue(nil), s.Clues...)
	w.log.Debug("world restored", "tick", s.Tick)
	return nil
}

func (w *World) checkSnapshot(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	if s.World != w.def.Name {
		return fmt.Errorf("snapshot of %q cannot restore %q", s.World, w.def.Name)
	}
	if s.Tick < 0 {
		return fmt.Errorf("negative tick %d", s.Tick)
	}
	if !w.locations.Has(s.PlayerLocation) {
		return fmt.Errorf("player: %w: %q", world.ErrUnknownLocation, s.PlayerLocation)
	}
	if s.PlayerHP < 0 || s.PlayerHP > w.player.Actor.MaxHP() {
		return fmt.Errorf("player: hp %d outside [0, %d]", s.PlayerHP, w.player.Actor.MaxHP())
	}

	seen := map[string]bool{}
	for _, st := range s.NPCs {
		if _, ok := w.npcs[st.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNPC, st.ID)
		}
		if seen[st.ID] {
			return fmt.Errorf("duplicate npc state %s", st.ID)
		}
		seen[st.ID] = true
		if !w.locations.Has(st.Location) {
			return fmt.Errorf("npc %s: %w: %q", st.ID, world.ErrUnknownLocation, st.Location)
		}
		if maxHP := w.npcs[st.ID].Actor.MaxHP(); st.HP < 0 || st.HP > maxHP {
			return fmt.Errorf("npc %s: hp %d outside [0, %d]", st.ID, st.HP, maxHP)
		}
		if st.Jealousy != nil && (st.Jealousy.Score < 0 || st.Jealousy.Score > 100) {
			return fmt.Errorf("npc %s: jealousy %d out of range", st.ID, st.Jealousy.Score)
		}
	}
	if len(seen) != len(w.npcs) {
		return fmt.Errorf("snapshot holds %d npcs, world has %d", len(seen), len(w.npcs))
	}
	for id, r := range s.Relationships {
		if _, ok := w.npcs[id]; !ok {
			return fmt.Errorf("relationship: %w: %s", ErrUnknownNPC, id)
		}
		if r == nil {
			return fmt.Errorf("relationship %s is empty", id)
		}
		for _, d := range relationship.Decaying {
			v, _ := r.Get(d)
			if v < 0 || v > 100 {
				return fmt.Errorf("relationship %s: %s %.2f out of range", id, d, v)
			}
		}
	}
	if len(s.Relationships) != len(w.npcs) {
		return fmt.Errorf("snapshot holds %d relationships, world has %d", len(s.Relationships), len(w.npcs))
	}
	for _, st := range s.Memories {
		if _, ok := w.npcs[st.NPC]; !ok {
			return fmt.Errorf("memories: %w: %s", ErrUnknownNPC, st.NPC)
		}
	}
	if len(s.Interrupts) > event.MaxStackDepth {
		return fmt.Errorf("interrupt stack holds %d contexts", len(s.Interrupts))
	}
	return nil
}
