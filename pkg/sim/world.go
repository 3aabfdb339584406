package sim

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/memory"
	"github.com/jwebster45206/world-engine/pkg/relationship"
	"github.com/jwebster45206/world-engine/pkg/rng"
	"github.com/jwebster45206/world-engine/pkg/world"
)

// Activity is what currently holds the player's attention: a dialogue or a long action.
type Activity struct {
	Kind      event.ContextKind `json:"kind"`
	ID        string            `json:"id"`
	Label     string            `json:"label,omitempty"`
	NPC       string            `json:"npc,omitempty"`
	Priority  int               `json:"priority"`
	StartedAt clock.Tick        `json:"started_at"`
	Days      int               `json:"days,omitempty"`
	Completed int               `json:"completed,omitempty"`
}

// Clue is a piece of information the player has uncovered.
type Clue struct {
	ID     string     `json:"id"`
	At     clock.Tick `json:"at"`
	Source string     `json:"source,omitempty"`
}

// World is the complete live state of one simulation.
type World struct {
	def        *Definition
	clock      *clock.Clock
	rng        *rng.Rand
	locations  *world.Map
	flags      *world.Flags
	player     *actor.Player
	npcs       map[string]*actor.NPC
	order      []string
	rels       map[string]*relationship.Relationship
	memories   map[string]*memory.Store
	pool       *event.Pool
	interrupts *event.InterruptStack
	active     *Activity
	clues      []Clue
	quotas     event.Quotas
	memCfg     memory.Config
	archiver   Archiver
	log        *slog.Logger
}

// NewWorld builds a world at its starting tick. It fails when the definition references
// locations or events that do not exist.
func NewWorld(def *Definition, opts Options) (*World, error) {
	if def == nil {
		return nil, fmt.Errorf("definition cannot be nil")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	seed := def.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}

	w := &World{
		def:       def,
		clock:     clock.New(def.Start),
		rng:       rng.New(seed),
		locations: world.NewMap(),
		flags:     world.NewFlags(),
		npcs:      make(map[string]*actor.NPC, len(def.NPCs)),
		rels:      make(map[string]*relationship.Relationship, len(def.NPCs)),
		memories:  make(map[string]*memory.Store, len(def.NPCs)),
		quotas:    event.DefaultQuotas(),
		memCfg:    memory.DefaultConfig(),
		archiver:  opts.Archiver,
		log:       log.With("world", def.Name),
	}
	if def.Quotas != nil {
		w.quotas = def.Quotas
	}
	if opts.Quotas != nil {
		w.quotas = opts.Quotas
	}
	if def.Memory.RecentCap > 0 {
		w.memCfg = def.Memory
	}
	if opts.Memory != nil {
		w.memCfg = *opts.Memory
	}
	w.interrupts = event.NewInterruptStack(w.log)

	if err := w.buildMap(); err != nil {
		return nil, err
	}

	player, err := actor.NewPlayerFromSpec(&def.Player)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	if player.Location == "" && len(def.Locations) > 0 {
		player.Location = def.Locations[0].ID
	}
	if !w.locations.Has(player.Location) {
		return nil, fmt.Errorf("player start: %w: %q", world.ErrUnknownLocation, player.Location)
	}
	w.player = player

	for i := range def.NPCs {
		if err := w.addNPC(&def.NPCs[i]); err != nil {
			return nil, err
		}
	}
	sort.Strings(w.order)

	pool, err := event.Load(def.Events, w.log)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	w.pool = pool
	if err := w.checkJealousyEvents(); err != nil {
		return nil, err
	}

	for _, f := range def.Flags {
		w.flags.Set(f, w.clock.Now(), "definition")
	}
	for k, v := range def.Vars {
		w.flags.SetVar(k, v)
	}
	return w, nil
}

func (w *World) buildMap() error {
	for _, l := range w.def.Locations {
		if l.ID == "" {
			return fmt.Errorf("location missing id")
		}
		w.locations.AddLocation(l.ID, l.Name, l.Description)
	}
	for _, l := range w.def.Locations {
		exits := make([]string, 0, len(l.Exits))
		for to := range l.Exits {
			exits = append(exits, to)
		}
		sort.Strings(exits)
		for _, to := range exits {
			if err := w.locations.Connect(l.ID, to, l.Exits[to]); err != nil {
				return fmt.Errorf("location %s: %w", l.ID, err)
			}
		}
	}
	return nil
}

func (w *World) addNPC(spec *actor.NPCSpec) error {
	if _, dup := w.npcs[spec.ID]; dup {
		return fmt.Errorf("duplicate npc id %q", spec.ID)
	}
	npc, err := actor.NewNPCFromSpec(spec)
	if err != nil {
		return fmt.Errorf("npc %s: %w", spec.ID, err)
	}
	if !w.locations.Has(spec.Home) {
		return fmt.Errorf("npc %s home: %w: %q", spec.ID, world.ErrUnknownLocation, spec.Home)
	}
	for _, loc := range spec.Schedule.Locations() {
		if !w.locations.Has(loc) {
			return fmt.Errorf("npc %s schedule: %w: %q", spec.ID, world.ErrUnknownLocation, loc)
		}
	}

	rel := relationship.New()
	for name, v := range spec.Relationship {
		dim, err := relationship.ParseDimension(name)
		if err != nil {
			return fmt.Errorf("npc %s: %w", spec.ID, err)
		}
		_ = rel.Set(dim, v)
	}
	for name, v := range spec.DecayRates {
		dim, err := relationship.ParseDimension(name)
		if err != nil {
			return fmt.Errorf("npc %s: %w", spec.ID, err)
		}
		rel.Rates[dim] = v
	}

	w.npcs[spec.ID] = npc
	w.order = append(w.order, spec.ID)
	w.rels[spec.ID] = rel
	w.memories[spec.ID] = memory.NewStore(spec.ID, memory.ULIDs(w.rng))
	return nil
}

func (w *World) checkJealousyEvents() error {
	for _, id := range w.order {
		j := w.npcs[id].Jealousy
		if j == nil {
			continue
		}
		for _, ev := range []string{j.Config.UneasyEvent, j.Config.DangerousEvent, j.Config.BreakingEvent} {
			if ev != "" && !w.pool.Has(ev) {
				return fmt.Errorf("npc %s jealousy: %w: %s", id, event.ErrUnknownEvent, ev)
			}
		}
	}
	return nil
}

func (w *World) Name() string { return w.def.Name }
func (w *World) Now() clock.Tick { return w.clock.Now() }
func (w *World) Time() clock.GameTime { return w.clock.Time() }
func (w *World) Map() *world.Map { return w.locations }
func (w *World) Flags() *world.Flags { return w.flags }
func (w *World) Player() *actor.Player { return w.player }
func (w *World) Pool() *event.Pool { return w.pool }
func (w *World) Interrupts() *event.InterruptStack { return w.interrupts }
func (w *World) Active() *Activity { return w.active }
func (w *World) RNG() rng.Source { return w.rng }

// NPCIDs returns every NPC id in sorted order.
func (w *World) NPCIDs() []string {
	return append([]string(nil), w.order...)
}

func (w *World) NPC(id string) (*actor.NPC, error) {
	n, ok := w.npcs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNPC, id)
	}
	return n, nil
}

func (w *World) Relationship(npc string) (*relationship.Relationship, error) {
	r, ok := w.rels[npc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNPC, npc)
	}
	return r, nil
}

func (w *World) Memories(npc string) (*memory.Store, error) {
	m, ok := w.memories[npc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNPC, npc)
	}
	return m, nil
}

// Clues returns the clue log, oldest first.
func (w *World) Clues() []Clue {
	return append([]Clue(nil), w.clues...)
}

// NPCsAt returns the living NPCs at a location, sorted by id.
func (w *World) NPCsAt(location string) []string {
	var out []string
	for _, id := range w.order {
		n := w.npcs[id]
		if n.Alive() && n.Location == location {
			out = append(out, id)
		}
	}
	return out
}

// applySideEffects carries out what a jealousy state change asks for.
func (w *World) applySideEffects(effects []actor.SideEffect) error {
	now := w.clock.Now()
	for _, se := range effects {
		npc := w.npcs[se.NPC]
		source := fmt.Sprintf("jealousy:%s:%s", se.NPC, se.To)
		switch se.Kind {
		case actor.UnlockEvent:
			if err := w.pool.Unlock(se.Event); err != nil {
				return fmt.Errorf("npc %s: %w", se.NPC, err)
			}
		case actor.AvoidPlayer:
			if npc != nil && npc.Alive() {
				npc.InstallOverride(npc.AvoidPlayerOverride())
			}
		case actor.StopAvoiding:
			if npc != nil {
				npc.RemoveOverride(actor.AvoidOverrideID)
			}
		case actor.SetFlag:
			w.flags.Set(se.Flag, now, source)
		case actor.ClearFlag:
			w.flags.Clear(se.Flag, now, source)
		}
		w.log.Debug("jealousy side effect", "npc", se.NPC, "kind", se.Kind, "from", se.From, "to", se.To)
	}
	return nil
}

// archive hands removed memories to the archiver. Failures are logged; the world
// state is already consistent without them.
func (w *World) archive(npc string, rep memory.Report) {
	removed := rep.Removed()
	if w.archiver == nil || len(removed) == 0 {
		return
	}
	if err := w.archiver.ArchiveMemories(npc, w.clock.Now(), removed); err != nil {
		w.log.Error("failed to archive memories", "npc", npc, "count", len(removed), "error", err)
	}
}
