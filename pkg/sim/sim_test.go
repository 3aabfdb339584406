package sim

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/memory"
	"github.com/jwebster45206/world-engine/pkg/world"
)

func routine(loc, activity string) actor.Schedule {
	e := actor.ScheduleEntry{Location: loc, Activity: activity}
	return actor.Schedule{Morning: e, Afternoon: e, Evening: e, Night: e}
}

func testDefinition() *Definition {
	return &Definition{
		Name: "millbrook",
		Seed: 42,
		Locations: []LocationDef{
			{ID: "square", Name: "Town Square", Description: "Cobbles and a dry fountain.", Exits: map[string]int{"tavern": 1, "library": 2, "road": 3}},
			{ID: "tavern", Name: "The Crooked Mug"},
			{ID: "library", Name: "Library"},
			{ID: "road", Name: "North Road"},
		},
		Player: actor.PlayerSpec{ID: "player", Name: "Wren", Start: "square"},
		NPCs: []actor.NPCSpec{
			{
				ID:            "mara",
				Name:          "Mara",
				Role:          "innkeeper",
				Home:          "tavern",
				Traits:        []string{actor.TraitJealous},
				Jealousy:      45,
				JealousyRules: actor.JealousyConfig{UneasyEvent: "mara_sulks", DangerousEvent: "mara_snaps"},
				Personality:   map[actor.Goal]float64{actor.GoalWealth: 0.6, actor.GoalBelonging: 0.4},
				Schedule:      routine("tavern", "work"),
				Taboos:        []string{"her brother"},
				Relationship:  map[string]float64{"trust": 90, "affection": 90},
			},
			{
				ID:          "tomas",
				Name:        "Tomas",
				Role:        "scholar",
				Home:        "library",
				Personality: map[actor.Goal]float64{actor.GoalKnowledge: 0.9},
				Schedule: actor.Schedule{
					Morning:   actor.ScheduleEntry{Location: "library", Activity: "study"},
					Afternoon: actor.ScheduleEntry{Location: "road", Activity: "walk"},
					Evening:   actor.ScheduleEntry{Location: "library", Activity: "study"},
					Night:     actor.ScheduleEntry{Location: "library", Activity: "sleep"},
				},
			},
		},
		Events: []event.Definition{
			{ID: "mara_sulks", Name: "Mara sulks", Tier: event.Daily, Priority: 0.5, StartsLocked: true},
			{ID: "mara_snaps", Name: "Mara snaps", Tier: event.Critical, Priority: 0.9, StartsLocked: true},
			{
				ID:        "bandit_raid",
				Name:      "Bandits on the road",
				Tier:      event.Critical,
				Priority:  1,
				Window:    event.Window{Start: clock.ToAbsolute(1, 1, 12, clock.Afternoon)},
				Interrupt: event.Interrupt{CanInterrupt: true, Priority: 5},
				Effect:    conditionals.Effect{SetFlags: []string{"raid"}},
			},
			{
				ID:       "stranger",
				Name:     "A stranger asks for help",
				Tier:     event.Opportunity,
				Priority: 0.5,
				Choices: []event.Choice{
					{ID: "help", Label: "Help", Effect: conditionals.Effect{
						Relationships: []conditionals.RelationshipDelta{{NPC: "tomas", Dimension: "trust", Delta: 5}},
						Clues:         []string{"old_map"},
					}},
					{ID: "refuse", Label: "Refuse"},
				},
			},
		},
		Vars: map[string]int{"gold": 12},
	}
}

func newTestWorld(t *testing.T, opts Options) (*World, *Scheduler) {
	t.Helper()
	w, err := NewWorld(testDefinition(), opts)
	require.NoError(t, err)
	return w, NewScheduler(w)
}

func TestNewWorld(t *testing.T) {
	w, _ := newTestWorld(t, Options{})

	assert.Equal(t, "millbrook", w.Name())
	assert.Equal(t, clock.Tick(0), w.Now())
	assert.Equal(t, "square", w.Player().Location)
	assert.Equal(t, []string{"mara", "tomas"}, w.NPCIDs())
	assert.Equal(t, []string{"mara"}, w.NPCsAt("tavern"))

	rel, err := w.Relationship("mara")
	require.NoError(t, err)
	assert.Equal(t, 90.0, rel.Trust)
	assert.Equal(t, 50.0, rel.Respect)

	_, err = w.NPC("ghost")
	assert.ErrorIs(t, err, ErrUnknownNPC)
}

func TestNewWorldRejectsBadReferences(t *testing.T) {
	def := testDefinition()
	def.NPCs[1].Home = "moon"
	_, err := NewWorld(def, Options{})
	assert.ErrorIs(t, err, world.ErrUnknownLocation)

	def = testDefinition()
	def.NPCs[0].JealousyRules.BreakingEvent = "missing"
	_, err = NewWorld(def, Options{})
	assert.ErrorIs(t, err, event.ErrUnknownEvent)

	def = testDefinition()
	def.NPCs = append(def.NPCs, def.NPCs[0])
	_, err = NewWorld(def, Options{})
	assert.Error(t, err)
}

func TestViewPaths(t *testing.T) {
	w, _ := newTestWorld(t, Options{})

	tests := []struct {
		path string
		want float64
	}{
		{"relationship.mara.trust", 90},
		{"relationship.tomas.fear", 50},
		{"relationship.mara.interactions", 0},
		{"npc.mara.jealousy", 45},
		{"npc.tomas.alive", 1},
		{"var.gold", 12},
		{"var.unset", 0},
		{"time.day", 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := w.Number(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	s, err := w.Text("npc.mara.jealousy_state")
	require.NoError(t, err)
	assert.Equal(t, "uneasy", s)
	s, err = w.Text("time.slot")
	require.NoError(t, err)
	assert.Equal(t, "morning", s)

	_, err = w.Number("npc.ghost.hp")
	assert.ErrorIs(t, err, conditionals.ErrUnknownPath)
	assert.ErrorIs(t, err, ErrUnknownNPC)
	_, err = w.Text("weather.today")
	assert.ErrorIs(t, err, conditionals.ErrUnknownPath)
}

func TestApplyEffectIsAtomic(t *testing.T) {
	w, _ := newTestWorld(t, Options{})

	err := w.ApplyEffect(conditionals.Effect{
		SetFlags:      []string{"bell_rung"},
		Relationships: []conditionals.RelationshipDelta{{NPC: "ghost", Dimension: "trust", Delta: 5}},
	}, "test")
	assert.ErrorIs(t, err, ErrUnknownNPC)
	assert.False(t, w.Flags().Has("bell_rung"))

	err = w.ApplyEffect(conditionals.Effect{
		SetFlags: []string{"bell_rung"},
		Unlock:   []string{"no_such_event"},
	}, "test")
	assert.ErrorIs(t, err, event.ErrUnknownEvent)
	assert.False(t, w.Flags().Has("bell_rung"))

	err = w.ApplyEffect(conditionals.Effect{
		SetFlags:      []string{"bell_rung"},
		AddVars:       map[string]int{"gold": 3},
		Relationships: []conditionals.RelationshipDelta{{NPC: "tomas", Dimension: "respect", Delta: 10}},
		Clues:         []string{"torn_page", "torn_page"},
	}, "test")
	require.NoError(t, err)
	assert.True(t, w.Flags().Has("bell_rung"))
	gold, _ := w.Flags().Var("gold")
	assert.Equal(t, 15, gold)
	rel, _ := w.Relationship("tomas")
	assert.Equal(t, 60.0, rel.Respect)
	assert.Len(t, w.Clues(), 1)
}

func TestSchedulesMoveNPCs(t *testing.T) {
	w, s := newTestWorld(t, Options{})

	res, err := s.Step(clock.TicksPerSlot)
	require.NoError(t, err)
	require.Len(t, res.Boundaries, 1)
	assert.Equal(t, clock.SlotBoundary, res.Boundaries[0].Kind)

	tomas, _ := w.NPC("tomas")
	assert.Equal(t, "road", tomas.Location)
	assert.Equal(t, "walk", tomas.Activity)
	assert.Contains(t, res.Moves, Move{NPC: "tomas", From: "library", To: "road", Activity: "walk", At: 2})
	assert.Empty(t, res.Decisions, "no one is interruptible, in danger or near the player")
}

func TestDangerConsultsDecisionEngine(t *testing.T) {
	w, s := newTestWorld(t, Options{})
	require.NoError(t, w.ApplyEffect(conditionals.Effect{SetFlags: []string{DangerFlag("road")}}, "test"))

	res, err := s.Step(clock.TicksPerSlot)
	require.NoError(t, err)
	require.Len(t, res.Decisions, 1)
	assert.Equal(t, "tomas", res.Decisions[0].NPC)
	var kinds []string
	for _, o := range res.Decisions[0].Options {
		kinds = append(kinds, string(o.Action.Kind))
	}
	assert.Contains(t, kinds, "flee")
}

func TestThirtyDaysOfDecay(t *testing.T) {
	w, s := newTestWorld(t, Options{})

	res, err := s.Step(clock.TicksPerMonth)
	require.NoError(t, err)
	assert.Equal(t, 30, res.Days)

	rel, _ := w.Relationship("mara")
	assert.InDelta(t, 85.0, rel.Trust, 1e-9)
	assert.InDelta(t, 86.0, rel.Affection, 1e-9)
	assert.InDelta(t, 50.0, rel.Respect, 1e-9)
	assert.Equal(t, 30, rel.DaysSinceInteraction)

	mara, _ := w.NPC("mara")
	assert.Equal(t, 43, mara.Jealousy.Score, "monthly decay trigger")
	assert.Equal(t, clock.Tick(240), w.Now())
}

func TestLongActionInterruptedAndResumed(t *testing.T) {
	w, s := newTestWorld(t, Options{})

	res, err := s.Apply(Intent{Kind: IntentLongAction, Days: 30, Priority: 1, Label: "research"})
	require.NoError(t, err)
	require.NotNil(t, res.Long)
	assert.Equal(t, 12, res.Long.CompletedDays)
	require.NotNil(t, res.Long.InterruptingEvent)
	assert.Equal(t, "bandit_raid", res.Long.InterruptingEvent.Event)
	assert.Equal(t, clock.Days(12), w.Now())
	assert.Nil(t, w.Active())
	assert.True(t, w.Flags().Has("raid"))

	rel, _ := w.Relationship("mara")
	assert.InDelta(t, 88.0, rel.Trust, 1e-9)

	require.Equal(t, 1, w.Interrupts().Len())
	suspended := w.Interrupts().Items()[0]
	assert.Equal(t, event.ActionContext, suspended.Kind)
	assert.Equal(t, 18, suspended.RemainingDays)
	assert.Equal(t, "bandit_raid", suspended.InterruptedBy)

	res, err = s.Apply(Intent{Kind: IntentResume})
	require.NoError(t, err)
	require.NotNil(t, res.Resumed)
	require.NotNil(t, res.Long)
	assert.Equal(t, 18, res.Long.CompletedDays)
	assert.Nil(t, res.Long.InterruptingEvent)
	assert.Equal(t, clock.Tick(clock.TicksPerMonth), w.Now())
	assert.InDelta(t, 85.0, rel.Trust, 1e-9)
	assert.Equal(t, 0, w.Interrupts().Len())

	_, err = s.Apply(Intent{Kind: IntentResume})
	assert.ErrorIs(t, err, ErrNothingToResume)
}

func TestJealousySideEffects(t *testing.T) {
	w, _ := newTestWorld(t, Options{})
	mara, _ := w.NPC("mara")

	require.NoError(t, w.ApplyEffect(conditionals.Effect{
		Jealousy: []conditionals.JealousyEvent{{NPC: "mara", Trigger: "rival_breakthrough"}},
	}, "test"))
	assert.Equal(t, 60, mara.Jealousy.Score)
	assert.Equal(t, actor.JealousyResentful, mara.Jealousy.State)
	assert.True(t, mara.Avoiding())

	require.NoError(t, w.ApplyEffect(conditionals.Effect{
		Jealousy: []conditionals.JealousyEvent{{NPC: "mara", Trigger: "rival_praised"}},
	}, "test"))
	assert.Equal(t, actor.JealousyDangerous, mara.Jealousy.State)
	assert.True(t, w.Flags().Has("mara_vulnerable"))
	rt, err := w.Pool().Runtime("mara_snaps")
	require.NoError(t, err)
	assert.True(t, rt.Unlocked)

	require.NoError(t, w.ApplyEffect(conditionals.Effect{
		Jealousy: []conditionals.JealousyEvent{
			{NPC: "mara", Trigger: "player_reassures"},
			{NPC: "mara", Trigger: "player_reassures"},
		},
	}, "test"))
	assert.Equal(t, 50, mara.Jealousy.Score)
	assert.False(t, w.Flags().Has("mara_vulnerable"))
	assert.True(t, mara.Avoiding(), "still resentful")

	require.NoError(t, w.ApplyEffect(conditionals.Effect{
		Jealousy: []conditionals.JealousyEvent{{NPC: "mara", Trigger: "player_concern"}},
	}, "test"))
	assert.False(t, mara.Avoiding())

	err = w.ApplyEffect(conditionals.Effect{
		Jealousy: []conditionals.JealousyEvent{{NPC: "tomas", Trigger: "rival_gift"}},
	}, "test")
	assert.ErrorIs(t, err, actor.ErrUnknownTrigger)
}

func TestMoveAndTalk(t *testing.T) {
	w, s := newTestWorld(t, Options{})

	_, err := s.Apply(Intent{Kind: IntentTalk, NPC: "mara"})
	assert.ErrorIs(t, err, ErrNotPresent)
	_, err = s.Apply(Intent{Kind: IntentTalk, NPC: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownNPC)

	res, err := s.Apply(Intent{Kind: IntentMove, Target: "tavern"})
	require.NoError(t, err)
	assert.Equal(t, []string{"square", "tavern"}, res.Path)
	assert.Equal(t, clock.Tick(1), w.Now())
	assert.Equal(t, "tavern", w.Player().Location)

	_, err = s.Apply(Intent{Kind: IntentTalk, NPC: "mara", Topic: "harvest"})
	require.NoError(t, err)

	mara, _ := w.NPC("mara")
	assert.Equal(t, 40, mara.Jealousy.Score)
	rel, _ := w.Relationship("mara")
	assert.GreaterOrEqual(t, rel.TotalInteractions, 1)
	assert.Equal(t, 0, rel.DaysSinceInteraction)

	store, _ := w.Memories("mara")
	require.GreaterOrEqual(t, store.Len(), 1)
	assert.Equal(t, "Talked with Wren about harvest", store.Entries()[0].Summary)

	require.NotNil(t, w.Active())
	assert.Equal(t, event.DialogueContext, w.Active().Kind)
	assert.Equal(t, "mara", w.Active().NPC)

	_, err = s.Apply(Intent{Kind: IntentMove, Target: "moon"})
	assert.ErrorIs(t, err, world.ErrUnknownLocation)
}

func TestDialogueInterruptedAndResumed(t *testing.T) {
	def := testDefinition()
	def.Events = append(def.Events, event.Definition{
		ID:        "fire_bell",
		Name:      "The fire bell rings",
		Tier:      event.Critical,
		Priority:  1,
		Window:    event.Window{Start: 4},
		Interrupt: event.Interrupt{CanInterrupt: true, Priority: 3},
	})
	w, err := NewWorld(def, Options{})
	require.NoError(t, err)
	s := NewScheduler(w)

	_, err = s.Apply(Intent{Kind: IntentMove, Target: "tavern"})
	require.NoError(t, err)
	_, err = s.Apply(Intent{Kind: IntentTalk, NPC: "mara"})
	require.NoError(t, err)

	res, err := s.Step(2)
	require.NoError(t, err)
	require.NotNil(t, res.Interrupted)
	assert.Equal(t, "fire_bell", res.Interrupted.Event)
	assert.Nil(t, w.Active())
	require.Equal(t, 1, w.Interrupts().Len())

	out, err := s.Apply(Intent{Kind: IntentResume})
	require.NoError(t, err)
	require.NotNil(t, out.Resumed)
	assert.Equal(t, event.DialogueContext, out.Resumed.Kind)
	require.NotNil(t, w.Active())
	assert.Equal(t, "mara", w.Active().NPC)
}

func TestChoose(t *testing.T) {
	w, s := newTestWorld(t, Options{})

	res, err := s.Step(clock.TicksPerSlot)
	require.NoError(t, err)
	var fired []string
	for _, f := range res.Fired {
		fired = append(fired, f.Event)
	}
	require.Contains(t, fired, "stranger")
	assert.Equal(t, []string{"stranger"}, w.Pool().AwaitingChoice())

	_, err = s.Apply(Intent{Kind: IntentChoose, Event: "stranger", Choice: "help"})
	require.NoError(t, err)
	rel, _ := w.Relationship("tomas")
	assert.Equal(t, 55.0, rel.Trust)
	require.Len(t, w.Clues(), 1)
	assert.Equal(t, "choice:stranger/help", w.Clues()[0].Source)

	_, err = s.Apply(Intent{Kind: IntentChoose, Event: "stranger", Choice: "help"})
	assert.ErrorIs(t, err, event.ErrNoChoice)
}

func TestUnknownIntent(t *testing.T) {
	_, s := newTestWorld(t, Options{})
	_, err := s.Apply(Intent{Kind: "dance"})
	assert.ErrorIs(t, err, ErrUnknownIntent)
}

func TestHarmAndDeath(t *testing.T) {
	w, s := newTestWorld(t, Options{})

	require.NoError(t, w.ApplyEffect(conditionals.Effect{Harm: []conditionals.Harm{{NPC: "tomas", Amount: 100}}}, "test"))
	tomas, _ := w.NPC("tomas")
	assert.False(t, tomas.Alive())
	assert.Empty(t, w.NPCsAt("library"))
	alive, err := w.Number("npc.tomas.alive")
	require.NoError(t, err)
	assert.Equal(t, 0.0, alive)

	require.NoError(t, w.ApplyEffect(conditionals.Effect{Harm: []conditionals.Harm{{NPC: "tomas", Amount: 1}}}, "test"),
		"harm to the dead is ignored")

	_, err = s.Step(clock.TicksPerDay)
	require.NoError(t, err)
	assert.Equal(t, "library", tomas.Location, "dead npcs stop following their schedule")

	_, err = s.Apply(Intent{Kind: IntentMove, Target: "library"})
	require.NoError(t, err)
	_, err = s.Apply(Intent{Kind: IntentTalk, NPC: "tomas"})
	assert.ErrorIs(t, err, actor.ErrDead)
}

type recordingArchiver struct {
	npc     []string
	entries []memory.Entry
}

func (r *recordingArchiver) ArchiveMemories(npc string, _ clock.Tick, entries []memory.Entry) error {
	r.npc = append(r.npc, npc)
	r.entries = append(r.entries, entries...)
	return nil
}

func TestHardCapArchivesRemovedMemories(t *testing.T) {
	cfg := memory.DefaultConfig()
	cfg.RecentCap = 2
	cfg.HardCap = 3
	arch := &recordingArchiver{}
	w, _ := newTestWorld(t, Options{Memory: &cfg, Archiver: arch})

	notes := []conditionals.MemoryNote{
		{NPC: "tomas", Summary: "A quiet morning of reading", Importance: 1, Tags: []string{"books"}},
		{NPC: "tomas", Summary: "Spilled ink on the ledger", Importance: 2, Tags: []string{"ink"}},
		{NPC: "tomas", Summary: "Heard rumours of bandits", Importance: 4, Tags: []string{"bandits"}},
		{NPC: "tomas", Summary: "Found a lost manuscript", Importance: 6, Tags: []string{"manuscript"}},
	}
	require.NoError(t, w.ApplyEffect(conditionals.Effect{Memories: notes}, "test"))

	store, _ := w.Memories("tomas")
	assert.LessOrEqual(t, store.Len(), 3)
	require.NotEmpty(t, arch.entries)
	assert.Equal(t, "tomas", arch.npc[0])
}

func TestSnapshotRestoreReplaysExactly(t *testing.T) {
	run := func(s *Scheduler) {
		_, err := s.Apply(Intent{Kind: IntentMove, Target: "tavern"})
		require.NoError(t, err)
		_, err = s.Apply(Intent{Kind: IntentTalk, NPC: "mara", Topic: "harvest"})
		require.NoError(t, err)
		_, err = s.Apply(Intent{Kind: IntentWait, Ticks: 3 * clock.TicksPerDay})
		require.NoError(t, err)
	}

	a, sa := newTestWorld(t, Options{})
	_, err := sa.Step(50)
	require.NoError(t, err)

	snap, err := a.Snapshot()
	require.NoError(t, err)
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	b, sb := newTestWorld(t, Options{})
	require.NoError(t, b.Restore(&decoded))

	run(sa)
	run(sb)

	snapA, err := a.Snapshot()
	require.NoError(t, err)
	snapB, err := b.Snapshot()
	require.NoError(t, err)
	ja, _ := json.Marshal(snapA)
	jb, _ := json.Marshal(snapB)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestSameSeedSameRun(t *testing.T) {
	play := func() []byte {
		_, s := newTestWorld(t, Options{})
		_, err := s.Apply(Intent{Kind: IntentMove, Target: "tavern"})
		require.NoError(t, err)
		_, err = s.Step(clock.TicksPerMonth)
		require.NoError(t, err)
		snap, err := s.World().Snapshot()
		require.NoError(t, err)
		b, _ := json.Marshal(snap)
		return b
	}
	assert.JSONEq(t, string(play()), string(play()))
}

func TestRestoreRejectsCorruptState(t *testing.T) {
	w, s := newTestWorld(t, Options{})
	_, err := s.Step(10)
	require.NoError(t, err)

	good, err := w.Snapshot()
	require.NoError(t, err)

	mutations := map[string]func(*Snapshot){
		"unknown location": func(s *Snapshot) { s.NPCs[0].Location = "moon" },
		"unknown npc":      func(s *Snapshot) { s.NPCs[1].ID = "ghost" },
		"missing npc":      func(s *Snapshot) { s.NPCs = s.NPCs[:1] },
		"bad rng":          func(s *Snapshot) { s.RNG = []byte("garbage") },
		"other world":      func(s *Snapshot) { s.World = "elsewhere" },
		"trust range":      func(s *Snapshot) { s.Relationships["mara"].Trust = 140 },
		"npc hp above max": func(s *Snapshot) { s.NPCs[0].HP = 10000 },
		"negative npc hp":  func(s *Snapshot) { s.NPCs[1].HP = -1 },
		"player hp":        func(s *Snapshot) { s.PlayerHP = 10000 },
		"unknown event": func(s *Snapshot) {
			s.Events.Runtime["phantom"] = event.Runtime{}
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			snap, err := w.Snapshot()
			require.NoError(t, err)
			mutate(snap)
			err = w.Restore(snap)
			assert.ErrorIs(t, err, ErrCorruptState)
			assert.Equal(t, good.Tick, w.Now())
			assert.Equal(t, good.NPCs[0].Location, mustNPC(t, w, "mara").Location)

			after, err := w.Snapshot()
			require.NoError(t, err)
			assert.Equal(t, good.RNG, after.RNG, "rng must not move on a rejected restore")
			assert.Equal(t, good.Events, after.Events)
		})
	}
}

func mustNPC(t *testing.T, w *World, id string) *actor.NPC {
	t.Helper()
	n, err := w.NPC(id)
	require.NoError(t, err)
	return n
}

func TestNarrativeContext(t *testing.T) {
	w, s := newTestWorld(t, Options{})
	_, err := s.Apply(Intent{Kind: IntentMove, Target: "tavern"})
	require.NoError(t, err)
	_, err = s.Apply(Intent{Kind: IntentTalk, NPC: "mara", Topic: "harvest"})
	require.NoError(t, err)

	nc, err := w.NarrativeContext("")
	require.NoError(t, err)
	assert.Equal(t, "millbrook", nc.World)
	assert.Equal(t, "The Crooked Mug", nc.LocationName)
	assert.Equal(t, "Wren", nc.Player)
	require.Len(t, nc.Present, 1)
	assert.Equal(t, "Mara", nc.Present[0].Name)
	assert.Equal(t, "uneasy", nc.Present[0].JealousyState)
	require.NotEmpty(t, nc.Present[0].Memories)
	assert.NotEmpty(t, nc.Present[0].Memories[0].Summary)
	assert.Equal(t, []string{"her brother"}, nc.Taboos)
	require.NotNil(t, nc.Active)

	// no scores behind feelings or memories
	data, err := json.Marshal(nc.Present[0])
	require.NoError(t, err)
	for _, key := range []string{`"trust"`, `"affection"`, `"importance"`, `"emotional_impact"`} {
		assert.NotContains(t, string(data), key)
	}

	nc, err = w.NarrativeContext("tomas")
	require.NoError(t, err)
	require.NotNil(t, nc.Focus)
	assert.Equal(t, "scholar", nc.Focus.Role)
	assert.Len(t, nc.Present, 1)

	_, err = w.NarrativeContext("ghost")
	assert.True(t, errors.Is(err, ErrUnknownNPC))
}
