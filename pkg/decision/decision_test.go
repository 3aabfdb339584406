package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/relationship"
	"github.com/jwebster45206/world-engine/pkg/rng"
)

func newNPC(t *testing.T, spec *actor.NPCSpec) *actor.NPC {
	t.Helper()
	n, err := actor.NewNPCFromSpec(spec)
	require.NoError(t, err)
	return n
}

func dutiful(t *testing.T) *actor.NPC {
	return newNPC(t, &actor.NPCSpec{
		ID:          "bram",
		Home:        "forge",
		Personality: map[actor.Goal]float64{actor.GoalDuty: 1},
	})
}

func atWork() Situation {
	return Situation{Scheduled: actor.ScheduleEntry{Location: "forge", Activity: "smithing"}}
}

func kinds(actions []Action) []ActionKind {
	out := make([]ActionKind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

func TestTablesCoverEveryActionGoalAndMood(t *testing.T) {
	for _, k := range ActionKinds {
		row, ok := alignment[k]
		require.True(t, ok, "no alignment row for %s", k)
		for _, g := range actor.Goals {
			v, ok := row.get(g)
			assert.True(t, ok, "%s has no %s column", k, g)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		_, ok = risk[k]
		assert.True(t, ok, "no risk entry for %s", k)
	}
	for _, m := range actor.Moods {
		row, ok := emotionModifiers[m]
		require.True(t, ok, "no modifier row for mood %s", m)
		for k, v := range row {
			assert.Contains(t, ActionKinds, k)
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
	for k := range relationshipWeights {
		assert.True(t, k.InvolvesPlayer(), "%s is weighted by relationship but not player-directed", k)
	}
}

func TestAvailable(t *testing.T) {
	e := NewEngine(rng.NewScripted(), nil)
	n := dutiful(t)
	assert.Equal(t, []ActionKind{Work, Rest}, kinds(e.Available(n, atWork())))

	sleeping := Situation{Scheduled: actor.ScheduleEntry{Location: "forge", Activity: "sleep"}}
	assert.Equal(t, []ActionKind{Rest}, kinds(e.Available(n, sleeping)))

	sit := atWork()
	sit.NPCsPresent = []string{"mira"}
	sit.Danger = true
	sit.Refuge = "chapel"
	sit.PlayerLocation = "forge"
	got := e.Available(n, sit)
	assert.Equal(t, []ActionKind{
		Work, Rest, Socialize, Flee,
		TalkToPlayer, HelpPlayer, CourtPlayer, ConfrontPlayer, AvoidPlayer,
	}, kinds(got))
	assert.Equal(t, "chapel", got[3].Location)
	assert.Equal(t, "mira", got[2].Target)
	assert.Equal(t, "forge", got[len(got)-1].Location, "avoiding sends the npc home")

	jealous := newNPC(t, &actor.NPCSpec{ID: "mira", Home: "cottage", Traits: []string{actor.TraitJealous}, Jealousy: 55})
	assert.Contains(t, kinds(e.Available(jealous, atWork())), Scheme)
	jealous.Jealousy.ApplyDelta(-10)
	assert.NotContains(t, kinds(e.Available(jealous, atWork())), Scheme)

	n.Kill(3)
	assert.Empty(t, e.Available(n, atWork()))
}

func TestDecideTakesTopAction(t *testing.T) {
	e := NewEngine(rng.NewScripted(0.5), nil)
	d, err := e.Decide(dutiful(t), atWork())
	require.NoError(t, err)
	assert.Equal(t, Work, d.Chosen.Kind)
	assert.Equal(t, "smithing", d.Chosen.Activity)
	assert.False(t, d.Sampled)
	require.Len(t, d.Options, 2)
	// duty 0.9, risk (0-0.5)*0.1
	assert.InDelta(t, 0.85, d.Utility, 1e-9)
	assert.InDelta(t, 0.1, d.Options[1].Utility, 1e-9)
}

func TestDecideSamplesFromTopThree(t *testing.T) {
	// roll 0.9 misses the 70% band; 0.99 lands on the weaker option
	e := NewEngine(rng.NewScripted(0.9, 0.99), nil)
	d, err := e.Decide(dutiful(t), atWork())
	require.NoError(t, err)
	assert.True(t, d.Sampled)
	assert.Equal(t, Rest, d.Chosen.Kind)
	assert.Equal(t, "forge", d.Chosen.Location)

	e = NewEngine(rng.NewScripted(0.9, 0.0), nil)
	d, err = e.Decide(dutiful(t), atWork())
	require.NoError(t, err)
	assert.True(t, d.Sampled)
	assert.Equal(t, Work, d.Chosen.Kind)
}

func TestNoiseIsApplied(t *testing.T) {
	src := &rng.Scripted{Floats: []float64{0.5}, Norms: []float64{-10, 0}}
	d, err := NewEngine(src, nil).Decide(dutiful(t), atWork())
	require.NoError(t, err)
	assert.Equal(t, Rest, d.Chosen.Kind, "a large negative draw sinks work below rest")
	assert.InDelta(t, -1.0, d.Options[1].Noise, 1e-9)
}

func TestDecideIsDeterministicForASeed(t *testing.T) {
	run := func() []ActionKind {
		e := NewEngine(rng.New(42), nil)
		n := newNPC(t, &actor.NPCSpec{
			ID:   "mira",
			Home: "cottage",
			Personality: map[actor.Goal]float64{
				actor.GoalBelonging: 0.6, actor.GoalRomance: 0.5, actor.GoalWealth: 0.3, actor.GoalKnowledge: 0.2,
			},
			RiskTolerance: 0.4,
		})
		sit := atWork()
		sit.PlayerLocation = "forge"
		sit.NPCsPresent = []string{"bram"}
		sit.Relationship = relationship.New()
		var out []ActionKind
		for i := 0; i < 25; i++ {
			d, err := e.Decide(n, sit)
			require.NoError(t, err)
			out = append(out, d.Chosen.Kind)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestRelationshipDrivesPlayerActions(t *testing.T) {
	n := newNPC(t, &actor.NPCSpec{
		ID:            "mira",
		Home:          "cottage",
		Personality:   map[actor.Goal]float64{actor.GoalRomance: 1},
		RiskTolerance: 0.5,
	})
	rel := relationship.New()
	rel.Affection = 90
	sit := Situation{
		Scheduled:      actor.ScheduleEntry{Location: "tavern", Activity: "socialize"},
		PlayerLocation: "tavern",
		Relationship:   rel,
	}
	e := NewEngine(rng.NewScripted(0.1), nil)
	d, err := e.Decide(n, sit)
	require.NoError(t, err)
	assert.Equal(t, CourtPlayer, d.Chosen.Kind)
	assert.InDelta(t, 1.12, d.Utility, 1e-9)
	assert.InDelta(t, 0.12, d.Options[0].Relationship, 1e-9)

	work := e.Score(n, sit, Action{Kind: Work})
	assert.Zero(t, work.Relationship, "only player-directed actions read the relationship")

	n.InstallOverride(n.AvoidPlayerOverride())
	avoiding := e.Score(n, sit, Action{Kind: CourtPlayer})
	assert.InDelta(t, 0.62, avoiding.Utility, 1e-9)
}

func TestEmotionShiftsUtility(t *testing.T) {
	n := dutiful(t)
	e := NewEngine(rng.NewScripted(), nil)
	calm := e.Score(n, atWork(), Action{Kind: ConfrontPlayer})
	assert.Zero(t, calm.Emotion)

	n.Emotion = actor.Emotion{Mood: actor.Angry, Intensity: actor.MaxIntensity}
	angry := e.Score(n, atWork(), Action{Kind: ConfrontPlayer})
	assert.InDelta(t, 0.16, angry.Emotion, 1e-9)
	assert.Greater(t, angry.Utility, calm.Utility)

	// Intensity does not scale the term; the mood alone selects the modifier.
	n.Emotion = actor.Emotion{Mood: actor.Happy, Intensity: 2}
	happy := e.Score(n, atWork(), Action{Kind: Socialize})
	assert.InDelta(t, EmotionWeight*0.6, happy.Emotion, 1e-9)

	n.Emotion = actor.Emotion{Mood: actor.Happy, Intensity: actor.MaxIntensity}
	elated := e.Score(n, atWork(), Action{Kind: Socialize})
	assert.InDelta(t, happy.Emotion, elated.Emotion, 1e-9)
}

func TestDecideDeadNPC(t *testing.T) {
	n := dutiful(t)
	n.Kill(0)
	_, err := NewEngine(rng.NewScripted(), nil).Decide(n, atWork())
	assert.ErrorIs(t, err, actor.ErrDead)
}

func TestOutcome(t *testing.T) {
	help := Outcome("mira", Action{Kind: HelpPlayer})
	require.Len(t, help.Relationships, 2)
	assert.Equal(t, "trust", help.Relationships[0].Dimension)
	assert.Equal(t, "debt", help.Relationships[1].Dimension)
	assert.Equal(t, "mira", help.Memories[0].NPC)

	scheme := Outcome("mira", Action{Kind: Scheme})
	assert.Equal(t, []string{"mira_scheming"}, scheme.SetFlags)

	assert.True(t, Outcome("mira", Action{Kind: Work}).IsEmpty())
}
