package event

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
	"github.com/jwebster45206/world-engine/pkg/rng"
)

type mockView struct {
	flags map[string]bool
	nums  map[string]float64
	texts map[string]string
}

func (m *mockView) HasFlag(name string) bool { return m.flags[name] }

func (m *mockView) Number(path string) (float64, error) {
	if v, ok := m.nums[path]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s", conditionals.ErrUnknownPath, path)
}

func (m *mockView) Text(path string) (string, error) {
	if v, ok := m.texts[path]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", conditionals.ErrUnknownPath, path)
}

type recorder struct {
	effects []conditionals.Effect
	sources []string
}

func (r *recorder) ApplyEffect(eff conditionals.Effect, source string) error {
	r.effects = append(r.effects, eff)
	r.sources = append(r.sources, source)
	return nil
}

func situation(now clock.Tick, view *mockView, src rng.Source) Situation {
	if view == nil {
		view = &mockView{}
	}
	if src == nil {
		src = rng.NewScripted()
	}
	return Situation{Now: now, View: view, RNG: src, Apply: &recorder{}}
}

func firedIDs(fired []Fired) []string {
	var ids []string
	for _, f := range fired {
		ids = append(ids, f.Event)
	}
	return ids
}

func mustLoad(t *testing.T, defs ...Definition) *Pool {
	t.Helper()
	p, err := Load(defs, nil)
	require.NoError(t, err)
	return p
}

func TestTierQuotaAndMutex(t *testing.T) {
	p := mustLoad(t,
		Definition{ID: "ambush", Tier: Critical, Priority: 0.9, MutexGroups: []string{"docks"}},
		Definition{ID: "raid", Tier: Critical, Priority: 0.85, MutexGroups: []string{"docks"}},
		Definition{ID: "smuggler", Tier: Opportunity, Priority: 0.5, Excludes: []string{"ambush"}},
		Definition{ID: "fishing", Tier: Daily, Priority: 0.3, MutexGroups: []string{"docks"}},
		Definition{ID: "gossip", Tier: Daily, Priority: 0.2},
	)

	fired, err := p.Check(situation(0, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"ambush", "gossip"}, firedIDs(fired))
	assert.InDelta(t, 0.35*0.9, fired[0].Score, 1e-9)

	st, err := p.Status("raid", 0)
	require.NoError(t, err)
	assert.Equal(t, Eligible, st)
	rt, _ := p.Runtime("raid")
	assert.Zero(t, rt.TriggerCount)

	fired, err = p.Check(situation(1, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"raid", "smuggler"}, firedIDs(fired))
}

func TestExclusivityHoldsEveryTick(t *testing.T) {
	p := mustLoad(t,
		Definition{ID: "a", Tier: Critical, Priority: 0.7, MaxTriggers: Unlimited, MutexGroups: []string{"x"}},
		Definition{ID: "b", Tier: Opportunity, Priority: 0.6, MaxTriggers: Unlimited, MutexGroups: []string{"x", "y"}},
		Definition{ID: "c", Tier: Opportunity, Priority: 0.4, MaxTriggers: Unlimited, MutexGroups: []string{"y"}},
		Definition{ID: "d", Tier: Daily, Priority: 0.5, MaxTriggers: Unlimited, Excludes: []string{"c"}},
		Definition{ID: "e", Tier: Daily, Priority: 0.3, MaxTriggers: Unlimited, Cooldown: 3},
	)
	src := rng.New(7)
	for now := clock.Tick(0); now < 40; now++ {
		fired, err := p.Check(situation(now, nil, src))
		require.NoError(t, err)

		groups := map[string]string{}
		for _, f := range fired {
			d, _ := p.Definition(f.Event)
			for _, g := range d.MutexGroups {
				if other, ok := groups[g]; ok {
					t.Fatalf("tick %d: %s and %s share group %s", now, other, f.Event, g)
				}
				groups[g] = f.Event
			}
			for _, o := range fired {
				if contains(d.Excludes, o.Event) {
					t.Fatalf("tick %d: %s fired alongside excluded %s", now, f.Event, o.Event)
				}
			}
		}
	}
}

func TestExpiry(t *testing.T) {
	p := mustLoad(t,
		Definition{
			ID: "missed", Tier: Daily, Priority: 0.5,
			Preconditions: Preconditions{FlagsRequired: []string{"never"}},
			Expiry:        &Expiry{Deadline: clock.Days(2), Consequence: conditionals.Effect{SetFlags: []string{"missed"}}},
		},
		Definition{ID: "met", Tier: Daily, Priority: 0.5, Expiry: &Expiry{Deadline: clock.Days(2)}},
	)

	fired, err := p.Check(situation(0, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"met"}, firedIDs(fired))

	rec := &recorder{}
	lapsed, err := p.ExpireDue(clock.Days(2), rec)
	require.NoError(t, err)
	assert.Empty(t, lapsed)

	lapsed, err = p.ExpireDue(clock.Days(2)+1, rec)
	require.NoError(t, err)
	require.Len(t, lapsed, 1)
	assert.Equal(t, "missed", lapsed[0].Event)
	assert.Equal(t, []string{"expiry:missed"}, rec.sources)
	assert.Equal(t, []string{"missed"}, rec.effects[0].SetFlags)

	st, _ := p.Status("missed", clock.Days(3))
	assert.Equal(t, Expired, st)
	st, _ = p.Status("met", clock.Days(3))
	assert.Equal(t, Exhausted, st)

	lapsed, err = p.ExpireDue(clock.Days(5), rec)
	require.NoError(t, err)
	assert.Empty(t, lapsed)

	view := &mockView{flags: map[string]bool{"never": true}}
	fired, err = p.Check(situation(clock.Days(3), view, nil))
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestCooldown(t *testing.T) {
	p := mustLoad(t,
		Definition{ID: "market", Tier: Daily, Priority: 0.5, MaxTriggers: Unlimited, Cooldown: 4},
		Definition{ID: "bells", Tier: Daily, Priority: 0.4, MaxTriggers: Unlimited},
	)

	fired, _ := p.Check(situation(0, nil, nil))
	assert.Equal(t, []string{"market", "bells"}, firedIDs(fired))

	fired, _ = p.Check(situation(1, nil, nil))
	assert.Equal(t, []string{"bells"}, firedIDs(fired))
	st, _ := p.Status("market", 1)
	assert.Equal(t, Cooldown, st)

	fired, _ = p.Check(situation(4, nil, nil))
	assert.Equal(t, []string{"market", "bells"}, firedIDs(fired))
	rt, _ := p.Runtime("market")
	assert.Equal(t, 2, rt.TriggerCount)
	assert.Equal(t, clock.Tick(8), rt.CooldownUntil)
}

func TestWindowAndLocation(t *testing.T) {
	p := mustLoad(t,
		Definition{ID: "night_market", Tier: Daily, Priority: 0.5, MaxTriggers: Unlimited,
			Window: Window{Slots: []clock.Slot{clock.Night}, YearMin: 1, YearMax: 1}},
		Definition{ID: "sermon", Tier: Daily, Priority: 0.5, MaxTriggers: Unlimited,
			Locations: []string{"temple"}, RequireLocation: true},
		Definition{ID: "festival", Tier: Daily, Priority: 0.5,
			Window: Window{Start: clock.Days(10), End: clock.Days(11)}},
	)

	sit := situation(clock.ToAbsolute(1, 1, 1, clock.Morning), nil, nil)
	sit.Location = "market"
	fired, _ := p.Check(sit)
	assert.Empty(t, fired)

	sit = situation(clock.ToAbsolute(1, 1, 2, clock.Night), nil, nil)
	sit.Location = "temple"
	fired, _ = p.Check(sit)
	assert.Equal(t, []string{"night_market", "sermon"}, firedIDs(fired))

	fired, _ = p.Check(situation(clock.ToAbsolute(2, 1, 1, clock.Night), nil, nil))
	assert.Empty(t, fired)

	fired, _ = p.Check(situation(clock.Days(10)+3, nil, nil))
	assert.Equal(t, []string{"festival"}, firedIDs(fired))
}

func TestPreconditions(t *testing.T) {
	minTrust := 60.0
	p := mustLoad(t,
		Definition{ID: "confide", Tier: Opportunity, Priority: 0.5,
			Preconditions: Preconditions{
				FlagsForbidden: []string{"betrayed"},
				Relationships:  []Threshold{{NPC: "mira", Dimension: "trust", Min: &minTrust}},
				NPCAt:          []NPCAt{{NPC: "mira", Location: "tavern"}},
			}},
	)
	view := &mockView{
		nums:  map[string]float64{"relationship.mira.trust": 55},
		texts: map[string]string{"npc.mira.location": "tavern"},
	}
	fired, err := p.Check(situation(0, view, nil))
	require.NoError(t, err)
	assert.Empty(t, fired)

	view.nums["relationship.mira.trust"] = 70
	view.flags = map[string]bool{"betrayed": true}
	fired, _ = p.Check(situation(1, view, nil))
	assert.Empty(t, fired)

	view.flags = nil
	fired, _ = p.Check(situation(2, view, nil))
	assert.Equal(t, []string{"confide"}, firedIDs(fired))
}

func TestDanglingReferenceIsAnError(t *testing.T) {
	p := mustLoad(t, Definition{ID: "x", Tier: Daily, Priority: 0.5,
		Preconditions: Preconditions{NPCAt: []NPCAt{{NPC: "ghost", Location: "docks"}}}})
	_, err := p.Check(situation(0, nil, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, conditionals.ErrUnknownPath))
}

func TestRandomChance(t *testing.T) {
	p := mustLoad(t, Definition{ID: "omen", Tier: Daily, Priority: 0.5,
		Preconditions: Preconditions{RandomChance: 0.5}})

	fired, _ := p.Check(situation(0, nil, rng.NewScripted(0.9)))
	assert.Empty(t, fired)
	st, _ := p.Status("omen", 0)
	assert.Equal(t, Eligible, st)

	fired, _ = p.Check(situation(1, nil, rng.NewScripted(0.1, 0)))
	assert.Equal(t, []string{"omen"}, firedIDs(fired))
}

func TestVariants(t *testing.T) {
	defs := []Definition{{
		ID: "storm", Tier: Daily, Priority: 0.5, MaxTriggers: Unlimited,
		Tags:   []string{"rain"},
		Effect: conditionals.Effect{SetFlags: []string{"wet"}},
		Variants: []Variant{{
			ID: "gale", When: ptr(conditionals.Flag("windy")), Tags: []string{"gale"},
			Effect: conditionals.Effect{SetFlags: []string{"roof_damaged"}},
		}},
	}}
	p := mustLoad(t, defs...)

	fired, _ := p.Check(situation(0, nil, nil))
	require.Len(t, fired, 1)
	assert.Equal(t, DefaultVariant, fired[0].Variant)
	assert.Equal(t, []string{"rain"}, fired[0].Tags)
	assert.Equal(t, []string{"wet"}, fired[0].Effect.SetFlags)

	fired, _ = p.Check(situation(1, &mockView{flags: map[string]bool{"windy": true}}, nil))
	require.Len(t, fired, 1)
	assert.Equal(t, "gale", fired[0].Variant)
	assert.Equal(t, []string{"gale"}, fired[0].Tags)
	assert.Equal(t, []string{"wet", "roof_damaged"}, fired[0].Effect.SetFlags)
}

func TestFollowUpsAndUnlock(t *testing.T) {
	p := mustLoad(t,
		Definition{ID: "reunion", Tier: Daily, Priority: 0.4, ScheduledOnly: true},
		Definition{ID: "secret", Tier: Opportunity, Priority: 0.4, StartsLocked: true},
	)

	fired, _ := p.Check(situation(0, nil, nil))
	assert.Empty(t, fired)
	st, _ := p.Status("secret", 0)
	assert.Equal(t, Locked, st)

	require.NoError(t, p.Schedule("reunion", 16))
	require.NoError(t, p.Unlock("secret"))
	assert.ErrorIs(t, p.Schedule("nope", 1), ErrUnknownEvent)

	fired, _ = p.Check(situation(8, nil, nil))
	assert.Equal(t, []string{"secret"}, firedIDs(fired))

	fired, _ = p.Check(situation(16, nil, nil))
	require.Equal(t, []string{"reunion"}, firedIDs(fired))
	assert.True(t, fired[0].FollowUp)
	assert.InDelta(t, 0.35*0.4+0.25*RelevanceFollowUp, fired[0].Score, 1e-9)
	assert.Empty(t, p.Pending())
}

func TestChoices(t *testing.T) {
	p := mustLoad(t, Definition{ID: "bribe", Tier: Opportunity, Priority: 0.5,
		Choices: []Choice{
			{ID: "pay", Label: "Pay the guard", Effect: conditionals.Effect{AddVars: map[string]int{"gold": -5}}},
			{ID: "refuse", Label: "Refuse"},
		}})

	fired, _ := p.Check(situation(0, nil, nil))
	require.Len(t, fired, 1)
	assert.Equal(t, []ChoiceOption{{ID: "pay", Label: "Pay the guard"}, {ID: "refuse", Label: "Refuse"}}, fired[0].Choices)
	assert.Equal(t, []string{"bribe"}, p.AwaitingChoice())

	_, err := p.ResolveChoice("bribe", "flee", 1)
	assert.ErrorIs(t, err, ErrUnknownChoice)

	eff, err := p.ResolveChoice("bribe", "pay", 1)
	require.NoError(t, err)
	assert.Equal(t, -5, eff.AddVars["gold"])

	_, err = p.ResolveChoice("bribe", "pay", 2)
	assert.ErrorIs(t, err, ErrNoChoice)
}

func TestUrgencyAndRelevance(t *testing.T) {
	p := mustLoad(t, Definition{ID: "rescue", Tier: Critical, Priority: 0.5,
		Locations: []string{"docks"}, InvolvedNPCs: []string{"mira", "tom"},
		Expiry: &Expiry{DeadlineDays: 10}})
	d, _ := p.Definition("rescue")
	r := p.runtime["rescue"]

	assert.Zero(t, p.urgency(d, r, 0))
	r.EligibleSince = 0
	assert.InDelta(t, 0.5, p.urgency(d, r, clock.Days(5)), 1e-9)
	assert.Equal(t, 1.0, p.urgency(d, r, clock.Days(12)))

	sit := Situation{Location: "docks", NPCsPresent: []string{"mira", "tom"}}
	assert.InDelta(t, 0.7, relevance(d, sit, false), 1e-9)
	assert.Equal(t, 1.0, relevance(d, sit, true))
	assert.Zero(t, relevance(d, Situation{Location: "temple"}, false))
}

func TestLoadRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
	}{
		{"duplicate", []Definition{{ID: "a", Tier: Daily}, {ID: "a", Tier: Daily}}},
		{"unknown tier", []Definition{{ID: "a", Tier: "weekly"}}},
		{"priority", []Definition{{ID: "a", Tier: Daily, Priority: 2}}},
		{"dangling exclusion", []Definition{{ID: "a", Tier: Daily, Excludes: []string{"b"}}}},
		{"dangling follow-up", []Definition{{ID: "a", Tier: Daily,
			Effect: conditionals.Effect{FollowUps: []conditionals.FollowUp{{Event: "b"}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.defs, nil)
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestSnapshotRestore(t *testing.T) {
	defs := []Definition{
		{ID: "a", Tier: Daily, Priority: 0.5, MaxTriggers: 3, Cooldown: 2},
		{ID: "b", Tier: Daily, Priority: 0.4, ScheduledOnly: true},
	}
	p := mustLoad(t, defs...)
	_, err := p.Check(situation(0, nil, nil))
	require.NoError(t, err)
	require.NoError(t, p.Schedule("b", 20))

	st := p.Snapshot()
	q := mustLoad(t, defs...)
	require.NoError(t, q.Restore(st))
	assert.Equal(t, st, q.Snapshot())

	bad := State{Runtime: map[string]Runtime{"zzz": {}}}
	assert.ErrorIs(t, q.Restore(bad), ErrUnknownEvent)
}

func TestInterruptStack(t *testing.T) {
	s := NewInterruptStack(nil)
	s.Push(Suspended{Kind: ActionContext, ID: "retreat", SuspendedAt: 10})
	s.Push(Suspended{Kind: DialogueContext, ID: "talk", SuspendedAt: 12})

	items := s.Items()
	assert.Equal(t, clock.Tick(22), items[0].ExpiresAt)
	assert.Equal(t, clock.Tick(16), items[1].ExpiresAt)

	top, ok := s.Peek(13)
	require.True(t, ok)
	assert.Equal(t, "talk", top.ID)

	got, ok := s.Pop(17)
	require.True(t, ok)
	assert.Equal(t, "retreat", got.ID)
	assert.Equal(t, 1, s.Len())

	dropped := s.Cleanup(17)
	require.Len(t, dropped, 1)
	assert.Equal(t, "talk", dropped[0].ID)
	_, ok = s.Pop(17)
	assert.False(t, ok)

	for i := 0; i < MaxStackDepth+1; i++ {
		s.Push(Suspended{Kind: ActionContext, ID: fmt.Sprint(i), SuspendedAt: 20})
	}
	assert.Equal(t, MaxStackDepth, s.Len())
	assert.Equal(t, "1", s.Items()[0].ID)
}

func TestFiredInterrupts(t *testing.T) {
	f := Fired{Interrupt: Interrupt{CanInterrupt: true, Priority: 5}}
	assert.True(t, f.Interrupts(3))
	assert.False(t, f.Interrupts(5))
	assert.False(t, Fired{Interrupt: Interrupt{Priority: 9}}.Interrupts(0))
}

func ptr[T any](v T) *T { return &v }
