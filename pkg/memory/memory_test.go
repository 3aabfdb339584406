package memory

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/rng"
)

func TestAddDefaults(t *testing.T) {
	s := NewStore("mira", nil)
	e := s.Add(Entry{Summary: "Saw the player at the docks", Importance: 14, Tags: []string{"Docks", "docks", "player"}})

	assert.Equal(t, "mira-1", e.ID)
	assert.Equal(t, MaxImportance, e.Importance)
	assert.False(t, e.CanForget)
	assert.Equal(t, Episodic, e.Kind)
	assert.Equal(t, 1, e.MergedCount)
	assert.Equal(t, []string{"docks", "player"}, e.Tags)

	low := s.Add(Entry{Summary: "rain", Importance: 0})
	assert.Equal(t, MinImportance, low.Importance)
	assert.True(t, low.CanForget)
	assert.Len(t, s.Core(), 1)
}

func TestRememberImportance(t *testing.T) {
	s := NewStore("mira", nil)
	calm := s.Remember(Event{Summary: "Bought bread", Base: 2})
	shaken := s.Remember(Event{Summary: "The player threatened her brother", Base: 4, Intensity: -9, Tags: []string{"threat"}})

	assert.Equal(t, 2, calm.Importance)
	assert.Equal(t, 8, shaken.Importance) // 4 + round(9/2.5)
	assert.True(t, shaken.Core())
	assert.Contains(t, shaken.Tags, "threat")
	assert.Contains(t, shaken.Tags, "brother")
	assert.Contains(t, shaken.Tags, "threatened")
}

func TestULIDsReplay(t *testing.T) {
	a := ULIDs(rng.New(9))
	b := ULIDs(rng.New(9))
	for i := 0; i < 5; i++ {
		assert.Equal(t, a(clock.Tick(i)), b(clock.Tick(i)))
	}
	id := a(42)
	assert.Len(t, id, 26)
}

func TestGetRelevantScoring(t *testing.T) {
	s := NewStore("mira", nil)
	now := clock.Days(100)
	s.Add(Entry{Summary: "old gift", Tick: clock.Days(10), Importance: 5, Tags: []string{"gift"}})
	s.Add(Entry{Summary: "recent gift", Tick: clock.Days(99), Importance: 5, Tags: []string{"gift"}})
	s.Add(Entry{Summary: "fight", Tick: clock.Days(99), Importance: 5, EmotionalImpact: -8, Tags: []string{"fight"}})

	got := s.GetRelevant(Query{Tags: []string{"gift"}}, now, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "recent gift", got[0].Entry.Summary)

	// 0.3*1 + 0.3*0.5 + 0.2*(1-1/365) + 0
	assert.InDelta(t, 0.3+0.15+0.2*(1-1.0/365), got[0].Score, 1e-9)

	fight := s.GetRelevant(Query{Text: "another fight"}, now, 1)
	require.Len(t, fight, 1)
	assert.Equal(t, "fight", fight[0].Entry.Summary)

	assert.Nil(t, s.GetRelevant(Query{}, now, 0))
}

func TestGetRelevantTiesPreferNewest(t *testing.T) {
	s := NewStore("mira", nil)
	now := clock.Days(400) // both memories past the recency horizon
	s.Add(Entry{Summary: "first", Tick: clock.Days(1), Importance: 3})
	s.Add(Entry{Summary: "second", Tick: clock.Days(2), Importance: 3})

	got := s.GetRelevant(Query{}, now, 2)
	require.Len(t, got, 2)
	assert.Equal(t, got[0].Score, got[1].Score)
	assert.Equal(t, "second", got[0].Entry.Summary)
}

func TestCompressEmptyIsNoop(t *testing.T) {
	s := NewStore("mira", nil)
	rep := s.Compress(clock.Days(30), DefaultConfig())
	assert.Empty(t, rep.Removed())
	assert.Zero(t, s.Len())
}

func TestCompressMergesSimilar(t *testing.T) {
	s := NewStore("mira", nil)
	now := clock.Days(40)
	s.Add(Entry{Summary: "Player flirted at the tavern", Tick: clock.Days(35), Importance: 3, Tags: []string{"player", "flirt", "tavern"}})
	s.Add(Entry{Summary: "Player flirted again at the tavern", Tick: clock.Days(37), Importance: 5, Tags: []string{"player", "flirt", "tavern"}})
	s.Add(Entry{Summary: "Storm at sea", Tick: clock.Days(38), Importance: 4, Tags: []string{"storm"}})

	rep := s.Compress(now, DefaultConfig())
	require.Len(t, rep.Merged, 1)

	entries := s.Entries()
	require.Len(t, entries, 2)
	merged := entries[0]
	assert.Equal(t, 5, merged.Importance)
	assert.Equal(t, clock.Days(37), merged.Tick)
	assert.Equal(t, 2, merged.MergedCount)
	assert.Equal(t, "Player flirted again at the tavern", merged.Summary)
}

func TestCompressSummarizesOldMonths(t *testing.T) {
	s := NewStore("mira", nil)
	cfg := DefaultConfig()
	now := clock.Days(100)

	// month 1: two minor, one major; month 2: one minor
	s.Add(Entry{Summary: "Swept the floor", Tick: clock.Days(2), Importance: 2, Tags: []string{"chores"}})
	s.Add(Entry{Summary: "Fed the cat", Tick: clock.Days(5), Importance: 1, Tags: []string{"cat"}})
	s.Add(Entry{Summary: "Argued with the mayor. It got loud and the whole square heard.", Tick: clock.Days(7), Importance: 6, Location: "square", Tags: []string{"mayor"}})
	s.Add(Entry{Summary: "Mended a net", Tick: clock.Days(40), Importance: 3, Tags: []string{"net"}})

	rep := s.Compress(now, cfg)
	assert.Len(t, rep.Summarized, 3)
	assert.Len(t, rep.Created, 2)
	assert.Equal(t, 1, rep.Retained)

	var summaries, retained []Entry
	for _, e := range s.Entries() {
		switch e.Kind {
		case PeriodSummary:
			summaries = append(summaries, e)
		case Retained:
			retained = append(retained, e)
		}
	}
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[0].EventCount)
	assert.Equal(t, 2, summaries[0].Importance)
	assert.Contains(t, summaries[0].Summary, "2 minor events in month 1 of year 1")

	require.Len(t, retained, 1)
	assert.Equal(t, "Argued with the mayor.", retained[0].Summary)
	assert.Empty(t, retained[0].Location)
}

func TestCompressStripsMultibyteSummaries(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		want    string
	}{
		{
			name:    "no terminator, long in bytes but short in runes",
			summary: strings.Repeat("师兄在藏经阁里找到了一本古籍", 3),
			want:    strings.Repeat("师兄在藏经阁里找到了一本古籍", 3),
		},
		{
			name:    "cjk full stop ends the first sentence",
			summary: "师兄在藏经阁里找到了一本古籍。他没有告诉任何人。",
			want:    "师兄在藏经阁里找到了一本古籍。",
		},
		{
			name:    "cjk exclamation",
			summary: "长老发怒了！全门弟子都听见了。",
			want:    "长老发怒了！",
		},
		{
			name:    "over the cap in runes",
			summary: strings.Repeat("古", 100),
			want:    strings.Repeat("古", 77) + "...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore("lin", nil)
			s.Add(Entry{Summary: tt.summary, Tick: clock.Days(1), Importance: 6, Tags: []string{"library"}})

			s.Compress(clock.Days(120), DefaultConfig())

			entries := s.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, Retained, entries[0].Kind)
			assert.True(t, utf8.ValidString(entries[0].Summary), "summary %q", entries[0].Summary)
			assert.Equal(t, tt.want, entries[0].Summary)
		})
	}
}

func TestCompressDecaysEarlierSummaries(t *testing.T) {
	s := NewStore("mira", nil)
	cfg := DefaultConfig()
	s.Add(Entry{Summary: "Fed the cat", Tick: clock.Days(1), Importance: 2})
	s.Compress(clock.Days(60), cfg)

	entries := s.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, PeriodSummary, entries[0].Kind)
	assert.Equal(t, 2, entries[0].Importance)

	s.Compress(clock.Days(90), cfg)
	assert.Equal(t, 1, s.Entries()[0].Importance)

	rep := s.Compress(clock.Days(120), cfg)
	assert.Len(t, rep.Forgotten, 1)
	assert.Zero(t, s.Len())
}

func TestCompressBoundsRecentAndKeepsCore(t *testing.T) {
	s := NewStore("mira", nil)
	cfg := DefaultConfig()
	cfg.RecentCap = 5
	cfg.SimilarityThreshold = 0.99
	now := clock.Days(200)

	for i := 0; i < 12; i++ {
		s.Add(Entry{
			Summary:    fmt.Sprintf("memory %d", i),
			Tick:       now - clock.Tick(i),
			Importance: 1 + i%7,
			Tags:       []string{fmt.Sprintf("t%d", i)},
		})
	}
	core := []Entry{
		s.Add(Entry{Summary: "Her brother died", Tick: clock.Days(3), Importance: 10, Tags: []string{"brother"}}),
		s.Add(Entry{Summary: "Swore an oath", Tick: now, Importance: 9, Tags: []string{"t1"}}),
	}

	rep := s.Compress(now, cfg)
	assert.LessOrEqual(t, s.RecentCount(now, cfg), cfg.RecentCap)
	assert.Len(t, rep.Pruned, 7)
	for _, p := range rep.Pruned {
		assert.LessOrEqual(t, p.Importance, 4)
	}

	after := map[string]Entry{}
	for _, e := range s.Entries() {
		after[e.ID] = e
	}
	for _, c := range core {
		assert.Equal(t, c, after[c.ID], "core memory changed")
	}
}

func TestNeedsCompression(t *testing.T) {
	s := NewStore("mira", nil)
	cfg := DefaultConfig()
	cfg.HardCap = 3
	assert.False(t, s.NeedsCompression(clock.Days(29), cfg))
	assert.True(t, s.NeedsCompression(clock.Days(30), cfg))

	s.Compress(clock.Days(30), cfg)
	assert.False(t, s.NeedsCompression(clock.Days(31), cfg))
	for i := 0; i < 4; i++ {
		s.Add(Entry{Summary: "x", Tick: clock.Days(31), Importance: 1})
	}
	assert.True(t, s.NeedsCompression(clock.Days(31), cfg))
}

func TestSnapshotRestore(t *testing.T) {
	s := NewStore("mira", ULIDs(rng.New(1)))
	s.Add(Entry{Summary: "a", Tick: 5, Importance: 3})
	s.Add(Entry{Summary: "b", Tick: 2, Importance: 9})
	s.Compress(clock.Days(40), DefaultConfig())

	st := s.Snapshot()
	r := Restore(st, nil)
	assert.Equal(t, s.Entries(), r.Entries())
	assert.Equal(t, st, r.Snapshot())
}
