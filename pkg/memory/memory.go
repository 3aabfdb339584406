// Package memory holds the per-NPC memory log: adding, relevance-ranked retrieval and periodic compression.
package memory

import (
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/oklog/ulid/v2"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/textfilter"
)

// Kind distinguishes raw memories from the products of compression.
type Kind string

const (
	Episodic      Kind = "episodic"
	PeriodSummary Kind = "period_summary"
	Retained      Kind = "retained"
)

const (
	MinImportance = 1
	MaxImportance = 10
	// CoreImportance and above is never forgotten.
	CoreImportance = 8
)

// Entry is one memory.
type Entry struct {
	ID              string     `json:"id"`
	Summary         string     `json:"summary"`
	Tick            clock.Tick `json:"tick"`
	Importance      int        `json:"importance"`
	EmotionalImpact float64    `json:"emotional_impact"` // signed, [-10, 10]
	Tags            []string   `json:"tags,omitempty"`
	MergedCount     int        `json:"merged_count"`
	CanForget       bool       `json:"can_forget"`
	Kind            Kind       `json:"kind"`
	EventCount      int        `json:"event_count,omitempty"`
	Location        string     `json:"location,omitempty"`
}

// Core reports whether the entry is exempt from compression.
func (e Entry) Core() bool {
	return !e.CanForget
}

func (e Entry) clone() Entry {
	e.Tags = append([]string(nil), e.Tags...)
	return e
}

// Event is something an NPC experienced that may become a memory.
type Event struct {
	Summary   string
	Tick      clock.Tick
	Base      int     // base importance before emotional contribution
	Intensity float64 // signed emotional impact
	Tags      []string
	Location  string
}

// IDFunc mints an id for a memory created at the given tick.
type IDFunc func(at clock.Tick) string

// ULIDs returns an IDFunc producing ULIDs whose time component is the tick and whose
// randomness comes from entropy. Given the world's seeded generator the ids replay exactly.
func ULIDs(entropy io.Reader) IDFunc {
	return func(at clock.Tick) string {
		ms := uint64(0)
		if at > 0 {
			ms = uint64(at)
		}
		return ulid.MustNew(ms, entropy).String()
	}
}

// Store is one NPC's memory log.
type Store struct {
	npc            string
	entries        []Entry
	lastCompressed clock.Tick
	newID          IDFunc
}

// NewStore returns an empty store. A nil IDFunc falls back to sequential ids.
func NewStore(npc string, newID IDFunc) *Store {
	s := &Store{npc: npc, newID: newID}
	if s.newID == nil {
		n := 0
		s.newID = func(clock.Tick) string {
			n++
			return npc + "-" + strconv.Itoa(n)
		}
	}
	return s
}

func (s *Store) NPC() string { return s.npc }

func (s *Store) Len() int { return len(s.entries) }

// Entries returns a copy of every memory, oldest first.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.clone()
	}
	return out
}

// Core returns the permanent memories.
func (s *Store) Core() []Entry {
	var out []Entry
	for _, e := range s.entries {
		if e.Core() {
			out = append(out, e.clone())
		}
	}
	return out
}

// Add stores an entry, filling defaults. Importance is clamped to [1,10] and
// anything at CoreImportance or above becomes permanent.
func (s *Store) Add(e Entry) Entry {
	if e.ID == "" {
		e.ID = s.newID(e.Tick)
	}
	if e.Kind == "" {
		e.Kind = Episodic
	}
	if e.MergedCount < 1 {
		e.MergedCount = 1
	}
	e.Importance = clampInt(e.Importance, MinImportance, MaxImportance)
	e.EmotionalImpact = math.Max(-10, math.Min(10, e.EmotionalImpact))
	e.CanForget = e.Importance < CoreImportance
	e.Tags = normalizeTags(e.Tags)

	s.entries = append(s.entries, e)
	sort.SliceStable(s.entries, func(i, j int) bool { return s.entries[i].Tick < s.entries[j].Tick })
	return e.clone()
}

// Remember turns an experienced event into a memory. Importance is the base score plus
// one point per 2.5 of emotional intensity; tags are the explicit tags plus keywords of the summary.
func (s *Store) Remember(ev Event) Entry {
	base := ev.Base
	if base == 0 {
		base = 3
	}
	importance := base + int(math.Round(math.Abs(ev.Intensity)/2.5))
	tags := append(append([]string(nil), ev.Tags...), textfilter.Keywords(ev.Summary)...)
	return s.Add(Entry{
		Summary:         ev.Summary,
		Tick:            ev.Tick,
		Importance:      importance,
		EmotionalImpact: ev.Intensity,
		Tags:            tags,
		Location:        ev.Location,
	})
}

// Query describes what the caller wants to recall.
type Query struct {
	Tags []string
	Text string // keywords are extracted and added to Tags
}

// Scored is a retrieved memory with its relevance score.
type Scored struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

// GetRelevant ranks every memory by
// 0.3·tagOverlap + 0.3·importance/10 + 0.2·recency + 0.2·|emotionalImpact|/10
// with recency = max(0, 1 − daysAgo/365), and returns the best limit entries.
// Ties go to the most recent memory.
func (s *Store) GetRelevant(q Query, now clock.Tick, limit int) []Scored {
	if limit <= 0 || len(s.entries) == 0 {
		return nil
	}
	want := normalizeTags(append(append([]string(nil), q.Tags...), textfilter.Keywords(q.Text)...))

	scored := make([]Scored, 0, len(s.entries))
	for _, e := range s.entries {
		scored = append(scored, Scored{Entry: e.clone(), Score: score(e, want, now)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Entry.Tick != b.Entry.Tick {
			return a.Entry.Tick > b.Entry.Tick
		}
		return a.Entry.ID < b.Entry.ID
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func score(e Entry, want []string, now clock.Tick) float64 {
	overlap := 0.0
	if len(want) > 0 {
		overlap = float64(intersect(want, e.Tags)) / float64(len(want))
	}
	daysAgo := float64(now-e.Tick) / clock.TicksPerDay
	if daysAgo < 0 {
		daysAgo = 0
	}
	recency := math.Max(0, 1-daysAgo/365)
	return 0.3*overlap +
		0.3*float64(e.Importance)/10 +
		0.2*recency +
		0.2*math.Abs(e.EmotionalImpact)/10
}

// State is the persisted form of a Store.
type State struct {
	NPC            string     `json:"npc"`
	Entries        []Entry    `json:"entries,omitempty"`
	LastCompressed clock.Tick `json:"last_compressed"`
}

func (s *Store) Snapshot() State {
	return State{NPC: s.npc, Entries: s.Entries(), LastCompressed: s.lastCompressed}
}

// Restore rebuilds a store from its persisted form.
func Restore(st State, newID IDFunc) *Store {
	s := NewStore(st.NPC, newID)
	for _, e := range st.Entries {
		s.entries = append(s.entries, e.clone())
	}
	sort.SliceStable(s.entries, func(i, j int) bool { return s.entries[i].Tick < s.entries[j].Tick })
	s.lastCompressed = st.LastCompressed
	return s
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = textfilter.Fold(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func intersect(a, b []string) int {
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	n := 0
	for _, t := range a {
		if set[t] {
			n++
		}
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
