package memory

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jwebster45206/world-engine/pkg/clock"
)

// Config bounds the memory log.
type Config struct {
	RecentCap           int     `json:"recent_cap"`           // max forgettable episodic memories younger than OldAfterDays
	HardCap             int     `json:"hard_cap"`             // total size that forces compression immediately
	OldAfterDays        int     `json:"old_after_days"`       // age at which episodic memories are grouped by month
	ImportanceCutoff    int     `json:"importance_cutoff"`    // old memories below this fold into a period summary
	SimilarityThreshold float64 `json:"similarity_threshold"` // tag Jaccard similarity at which recent memories merge
	IntervalDays        int     `json:"interval_days"`        // regular compression interval
}

// DefaultConfig returns the standard bounds.
func DefaultConfig() Config {
	return Config{
		RecentCap:           20,
		HardCap:             60,
		OldAfterDays:        30,
		ImportanceCutoff:    5,
		SimilarityThreshold: 0.6,
		IntervalDays:        30,
	}
}

// Report describes what a compression pass did. Removed entries are returned so callers can archive them.
type Report struct {
	Merged     []Entry `json:"merged,omitempty"`     // absorbed into a similar memory
	Summarized []Entry `json:"summarized,omitempty"` // folded into a period summary
	Forgotten  []Entry `json:"forgotten,omitempty"`  // importance decayed to zero
	Pruned     []Entry `json:"pruned,omitempty"`     // dropped to meet the recent cap
	Created    []Entry `json:"created,omitempty"`    // new period summaries
	Retained   int     `json:"retained"`             // old memories kept in stripped form
}

// Removed returns every entry the pass deleted.
func (r Report) Removed() []Entry {
	out := make([]Entry, 0, len(r.Merged)+len(r.Summarized)+len(r.Forgotten)+len(r.Pruned))
	out = append(out, r.Merged...)
	out = append(out, r.Summarized...)
	out = append(out, r.Forgotten...)
	return append(out, r.Pruned...)
}

// NeedsCompression reports whether the interval has elapsed or the hard cap is exceeded.
func (s *Store) NeedsCompression(now clock.Tick, cfg Config) bool {
	if cfg.HardCap > 0 && len(s.entries) > cfg.HardCap {
		return true
	}
	interval := cfg.IntervalDays
	if interval <= 0 {
		interval = 30
	}
	return now-s.lastCompressed >= clock.Days(interval)
}

// Compress bounds the log. Core memories are exempt from every step.
//
//  1. Recent episodic memories whose tags are similar enough merge, keeping the highest
//     importance and the latest tick and counting repetitions.
//  2. Old episodic memories are grouped by calendar month. Those below the importance cutoff
//     become one period summary per month; the rest are kept as detail-stripped entries.
//  3. Summaries and stripped entries from earlier passes lose one importance point and are
//     forgotten at zero.
//  4. If recent episodic memories still exceed the cap, the least important are pruned.
func (s *Store) Compress(now clock.Tick, cfg Config) Report {
	var rep Report
	s.lastCompressed = now
	if len(s.entries) == 0 {
		return rep
	}

	oldBefore := now - clock.Days(cfg.OldAfterDays)
	var core, recent, old, compressed []Entry
	for _, e := range s.entries {
		switch {
		case e.Core():
			core = append(core, e)
		case e.Kind != Episodic:
			compressed = append(compressed, e)
		case e.Tick < oldBefore:
			old = append(old, e)
		default:
			recent = append(recent, e)
		}
	}

	recent = s.mergeSimilar(recent, cfg.SimilarityThreshold, &rep)

	var fresh []Entry
	for _, group := range groupByMonth(old) {
		var minor []Entry
		for _, e := range group {
			if e.Importance < cfg.ImportanceCutoff {
				minor = append(minor, e)
				continue
			}
			fresh = append(fresh, strip(e))
			rep.Retained++
		}
		if len(minor) > 0 {
			sum := s.periodSummary(minor)
			fresh = append(fresh, sum)
			rep.Created = append(rep.Created, sum.clone())
			rep.Summarized = append(rep.Summarized, minor...)
		}
	}

	kept := compressed[:0]
	for _, e := range compressed {
		e.Importance--
		if e.Importance <= 0 {
			rep.Forgotten = append(rep.Forgotten, e)
			continue
		}
		kept = append(kept, e)
	}
	compressed = kept

	if cfg.RecentCap > 0 && len(recent) > cfg.RecentCap {
		order := append([]Entry(nil), recent...)
		sort.SliceStable(order, func(i, j int) bool {
			if order[i].Importance != order[j].Importance {
				return order[i].Importance < order[j].Importance
			}
			if order[i].Tick != order[j].Tick {
				return order[i].Tick < order[j].Tick
			}
			return order[i].ID < order[j].ID
		})
		drop := map[string]bool{}
		for _, e := range order[:len(recent)-cfg.RecentCap] {
			drop[e.ID] = true
			rep.Pruned = append(rep.Pruned, e)
		}
		kept := recent[:0]
		for _, e := range recent {
			if !drop[e.ID] {
				kept = append(kept, e)
			}
		}
		recent = kept
	}

	all := make([]Entry, 0, len(core)+len(compressed)+len(fresh)+len(recent))
	all = append(all, core...)
	all = append(all, compressed...)
	all = append(all, fresh...)
	all = append(all, recent...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Tick != all[j].Tick {
			return all[i].Tick < all[j].Tick
		}
		return all[i].ID < all[j].ID
	})
	s.entries = all
	return rep
}

// RecentCount counts forgettable episodic memories younger than the old threshold.
func (s *Store) RecentCount(now clock.Tick, cfg Config) int {
	oldBefore := now - clock.Days(cfg.OldAfterDays)
	n := 0
	for _, e := range s.entries {
		if !e.Core() && e.Kind == Episodic && e.Tick >= oldBefore {
			n++
		}
	}
	return n
}

// mergeSimilar folds later memories into the earliest similar one.
func (s *Store) mergeSimilar(recent []Entry, threshold float64, rep *Report) []Entry {
	if threshold <= 0 || len(recent) < 2 {
		return recent
	}
	out := make([]Entry, 0, len(recent))
	for _, e := range recent {
		merged := false
		for i := range out {
			if jaccard(out[i].Tags, e.Tags) < threshold {
				continue
			}
			rep.Merged = append(rep.Merged, e)
			out[i] = absorb(out[i], e)
			merged = true
			break
		}
		if !merged {
			out = append(out, e)
		}
	}
	return out
}

func absorb(into, e Entry) Entry {
	if e.Importance > into.Importance {
		into.Importance = e.Importance
	}
	if e.Tick >= into.Tick {
		into.Tick = e.Tick
		into.Summary = e.Summary
		into.Location = e.Location
	}
	if abs(e.EmotionalImpact) > abs(into.EmotionalImpact) {
		into.EmotionalImpact = e.EmotionalImpact
	}
	into.MergedCount += e.MergedCount
	into.Tags = normalizeTags(append(append([]string(nil), into.Tags...), e.Tags...))
	return into
}

func (s *Store) periodSummary(minor []Entry) Entry {
	gt := clock.FromAbsolute(minor[0].Tick)
	count := 0
	importance := MinImportance
	latest := minor[0].Tick
	var tags []string
	var parts []string
	for _, e := range minor {
		count += e.MergedCount
		if e.Importance > importance {
			importance = e.Importance
		}
		if e.Tick > latest {
			latest = e.Tick
		}
		tags = append(tags, e.Tags...)
		if len(parts) < 3 {
			parts = append(parts, e.Summary)
		}
	}
	summary := fmt.Sprintf("%d minor events in month %d of year %d: %s",
		count, gt.Month, gt.Year, strings.Join(parts, "; "))
	return Entry{
		ID:          s.newID(latest),
		Summary:     summary,
		Tick:        latest,
		Importance:  importance,
		Tags:        normalizeTags(tags),
		MergedCount: 1,
		CanForget:   true,
		Kind:        PeriodSummary,
		EventCount:  count,
	}
}

// sentenceEnds terminate the first sentence of a summary, Latin and CJK.
const sentenceEnds = ".!?。！？"

// maxStripped is the longest stripped summary, in runes.
const maxStripped = 80

// strip keeps the gist of an old memory: its first sentence, cut to maxStripped runes.
func strip(e Entry) Entry {
	e.Kind = Retained
	e.Location = ""
	if i := strings.IndexAny(e.Summary, sentenceEnds); i > 0 {
		_, size := utf8.DecodeRuneInString(e.Summary[i:])
		e.Summary = e.Summary[:i+size]
	}
	if utf8.RuneCountInString(e.Summary) > maxStripped {
		runes := []rune(e.Summary)
		e.Summary = strings.TrimSpace(string(runes[:maxStripped-3])) + "..."
	}
	return e
}

func groupByMonth(entries []Entry) [][]Entry {
	byMonth := map[int64][]Entry{}
	var months []int64
	for _, e := range entries {
		m := int64(e.Tick) / clock.TicksPerMonth
		if _, ok := byMonth[m]; !ok {
			months = append(months, m)
		}
		byMonth[m] = append(byMonth[m], e)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
	out := make([][]Entry, 0, len(months))
	for _, m := range months {
		out = append(out, byMonth[m])
	}
	return out
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := intersect(a, b)
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
