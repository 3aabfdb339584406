// Package decision scores the actions available to an NPC and picks one.
//
//	utility = Σ weight[goal]·alignment(action, goal)
//	        + 0.2·emotion(mood, action)
//	        + 0.3·relationship(action)   (player-directed actions only)
//	        + (riskTolerance−0.5)·risk(action)
//	        + noise(0, 0.1)
//
// The top action is taken 70% of the time; otherwise one of the top three is sampled
// by softmax weight. Every random draw comes from the injected source.
package decision

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
	"github.com/jwebster45206/world-engine/pkg/relationship"
	"github.com/jwebster45206/world-engine/pkg/rng"
)

// Weights and selection constants.
const (
	EmotionWeight      = 0.2
	RelationshipWeight = 0.3
	NoiseSD            = 0.1
	TopChance          = 0.7
	SampleFrom         = 3
)

// Action is one concrete option.
type Action struct {
	Kind     ActionKind `json:"kind"`
	Location string     `json:"location,omitempty"` // where the NPC will be
	Activity string     `json:"activity"`
	Target   string     `json:"target,omitempty"`
}

// Situation is what the NPC perceives this slot.
type Situation struct {
	Now            clock.Tick
	Scheduled      actor.ScheduleEntry
	PlayerLocation string
	NPCsPresent    []string // other NPCs at the NPC's location
	Danger         bool     // a threat is present at the NPC's location
	Refuge         string   // where to flee to
	Relationship   *relationship.Relationship
}

// PlayerPresent reports whether the player shares the NPC's scheduled location.
func (s Situation) PlayerPresent() bool {
	return s.PlayerLocation != "" && s.PlayerLocation == s.Scheduled.Location
}

// Breakdown explains one action's utility.
type Breakdown struct {
	Action       Action  `json:"action"`
	Goals        float64 `json:"goals"`
	Emotion      float64 `json:"emotion"`
	Relationship float64 `json:"relationship"`
	Risk         float64 `json:"risk"`
	Noise        float64 `json:"noise"`
	Utility      float64 `json:"utility"`
}

// Decision is the outcome of one decision with every option's breakdown, best first.
type Decision struct {
	NPC     string      `json:"npc"`
	At      clock.Tick  `json:"at"`
	Chosen  Action      `json:"chosen"`
	Utility float64     `json:"utility"`
	Sampled bool        `json:"sampled"` // chosen by weighted sampling rather than taking the top
	Options []Breakdown `json:"options"`
}

// Engine makes decisions from a single random source.
type Engine struct {
	rng rng.Source
	log *slog.Logger
}

func NewEngine(src rng.Source, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{rng: src, log: log}
}

// Available enumerates the actions open to an NPC, in a fixed order.
func (e *Engine) Available(npc *actor.NPC, sit Situation) []Action {
	if !npc.Alive() {
		return nil
	}
	here := sit.Scheduled.Location
	if here == "" {
		here = npc.Location
	}
	act := func(k ActionKind, activity, loc, target string) Action {
		return Action{Kind: k, Activity: activity, Location: loc, Target: target}
	}

	var out []Action
	scheduled := sit.Scheduled.Activity
	if scheduled == "" {
		scheduled = "idle"
	}
	if scheduled != "sleep" && scheduled != "rest" {
		out = append(out, act(Work, scheduled, here, ""))
	}
	out = append(out, act(Rest, "rest", npc.Spec.Home, ""))
	if len(sit.NPCsPresent) > 0 {
		out = append(out, act(Socialize, "socialize", here, sit.NPCsPresent[0]))
	}
	if npc.Weight(actor.GoalKnowledge) > 0 {
		out = append(out, act(Study, "study", here, ""))
	}
	if npc.Weight(actor.GoalWealth) > 0 && scheduled != "sleep" {
		out = append(out, act(Trade, "trade", here, ""))
	}
	if sit.Danger && sit.Refuge != "" && sit.Refuge != here {
		out = append(out, act(Flee, "fleeing", sit.Refuge, ""))
	}
	if npc.Jealousy != nil && npc.Jealousy.Score >= 50 {
		out = append(out, act(Scheme, "scheming", here, ""))
	}
	if sit.PlayerPresent() {
		out = append(out,
			act(TalkToPlayer, "talking with the player", here, "player"),
			act(HelpPlayer, "helping the player", here, "player"),
			act(CourtPlayer, "flirting with the player", here, "player"),
			act(ConfrontPlayer, "confronting the player", here, "player"),
			act(AvoidPlayer, "avoiding the player", npc.Spec.Home, "player"),
		)
	}
	return out
}

// Score computes the deterministic part of an action's utility.
func (e *Engine) Score(npc *actor.NPC, sit Situation, a Action) Breakdown {
	b := Breakdown{Action: a}
	for _, g := range actor.Goals {
		b.Goals += npc.Weight(g) * Alignment(a.Kind, g)
	}
	b.Emotion = EmotionWeight * EmotionModifier(npc.Emotion.Mood, a.Kind)
	if a.Kind.InvolvesPlayer() {
		b.Relationship = RelationshipWeight * RelationshipModifier(sit.Relationship, a.Kind)
	}
	b.Risk = (npc.Spec.RiskTolerance - 0.5) * RiskModifier(a.Kind)
	if npc.Avoiding() && a.Kind.InvolvesPlayer() && a.Kind != AvoidPlayer {
		b.Risk -= 0.5
	}
	b.Utility = b.Goals + b.Emotion + b.Relationship + b.Risk
	return b
}

// Decide scores every available action and picks one.
func (e *Engine) Decide(npc *actor.NPC, sit Situation) (Decision, error) {
	if !npc.Alive() {
		return Decision{}, fmt.Errorf("%w: %s", actor.ErrDead, npc.ID())
	}
	actions := e.Available(npc, sit)
	options := make([]Breakdown, 0, len(actions))
	for _, a := range actions {
		b := e.Score(npc, sit, a)
		b.Noise = NoiseSD * e.rng.NormFloat64()
		b.Utility += b.Noise
		options = append(options, b)
	}
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Utility > options[j].Utility
	})

	d := Decision{NPC: npc.ID(), At: sit.Now, Options: options}
	pick := 0
	if e.rng.Float64() >= TopChance && len(options) > 1 {
		pick = sample(options[:min(SampleFrom, len(options))], e.rng.Float64())
		d.Sampled = true
	}
	d.Chosen = options[pick].Action
	d.Utility = options[pick].Utility
	e.log.Debug("npc decided", "npc", npc.ID(), "action", d.Chosen.Kind, "utility", d.Utility, "sampled", d.Sampled)
	return d, nil
}

// sample picks an index by softmax weight using roll in [0,1).
func sample(top []Breakdown, roll float64) int {
	weights := make([]float64, len(top))
	total := 0.0
	for i, b := range top {
		weights[i] = math.Exp(b.Utility)
		total += weights[i]
	}
	target := roll * total
	for i, w := range weights {
		if target < w {
			return i
		}
		target -= w
	}
	return len(top) - 1
}

// Outcome is the effect an action has on the world beyond moving the NPC.
func Outcome(npcID string, a Action) conditionals.Effect {
	rel := func(dim relationship.Dimension, delta float64, reason string) conditionals.RelationshipDelta {
		return conditionals.RelationshipDelta{NPC: npcID, Dimension: string(dim), Delta: delta, Reason: reason}
	}
	mem := func(summary string, importance int, emotion float64, tags ...string) conditionals.MemoryNote {
		return conditionals.MemoryNote{NPC: npcID, Summary: summary, Importance: importance, Emotion: emotion, Tags: tags}
	}
	switch a.Kind {
	case TalkToPlayer:
		return conditionals.Effect{
			Relationships: []conditionals.RelationshipDelta{rel(relationship.Trust, 1, "talked")},
			Memories:      []conditionals.MemoryNote{mem("Talked with the player", 2, 1, "player", "talk")},
		}
	case HelpPlayer:
		return conditionals.Effect{
			Relationships: []conditionals.RelationshipDelta{
				rel(relationship.Trust, 2, "helped the player"),
				rel(relationship.Debt, 1, "helped the player"),
			},
			Memories: []conditionals.MemoryNote{mem("Helped the player", 3, 2, "player", "help")},
		}
	case CourtPlayer:
		return conditionals.Effect{
			Relationships: []conditionals.RelationshipDelta{rel(relationship.Affection, 2, "flirted")},
			Memories:      []conditionals.MemoryNote{mem("Flirted with the player", 4, 4, "player", "romance")},
		}
	case ConfrontPlayer:
		return conditionals.Effect{
			Relationships: []conditionals.RelationshipDelta{rel(relationship.Trust, -2, "confrontation")},
			Memories:      []conditionals.MemoryNote{mem("Confronted the player", 5, -5, "player", "conflict")},
		}
	case AvoidPlayer:
		return conditionals.Effect{
			Relationships: []conditionals.RelationshipDelta{rel(relationship.Affection, -1, "kept away")},
		}
	case Scheme:
		return conditionals.Effect{
			SetFlags: []string{npcID + "_scheming"},
			Memories: []conditionals.MemoryNote{mem("Plotted against a rival", 6, -4, "rival", "scheme")},
		}
	}
	return conditionals.Effect{}
}
