package actor

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
)

var ErrDead = errors.New("npc is dead")

// Goal is a motivation an NPC weighs actions against.
type Goal string

const (
	GoalSafety    Goal = "safety"
	GoalDuty      Goal = "duty"
	GoalWealth    Goal = "wealth"
	GoalBelonging Goal = "belonging"
	GoalRomance   Goal = "romance"
	GoalStatus    Goal = "status"
	GoalKnowledge Goal = "knowledge"
)

// Goals lists every goal in a fixed order.
var Goals = []Goal{GoalSafety, GoalDuty, GoalWealth, GoalBelonging, GoalRomance, GoalStatus, GoalKnowledge}

// TraitJealous gives an NPC a jealousy state machine.
const TraitJealous = "jealous"

// AvoidOverrideID names the runtime override installed while an NPC avoids the player.
const AvoidOverrideID = "avoid_player"

// Stats are the six ability scores handed to the d20 actor.
type Stats struct {
	Strength     int `json:"strength,omitempty" yaml:"strength,omitempty"`
	Dexterity    int `json:"dexterity,omitempty" yaml:"dexterity,omitempty"`
	Constitution int `json:"constitution,omitempty" yaml:"constitution,omitempty"`
	Intelligence int `json:"intelligence,omitempty" yaml:"intelligence,omitempty"`
	Wisdom       int `json:"wisdom,omitempty" yaml:"wisdom,omitempty"`
	Charisma     int `json:"charisma,omitempty" yaml:"charisma,omitempty"`
}

// ToAttributes converts Stats to a map for d20.Actor compatibility
func (s *Stats) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

// NPCSpec is the serializable definition of an NPC
type NPCSpec struct {
	ID            string             `json:"id" yaml:"id"`
	Name          string             `json:"name" yaml:"name"`
	Nickname      string             `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	Role          string             `json:"role,omitempty" yaml:"role,omitempty"` // e.g. "innkeeper", "guard"
	Faction       string             `json:"faction,omitempty" yaml:"faction,omitempty"`
	Description   string             `json:"description,omitempty" yaml:"description,omitempty"`
	Home          string             `json:"home" yaml:"home"`
	Personality   map[Goal]float64   `json:"personality,omitempty" yaml:"personality,omitempty"` // goal -> weight in [0,1]
	RiskTolerance float64            `json:"risk_tolerance,omitempty" yaml:"risk_tolerance,omitempty"`
	Traits        []string           `json:"traits,omitempty" yaml:"traits,omitempty"`
	Jealousy      int                `json:"jealousy,omitempty" yaml:"jealousy,omitempty"` // starting score
	JealousyRules JealousyConfig     `json:"jealousy_rules,omitempty" yaml:"jealousy_rules,omitempty"`
	Schedule      Schedule           `json:"schedule" yaml:"schedule"`
	Taboos        []string           `json:"taboos,omitempty" yaml:"taboos,omitempty"`
	Relationship  map[string]float64 `json:"relationship,omitempty" yaml:"relationship,omitempty"` // starting values by dimension
	DecayRates    map[string]float64 `json:"decay_rates,omitempty" yaml:"decay_rates,omitempty"`   // monthly rates by dimension
	Stats         Stats              `json:"stats,omitempty" yaml:"stats,omitempty"`
	MaxHP         int                `json:"max_hp,omitempty" yaml:"max_hp,omitempty"`
	AC            int                `json:"ac,omitempty" yaml:"ac,omitempty"`
}

// Defaults for specs that leave vitals unset.
const (
	DefaultMaxHP = 10
	DefaultAC    = 10
)

// HasTrait reports whether the spec lists a trait.
func (s *NPCSpec) HasTrait(trait string) bool {
	for _, t := range s.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// DisplayName prefers the nickname.
func (s *NPCSpec) DisplayName() string {
	if s.Nickname != "" {
		return s.Nickname
	}
	return s.Name
}

// NPC is the runtime representation of a non-player character
type NPC struct {
	Spec      *NPCSpec
	Actor     *d20.Actor // built at runtime from NPCSpec
	Location  string
	Activity  string
	Emotion   Emotion
	Jealousy  *Jealousy // nil unless the NPC has the jealous trait
	Overrides []Override
	Dead      bool
	DiedAt    clock.Tick
}

// NewNPCFromSpec creates an NPC at its home location.
func NewNPCFromSpec(spec *NPCSpec) (*NPC, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if spec.ID == "" {
		return nil, fmt.Errorf("npc spec missing id")
	}
	maxHP := spec.MaxHP
	if maxHP <= 0 {
		maxHP = DefaultMaxHP
	}
	ac := spec.AC
	if ac <= 0 {
		ac = DefaultAC
	}
	attrs := spec.Stats.ToAttributes()
	actor, err := d20.NewActor(spec.ID).
		WithHP(maxHP).
		WithAC(ac).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	n := &NPC{
		Spec:     spec,
		Actor:    actor,
		Location: spec.Home,
		Activity: "idle",
		Emotion:  NewEmotion(),
	}
	if spec.HasTrait(TraitJealous) {
		n.Jealousy = NewJealousy(spec.ID, spec.Jealousy, spec.JealousyRules)
	}
	return n, nil
}

func (n *NPC) ID() string { return n.Spec.ID }

// Alive reports whether the NPC has not died.
func (n *NPC) Alive() bool { return !n.Dead }

// HP is the current hit points, zero once dead.
func (n *NPC) HP() int {
	if n.Dead {
		return 0
	}
	return n.Actor.HP()
}

// Harm reduces hit points. Reaching zero kills the NPC. Reports whether this harm was fatal.
func (n *NPC) Harm(amount int, at clock.Tick) (bool, error) {
	if n.Dead {
		return false, fmt.Errorf("%w: %s", ErrDead, n.ID())
	}
	if amount <= 0 {
		return false, nil
	}
	hp := n.Actor.HP() - amount
	if hp <= 0 {
		n.Kill(at)
		return true, nil
	}
	if err := n.Actor.SetHP(hp); err != nil {
		return false, fmt.Errorf("failed to set HP: %w", err)
	}
	return false, nil
}

// Kill is the terminal death transition. The schedule stops executing.
func (n *NPC) Kill(at clock.Tick) {
	if n.Dead {
		return
	}
	n.Dead = true
	n.DiedAt = at
	n.Activity = "dead"
	n.Overrides = nil
}

// InstallOverride adds or replaces a runtime schedule override. Runtime overrides
// take precedence over the spec's own.
func (n *NPC) InstallOverride(o Override) {
	for i := range n.Overrides {
		if n.Overrides[i].ID == o.ID {
			n.Overrides[i] = o
			return
		}
	}
	n.Overrides = append(n.Overrides, o)
}

// RemoveOverride drops a runtime override by id.
func (n *NPC) RemoveOverride(id string) {
	kept := n.Overrides[:0]
	for _, o := range n.Overrides {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	n.Overrides = kept
}

// HasOverride reports whether a runtime override is installed.
func (n *NPC) HasOverride(id string) bool {
	for _, o := range n.Overrides {
		if o.ID == id {
			return true
		}
	}
	return false
}

// AvoidPlayerOverride keeps the NPC at home, away from the player, in every slot.
func (n *NPC) AvoidPlayerOverride() Override {
	return Override{
		ID: AvoidOverrideID,
		Entry: ScheduleEntry{
			Location:    n.Spec.Home,
			Activity:    "brooding",
			Description: "keeping away from the player",
		},
	}
}

// Avoiding reports whether the NPC is avoiding the player.
func (n *NPC) Avoiding() bool {
	return n.HasOverride(AvoidOverrideID)
}

// Resolve picks the schedule entry for a slot: runtime overrides first, then the spec.
func (n *NPC) Resolve(slot clock.Slot, view conditionals.WorldView) (ScheduleEntry, string, error) {
	e, id, err := resolve(n.Overrides, ScheduleEntry{}, slot, view)
	if err != nil || id != "" {
		return e, id, err
	}
	return n.Spec.Schedule.Resolve(slot, view)
}

// Weight returns the personality weight for a goal, zero when unset.
func (n *NPC) Weight(g Goal) float64 {
	return n.Spec.Personality[g]
}

// NPCState is the persisted runtime state of an NPC.
type NPCState struct {
	ID        string     `json:"id"`
	Location  string     `json:"location"`
	Activity  string     `json:"activity"`
	Emotion   Emotion    `json:"emotion"`
	Jealousy  *Jealousy  `json:"jealousy,omitempty"`
	Overrides []Override `json:"overrides,omitempty"`
	HP        int        `json:"hp"`
	Dead      bool       `json:"dead,omitempty"`
	DiedAt    clock.Tick `json:"died_at,omitempty"`
}

// Snapshot captures runtime state.
func (n *NPC) Snapshot() NPCState {
	st := NPCState{
		ID:        n.ID(),
		Location:  n.Location,
		Activity:  n.Activity,
		Emotion:   n.Emotion,
		Overrides: append([]Override(nil), n.Overrides...),
		HP:        n.HP(),
		Dead:      n.Dead,
		DiedAt:    n.DiedAt,
	}
	if n.Jealousy != nil {
		j := *n.Jealousy
		st.Jealousy = &j
	}
	return st
}

// Restore applies persisted state on top of a freshly built NPC.
func (n *NPC) Restore(st NPCState) error {
	if st.ID != n.ID() {
		return fmt.Errorf("state for %s applied to %s", st.ID, n.ID())
	}
	n.Location = st.Location
	n.Activity = st.Activity
	n.Emotion = st.Emotion
	n.Overrides = append([]Override(nil), st.Overrides...)
	n.Dead = st.Dead
	n.DiedAt = st.DiedAt
	if st.Jealousy != nil {
		j := *st.Jealousy
		n.Jealousy = &j
	}
	if !st.Dead && st.HP > 0 && st.HP != n.Actor.HP() {
		if err := n.Actor.SetHP(st.HP); err != nil {
			return fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return nil
}

// MarshalJSON renders the spec together with live state for API responses.
func (n *NPC) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	type npcResponse struct {
		ID          string           `json:"id"`
		Name        string           `json:"name"`
		Role        string           `json:"role,omitempty"`
		Location    string           `json:"location"`
		Activity    string           `json:"activity"`
		Mood        Mood             `json:"mood"`
		Intensity   int              `json:"intensity"`
		Jealousy    *int             `json:"jealousy,omitempty"`
		HP          int              `json:"hp"`
		MaxHP       int              `json:"max_hp"`
		AC          int              `json:"ac"`
		Dead        bool             `json:"dead,omitempty"`
		Personality map[Goal]float64 `json:"personality,omitempty"`
		Attributes  map[string]int   `json:"attributes,omitempty"`
	}
	resp := npcResponse{
		ID:          n.ID(),
		Name:        n.Spec.DisplayName(),
		Role:        n.Spec.Role,
		Location:    n.Location,
		Activity:    n.Activity,
		Mood:        n.Emotion.Mood,
		Intensity:   n.Emotion.Intensity,
		HP:          n.HP(),
		MaxHP:       n.Actor.MaxHP(),
		AC:          n.Actor.AC(),
		Dead:        n.Dead,
		Personality: maps.Clone(n.Spec.Personality),
		Attributes:  make(map[string]int),
	}
	if n.Jealousy != nil {
		score := n.Jealousy.Score
		resp.Jealousy = &score
	}
	for k := range n.Spec.Stats.ToAttributes() {
		if v, ok := n.Actor.Attribute(k); ok {
			resp.Attributes[k] = v
		}
	}
	return json.Marshal(resp)
}
