package decision

import (
	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/relationship"
)

// ActionKind is a kind of thing an NPC can do in a slot.
type ActionKind string

const (
	Work           ActionKind = "work"
	Rest           ActionKind = "rest"
	Socialize      ActionKind = "socialize"
	Study          ActionKind = "study"
	Trade          ActionKind = "trade"
	Flee           ActionKind = "flee"
	Scheme         ActionKind = "scheme"
	TalkToPlayer   ActionKind = "talk_player"
	HelpPlayer     ActionKind = "help_player"
	CourtPlayer    ActionKind = "court_player"
	ConfrontPlayer ActionKind = "confront_player"
	AvoidPlayer    ActionKind = "avoid_player"
)

// ActionKinds lists every action kind.
var ActionKinds = []ActionKind{
	Work, Rest, Socialize, Study, Trade, Flee, Scheme,
	TalkToPlayer, HelpPlayer, CourtPlayer, ConfrontPlayer, AvoidPlayer,
}

// InvolvesPlayer reports whether the action is directed at the player.
func (k ActionKind) InvolvesPlayer() bool {
	switch k {
	case TalkToPlayer, HelpPlayer, CourtPlayer, ConfrontPlayer, AvoidPlayer:
		return true
	}
	return false
}

// goalScores is one alignment row. Every goal has a field so a row cannot omit one.
type goalScores struct {
	safety, duty, wealth, belonging, romance, status, knowledge float64
}

func (g goalScores) get(goal actor.Goal) (float64, bool) {
	switch goal {
	case actor.GoalSafety:
		return g.safety, true
	case actor.GoalDuty:
		return g.duty, true
	case actor.GoalWealth:
		return g.wealth, true
	case actor.GoalBelonging:
		return g.belonging, true
	case actor.GoalRomance:
		return g.romance, true
	case actor.GoalStatus:
		return g.status, true
	case actor.GoalKnowledge:
		return g.knowledge, true
	}
	return 0, false
}

// alignment scores how well each action serves each goal, in [0,1].
var alignment = map[ActionKind]goalScores{
	//              safety duty wealth belong romance status knowledge
	Work:           {0.3, 0.9, 0.7, 0.2, 0.0, 0.4, 0.2},
	Rest:           {0.6, 0.1, 0.0, 0.1, 0.0, 0.0, 0.0},
	Socialize:      {0.2, 0.0, 0.1, 0.9, 0.3, 0.4, 0.2},
	Study:          {0.2, 0.3, 0.1, 0.0, 0.0, 0.3, 0.9},
	Trade:          {0.1, 0.3, 0.9, 0.2, 0.0, 0.3, 0.1},
	Flee:           {1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0},
	Scheme:         {0.0, 0.0, 0.2, 0.0, 0.6, 0.7, 0.0},
	TalkToPlayer:   {0.1, 0.1, 0.1, 0.7, 0.5, 0.2, 0.4},
	HelpPlayer:     {0.0, 0.5, 0.1, 0.6, 0.5, 0.3, 0.1},
	CourtPlayer:    {0.0, 0.0, 0.0, 0.4, 1.0, 0.2, 0.0},
	ConfrontPlayer: {0.0, 0.3, 0.0, 0.0, 0.2, 0.7, 0.0},
	AvoidPlayer:    {0.7, 0.0, 0.0, 0.0, 0.0, 0.1, 0.0},
}

// risk is how dangerous or exposing each action is, in [0,1].
var risk = map[ActionKind]float64{
	Work:           0.1,
	Rest:           0.0,
	Socialize:      0.1,
	Study:          0.0,
	Trade:          0.3,
	Flee:           0.2,
	Scheme:         0.8,
	TalkToPlayer:   0.2,
	HelpPlayer:     0.4,
	CourtPlayer:    0.5,
	ConfrontPlayer: 0.7,
	AvoidPlayer:    0.0,
}

// emotionModifiers are multipliers in [-1,1] keyed by mood then action. Missing
// actions inside a mood row are neutral.
var emotionModifiers = map[actor.Mood]map[ActionKind]float64{
	actor.Neutral: {},
	actor.Happy: {
		Socialize: 0.6, TalkToPlayer: 0.5, HelpPlayer: 0.5, CourtPlayer: 0.4,
		ConfrontPlayer: -0.6, Scheme: -0.5, AvoidPlayer: -0.4,
	},
	actor.Sad: {
		Rest: 0.6, Socialize: -0.3, Work: -0.3, TalkToPlayer: 0.2, AvoidPlayer: 0.3,
	},
	actor.Angry: {
		ConfrontPlayer: 0.8, Scheme: 0.4, Work: 0.1, TalkToPlayer: -0.3, HelpPlayer: -0.5, CourtPlayer: -0.6,
	},
	actor.Afraid: {
		Flee: 1.0, Rest: 0.4, AvoidPlayer: 0.5, ConfrontPlayer: -0.8, Trade: -0.3,
	},
	actor.Jealous: {
		Scheme: 0.8, AvoidPlayer: 0.5, ConfrontPlayer: 0.4, CourtPlayer: 0.3, HelpPlayer: -0.4,
	},
	actor.Anxious: {
		Rest: 0.3, Study: 0.2, Flee: 0.4, Socialize: -0.2, ConfrontPlayer: -0.5,
	},
}

// dimWeight weights one relationship factor.
type dimWeight struct {
	dim    relationship.Dimension
	weight float64
}

// relationshipWeights combine relationship factors for actions directed at the player.
var relationshipWeights = map[ActionKind][]dimWeight{
	TalkToPlayer:   {{relationship.Trust, 0.5}, {relationship.Affection, 0.5}},
	HelpPlayer:     {{relationship.Trust, 0.5}, {relationship.Affection, 0.3}, {relationship.Debt, 0.4}},
	CourtPlayer:    {{relationship.Affection, 1.0}, {relationship.Fear, -0.5}},
	ConfrontPlayer: {{relationship.Trust, -0.6}, {relationship.Respect, -0.4}, {relationship.Fear, -0.6}},
	AvoidPlayer:    {{relationship.Fear, 0.8}, {relationship.Affection, -0.6}},
}

// Alignment returns the alignment of an action with a goal.
func Alignment(kind ActionKind, goal actor.Goal) float64 {
	v, _ := alignment[kind].get(goal)
	return v
}

// EmotionModifier returns the mood multiplier for an action.
func EmotionModifier(mood actor.Mood, kind ActionKind) float64 {
	return emotionModifiers[mood][kind]
}

// RelationshipModifier combines relationship factors for a player-directed action.
func RelationshipModifier(r *relationship.Relationship, kind ActionKind) float64 {
	if r == nil || !kind.InvolvesPlayer() {
		return 0
	}
	sum := 0.0
	for _, w := range relationshipWeights[kind] {
		sum += w.weight * r.Factor(w.dim)
	}
	return sum
}

// RiskModifier returns the riskiness of an action.
func RiskModifier(kind ActionKind) float64 {
	return risk[kind]
}
