package prompts

import (
	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/jwebster45206/world-engine/pkg/textfilter"
)

// PromptState is the narrative context reduced to what a storyteller may see.
// Relationships appear as labels only; raw numbers never reach the prompt.
type PromptState struct {
	World          string      `json:"world"`
	Time           string      `json:"time"`
	Location       string      `json:"user_location"`
	Description    string      `json:"location_description,omitempty"`
	Player         string      `json:"player"`
	Focus          *PromptNPC  `json:"focus,omitempty"`   // NPC the player is addressing
	Present        []PromptNPC `json:"present,omitempty"` // other NPCs at the location
	Doing          string      `json:"doing,omitempty"`   // the player's current activity
	RecentEvents   []string    `json:"recent_events,omitempty"`
	AwaitingChoice []string    `json:"awaiting_choice,omitempty"`
	Clues          []string    `json:"clues,omitempty"`
	Avoid          []string    `json:"avoid_topics,omitempty"`
}

// PromptNPC is one NPC as the storyteller sees it.
type PromptNPC struct {
	Name     string   `json:"name"`
	Role     string   `json:"role,omitempty"`
	Activity string   `json:"activity,omitempty"`
	Mood     string   `json:"mood"`
	Feeling  string   `json:"feeling_toward_player"`
	Jealousy string   `json:"jealousy,omitempty"`
	Avoiding bool     `json:"avoiding_player,omitempty"`
	Memories []string `json:"remembers,omitempty"`
}

// ToPromptState reduces a narrative context for a prompt. Memories that touch a taboo
// are withheld so the storyteller is never nudged toward a forbidden topic.
func ToPromptState(nc sim.NarrativeContext) *PromptState {
	taboos := textfilter.NewTabooFilter(nc.Taboos)
	ps := &PromptState{
		World:          nc.World,
		Time:           nc.Time,
		Location:       nc.LocationName,
		Description:    nc.LocationDescription,
		Player:         nc.Player,
		RecentEvents:   nc.RecentEvents,
		AwaitingChoice: nc.AwaitingChoice,
		Clues:          nc.Clues,
		Avoid:          nc.Taboos,
	}
	if ps.Location == "" {
		ps.Location = nc.Location
	}
	if nc.Focus != nil {
		f := toPromptNPC(*nc.Focus, taboos)
		ps.Focus = &f
	}
	for _, n := range nc.Present {
		ps.Present = append(ps.Present, toPromptNPC(n, taboos))
	}
	if nc.Active != nil {
		ps.Doing = nc.Active.Label
		if ps.Doing == "" {
			ps.Doing = string(nc.Active.Kind)
		}
	}
	return ps
}

func toPromptNPC(n sim.NPCContext, taboos *textfilter.TabooFilter) PromptNPC {
	p := PromptNPC{
		Name:     n.Name,
		Role:     n.Role,
		Activity: n.Activity,
		Mood:     describeMood(n.Mood, n.Intensity),
		Feeling:  n.Relationship,
		Avoiding: n.Avoiding,
	}
	if n.JealousyState != "" && n.JealousyState != string(actor.JealousyNormal) {
		p.Jealousy = n.JealousyState
	}
	for _, m := range n.Memories {
		if taboos.Contains(m.Summary) {
			continue
		}
		p.Memories = append(p.Memories, m.Summary)
	}
	return p
}

// describeMood turns a mood and its 0-10 intensity into words.
func describeMood(m actor.Mood, intensity int) string {
	if m == actor.Neutral || m == "" {
		return string(actor.Neutral)
	}
	switch {
	case intensity >= 8:
		return "very " + string(m)
	case intensity <= 3:
		return "slightly " + string(m)
	}
	return string(m)
}
