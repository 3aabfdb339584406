package sim

import (
	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/memory"
)

// recentEvents is how many fired events a narrative context lists.
const recentEvents = 5

// NPCContext is what the narrative layer may know about one NPC. Relationships appear
// only as a label and memories only as summaries.
type NPCContext struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Role          string          `json:"role,omitempty"`
	Description   string          `json:"description,omitempty"`
	Activity      string          `json:"activity"`
	Mood          actor.Mood      `json:"mood"`
	Intensity     int             `json:"intensity"`
	Relationship  string          `json:"relationship"`
	JealousyState string          `json:"jealousy_state,omitempty"`
	Avoiding      bool            `json:"avoiding,omitempty"`
	Memories      []MemorySummary `json:"memories,omitempty"`
}

// MemorySummary is a retrieved memory as the narrative layer sees it.
type MemorySummary struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags,omitempty"`
}

// NarrativeContext is a read-only digest of the world around the player.
type NarrativeContext struct {
	World               string       `json:"world"`
	Time                string       `json:"time"`
	Tick                clock.Tick   `json:"tick"`
	Location            string       `json:"location"`
	LocationName        string       `json:"location_name"`
	LocationDescription string       `json:"location_description,omitempty"`
	Player              string       `json:"player"`
	Present             []NPCContext `json:"present,omitempty"`
	Focus               *NPCContext  `json:"focus,omitempty"`
	Active              *Activity    `json:"active,omitempty"`
	RecentEvents        []string     `json:"recent_events,omitempty"`
	AwaitingChoice      []string     `json:"awaiting_choice,omitempty"`
	Clues               []string     `json:"clues,omitempty"`
	Taboos              []string     `json:"taboos,omitempty"`
}

// NarrativeContext assembles the context for the player's location. When focus names an
// NPC, that NPC's details come first even if it is elsewhere. Taboos collect every
// present NPC's forbidden topics.
func (w *World) NarrativeContext(focus string) (NarrativeContext, error) {
	now := w.clock.Now()
	gt := w.clock.Time()
	nc := NarrativeContext{
		World:          w.def.Name,
		Time:           gt.Display(),
		Tick:           now,
		Location:       w.player.Location,
		Player:         w.player.Describe(),
		AwaitingChoice: w.pool.AwaitingChoice(),
	}
	if loc, ok := w.locations.Get(w.player.Location); ok {
		nc.LocationName = loc.Name
		nc.LocationDescription = loc.Description
	}

	seen := map[string]bool{}
	addTaboos := func(n *actor.NPC) {
		for _, t := range n.Spec.Taboos {
			if !seen[t] {
				seen[t] = true
				nc.Taboos = append(nc.Taboos, t)
			}
		}
	}

	if focus != "" {
		npc, err := w.NPC(focus)
		if err != nil {
			return nc, err
		}
		c := w.npcContext(npc, now)
		nc.Focus = &c
		addTaboos(npc)
	}
	for _, id := range w.NPCsAt(w.player.Location) {
		if id == focus {
			continue
		}
		npc := w.npcs[id]
		nc.Present = append(nc.Present, w.npcContext(npc, now))
		addTaboos(npc)
	}

	if w.active != nil {
		a := *w.active
		nc.Active = &a
	}

	history := w.pool.History()
	for i := len(history) - 1; i >= 0 && len(nc.RecentEvents) < recentEvents; i-- {
		if history[i].Status != event.Triggered {
			continue
		}
		name := history[i].Event
		if d, err := w.pool.Definition(name); err == nil && d.Name != "" {
			name = d.Name
		}
		nc.RecentEvents = append(nc.RecentEvents, name)
	}
	for _, c := range w.clues {
		nc.Clues = append(nc.Clues, c.ID)
	}
	return nc, nil
}

func (w *World) npcContext(npc *actor.NPC, now clock.Tick) NPCContext {
	id := npc.ID()
	rel := w.rels[id]
	c := NPCContext{
		ID:           id,
		Name:         npc.Spec.DisplayName(),
		Role:         npc.Spec.Role,
		Description:  npc.Spec.Description,
		Activity:     npc.Activity,
		Mood:         npc.Emotion.Mood,
		Intensity:    npc.Emotion.Intensity,
		Relationship: rel.Label(),
		Avoiding:     npc.Avoiding(),
	}
	if npc.Jealousy != nil {
		c.JealousyState = string(npc.Jealousy.State)
	}
	for _, s := range w.memories[id].GetRelevant(memory.Query{Tags: []string{"player"}}, now, ContextMemories) {
		c.Memories = append(c.Memories, MemorySummary{
			Summary: s.Entry.Summary,
			Tags:    append([]string(nil), s.Entry.Tags...),
		})
	}
	return c
}
