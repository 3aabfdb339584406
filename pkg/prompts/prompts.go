package prompts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/world-engine/pkg/conditionals"
	"github.com/jwebster45206/world-engine/pkg/scenario"
)

// ErrInvalidProposal is returned when the narrative layer's proposed change cannot be parsed.
var ErrInvalidProposal = errors.New("invalid effect proposal")

// BaseSystemPrompt is the default system prompt for narrating a living world.
const BaseSystemPrompt = `You are %s, the narrator of a living world. The world runs on its own: time passes, people keep their routines and events happen whether or not the player is watching. You describe what the player sees and hears, and you speak for the people they meet. You never speak for the player.

### CRITICAL DIRECTIVES:
- The world state below is authoritative. Do not contradict it.
- DO NOT INVENT EVENTS. Only the events listed as recent have happened.
- DO NOT INVENT PEOPLE OR PLACES.
- Never state numbers behind anyone's feelings. Show feelings through behavior.
- Each person has topics they will not discuss. Never raise a topic listed under "avoid_topics"; if the player raises one, the person deflects.
- A person marked "avoiding_player" keeps conversations short and finds reasons to leave.

### Writing rules:
- The total response must be between 1 and 3 paragraphs.
- Each paragraph may contain at most 3 sentences.
- When a person speaks, start a new paragraph and use the format:
  Name: "Spoken line here."

### Events
Events listed under "recent_events" have just happened, newest first. Work the newest one into the scene as it unfolds right now. When "awaiting_choice" is not empty, end by making the open choice clear to the player without listing it as a menu.

### Narrator voice
%s
### Player
%s
`

// StatePromptTemplate carries the world description and the reduced world state.
const StatePromptTemplate = "The player is in this world: %s\n\nThe following JSON describes the current state.\n\nWorld State:\n```json\n%s\n```"

// EffectPrompt asks a background model to translate narration into a structured change.
// Its output is parsed with ParseEffect and applied like any event effect.
const EffectPrompt = `You are a backend reducer. Read the latest narration and the world state, then output ONLY a JSON object describing lasting changes the narration implies. No prose.

OUTPUT SCHEMA (strict, every field optional)
- set_flags: array of flag ids
- clear_flags: array of flag ids
- relationships: array of { npc, dimension, delta, reason }
  • dimension ∈ {"trust","affection","respect","fear","debt"}
  • delta is small: between -10 and 10
- memories: array of { npc, summary, importance, emotion, tags }

RULES
- Output {} when nothing lasting changed.
- Use canonical npc ids from the world state.
- Observing, mentioning or discussing is not a change.
`

// BuildSystemPrompt constructs the system prompt with narrator prompts and the player injected.
// narrator is optional.
func BuildSystemPrompt(narrator *scenario.Narrator, player string) string {
	narratorName := "the narrator"
	narratorPrompts := ""
	if narrator != nil {
		narratorPrompts = narrator.GetPromptsAsString()
		if narrator.Name != "" {
			narratorName = narrator.Name
		}
	}
	return fmt.Sprintf(BaseSystemPrompt, narratorName, narratorPrompts, player)
}

// ParseEffect decodes a change proposed by the narrative layer. Only flag, relationship
// and memory changes are accepted; anything else in the proposal is rejected.
func ParseEffect(data []byte) (*conditionals.Effect, error) {
	data = bytes.TrimSpace(stripFence(data))
	var proposal struct {
		SetFlags      []string                         `json:"set_flags"`
		ClearFlags    []string                         `json:"clear_flags"`
		Relationships []conditionals.RelationshipDelta `json:"relationships"`
		Memories      []conditionals.MemoryNote        `json:"memories"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&proposal); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}
	for _, r := range proposal.Relationships {
		if r.NPC == "" || r.Dimension == "" {
			return nil, fmt.Errorf("%w: relationship change needs npc and dimension", ErrInvalidProposal)
		}
	}
	for _, m := range proposal.Memories {
		if m.NPC == "" || strings.TrimSpace(m.Summary) == "" {
			return nil, fmt.Errorf("%w: memory needs npc and summary", ErrInvalidProposal)
		}
	}
	return &conditionals.Effect{
		SetFlags:      proposal.SetFlags,
		ClearFlags:    proposal.ClearFlags,
		Relationships: proposal.Relationships,
		Memories:      proposal.Memories,
	}, nil
}

// stripFence removes a markdown code fence around a JSON reply.
func stripFence(data []byte) []byte {
	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, "```") {
		return data
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(s)
}
