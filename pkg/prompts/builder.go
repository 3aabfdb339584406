package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/jwebster45206/world-engine/pkg/sim"
)

// Message roles understood by chat-style narrative models.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat-style prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Builder constructs the messages handed to the narrative layer using a fluent interface.
// It only reads world state; nothing it produces flows back into the world except
// through ParseEffect.
type Builder struct {
	context     *sim.NarrativeContext
	scenario    *scenario.Scenario
	userMessage string
	fired       []string
	messages    []Message
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{messages: make([]Message, 0)}
}

// WithContext sets the narrative context the prompt describes.
func (b *Builder) WithContext(nc sim.NarrativeContext) *Builder {
	b.context = &nc
	return b
}

// WithScenario sets the scenario, for its story and narrator.
func (b *Builder) WithScenario(s *scenario.Scenario) *Builder {
	b.scenario = s
	return b
}

// WithUserMessage sets the player's words for this turn.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// WithFired adds the names of events fired since the last narration.
func (b *Builder) WithFired(names ...string) *Builder {
	b.fired = append(b.fired, names...)
	return b
}

// Build constructs and returns the final message array.
func (b *Builder) Build() ([]Message, error) {
	if b.context == nil {
		return nil, fmt.Errorf("narrative context is required")
	}
	if b.scenario == nil {
		return nil, fmt.Errorf("scenario is required")
	}

	b.messages = make([]Message, 0, 4)

	// 1. System prompt
	b.messages = append(b.messages, Message{
		Role:    RoleSystem,
		Content: BuildSystemPrompt(b.scenario.Narrator, b.context.Player),
	})

	// 2. World state
	statePrompt, err := BuildContext(*b.context, b.scenario.Story)
	if err != nil {
		return nil, fmt.Errorf("error building state prompt: %w", err)
	}
	b.messages = append(b.messages, Message{Role: RoleSystem, Content: statePrompt})

	// 3. Fired events
	if len(b.fired) > 0 {
		b.messages = append(b.messages, Message{
			Role:    RoleSystem,
			Content: "Happening now: " + strings.Join(b.fired, "; ") + ".",
		})
	}

	// 4. Player message
	if b.userMessage != "" {
		b.messages = append(b.messages, Message{Role: RoleUser, Content: b.userMessage})
	}
	return b.messages, nil
}

// BuildContext renders a narrative context as the state prompt: the world's story plus
// the reduced state as JSON.
func BuildContext(nc sim.NarrativeContext, story string) (string, error) {
	data, err := json.MarshalIndent(ToPromptState(nc), "", "  ")
	if err != nil {
		return "", err
	}
	if story == "" {
		story = nc.World
	}
	return fmt.Sprintf(StatePromptTemplate, story, data), nil
}
