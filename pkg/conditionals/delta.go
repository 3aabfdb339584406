package conditionals

// Effect is a compact, structured set of changes to world state.
// Event effects, expiry consequences, decision outcomes and changes proposed by the
// narrative layer all travel as an Effect and are applied as a single unit.
type Effect struct {
	SetFlags      []string            `json:"set_flags,omitempty" yaml:"set_flags,omitempty"`
	ClearFlags    []string            `json:"clear_flags,omitempty" yaml:"clear_flags,omitempty"`
	SetVars       map[string]int      `json:"set_vars,omitempty" yaml:"set_vars,omitempty"`
	AddVars       map[string]int      `json:"add_vars,omitempty" yaml:"add_vars,omitempty"`
	Relationships []RelationshipDelta `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Jealousy      []JealousyEvent     `json:"jealousy,omitempty" yaml:"jealousy,omitempty"`
	Stimuli       []Stimulus          `json:"stimuli,omitempty" yaml:"stimuli,omitempty"`
	Memories      []MemoryNote        `json:"memories,omitempty" yaml:"memories,omitempty"`
	FollowUps     []FollowUp          `json:"follow_ups,omitempty" yaml:"follow_ups,omitempty"`
	Unlock        []string            `json:"unlock,omitempty" yaml:"unlock,omitempty"`
	MoveNPCs      []NPCMove           `json:"move_npcs,omitempty" yaml:"move_npcs,omitempty"`
	Harm          []Harm              `json:"harm,omitempty" yaml:"harm,omitempty"`
	Clues         []string            `json:"clues,omitempty" yaml:"clues,omitempty"`
}

// RelationshipDelta changes one dimension of an NPC's relationship to the player.
type RelationshipDelta struct {
	NPC       string  `json:"npc" yaml:"npc"`
	Dimension string  `json:"dimension" yaml:"dimension"` // trust, affection, respect, fear, debt
	Delta     float64 `json:"delta" yaml:"delta"`
	Reason    string  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// JealousyEvent feeds a named trigger into an NPC's jealousy machine.
type JealousyEvent struct {
	NPC     string `json:"npc" yaml:"npc"`
	Trigger string `json:"trigger" yaml:"trigger"` // e.g. "rival_praised", "player_concern"
}

// Stimulus nudges an NPC's mood through the emotion transition table.
type Stimulus struct {
	NPC      string `json:"npc" yaml:"npc"`
	Stimulus string `json:"stimulus" yaml:"stimulus"` // e.g. "insulted", "gift", "threatened"
}

// MemoryNote records a memory for an NPC.
type MemoryNote struct {
	NPC        string   `json:"npc" yaml:"npc"`
	Summary    string   `json:"summary" yaml:"summary"`
	Importance int      `json:"importance,omitempty" yaml:"importance,omitempty"`
	Emotion    float64  `json:"emotion,omitempty" yaml:"emotion,omitempty"` // signed emotional impact in [-10, 10]
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// FollowUp schedules another event to become due after a delay.
type FollowUp struct {
	Event     string `json:"event" yaml:"event"`
	AfterDays int    `json:"after_days,omitempty" yaml:"after_days,omitempty"`
}

// NPCMove relocates an NPC immediately.
type NPCMove struct {
	NPC      string `json:"npc" yaml:"npc"`
	Location string `json:"location" yaml:"location"`
}

// Harm reduces an NPC's hit points; reaching zero is death.
type Harm struct {
	NPC    string `json:"npc" yaml:"npc"`
	Amount int    `json:"amount" yaml:"amount"`
}

// IsEmpty reports whether the effect changes nothing.
func (e Effect) IsEmpty() bool {
	return len(e.SetFlags) == 0 && len(e.ClearFlags) == 0 &&
		len(e.SetVars) == 0 && len(e.AddVars) == 0 &&
		len(e.Relationships) == 0 && len(e.Jealousy) == 0 &&
		len(e.Stimuli) == 0 && len(e.Memories) == 0 &&
		len(e.FollowUps) == 0 && len(e.Unlock) == 0 &&
		len(e.MoveNPCs) == 0 && len(e.Harm) == 0 && len(e.Clues) == 0
}

// Merge returns a followed by b. Variable assignments in b win.
func Merge(a, b Effect) Effect {
	out := Effect{
		SetFlags:      append(append([]string(nil), a.SetFlags...), b.SetFlags...),
		ClearFlags:    append(append([]string(nil), a.ClearFlags...), b.ClearFlags...),
		Relationships: append(append([]RelationshipDelta(nil), a.Relationships...), b.Relationships...),
		Jealousy:      append(append([]JealousyEvent(nil), a.Jealousy...), b.Jealousy...),
		Stimuli:       append(append([]Stimulus(nil), a.Stimuli...), b.Stimuli...),
		Memories:      append(append([]MemoryNote(nil), a.Memories...), b.Memories...),
		FollowUps:     append(append([]FollowUp(nil), a.FollowUps...), b.FollowUps...),
		Unlock:        append(append([]string(nil), a.Unlock...), b.Unlock...),
		MoveNPCs:      append(append([]NPCMove(nil), a.MoveNPCs...), b.MoveNPCs...),
		Harm:          append(append([]Harm(nil), a.Harm...), b.Harm...),
		Clues:         append(append([]string(nil), a.Clues...), b.Clues...),
	}
	if len(a.SetVars)+len(b.SetVars) > 0 {
		out.SetVars = make(map[string]int, len(a.SetVars)+len(b.SetVars))
		for k, v := range a.SetVars {
			out.SetVars[k] = v
		}
		for k, v := range b.SetVars {
			out.SetVars[k] = v
		}
	}
	if len(a.AddVars)+len(b.AddVars) > 0 {
		out.AddVars = make(map[string]int, len(a.AddVars)+len(b.AddVars))
		for k, v := range a.AddVars {
			out.AddVars[k] += v
		}
		for k, v := range b.AddVars {
			out.AddVars[k] += v
		}
	}
	return out
}

// NPCs returns every NPC id the effect references, in order of first appearance.
func (e Effect) NPCs() []string {
	var ids []string
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, d := range e.Relationships {
		add(d.NPC)
	}
	for _, j := range e.Jealousy {
		add(j.NPC)
	}
	for _, s := range e.Stimuli {
		add(s.NPC)
	}
	for _, m := range e.Memories {
		add(m.NPC)
	}
	for _, m := range e.MoveNPCs {
		add(m.NPC)
	}
	for _, h := range e.Harm {
		add(h.NPC)
	}
	return ids
}
