package scenario

import "strings"

// Narrator defines the voice the narrative layer is asked to use for a world.
type Narrator struct {
	ID          string   `json:"id" yaml:"id"`                                       // e.g. "classic", "gothic"
	Name        string   `json:"name" yaml:"name"`                                   // display name
	Description string   `json:"description,omitempty" yaml:"description,omitempty"` // not used in prompts
	Prompts     []string `json:"prompts" yaml:"prompts"`                             // the actual narrator instructions
}

// GetPromptsAsString returns all narrator prompts as a bulleted list.
func (n *Narrator) GetPromptsAsString() string {
	if n == nil || len(n.Prompts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range n.Prompts {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}
