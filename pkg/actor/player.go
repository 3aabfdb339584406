package actor

import (
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/d20"
)

// PlayerSpec is the serializable specification for the player character
type PlayerSpec struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Pronouns    string `json:"pronouns,omitempty" yaml:"pronouns,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Background  string `json:"background,omitempty" yaml:"background,omitempty"`
	Start       string `json:"start" yaml:"start"` // starting location
	Stats       Stats  `json:"stats,omitempty" yaml:"stats,omitempty"`
	MaxHP       int    `json:"max_hp,omitempty" yaml:"max_hp,omitempty"`
	AC          int    `json:"ac,omitempty" yaml:"ac,omitempty"`
}

// Player is the runtime representation of the player character
type Player struct {
	Spec     *PlayerSpec
	Actor    *d20.Actor // built at runtime from PlayerSpec
	Location string
}

// NewPlayerFromSpec creates the player at the starting location.
func NewPlayerFromSpec(spec *PlayerSpec) (*Player, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	id := spec.ID
	if id == "" {
		id = "player"
	}
	maxHP := spec.MaxHP
	if maxHP <= 0 {
		maxHP = DefaultMaxHP
	}
	ac := spec.AC
	if ac <= 0 {
		ac = DefaultAC
	}
	actor, err := d20.NewActor(id).
		WithHP(maxHP).
		WithAC(ac).
		WithAttributes(spec.Stats.ToAttributes()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}
	return &Player{Spec: spec, Actor: actor, Location: spec.Start}, nil
}

// Describe is the one-line identity handed to the narrative layer.
func (p *Player) Describe() string {
	if p == nil || p.Spec == nil {
		return ""
	}
	s := p.Spec.Name
	if s == "" {
		s = "the player"
	}
	if p.Spec.Pronouns != "" {
		s += fmt.Sprintf(" (%s)", p.Spec.Pronouns)
	}
	if p.Spec.Description != "" {
		s += ". " + p.Spec.Description
	}
	return s
}

// MarshalJSON renders the spec with live vitals and location.
func (p *Player) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	type playerResponse struct {
		ID       string `json:"id"`
		Name     string `json:"name,omitempty"`
		Pronouns string `json:"pronouns,omitempty"`
		Location string `json:"location"`
		HP       int    `json:"hp"`
		MaxHP    int    `json:"max_hp"`
		AC       int    `json:"ac"`
	}
	return json.Marshal(playerResponse{
		ID:       p.Spec.ID,
		Name:     p.Spec.Name,
		Pronouns: p.Spec.Pronouns,
		Location: p.Location,
		HP:       p.Actor.HP(),
		MaxHP:    p.Actor.MaxHP(),
		AC:       p.Actor.AC(),
	})
}
