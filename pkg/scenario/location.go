package scenario

// Location represents a place in the world and the travel time to its neighbours.
type Location struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Exits       map[string]int `json:"exits,omitempty" yaml:"exits,omitempty"`         // location id -> travel time in ticks
	IsImportant bool           `json:"important,omitempty" yaml:"important,omitempty"` // always listed to the narrative layer
}
