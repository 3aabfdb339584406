// Package state holds the persisted envelope of a running world.
package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/sim"
)

var ErrNoSnapshot = errors.New("game state has no snapshot")

// GameState is one running world as stored between requests: the scenario it was built
// from plus the world's runtime snapshot.
type GameState struct {
	ID        uuid.UUID     `json:"id"`               // Unique ID per world
	Scenario  string        `json:"scenario"`         // scenario file name
	World     string        `json:"world"`            // world name, for listings
	Snapshot  *sim.Snapshot `json:"snapshot"`         // runtime state
	Turns     int           `json:"turns"`            // intents applied so far
	Failed    string        `json:"failed,omitempty"` // last processing error
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Version   int           `json:"version"` // bumped on every capture
}

// NewGameState captures a freshly built world under a new id.
func NewGameState(scenarioFile string, w *sim.World) (*GameState, error) {
	now := time.Now().UTC()
	gs := &GameState{
		ID:        uuid.New(),
		Scenario:  scenarioFile,
		World:     w.Name(),
		CreatedAt: now,
	}
	if err := gs.Capture(w); err != nil {
		return nil, err
	}
	return gs, nil
}

// Capture replaces the stored snapshot with the world's current state.
func (gs *GameState) Capture(w *sim.World) error {
	snap, err := w.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot world: %w", err)
	}
	gs.Snapshot = snap
	gs.UpdatedAt = time.Now().UTC()
	gs.Version++
	return nil
}

// Open rebuilds the live world from its definition and the stored snapshot.
func (gs *GameState) Open(def *sim.Definition, opts sim.Options) (*sim.World, error) {
	if gs.Snapshot == nil {
		return nil, ErrNoSnapshot
	}
	w, err := sim.NewWorld(def, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build world %s: %w", gs.World, err)
	}
	if err := w.Restore(gs.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to restore world %s: %w", gs.ID, err)
	}
	return w, nil
}

// Tick returns the game time the stored snapshot was taken at.
func (gs *GameState) Tick() clock.Tick {
	if gs.Snapshot == nil {
		return 0
	}
	return gs.Snapshot.Tick
}
