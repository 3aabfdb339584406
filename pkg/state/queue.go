package state

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/event"
)

// FiredQueue holds the events a world has fired until the narrative layer consumes them
type FiredQueue interface {
	// Enqueue appends fired events for a world, oldest first
	Enqueue(ctx context.Context, worldID uuid.UUID, fired ...event.Fired) error

	// Peek returns every queued event for a world without removing them
	Peek(ctx context.Context, worldID uuid.UUID) ([]event.Fired, error)

	// Clear removes all queued events for a world
	Clear(ctx context.Context, worldID uuid.UUID) error
}
