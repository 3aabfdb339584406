package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeRequestQueued     EventType = "request.queued"
	EventTypeRequestProcessing EventType = "request.processing"
	EventTypeRequestCompleted  EventType = "request.completed"
	EventTypeRequestFailed     EventType = "request.failed"
	EventTypeEventFired        EventType = "world.event_fired"
	EventTypeTimeAdvanced      EventType = "world.time_advanced"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	WorldID   string         `json:"world_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel is the pub/sub channel carrying a world's events.
func Channel(worldID uuid.UUID) string {
	return fmt.Sprintf("world-events:%s", worldID.String())
}

// PublishRequestQueued publishes a request.queued event
func (b *Broadcaster) PublishRequestQueued(ctx context.Context, worldID uuid.UUID, requestID string, requestType string) error {
	return b.publishToWorld(ctx, worldID, Event{
		Type:      EventTypeRequestQueued,
		RequestID: requestID,
		WorldID:   worldID.String(),
		Data: map[string]any{
			"status": "queued",
			"type":   requestType,
		},
	})
}

// PublishRequestProcessing publishes a request.processing event
func (b *Broadcaster) PublishRequestProcessing(ctx context.Context, worldID uuid.UUID, requestID string, requestType string) error {
	return b.publishToWorld(ctx, worldID, Event{
		Type:      EventTypeRequestProcessing,
		RequestID: requestID,
		WorldID:   worldID.String(),
		Data: map[string]any{
			"status": "processing",
			"type":   requestType,
		},
	})
}

// PublishRequestCompleted publishes a request.completed event
func (b *Broadcaster) PublishRequestCompleted(ctx context.Context, worldID uuid.UUID, requestID string, result map[string]any) error {
	return b.publishToWorld(ctx, worldID, Event{
		Type:      EventTypeRequestCompleted,
		RequestID: requestID,
		WorldID:   worldID.String(),
		Data: map[string]any{
			"status": "completed",
			"result": result,
		},
	})
}

// PublishRequestFailed publishes a request.failed event
func (b *Broadcaster) PublishRequestFailed(ctx context.Context, worldID uuid.UUID, requestID string, errorMsg string) error {
	return b.publishToWorld(ctx, worldID, Event{
		Type:      EventTypeRequestFailed,
		RequestID: requestID,
		WorldID:   worldID.String(),
		Data: map[string]any{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

// PublishEventFired publishes one world.event_fired event per fired event
func (b *Broadcaster) PublishEventFired(ctx context.Context, worldID uuid.UUID, requestID string, f event.Fired) error {
	return b.publishToWorld(ctx, worldID, Event{
		Type:      EventTypeEventFired,
		RequestID: requestID,
		WorldID:   worldID.String(),
		Data: map[string]any{
			"event":     f.Event,
			"name":      f.Name,
			"tier":      f.Tier,
			"at":        int64(f.At),
			"interrupt": f.Interrupt.CanInterrupt,
		},
	})
}

// PublishTimeAdvanced publishes a world.time_advanced event
func (b *Broadcaster) PublishTimeAdvanced(ctx context.Context, worldID uuid.UUID, from, to clock.Tick, location string) error {
	return b.publishToWorld(ctx, worldID, Event{
		Type:    EventTypeTimeAdvanced,
		WorldID: worldID.String(),
		Data: map[string]any{
			"from":     int64(from),
			"to":       int64(to),
			"time":     clock.FromAbsolute(to).Display(),
			"location": location,
		},
	})
}

// publishToWorld publishes an event to the world-specific channel
func (b *Broadcaster) publishToWorld(ctx context.Context, worldID uuid.UUID, event Event) error {
	channel := Channel(worldID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)

	return nil
}
