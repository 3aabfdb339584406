package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/state"
	"github.com/redis/go-redis/v9"
)

// FiredQueue holds each world's fired events until the narrative layer takes them
type FiredQueue struct {
	client *Client
}

var _ state.FiredQueue = (*FiredQueue)(nil)

func NewFiredQueue(client *Client) *FiredQueue {
	return &FiredQueue{client: client}
}

func firedKey(worldID uuid.UUID) string {
	return fmt.Sprintf("fired-events:%s", worldID.String())
}

// Enqueue appends fired events to the end of a world's queue
func (q *FiredQueue) Enqueue(ctx context.Context, worldID uuid.UUID, fired ...event.Fired) error {
	if len(fired) == 0 {
		return nil
	}
	values := make([]any, 0, len(fired))
	for _, f := range fired {
		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to serialize fired event %s: %w", f.Event, err)
		}
		values = append(values, data)
	}
	if err := q.client.rdb.RPush(ctx, firedKey(worldID), values...).Err(); err != nil {
		q.client.logger.Error("Failed to enqueue fired events",
			"error", err,
			"world_id", worldID)
		return fmt.Errorf("failed to enqueue fired events: %w", err)
	}
	q.client.logger.Debug("Enqueued fired events", "world_id", worldID, "count", len(fired))
	return nil
}

// Dequeue removes and returns every fired event queued for a world
func (q *FiredQueue) Dequeue(ctx context.Context, worldID uuid.UUID) ([]event.Fired, error) {
	key := firedKey(worldID)
	pipe := q.client.rdb.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to dequeue fired events: %w", err)
	}
	return decodeFired(items.Val())
}

// Peek returns every fired event queued for a world without removing them
func (q *FiredQueue) Peek(ctx context.Context, worldID uuid.UUID) ([]event.Fired, error) {
	items, err := q.client.rdb.LRange(ctx, firedKey(worldID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to peek fired events: %w", err)
	}
	return decodeFired(items)
}

// Clear removes all fired events for a world
func (q *FiredQueue) Clear(ctx context.Context, worldID uuid.UUID) error {
	if err := q.client.rdb.Del(ctx, firedKey(worldID)).Err(); err != nil {
		return fmt.Errorf("failed to clear fired events: %w", err)
	}
	return nil
}

// Depth returns the number of fired events queued for a world
func (q *FiredQueue) Depth(ctx context.Context, worldID uuid.UUID) (int, error) {
	count, err := q.client.rdb.LLen(ctx, firedKey(worldID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}

func decodeFired(items []string) ([]event.Fired, error) {
	out := make([]event.Fired, 0, len(items))
	for _, item := range items {
		var f event.Fired
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			return nil, fmt.Errorf("failed to parse fired event: %w", err)
		}
		out = append(out, f)
	}
	return out, nil
}
