package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwebster45206/world-engine/pkg/queue"
	"github.com/redis/go-redis/v9"
)

// requestsKey is the global list every worker pops from.
const requestsKey = "requests"

// IntentQueue is the global queue of intent and advance requests across all worlds
type IntentQueue struct {
	client *Client
}

func NewIntentQueue(client *Client) *IntentQueue {
	return &IntentQueue{client: client}
}

// Enqueue adds a request to the end of the global queue
func (q *IntentQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}
	if err := q.client.rdb.RPush(ctx, requestsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	q.client.logger.Debug("Enqueued request",
		"request_id", req.RequestID,
		"type", req.Type,
		"world_id", req.GameStateID)
	return nil
}

// Dequeue removes and returns the next request from the global queue
// Returns nil if queue is empty
func (q *IntentQueue) Dequeue(ctx context.Context) (*queue.Request, error) {
	result, err := q.client.rdb.LPop(ctx, requestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}
	return parseRequest(result)
}

// BlockingDequeue waits up to timeout for a request. It returns nil when the timeout
// passes with nothing queued; 0 waits forever.
func (q *IntentQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, requestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}
	return parseRequest(result[1])
}

// Depth returns the number of requests in the global queue
func (q *IntentQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, requestsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request queue depth: %w", err)
	}
	return int(count), nil
}

func parseRequest(data string) (*queue.Request, error) {
	req, err := queue.FromJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}
