package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/internal/services/events"
	"github.com/jwebster45206/world-engine/internal/services/queue"
	queuePkg "github.com/jwebster45206/world-engine/pkg/queue"
	"github.com/redis/go-redis/v9"
)

const (
	workerTimeout = 5 * time.Second
	lockTTL       = 30 * time.Second
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Worker processes requests from the global queue, one world at a time
type Worker struct {
	id          string
	queue       *queue.IntentQueue
	processor   *WorldProcessor
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(requests *queue.IntentQueue, processor *WorldProcessor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       requests,
		processor:   processor,
		broadcaster: events.NewBroadcaster(redisClient, log),
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the worker's identifier, also used as the lock owner.
func (w *Worker) ID() string { return w.id }

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if _, err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				select {
				case <-w.ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it. It reports
// whether a request was taken off the queue.
func (w *Worker) processNextRequest() (bool, error) {
	// Block waiting for next request (timeout after 5 seconds to check for shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout+time.Second)
	defer cancel()

	req, err := w.queue.BlockingDequeue(ctx, workerTimeout)
	if err != nil {
		if w.ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to dequeue request: %w", err)
	}

	if req == nil {
		// Queue is empty or timeout occurred - this is normal
		return false, nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"type", req.Type,
		"world_id", req.GameStateID.String(),
	)

	// Try to acquire world lock
	locked, err := w.acquireWorldLock(req.GameStateID)
	if err != nil {
		return true, fmt.Errorf("failed to acquire world lock: %w", err)
	}
	if !locked {
		// Another worker is stepping this world
		// Re-queue at the end and try next request
		w.log.Info("World already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"world_id", req.GameStateID.String(),
		)
		if err := w.queue.Enqueue(w.ctx, req); err != nil {
			return true, fmt.Errorf("failed to re-queue request: %w", err)
		}
		return true, nil
	}

	// Process the request, blocking the worker until done
	defer w.releaseWorldLock(req.GameStateID)
	return true, w.processRequest(req)
}

func lockKey(worldID uuid.UUID) string {
	return fmt.Sprintf("world-lock:%s", worldID.String())
}

// acquireWorldLock attempts to acquire a lock for a world
// Returns true if lock was acquired, false if already locked
func (w *Worker) acquireWorldLock(worldID uuid.UUID) (bool, error) {
	return w.redisClient.SetNX(w.ctx, lockKey(worldID), w.id, lockTTL).Result()
}

// releaseWorldLock releases the lock for a world, only if we own it
func (w *Worker) releaseWorldLock(worldID uuid.UUID) {
	if err := releaseScript.Run(w.ctx, w.redisClient, []string{lockKey(worldID)}, w.id).Err(); err != nil {
		w.log.Error("Failed to release world lock", "error", err, "world_id", worldID.String())
	}
}

// processRequest processes a single request using the WorldProcessor
func (w *Worker) processRequest(req *queuePkg.Request) error {
	start := time.Now()

	if err := w.broadcaster.PublishRequestProcessing(w.ctx, req.GameStateID, req.RequestID, string(req.Type)); err != nil {
		w.log.Error("Failed to publish processing event", "error", err)
		// Don't fail the request just because event publishing failed
	}

	out, err := w.processor.Process(w.ctx, req)
	if err != nil {
		w.log.Error("Failed to process request",
			"error", err,
			"request_id", req.RequestID,
			"world_id", req.GameStateID.String(),
		)
		if pubErr := w.broadcaster.PublishRequestFailed(w.ctx, req.GameStateID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return fmt.Errorf("failed to process %s request: %w", req.Type, err)
	}

	step := out.Result.Step
	for _, f := range step.Fired {
		if err := w.broadcaster.PublishEventFired(w.ctx, req.GameStateID, req.RequestID, f); err != nil {
			w.log.Error("Failed to publish fired event", "error", err)
		}
	}
	if step.To != step.From {
		location := ""
		if out.GameState.Snapshot != nil {
			location = out.GameState.Snapshot.PlayerLocation
		}
		if err := w.broadcaster.PublishTimeAdvanced(w.ctx, req.GameStateID, step.From, step.To, location); err != nil {
			w.log.Error("Failed to publish time event", "error", err)
		}
	}

	w.log.Info("Request processed successfully",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	result := map[string]any{
		"tick":        int64(step.To),
		"fired":       len(step.Fired),
		"decisions":   len(step.Decisions),
		"version":     out.GameState.Version,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if out.Result.Long != nil {
		result["completed_days"] = out.Result.Long.CompletedDays
	}
	if err := w.broadcaster.PublishRequestCompleted(w.ctx, req.GameStateID, req.RequestID, result); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}
	return nil
}
